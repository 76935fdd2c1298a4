package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Vector store backends accepted by VECTOR_STORE.
const (
	VectorStoreSQLite = "sqlite"
	VectorStoreQdrant = "qdrant"
)

const (
	defaultDataDir        = "db"
	defaultCollection     = "documents"
	defaultContextSize    = 5
	defaultMaxContextSize = 50
	defaultMaxUploadBytes = 10 << 20
	defaultQdrantHost     = "localhost"
	defaultQdrantPort     = 6334
)

// Runtime holds the typed settings resolved from the environment after
// [Load] has applied any YAML file.
type Runtime struct {
	// VectorStore is sqlite or qdrant.
	VectorStore string
	// DataDir holds the SQLite database file.
	DataDir string
	// Collection is the document collection (SQLite namespace or Qdrant collection).
	Collection string

	// QdrantHost, QdrantPort, QdrantAPIKey and QdrantTLS configure the Qdrant client.
	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	QdrantTLS    bool

	// ContextSize is the default number of documents retrieved per chat turn.
	ContextSize int
	// MaxContextSize caps a requested context size.
	MaxContextSize int
	// MaxContextTokens bounds the joined context; zero means unlimited.
	MaxContextTokens int
	// MaxHistoryTokens bounds the conversation handed to the responder; zero means unlimited.
	MaxHistoryTokens int

	// Host and Port are the HTTP bind address. Zero values defer to the server defaults.
	Host string
	Port int
	// MaxUploadBytes caps POST /upload bodies.
	MaxUploadBytes int64
	// CORSOrigins lists allowed origins; empty allows any origin.
	CORSOrigins []string
	// RateLimit and RateBurst tune the per-IP limiter; zero defers to the server defaults.
	RateLimit float64
	RateBurst int
}

// RuntimeFromEnv resolves [Runtime] from environment variables, applying
// defaults for anything unset. Malformed numbers and unknown backends are errors.
func RuntimeFromEnv() (Runtime, error) {
	rt := Runtime{
		VectorStore:  strings.ToLower(envOr("VECTOR_STORE", VectorStoreSQLite)),
		DataDir:      envOr("RAGDESK_DATA_DIR", defaultDataDir),
		Collection:   envOr("RAGDESK_COLLECTION", defaultCollection),
		QdrantHost:   envOr("QDRANT_HOST", defaultQdrantHost),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),
		Host:         os.Getenv("RAGDESK_HOST"),
		CORSOrigins:  splitList(os.Getenv("RAGDESK_CORS_ORIGINS")),
	}

	switch rt.VectorStore {
	case VectorStoreSQLite, VectorStoreQdrant:
	default:
		return Runtime{}, fmt.Errorf("config: VECTOR_STORE %q is not supported (want sqlite or qdrant)", rt.VectorStore)
	}

	var err error
	if rt.QdrantPort, err = envInt("QDRANT_PORT", defaultQdrantPort); err != nil {
		return Runtime{}, err
	}
	if rt.QdrantTLS, err = envBool("QDRANT_TLS"); err != nil {
		return Runtime{}, err
	}
	if rt.ContextSize, err = envInt("RAGDESK_CONTEXT_SIZE", defaultContextSize); err != nil {
		return Runtime{}, err
	}
	if rt.MaxContextSize, err = envInt("RAGDESK_MAX_CONTEXT_SIZE", defaultMaxContextSize); err != nil {
		return Runtime{}, err
	}
	if rt.MaxContextTokens, err = envInt("RAGDESK_MAX_CONTEXT_TOKENS", 0); err != nil {
		return Runtime{}, err
	}
	if rt.MaxHistoryTokens, err = envInt("RAGDESK_MAX_HISTORY_TOKENS", 0); err != nil {
		return Runtime{}, err
	}
	if rt.Port, err = envInt("RAGDESK_PORT", 0); err != nil {
		return Runtime{}, err
	}
	if rt.RateBurst, err = envInt("RAGDESK_RATE_BURST", 0); err != nil {
		return Runtime{}, err
	}
	if rt.RateLimit, err = envFloat("RAGDESK_RATE_LIMIT"); err != nil {
		return Runtime{}, err
	}
	upload, err := envInt("RAGDESK_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return Runtime{}, err
	}
	rt.MaxUploadBytes = int64(upload)

	if rt.ContextSize <= 0 {
		return Runtime{}, fmt.Errorf("config: RAGDESK_CONTEXT_SIZE must be positive, got %d", rt.ContextSize)
	}
	if rt.MaxContextSize < rt.ContextSize {
		return Runtime{}, fmt.Errorf("config: RAGDESK_MAX_CONTEXT_SIZE (%d) is below RAGDESK_CONTEXT_SIZE (%d)", rt.MaxContextSize, rt.ContextSize)
	}
	if rt.MaxContextTokens < 0 {
		return Runtime{}, fmt.Errorf("config: RAGDESK_MAX_CONTEXT_TOKENS must not be negative, got %d", rt.MaxContextTokens)
	}
	if rt.MaxHistoryTokens < 0 {
		return Runtime{}, fmt.Errorf("config: RAGDESK_MAX_HISTORY_TOKENS must not be negative, got %d", rt.MaxHistoryTokens)
	}
	if rt.MaxUploadBytes <= 0 {
		return Runtime{}, fmt.Errorf("config: RAGDESK_MAX_UPLOAD_BYTES must be positive, got %d", rt.MaxUploadBytes)
	}

	return rt, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a number: %w", key, v, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("config: %s must not be negative, got %v", key, f)
	}
	return f, nil
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("config: %s=%q is not a boolean: %w", key, v, err)
	}
	return b, nil
}

// splitList splits a comma-separated value, dropping blanks. "*" alone
// yields nil, which callers treat as allow-all.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "*" {
			continue
		}
		out = append(out, part)
	}
	return out
}
