package embedder

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/54b3r/ragdesk/internal/rag"
)

// Backend names accepted in EMBEDDING_PROVIDER.
const (
	BackendHash   = "hash"
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
	BackendAzure  = "azure"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536

	defaultOllamaHost      = "http://localhost:11434"
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultAzureAPIVersion = "2025-04-01-preview"
)

// Settings is the resolved embedder configuration.
type Settings struct {
	// Backend is one of hash, ollama, openai or azure.
	Backend string
	// Model is the embedding model (or Azure deployment) name.
	Model string
	// Dimensions is the vector length the store must be created with.
	Dimensions int
	// APIKey authenticates against openai or azure.
	APIKey string
	// Endpoint is the backend base URL.
	Endpoint string
	// APIVersion is the Azure OpenAI API version.
	APIVersion string
}

// DefaultDimensions returns the default embedding vector size for backend.
// Callers that pre-configure a vector store (e.g. Qdrant collection creation)
// should use this rather than hardcoding a value.
func DefaultDimensions(backend string) int {
	switch backend {
	case BackendHash, "":
		return DefaultHashDimensions
	case BackendOllama:
		return defaultOllamaDimensions
	default:
		return defaultOpenAIDimensions
	}
}

// SettingsFromEnv resolves embedder settings from the environment.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER (default: hash)
//  2. EMBEDDING_MODEL overrides the backend's default model
//  3. EMBEDDING_API_KEY overrides OPENAI_API_KEY / AZURE_OPENAI_API_KEY
//  4. EMBEDDING_ENDPOINT overrides OLLAMA_HOST / AZURE_OPENAI_ENDPOINT
//  5. EMBEDDING_DIMENSIONS overrides the backend's default dimensions
func SettingsFromEnv() Settings {
	s := Settings{Backend: strings.ToLower(getEnvOrDefault("EMBEDDING_PROVIDER", BackendHash))}

	switch s.Backend {
	case BackendOllama:
		s.Model = getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel)
		s.Endpoint = firstNonEmpty(getEnv("EMBEDDING_ENDPOINT"), getEnv("OLLAMA_HOST"), defaultOllamaHost)
	case BackendOpenAI:
		s.Model = getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		s.APIKey = firstNonEmpty(getEnv("EMBEDDING_API_KEY"), getEnv("OPENAI_API_KEY"))
		s.Endpoint = firstNonEmpty(getEnv("EMBEDDING_ENDPOINT"), defaultOpenAIBaseURL)
	case BackendAzure:
		s.Model = firstNonEmpty(getEnv("EMBEDDING_MODEL"), getEnv("AZURE_OPENAI_EMBEDDING_DEPLOYMENT"), defaultOpenAIModel)
		s.APIKey = firstNonEmpty(getEnv("EMBEDDING_API_KEY"), getEnv("AZURE_OPENAI_API_KEY"))
		s.Endpoint = firstNonEmpty(getEnv("EMBEDDING_ENDPOINT"), getEnv("AZURE_OPENAI_ENDPOINT"))
		s.APIVersion = getEnvOrDefault("AZURE_OPENAI_API_VERSION", defaultAzureAPIVersion)
	}
	s.Dimensions = getEnvInt("EMBEDDING_DIMENSIONS", DefaultDimensions(s.Backend))
	return s
}

// Validate reports configuration that cannot work, such as a remote backend
// without credentials.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendHash, BackendOllama:
	case BackendOpenAI:
		if s.APIKey == "" {
			return fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
	case BackendAzure:
		if s.APIKey == "" {
			return fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if s.Endpoint == "" {
			return fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
	default:
		return fmt.Errorf("embedder: unknown backend %q (valid values: hash, ollama, openai, azure)", s.Backend)
	}
	if s.Dimensions <= 0 {
		return fmt.Errorf("embedder: dimensions must be positive, got %d", s.Dimensions)
	}
	return nil
}

// New constructs the embedder described by s.
func New(s Settings) (rag.Embedder, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	switch s.Backend {
	case BackendOllama:
		return NewOllamaEmbedder(OllamaConfig{Host: s.Endpoint, Model: s.Model}), nil
	case BackendOpenAI:
		return NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:    s.Endpoint,
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		}), nil
	case BackendAzure:
		return NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:    strings.TrimRight(s.Endpoint, "/") + "/openai",
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: s.Dimensions,
			Azure:      true,
			APIVersion: s.APIVersion,
		}), nil
	default:
		return NewHashEmbedder(s.Dimensions), nil
	}
}

// NewFromEnv resolves settings from the environment and constructs the
// embedder. The settings are returned so callers can size the vector store.
func NewFromEnv() (rag.Embedder, Settings, error) {
	s := SettingsFromEnv()
	e, err := New(s)
	if err != nil {
		return nil, s, err
	}
	return e, s, nil
}

func getEnv(key string) string {
	return os.Getenv(key)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
