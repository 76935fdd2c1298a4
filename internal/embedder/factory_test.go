package embedder

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// clearEmbedderEnv blanks every variable SettingsFromEnv reads.
func clearEmbedderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS",
		"EMBEDDING_API_KEY", "EMBEDDING_ENDPOINT", "OLLAMA_HOST",
		"OPENAI_API_KEY", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT",
		"AZURE_OPENAI_API_VERSION", "AZURE_OPENAI_EMBEDDING_DEPLOYMENT",
	} {
		t.Setenv(k, "")
	}
}

func TestSettingsFromEnv_DefaultsToHash(t *testing.T) {
	clearEmbedderEnv(t)

	e, s, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if s.Backend != BackendHash || s.Dimensions != DefaultHashDimensions {
		t.Errorf("settings: %+v", s)
	}
	if _, ok := e.(*HashEmbedder); !ok {
		t.Errorf("embedder type: %T", e)
	}
}

func TestSettingsFromEnv_Ollama(t *testing.T) {
	clearEmbedderEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "Ollama")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")

	s := SettingsFromEnv()
	if s.Backend != BackendOllama || s.Endpoint != "http://gpu:11434" || s.Model != defaultOllamaModel {
		t.Errorf("settings: %+v", s)
	}
	if s.Dimensions != 768 {
		t.Errorf("dimensions: got %d, want 768", s.Dimensions)
	}

	t.Setenv("EMBEDDING_ENDPOINT", "http://override:1")
	t.Setenv("EMBEDDING_DIMENSIONS", "1024")
	s = SettingsFromEnv()
	if s.Endpoint != "http://override:1" || s.Dimensions != 1024 {
		t.Errorf("overrides not applied: %+v", s)
	}
}

func TestSettingsFromEnv_OpenAIRequiresKey(t *testing.T) {
	clearEmbedderEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "openai")

	if _, _, err := NewFromEnv(); err == nil {
		t.Fatal("want error without api key")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	e, s, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if s.Endpoint != defaultOpenAIBaseURL || s.Dimensions != 1536 {
		t.Errorf("settings: %+v", s)
	}
	if oe, ok := e.(*OpenAIEmbedder); !ok || oe.Name() != "openai" {
		t.Errorf("embedder: %T", e)
	}
}

func TestSettingsFromEnv_Azure(t *testing.T) {
	clearEmbedderEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "azure")
	t.Setenv("AZURE_OPENAI_API_KEY", "k")

	if err := SettingsFromEnv().Validate(); err == nil || !strings.Contains(err.Error(), "ENDPOINT") {
		t.Fatalf("want missing endpoint error, got %v", err)
	}

	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://res.openai.azure.com/")
	e, _, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	oe := e.(*OpenAIEmbedder)
	if oe.baseURL != "https://res.openai.azure.com/openai" || !oe.azure {
		t.Errorf("azure embedder: base=%q azure=%v", oe.baseURL, oe.azure)
	}
}

func TestSettingsFromEnv_UnknownBackend(t *testing.T) {
	clearEmbedderEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "bedrock")
	if _, _, err := NewFromEnv(); err == nil {
		t.Error("want error for unknown backend")
	}
}

func TestValidateForStore_Warnings(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	s := Settings{Backend: BackendOllama, Model: "llama3:8b", Dimensions: 768}
	if err := ValidateForStore(log, s, "sqlite"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(buf.String(), "looks like a chat model") {
		t.Errorf("missing chat model warning: %s", buf.String())
	}

	buf.Reset()
	if err := ValidateForStore(log, Settings{Backend: BackendHash, Dimensions: 8}, "qdrant"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(buf.String(), "lexical") {
		t.Errorf("missing hash/qdrant warning: %s", buf.String())
	}

	if err := ValidateForStore(log, Settings{Backend: BackendHash}, "sqlite"); err == nil {
		t.Error("want error for zero dimensions")
	}
}
