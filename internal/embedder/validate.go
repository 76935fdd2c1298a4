package embedder

import (
	"log/slog"
	"strings"
)

// knownChatModelPrefixes are name fragments of chat/completion models, which
// are not suitable for embedding.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
	"solar",
	"vicuna",
	"falcon",
	"yi-",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// ValidateForStore is a pre-flight check run before the embedder and the
// vector store are constructed, so operators get a clear error at startup
// rather than a cryptic failure during the first upload. It returns an error
// for broken configuration and logs warnings for suspicious choices.
func ValidateForStore(log *slog.Logger, s Settings, vectorStore string) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if s.Backend == BackendHash && vectorStore == "qdrant" {
		log.Warn("embedder: hash embeddings are lexical; semantic search quality needs a model backend",
			slog.String("vector_store", vectorStore),
			slog.String("hint", "set EMBEDDING_PROVIDER=ollama (or openai/azure)"),
		)
	}

	if s.Model != "" && looksLikeChatModel(s.Model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model, not an embedding model; "+
			"this will likely produce poor or broken embeddings",
			slog.String("model", s.Model),
			slog.String("hint", "use a dedicated embedding model e.g. nomic-embed-text, text-embedding-3-small"),
		)
	}
	return nil
}
