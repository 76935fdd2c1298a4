package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/54b3r/ragdesk/internal/agent"
	"github.com/54b3r/ragdesk/internal/config"
	"github.com/54b3r/ragdesk/internal/embedder"
	"github.com/54b3r/ragdesk/internal/rag"
	"github.com/54b3r/ragdesk/internal/server"
	"github.com/54b3r/ragdesk/internal/service"
	"github.com/54b3r/ragdesk/internal/store"
)

// vectorBackend is a document store that can also report its reachability.
type vectorBackend interface {
	rag.VectorStore
	server.Pinger
}

// app bundles the collaborators every command builds from the environment.
type app struct {
	// svc is the request-level service.
	svc *service.Service
	// runtime holds the resolved runtime settings.
	runtime config.Runtime
	// store is the open document store; closed by [app.Close].
	store vectorBackend
	// pingers are the readiness probes: the store, then any remote embedder.
	pingers []server.Pinger
}

// newApp resolves configuration and wires embedder, store, engine, registry
// and service. The caller must Close the returned app.
func newApp(ctx context.Context, log *slog.Logger) (*app, error) {
	rt, err := config.RuntimeFromEnv()
	if err != nil {
		return nil, err
	}

	settings := embedder.SettingsFromEnv()
	if err := embedder.ValidateForStore(log, settings, rt.VectorStore); err != nil {
		return nil, err
	}
	emb, err := embedder.New(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Debug("embedder initialised",
		slog.String("backend", settings.Backend),
		slog.String("model", settings.Model),
		slog.Int("dimensions", settings.Dimensions),
	)

	vs, err := openStore(ctx, rt, settings.Dimensions)
	if err != nil {
		return nil, err
	}

	engine, err := rag.NewEngine(emb, vs)
	if err != nil {
		_ = vs.Close()
		return nil, err
	}

	svc, err := service.New(ctx, service.Config{
		Registry:           agent.NewRegistry(),
		Engine:             engine,
		DefaultContextSize: rt.ContextSize,
		MaxContextSize:     rt.MaxContextSize,
		MaxContextTokens:   rt.MaxContextTokens,
		MaxHistoryTokens:   rt.MaxHistoryTokens,
	})
	if err != nil {
		_ = vs.Close()
		return nil, err
	}

	pingers := []server.Pinger{vs}
	if p, ok := emb.(server.Pinger); ok {
		pingers = append(pingers, p)
	}

	return &app{svc: svc, runtime: rt, store: vs, pingers: pingers}, nil
}

// Close releases the document store.
func (a *app) Close() error {
	return a.store.Close()
}

// openStore opens the SQLite file under DataDir or connects to Qdrant.
func openStore(ctx context.Context, rt config.Runtime, dimensions int) (vectorBackend, error) {
	switch rt.VectorStore {
	case config.VectorStoreQdrant:
		if dimensions <= 0 {
			return nil, errors.New("qdrant: embedding dimensions must be positive")
		}
		qs, err := rag.NewQdrantStore(ctx, rag.QdrantConfig{
			Host:       rt.QdrantHost,
			Port:       rt.QdrantPort,
			Collection: rt.Collection,
			VectorSize: uint64(dimensions),
			APIKey:     rt.QdrantAPIKey,
			UseTLS:     rt.QdrantTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", rt.QdrantHost, rt.QdrantPort, err)
		}
		return qs, nil
	default:
		path, err := store.DBPath(rt.DataDir)
		if err != nil {
			return nil, err
		}
		ss, err := store.Open(path, rt.Collection)
		if err != nil {
			return nil, err
		}
		return ss, nil
	}
}
