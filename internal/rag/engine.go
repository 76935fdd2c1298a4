package rag

import (
	"context"
	"errors"
	"fmt"
)

// Engine implements document indexing and retrieval by combining an Embedder
// and a VectorStore. Every call is a round trip to the store: the engine holds
// no cache and performs no batching of its own.
type Engine struct {
	// embedder converts document and query text to dense vectors.
	embedder Embedder

	// store persists documents and performs similarity search.
	store VectorStore
}

// NewEngine constructs an Engine from the given Embedder and VectorStore.
func NewEngine(embedder Embedder, store VectorStore) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	return &Engine{embedder: embedder, store: store}, nil
}

// Store returns the backing VectorStore.
func (e *Engine) Store() VectorStore { return e.store }

// AddDocument embeds content and stores it under id together with metadata.
// Storing an id that already exists overwrites the previous document.
func (e *Engine) AddDocument(ctx context.Context, content string, metadata Metadata, id string) error {
	if id == "" {
		return storageErr("add document", errors.New("empty document id"))
	}
	if err := metadata.Validate(); err != nil {
		return storageErr("add document", err)
	}

	embeddings, err := e.embed(ctx, content)
	if err != nil {
		return storageErr("add document", err)
	}

	doc := Document{ID: id, Content: content, Metadata: metadata.Clone()}
	if err := e.store.Upsert(ctx, []Document{doc}, embeddings); err != nil {
		return storageErr("add document", err)
	}
	return nil
}

// Search embeds query and returns up to limit documents, most similar first.
// An empty collection yields an empty slice and no error.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	embeddings, err := e.embed(ctx, query)
	if err != nil {
		return nil, storageErr("search", err)
	}

	docs, err := e.store.Search(ctx, embeddings[0], limit)
	if err != nil {
		return nil, storageErr("search", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Get returns the document stored under id. The boolean is false when the id
// is unknown.
func (e *Engine) Get(ctx context.Context, id string) (Document, bool, error) {
	doc, ok, err := e.store.Get(ctx, id)
	if err != nil {
		return Document{}, false, storageErr("get document", err)
	}
	return doc, ok, nil
}

// Delete removes the document stored under id. Unknown ids are a no-op.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, []string{id}); err != nil {
		return storageErr("delete document", err)
	}
	return nil
}

// List returns every stored document with its metadata in insertion order.
func (e *Engine) List(ctx context.Context) ([]Document, error) {
	docs, err := e.store.List(ctx)
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

func (e *Engine) embed(ctx context.Context, text string) ([][]float32, error) {
	embeddings, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedder returned empty result")
	}
	return embeddings, nil
}
