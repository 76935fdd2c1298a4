// Package rag defines the document model and the interfaces behind the
// retrieval engine: vector storage and embedding. Concrete stores (the
// embedded SQLite store, Qdrant) satisfy VectorStore so the service layer
// never depends on a specific backend.
package rag

import (
	"context"
	"maps"
)

// Reserved payload keys. Extension metadata may not reuse them.
const (
	// KeyContent holds the document text.
	KeyContent = "content"
	// KeyDocID holds the caller-facing document id.
	KeyDocID = "doc_id"
	// KeyFilename holds Metadata.Filename.
	KeyFilename = "filename"
	// KeyUploadDate holds Metadata.UploadDate.
	KeyUploadDate = "upload_date"
)

// Metadata is the explicit metadata schema stored alongside every document.
type Metadata struct {
	// Filename is the original name of the uploaded file.
	Filename string `json:"filename"`
	// UploadDate is the upload timestamp as ISO-8601 / RFC 3339 text.
	UploadDate string `json:"upload_date"`
	// Extra holds arbitrary extension fields (content type, size, source URL).
	Extra map[string]string `json:"extra,omitempty"`
}

// Clone returns a copy of m that shares no map with the original.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Extra != nil {
		out.Extra = maps.Clone(m.Extra)
	}
	return out
}

// Validate reports whether m can be stored. Extension keys must be non-empty
// and must not shadow a reserved payload key.
func (m Metadata) Validate() error {
	for k := range m.Extra {
		switch k {
		case "", KeyContent, KeyDocID, KeyFilename, KeyUploadDate:
			return &MetadataError{Key: k}
		}
	}
	return nil
}

// Fields flattens m into the string map stored by backends.
func (m Metadata) Fields() map[string]string {
	out := make(map[string]string, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[KeyFilename] = m.Filename
	out[KeyUploadDate] = m.UploadDate
	return out
}

// MetadataFromFields is the inverse of [Metadata.Fields]. Unknown keys land
// in Extra; the content and doc_id keys are ignored.
func MetadataFromFields(fields map[string]string) Metadata {
	var m Metadata
	for k, v := range fields {
		switch k {
		case KeyFilename:
			m.Filename = v
		case KeyUploadDate:
			m.UploadDate = v
		case KeyContent, KeyDocID:
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]string)
			}
			m.Extra[k] = v
		}
	}
	return m
}

// Document is a unit of stored or retrieved knowledge.
type Document struct {
	// ID is the caller-assigned document id (e.g. "doc_20250102150405").
	ID string

	// Content is the full document text. List results may leave it empty.
	Content string

	// Metadata is the document's metadata.
	Metadata Metadata

	// Score is the similarity score assigned during search (higher is closer).
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore persists documents with their embeddings and searches them by
// similarity. Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or overwrites a batch of documents with their pre-computed
	// embeddings. embeddings[i] is the vector for docs[i].
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns up to topK documents ordered by decreasing similarity to
	// queryEmbedding. An empty collection yields an empty slice.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// Get returns the document stored under id. The boolean is false when the
	// id is unknown.
	Get(ctx context.Context, id string) (Document, bool, error)

	// List returns every stored document in insertion order. Content may be
	// omitted.
	List(ctx context.Context) ([]Document, error)

	// Delete removes documents by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
