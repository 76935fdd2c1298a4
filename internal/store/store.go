// Package store provides the embedded SQLite vector store. Documents, their
// metadata and their embeddings live in a single table keyed by collection and
// document id; similarity is computed in process, which keeps the default
// deployment free of external services.
package store

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/54b3r/ragdesk/internal/rag"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "documents"

// dbFile is the database file name inside the data directory.
const dbFile = "ragdesk.db"

// SQLiteStore is a rag.VectorStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
	// collection scopes every query so several collections can share a file.
	collection string
}

var _ rag.VectorStore = (*SQLiteStore)(nil)

// DBPath returns the database path inside dataDir, creating the directory if
// needed.
func DBPath(dataDir string) (string, error) {
	if dataDir == "" {
		dataDir = "db"
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dataDir, err)
	}
	return filepath.Join(dataDir, dbFile), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path, collection string) (*SQLiteStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Single connection: serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, collection: collection}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    collection  TEXT    NOT NULL,
    id          TEXT    NOT NULL,
    content     TEXT    NOT NULL,
    metadata    TEXT    NOT NULL,  -- JSON object of string fields
    embedding   TEXT    NOT NULL,  -- JSON array of float32
    UNIQUE (collection, id)
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Name identifies the store in readiness checks.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Upsert stores or overwrites documents in one transaction. An overwritten
// document keeps its original insertion position.
func (s *SQLiteStore) Upsert(ctx context.Context, docs []rag.Document, embeddings [][]float32) (err error) {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("store: %d documents but %d embeddings", len(docs), len(embeddings))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
INSERT INTO documents (collection, id, content, metadata, embedding)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET
    content   = excluded.content,
    metadata  = excluded.metadata,
    embedding = excluded.embedding`

	for i, doc := range docs {
		meta, err := json.Marshal(doc.Metadata.Fields())
		if err != nil {
			return fmt.Errorf("store: encode metadata for %s: %w", doc.ID, err)
		}
		vec, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("store: encode embedding for %s: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx, q, s.collection, doc.ID, doc.Content, string(meta), string(vec)); err != nil {
			return fmt.Errorf("store: upsert %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Search scores every document in the collection by cosine similarity and
// returns the topK best, highest first. Ties keep insertion order.
func (s *SQLiteStore) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]rag.Document, error) {
	const q = `SELECT id, content, metadata, embedding FROM documents WHERE collection = ? ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, q, s.collection)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	docs := []rag.Document{}
	for rows.Next() {
		var id, content, meta, vec string
		if err := rows.Scan(&id, &content, &meta, &vec); err != nil {
			return nil, fmt.Errorf("store: search scan: %w", err)
		}
		doc, err := decodeDocument(id, content, meta)
		if err != nil {
			return nil, err
		}
		var embedding []float32
		if err := json.Unmarshal([]byte(vec), &embedding); err != nil {
			return nil, fmt.Errorf("store: decode embedding for %s: %w", id, err)
		}
		doc.Score = rag.Cosine(queryEmbedding, embedding)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: search rows: %w", err)
	}

	slices.SortStableFunc(docs, func(a, b rag.Document) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if topK > 0 && len(docs) > topK {
		docs = docs[:topK]
	}
	return docs, nil
}

// Get returns the document stored under id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (rag.Document, bool, error) {
	const q = `SELECT content, metadata FROM documents WHERE collection = ? AND id = ?`

	var content, meta string
	err := s.db.QueryRowContext(ctx, q, s.collection, id).Scan(&content, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return rag.Document{}, false, nil
	}
	if err != nil {
		return rag.Document{}, false, fmt.Errorf("store: get %s: %w", id, err)
	}
	doc, err := decodeDocument(id, content, meta)
	if err != nil {
		return rag.Document{}, false, err
	}
	return doc, true, nil
}

// List returns every document in insertion order without content.
func (s *SQLiteStore) List(ctx context.Context) ([]rag.Document, error) {
	const q = `SELECT id, metadata FROM documents WHERE collection = ? ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, q, s.collection)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	docs := []rag.Document{}
	for rows.Next() {
		var id, meta string
		if err := rows.Scan(&id, &meta); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		doc, err := decodeDocument(id, "", meta)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return docs, nil
}

// Delete removes documents by id. Unknown ids are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, ids []string) error {
	const q = `DELETE FROM documents WHERE collection = ? AND id = ?`
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, q, s.collection, id); err != nil {
			return fmt.Errorf("store: delete %s: %w", id, err)
		}
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

func decodeDocument(id, content, meta string) (rag.Document, error) {
	var fields map[string]string
	if err := json.Unmarshal([]byte(meta), &fields); err != nil {
		return rag.Document{}, fmt.Errorf("store: decode metadata for %s: %w", id, err)
	}
	return rag.Document{
		ID:       id,
		Content:  content,
		Metadata: rag.MetadataFromFields(fields),
	}, nil
}
