package rag_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/ragdesk/internal/rag"
)

// letterEmbedder maps text onto a 26-dimension letter histogram so that
// similarity is predictable in tests.
type letterEmbedder struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (e *letterEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, 26)
		for _, r := range strings.ToLower(t) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

// memStore is a minimal in-memory VectorStore.
type memStore struct {
	mu      sync.Mutex
	order   []string
	docs    map[string]rag.Document
	vectors map[string][]float32
	failErr error
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]rag.Document{}, vectors: map[string][]float32{}}
}

func (s *memStore) Upsert(_ context.Context, docs []rag.Document, embeddings [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	for i, d := range docs {
		if _, ok := s.docs[d.ID]; !ok {
			s.order = append(s.order, d.ID)
		}
		s.docs[d.ID] = d
		s.vectors[d.ID] = embeddings[i]
	}
	return nil
}

func (s *memStore) Search(_ context.Context, q []float32, topK int) ([]rag.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	var out []rag.Document
	for _, id := range s.order {
		d := s.docs[id]
		d.Score = rag.Cosine(q, s.vectors[id])
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(a, b rag.Document) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, id string) (rag.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	return d, ok, s.failErr
}

func (s *memStore) List(context.Context) ([]rag.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	var out []rag.Document
	for _, id := range s.order {
		out = append(out, s.docs[id])
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.docs, id)
		delete(s.vectors, id)
		s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	}
	return s.failErr
}

func (s *memStore) Close() error { return nil }

func newTestEngine(t *testing.T) (*rag.Engine, *memStore, *letterEmbedder) {
	t.Helper()
	store := newMemStore()
	emb := &letterEmbedder{}
	eng, err := rag.NewEngine(emb, store)
	require.NoError(t, err)
	return eng, store, emb
}

func meta(name string) rag.Metadata {
	return rag.Metadata{Filename: name, UploadDate: "2025-01-02T15:04:05Z"}
}

func TestNewEngine_RejectsNil(t *testing.T) {
	t.Parallel()
	_, err := rag.NewEngine(nil, newMemStore())
	assert.Error(t, err)
	_, err = rag.NewEngine(&letterEmbedder{}, nil)
	assert.Error(t, err)
}

func TestEngine_SearchEmptyCollection(t *testing.T) {
	t.Parallel()
	eng, _, _ := newTestEngine(t)

	docs, err := eng.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestEngine_SearchRanksAndLimits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	require.NoError(t, eng.AddDocument(ctx, "The sky is blue.", meta("sky.txt"), "doc_1"))
	require.NoError(t, eng.AddDocument(ctx, "Grass grows green in the meadow.", meta("grass.txt"), "doc_2"))
	require.NoError(t, eng.AddDocument(ctx, "zzz", meta("z.txt"), "doc_3"))

	docs, err := eng.Search(ctx, "sky blue", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc_1", docs[0].ID)
	assert.Equal(t, "The sky is blue.", docs[0].Content)
	assert.GreaterOrEqual(t, docs[0].Score, docs[1].Score)
}

func TestEngine_SearchInvalidLimit(t *testing.T) {
	t.Parallel()
	eng, _, emb := newTestEngine(t)

	for _, limit := range []int{0, -3} {
		_, err := eng.Search(context.Background(), "q", limit)
		assert.ErrorIs(t, err, rag.ErrInvalidLimit)
	}
	assert.Zero(t, emb.calls, "no embedding for an invalid limit")
}

func TestEngine_AddDocumentOverwrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	require.NoError(t, eng.AddDocument(ctx, "first", meta("a.txt"), "doc_1"))
	require.NoError(t, eng.AddDocument(ctx, "second", meta("b.txt"), "doc_1"))

	doc, ok, err := eng.Get(ctx, "doc_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", doc.Content)
	assert.Equal(t, "b.txt", doc.Metadata.Filename)

	all, err := eng.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEngine_AddDocumentReservedMetadata(t *testing.T) {
	t.Parallel()
	eng, store, _ := newTestEngine(t)

	m := meta("a.txt")
	m.Extra = map[string]string{rag.KeyDocID: "spoof"}
	err := eng.AddDocument(context.Background(), "x", m, "doc_1")

	assert.ErrorIs(t, err, rag.ErrStorage)
	var me *rag.MetadataError
	assert.ErrorAs(t, err, &me)
	assert.Empty(t, store.docs)
}

func TestEngine_StoreFailuresWrapped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, store, _ := newTestEngine(t)
	boom := errors.New("disk full")
	store.failErr = boom

	err := eng.AddDocument(ctx, "x", meta("a.txt"), "doc_1")
	assert.ErrorIs(t, err, rag.ErrStorage)
	assert.ErrorIs(t, err, boom)

	_, err = eng.Search(ctx, "x", 1)
	assert.ErrorIs(t, err, rag.ErrStorage)

	_, err = eng.List(ctx)
	assert.ErrorIs(t, err, rag.ErrStorage)

	_, _, err = eng.Get(ctx, "doc_1")
	assert.ErrorIs(t, err, rag.ErrStorage)
}

func TestEngine_EmbedderFailureIsStorageError(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	eng, err := rag.NewEngine(&letterEmbedder{err: errors.New("offline")}, store)
	require.NoError(t, err)

	err = eng.AddDocument(context.Background(), "x", meta("a.txt"), "doc_1")
	assert.ErrorIs(t, err, rag.ErrStorage)
	assert.Empty(t, store.docs)
}

func TestEngine_DeleteAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, _, _ := newTestEngine(t)

	for _, id := range []string{"doc_1", "doc_2", "doc_3"} {
		require.NoError(t, eng.AddDocument(ctx, id, meta(id+".txt"), id))
	}
	require.NoError(t, eng.Delete(ctx, "doc_2"))
	require.NoError(t, eng.Delete(ctx, "doc_missing"))

	docs, err := eng.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"doc_1", "doc_3"}, ids)

	_, ok, err := eng.Get(ctx, "doc_2")
	require.NoError(t, err)
	assert.False(t, ok)
}
