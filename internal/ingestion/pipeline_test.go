package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/54b3r/ragdesk/internal/service"
)

// upload is one recorded UploadWithMetadata call.
type upload struct {
	filename string
	data     string
	extra    map[string]string
}

// fakeUploader records uploads and rejects invalid UTF-8 like the service.
type fakeUploader struct {
	uploads []upload
	fail    error
}

func (f *fakeUploader) UploadWithMetadata(_ context.Context, filename string, data []byte, extra map[string]string) (service.UploadResult, error) {
	if f.fail != nil {
		return service.UploadResult{}, f.fail
	}
	if !utf8.Valid(data) {
		return service.UploadResult{}, fmt.Errorf("%w: not UTF-8", service.ErrDecode)
	}
	f.uploads = append(f.uploads, upload{filename: filename, data: string(data), extra: extra})
	return service.UploadResult{
		Message:    service.UploadMessage,
		DocumentID: fmt.Sprintf("doc_%014d", len(f.uploads)),
		Filename:   filename,
	}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	t.Parallel()
	if _, err := NewPipeline(nil, Config{}); err == nil {
		t.Error("expected error for nil uploader")
	}
	if _, err := NewPipeline(&fakeUploader{}, Config{ChunkSize: -1}); err == nil {
		t.Error("expected error for negative chunk size")
	}
	p, err := NewPipeline(&fakeUploader{}, Config{ChunkSize: 10, ChunkOverlap: 20})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.cfg.ChunkOverlap != 1 {
		t.Errorf("ChunkOverlap: got %d, want 1", p.cfg.ChunkOverlap)
	}
}

func TestIngest_SingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "the quick brown fox")

	up := &fakeUploader{}
	p, err := NewPipeline(up, Config{})
	if err != nil {
		t.Fatal(err)
	}

	results, err := p.Ingest(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(results) != 1 || results[0].Filename != "notes.txt" {
		t.Fatalf("results: got %+v", results)
	}
	if len(up.uploads) != 1 {
		t.Fatalf("uploads: got %d", len(up.uploads))
	}
	got := up.uploads[0]
	if got.data != "the quick brown fox" {
		t.Errorf("data: got %q", got.data)
	}
	if got.extra[MetaSourceType] != SourceFile {
		t.Errorf("source_type: got %q", got.extra[MetaSourceType])
	}
	if !filepath.IsAbs(got.extra[MetaSource]) {
		t.Errorf("source should be absolute, got %q", got.extra[MetaSource])
	}
	if _, ok := got.extra[MetaChunkIndex]; ok {
		t.Error("unsplit document should not carry chunk metadata")
	}
}

func TestIngest_DirectoryWalk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "alpha")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "bravo")
	writeFile(t, filepath.Join(dir, "image.png"), "not text")
	writeFile(t, filepath.Join(dir, ".hidden", "c.txt"), "hidden")
	writeFile(t, filepath.Join(dir, ".secret.txt"), "hidden")
	writeFile(t, filepath.Join(dir, "bad.txt"), string([]byte{0xff, 0xfe, 0x00}))

	up := &fakeUploader{}
	p, err := NewPipeline(up, Config{})
	if err != nil {
		t.Fatal(err)
	}

	results, err := p.Ingest(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	var names []string
	for _, r := range results {
		names = append(names, r.Filename)
	}
	if got := strings.Join(names, ","); got != "a.md,b.txt" {
		t.Errorf("ingested files: got %q, want %q", got, "a.md,b.txt")
	}
}

func TestIngest_ExplicitNonUTF8FileFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	writeFile(t, path, string([]byte{0xff, 0xfe, 0x00}))

	p, err := NewPipeline(&fakeUploader{}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Ingest(context.Background(), []string{path})
	if !errors.Is(err, service.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestIngest_MissingPath(t *testing.T) {
	t.Parallel()
	p, err := NewPipeline(&fakeUploader{}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ingest(context.Background(), []string{filepath.Join(t.TempDir(), "nope.txt")}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestIngest_URL(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "ragdesk/") {
			t.Errorf("User-Agent: got %q", ua)
		}
		_, _ = w.Write([]byte("remote guide"))
	}))
	defer srv.Close()

	up := &fakeUploader{}
	p, err := NewPipeline(up, Config{})
	if err != nil {
		t.Fatal(err)
	}

	results, err := p.Ingest(context.Background(), []string{srv.URL + "/docs/guide.md"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(results) != 1 || results[0].Filename != "guide.md" {
		t.Fatalf("results: got %+v", results)
	}
	extra := up.uploads[0].extra
	if extra[MetaSourceType] != SourceURL || extra[MetaSourceHost] != "127.0.0.1" {
		t.Errorf("metadata: got %v", extra)
	}

	if _, err := p.Ingest(context.Background(), []string{srv.URL + "/missing"}); err == nil {
		t.Error("expected error for 404 URL")
	}
}

func TestIngest_MaxBytes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	writeFile(t, path, strings.Repeat("x", 64))

	p, err := NewPipeline(&fakeUploader{}, Config{MaxBytes: 16})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ingest(context.Background(), []string{path}); err == nil {
		t.Fatal("expected error for oversized file")
	}
}

func TestIngest_Chunking(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "long.txt")
	writeFile(t, path, "ééééé12345abcde")

	up := &fakeUploader{}
	p, err := NewPipeline(up, Config{ChunkSize: 5})
	if err != nil {
		t.Fatal(err)
	}
	results, err := p.Ingest(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}
	want := []string{"ééééé", "12345", "abcde"}
	for i, u := range up.uploads {
		if u.data != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, u.data, want[i])
		}
		if u.extra[MetaChunkIndex] != fmt.Sprint(i) || u.extra[MetaChunkCount] != "3" {
			t.Errorf("chunk %d metadata: got %v", i, u.extra)
		}
	}
}

func TestChunk_Overlap(t *testing.T) {
	t.Parallel()
	p := &Pipeline{cfg: Config{ChunkSize: 4, ChunkOverlap: 1}}
	got := p.chunk("abcdefghij")
	want := []string{"abcd", "defg", "ghij"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("chunk: got %q, want %q", got, want)
	}
	if p.chunk("   ") != nil {
		t.Error("blank text should produce no chunks")
	}
}

func TestIngest_UploadErrorStops(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")

	boom := errors.New("boom")
	p, err := NewPipeline(&fakeUploader{fail: boom}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ingest(context.Background(), []string{dir}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
