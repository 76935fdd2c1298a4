// Package ingestion loads local files, directories and URLs into the document
// store. Every document goes through the same upload path as POST /upload, so
// ids, metadata and UTF-8 validation are identical. This pipeline is invoked
// by the `ragdesk ingest` CLI command.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/54b3r/ragdesk/internal/logging"
	"github.com/54b3r/ragdesk/internal/service"
)

// Uploader stores one document. *service.Service satisfies it.
type Uploader interface {
	UploadWithMetadata(ctx context.Context, filename string, data []byte, extra map[string]string) (service.UploadResult, error)
}

// textExtensions lists the file types picked up when walking a directory.
// Files named explicitly are always ingested regardless of extension.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true,
	".csv": true, ".json": true, ".yaml": true, ".yml": true,
	".html": true, ".htm": true, ".xml": true, ".log": true,
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of runes per stored document. Zero
	// stores each source whole.
	ChunkSize int

	// ChunkOverlap is the number of runes shared by consecutive chunks.
	ChunkOverlap int

	// MaxBytes caps the size of a single source (default 10 MiB).
	MaxBytes int64

	// HTTPTimeout is the timeout for each URL fetch.
	// Defaults to 30s if zero.
	HTTPTimeout time.Duration

	// UserAgent is the HTTP User-Agent header sent with fetch requests.
	UserAgent string
}

// Result records one stored document.
type Result struct {
	// Source is the path or URL the document came from.
	Source string
	// DocumentID is the id assigned by the store.
	DocumentID string
	// Filename is the stored filename.
	Filename string
}

// Pipeline orchestrates the read → chunk → upload flow for a set of sources.
type Pipeline struct {
	// uploader persists each document.
	uploader Uploader

	// cfg holds the resolved pipeline configuration.
	cfg Config

	// httpClient is the HTTP client used for fetching URLs.
	httpClient *http.Client
}

// NewPipeline constructs a Pipeline from the provided uploader and config.
func NewPipeline(uploader Uploader, cfg Config) (*Pipeline, error) {
	if uploader == nil {
		return nil, fmt.Errorf("ingestion: uploader must not be nil")
	}
	if cfg.ChunkSize < 0 {
		return nil, fmt.Errorf("ingestion: chunk size must not be negative, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkSize > 0 && cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ragdesk/1.0 (document ingestion)"
	}

	return &Pipeline{
		uploader: uploader,
		cfg:      cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}, nil
}

// Ingest reads and stores every source in order. A source is a URL, a file
// or a directory; directories are walked for text files, skipping hidden
// entries. Files found by walking that are not valid UTF-8 are skipped with
// a warning. Any other failure stops the run and is returned together with
// the documents stored so far.
func (p *Pipeline) Ingest(ctx context.Context, sources []string) ([]Result, error) {
	log := logging.FromContext(ctx)
	var results []Result

	for _, src := range sources {
		if IsURL(src) {
			data, err := p.fetch(ctx, src)
			if err != nil {
				return results, fmt.Errorf("ingestion: fetch failed for %s: %w", src, err)
			}
			stored, err := p.store(ctx, DescribeURL(src), data)
			results = append(results, stored...)
			if err != nil {
				return results, err
			}
			continue
		}

		info, err := os.Stat(src)
		if err != nil {
			return results, fmt.Errorf("ingestion: %w", err)
		}
		if !info.IsDir() {
			stored, err := p.ingestFile(ctx, src)
			results = append(results, stored...)
			if err != nil {
				return results, err
			}
			continue
		}

		files, err := walkTextFiles(src)
		if err != nil {
			return results, fmt.Errorf("ingestion: walk %s: %w", src, err)
		}
		for _, f := range files {
			stored, err := p.ingestFile(ctx, f)
			results = append(results, stored...)
			if errors.Is(err, service.ErrDecode) {
				log.Warn("ingestion: skipping non-UTF-8 file", slog.String("path", f))
				continue
			}
			if err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

func (p *Pipeline) ingestFile(ctx context.Context, path string) ([]Result, error) {
	data, err := p.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read %s: %w", path, err)
	}
	return p.store(ctx, DescribeFile(path), data)
}

// store uploads data as one document, or as ChunkSize-rune chunks.
func (p *Pipeline) store(ctx context.Context, info SourceInfo, data []byte) ([]Result, error) {
	parts := [][]byte{data}
	// Invalid UTF-8 goes through whole so the upload rejects it.
	if p.cfg.ChunkSize > 0 && utf8.Valid(data) {
		if chunks := p.chunk(string(data)); len(chunks) > 1 {
			parts = parts[:0]
			for _, c := range chunks {
				parts = append(parts, []byte(c))
			}
		}
	}

	results := make([]Result, 0, len(parts))
	for i, part := range parts {
		res, err := p.uploader.UploadWithMetadata(ctx, info.Filename, part, info.Metadata(i, len(parts)))
		if err != nil {
			return results, fmt.Errorf("ingestion: upload %s: %w", info.Location, err)
		}
		results = append(results, Result{Source: info.Location, DocumentID: res.DocumentID, Filename: res.Filename})
		logging.FromContext(ctx).Debug("ingestion: stored",
			slog.String("source", info.Location),
			slog.String("document_id", res.DocumentID),
		)
	}
	return results, nil
}

func (p *Pipeline) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f, p.cfg.MaxBytes)
}

// fetch retrieves the raw body of a URL.
func (p *Pipeline) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain, text/markdown, text/html")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	return readLimited(resp.Body, p.cfg.MaxBytes)
}

// readLimited reads r fully, failing when it holds more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("source exceeds %d bytes", limit)
	}
	return body, nil
}

// chunk splits text into overlapping chunks of cfg.ChunkSize runes.
func (p *Pipeline) chunk(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	size := p.cfg.ChunkSize
	overlap := p.cfg.ChunkOverlap

	for start := 0; start < len(runes); start += size - overlap {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// walkTextFiles returns the text files under root in lexical order.
func walkTextFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && textExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
