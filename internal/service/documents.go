package service

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"mime"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/54b3r/ragdesk/internal/logging"
	"github.com/54b3r/ragdesk/internal/rag"
)

// Extension metadata keys set on every upload.
const (
	MetaContentType = "content_type"
	MetaSizeBytes   = "size_bytes"
)

// UploadMessage is the confirmation text returned by Upload.
const UploadMessage = "Document uploaded successfully"

// maxIDAttempts bounds the search for a document id not yet in the store.
const maxIDAttempts = 64

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UploadResult is returned by a successful Upload.
type UploadResult struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}

// DocumentInfo describes a stored document without its content.
type DocumentInfo struct {
	Filename   string `json:"filename"`
	UploadDate string `json:"upload_date"`
	DocumentID string `json:"document_id"`
}

// DocumentDetail is a stored document with its content and all metadata.
type DocumentDetail struct {
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	Filename   string            `json:"filename"`
	UploadDate string            `json:"upload_date"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Upload decodes data as UTF-8 text and stores it under a fresh document id.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	return s.UploadWithMetadata(ctx, filename, data, nil)
}

// UploadWithMetadata is Upload with additional extension metadata, such as
// the source URL of an ingested page. Reserved keys in extra are rejected by
// the engine as a storage error.
func (s *Service) UploadWithMetadata(ctx context.Context, filename string, data []byte, extra map[string]string) (UploadResult, error) {
	if filename == "" {
		return UploadResult{}, fmt.Errorf("%w: filename is required", ErrValidation)
	}
	if !utf8.Valid(data) {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrDecode, filename)
	}
	content := string(bytes.TrimPrefix(data, utf8BOM))

	id, err := s.nextDocumentID(ctx)
	if err != nil {
		return UploadResult{}, err
	}

	meta := rag.Metadata{
		Filename:   filename,
		UploadDate: s.clock().UTC().Format(time.RFC3339),
		Extra:      make(map[string]string, len(extra)+2),
	}
	maps.Copy(meta.Extra, extra)
	meta.Extra[MetaContentType] = contentType(filename)
	meta.Extra[MetaSizeBytes] = strconv.Itoa(len(data))

	if err := s.engine.AddDocument(ctx, content, meta, id); err != nil {
		return UploadResult{}, err
	}

	logging.FromContext(ctx).Info("document uploaded",
		"document_id", id,
		"filename", filename,
		"size_bytes", len(data),
	)
	return UploadResult{Message: UploadMessage, DocumentID: id, Filename: filename}, nil
}

// nextDocumentID issues ids until one is not already stored, which covers
// ids persisted by an earlier process whose clock ran ahead.
func (s *Service) nextDocumentID(ctx context.Context) (string, error) {
	for range maxIDAttempts {
		id := s.docIDs.Next()
		_, exists, err := s.engine.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no free document id after %d attempts", ErrStorage, maxIDAttempts)
}

// ListDocuments returns every stored document's id and metadata without
// content. An empty store yields an empty, non-nil slice.
func (s *Service) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	docs, err := s.engine.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentInfo{
			Filename:   d.Metadata.Filename,
			UploadDate: d.Metadata.UploadDate,
			DocumentID: d.ID,
		})
	}
	return out, nil
}

// GetDocument returns the stored document with its content.
func (s *Service) GetDocument(ctx context.Context, id string) (DocumentDetail, error) {
	doc, ok, err := s.engine.Get(ctx, id)
	if err != nil {
		return DocumentDetail{}, err
	}
	if !ok {
		return DocumentDetail{}, fmt.Errorf("%w: %q", ErrDocumentNotFound, id)
	}
	return DocumentDetail{
		DocumentID: doc.ID,
		Content:    doc.Content,
		Filename:   doc.Metadata.Filename,
		UploadDate: doc.Metadata.UploadDate,
		Metadata:   doc.Metadata.Extra,
	}, nil
}

// DeleteDocument removes a document. Unknown ids are a no-op.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: document id is required", ErrValidation)
	}
	if err := s.engine.Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("document deleted", "document_id", id)
	return nil
}

// Search returns up to limit documents ranked by similarity to query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]rag.Document, error) {
	limit, err := s.contextSize(&limit)
	if err != nil {
		return nil, err
	}
	return s.engine.Search(ctx, query, limit)
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "text/plain; charset=utf-8"
}
