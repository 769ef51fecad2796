// Package ingest turns uploaded CVs and job descriptions into session text
// and keeps a redacted copy of each upload.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kfreiman/interviewcoach/internal/converter"
	"github.com/kfreiman/interviewcoach/internal/redaction"
	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/kfreiman/interviewcoach/internal/storage"
)

// Document is the result of ingesting one upload. Text is the unredacted
// extracted text. URI is empty when no copy was stored.
type Document struct {
	Kind      storage.DocumentType `json:"kind"`
	Hash      string               `json:"hash"`
	Filename  string               `json:"filename"`
	Text      string               `json:"text"`
	Truncated bool                 `json:"truncated"`
	URI       string               `json:"uri,omitempty"`
}

// Ingestor defines the interface for document ingestion
type Ingestor interface {
	Ingest(ctx context.Context, kind storage.DocumentType, filename string, data []byte) (Document, error)
	IngestURL(ctx context.Context, kind storage.DocumentType, rawURL string) (Document, error)
}

// DocumentIngestor implements the Ingestor interface
type DocumentIngestor struct {
	extractor converter.TextExtractor
	store     DocumentStore
	fetcher   PageFetcher
	redactor  *redaction.Redactor
	maxChars  int
	retry     retry.Config
	logger    *slog.Logger
}

// NewIngestor creates a new document ingestor
func NewIngestor(extractor converter.TextExtractor, store DocumentStore) *DocumentIngestor {
	return NewIngestorWithConfig(IngestorConfig{Extractor: extractor, Store: store})
}

// WithLogger sets a custom logger for the ingestor
func (i *DocumentIngestor) WithLogger(logger *slog.Logger) *DocumentIngestor {
	i.logger = logger
	return i
}

// WithFetcher enables IngestURL
func (i *DocumentIngestor) WithFetcher(f PageFetcher) *DocumentIngestor {
	i.fetcher = f
	return i
}

// Ingest extracts the text of an uploaded file. Hash is the SHA-256 of the
// raw bytes. If storing the redacted copy fails the document is still
// returned along with a *DegradedError.
func (i *DocumentIngestor) Ingest(ctx context.Context, kind storage.DocumentType, filename string, data []byte) (Document, error) {
	if !kind.IsValid() {
		return Document{}, &ValidationError{Field: "type", Value: string(kind), Reason: "must be 'cv' or 'jd'"}
	}
	if err := validateFilename(filename); err != nil {
		return Document{}, err
	}
	if len(data) == 0 {
		return Document{}, &ValidationError{Field: "file", Value: filename, Reason: "file is empty"}
	}

	name := filepath.Base(filename)
	text, err := i.extractor.ExtractText(ctx, name, data)
	if err != nil {
		i.logger.WarnContext(ctx, "text extraction failed", "error", err, "filename", name, "type", kind)
		return Document{}, fmt.Errorf("extract %s text: %w", kind, err)
	}

	return i.finish(ctx, Document{Kind: kind, Hash: hashOf(data), Filename: name}, text)
}

// IngestURL downloads a job description page. Hash is the SHA-256 of the
// fetched text.
func (i *DocumentIngestor) IngestURL(ctx context.Context, kind storage.DocumentType, rawURL string) (Document, error) {
	if !kind.IsValid() {
		return Document{}, &ValidationError{Field: "type", Value: string(kind), Reason: "must be 'cv' or 'jd'"}
	}
	info := converter.ParseInput(rawURL)
	if info.Type != converter.InputTypeURL {
		return Document{}, &ValidationError{Field: "url", Value: rawURL, Reason: "must be an http or https URL"}
	}
	if i.fetcher == nil {
		return Document{}, errors.New("fetching web pages is not configured")
	}

	var text string
	err := retry.Do(ctx, i.retry, func(attempt int) error {
		var err error
		text, err = i.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			i.logger.DebugContext(ctx, "page fetch failed", "url", rawURL, "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	return i.finish(ctx, Document{Kind: kind, Hash: hashOf([]byte(text)), Filename: rawURL}, text)
}

func (i *DocumentIngestor) finish(ctx context.Context, doc Document, text string) (Document, error) {
	if strings.TrimSpace(text) == "" {
		return Document{}, &ValidationError{Field: "file", Value: doc.Filename, Reason: "no text could be extracted"}
	}
	doc.Text = converter.Truncate(text, i.maxChars)
	doc.Truncated = len(doc.Text) < len(text)

	i.logger.InfoContext(ctx, "document ingested",
		"type", doc.Kind,
		"filename", doc.Filename,
		"hash", doc.Hash,
		"chars", len([]rune(doc.Text)),
		"truncated", doc.Truncated,
	)

	if i.store == nil {
		return doc, nil
	}
	uri, err := i.saveRedacted(ctx, doc)
	if err != nil {
		i.logger.WarnContext(ctx, "failed to store redacted copy", "error", err, "hash", doc.Hash)
		return doc, &DegradedError{Component: "storage", Err: err, Fallback: "document not stored"}
	}
	doc.URI = uri
	return doc, nil
}

// saveRedacted writes the redacted text, retrying transient failures
func (i *DocumentIngestor) saveRedacted(ctx context.Context, doc Document) (string, error) {
	body := []byte(doc.Text)
	redactions := 0
	for _, n := range i.redactor.Count(body) {
		redactions += n
	}
	meta := storage.Frontmatter{
		ID:               doc.Hash,
		Type:             doc.Kind,
		OriginalFilename: doc.Filename,
		Redactions:       redactions,
	}

	var uri string
	err := retry.Do(ctx, i.retry, func(int) error {
		var err error
		uri, err = i.store.SaveDocument(ctx, meta, string(i.redactor.Redact(body)))
		return err
	})
	return uri, err
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// validateFilename rejects traversal sequences and NUL bytes
func validateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "filename", Reason: "is required"}
	}
	if strings.Contains(name, "..") {
		return &SecurityError{
			Type:    "path_traversal",
			Details: fmt.Sprintf("filename contains traversal sequence: %s", name),
		}
	}
	if strings.Contains(name, "\x00") {
		return &SecurityError{
			Type:    "null_byte",
			Details: "filename contains null bytes",
		}
	}
	return nil
}
