package ingest

import (
	"context"
	"log/slog"

	"github.com/kfreiman/interviewcoach/internal/converter"
	"github.com/kfreiman/interviewcoach/internal/redaction"
	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/kfreiman/interviewcoach/internal/storage"
)

// DocumentStore keeps the redacted copy of each upload
type DocumentStore interface {
	SaveDocument(ctx context.Context, meta storage.Frontmatter, body string) (string, error)
}

// PageFetcher downloads the readable text of a web page
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// IngestorConfig holds configuration for the document ingestor. Store and
// Fetcher are optional: without a store nothing is written to disk and
// without a fetcher IngestURL fails.
type IngestorConfig struct {
	Extractor converter.TextExtractor
	Store     DocumentStore
	Fetcher   PageFetcher
	Redactor  *redaction.Redactor
	MaxChars  int
	Retry     retry.Config
	Logger    *slog.Logger
}

// NewIngestorWithConfig creates a new document ingestor with configuration
func NewIngestorWithConfig(config IngestorConfig) *DocumentIngestor {
	ingestor := &DocumentIngestor{
		extractor: config.Extractor,
		store:     config.Store,
		fetcher:   config.Fetcher,
		redactor:  config.Redactor,
		maxChars:  config.MaxChars,
		retry:     config.Retry,
		logger:    config.Logger,
	}

	if ingestor.extractor == nil {
		ingestor.extractor = converter.NewExtractor()
	}
	if ingestor.redactor == nil {
		ingestor.redactor = redaction.DefaultRedactor
	}
	if ingestor.maxChars <= 0 {
		ingestor.maxChars = converter.MaxChars
	}
	if ingestor.retry.MaxAttempts == 0 {
		ingestor.retry = retry.DefaultConfig
	}
	if ingestor.logger == nil {
		ingestor.logger = slog.Default()
	}

	return ingestor
}
