package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfreiman/interviewcoach/internal/converter"
	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/kfreiman/interviewcoach/internal/storage"
)

var fastRetry = retry.Config{
	MaxAttempts: 3,
	BaseDelay:   time.Millisecond,
	MaxDelay:    time.Millisecond,
	Backoff:     retry.BackoffFixed,
}

type flakyStore struct {
	failures int
	calls    int
	saved    []storage.Frontmatter
	bodies   []string
}

func (s *flakyStore) SaveDocument(ctx context.Context, meta storage.Frontmatter, body string) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", &storage.StorageError{Operation: "save document", Err: errors.New("disk busy")}
	}
	s.saved = append(s.saved, meta)
	s.bodies = append(s.bodies, body)
	return storage.URI(meta.Type, meta.ID), nil
}

type staticFetcher struct {
	text  string
	err   error
	calls int
}

func (f *staticFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	f.calls++
	return f.text, f.err
}

func newTestIngestor(store DocumentStore) *DocumentIngestor {
	return NewIngestorWithConfig(IngestorConfig{
		Extractor: converter.NewExtractor(),
		Store:     store,
		Retry:     fastRetry,
	})
}

func TestIngest_Text(t *testing.T) {
	store := &flakyStore{}
	data := []byte("Jane Doe\njane@example.com\n\n\n\nGo, Kubernetes")

	doc, err := newTestIngestor(store).Ingest(context.Background(), storage.DocumentTypeCV, "cv.txt", data)
	require.NoError(t, err)

	assert.Equal(t, storage.DocumentTypeCV, doc.Kind)
	assert.Equal(t, "cv.txt", doc.Filename)
	assert.Equal(t, storage.GenerateID(data), doc.Hash)
	assert.Equal(t, "Jane Doe\njane@example.com\n\nGo, Kubernetes", doc.Text)
	assert.Equal(t, "cv://"+doc.Hash, doc.URI)
	assert.False(t, doc.Truncated)

	require.Len(t, store.bodies, 1)
	assert.NotContains(t, store.bodies[0], "jane@example.com")
	assert.Equal(t, 1, store.saved[0].Redactions)
	assert.Equal(t, "cv.txt", store.saved[0].OriginalFilename)
}

func TestIngest_StripsDirectories(t *testing.T) {
	doc, err := newTestIngestor(nil).Ingest(context.Background(), storage.DocumentTypeJD, "uploads/jd.md", []byte("Role"))
	require.NoError(t, err)
	assert.Equal(t, "jd.md", doc.Filename)
	assert.Empty(t, doc.URI)
}

func TestIngest_Truncates(t *testing.T) {
	ing := NewIngestorWithConfig(IngestorConfig{MaxChars: 5, Retry: fastRetry})
	doc, err := ing.Ingest(context.Background(), storage.DocumentTypeJD, "jd.txt", []byte("abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, "abcde", doc.Text)
	assert.True(t, doc.Truncated)
}

func TestIngest_RetriesStorage(t *testing.T) {
	store := &flakyStore{failures: 2}
	doc, err := newTestIngestor(store).Ingest(context.Background(), storage.DocumentTypeCV, "cv.txt", []byte("text"))
	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
	assert.NotEmpty(t, doc.URI)
}

func TestIngest_DegradesWhenStorageFails(t *testing.T) {
	store := &flakyStore{failures: 10}
	doc, err := newTestIngestor(store).Ingest(context.Background(), storage.DocumentTypeCV, "cv.txt", []byte("text"))

	require.Error(t, err)
	assert.True(t, IsDegraded(err))
	assert.Equal(t, "text", doc.Text)
	assert.Empty(t, doc.URI)
	assert.Equal(t, fastRetry.MaxAttempts, store.calls)
}

func TestIngest_Rejects(t *testing.T) {
	ing := newTestIngestor(nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     storage.DocumentType
		filename string
		data     []byte
		target   any
	}{
		{"unknown kind", "resume", "cv.txt", []byte("x"), new(*ValidationError)},
		{"empty file", storage.DocumentTypeCV, "cv.txt", nil, new(*ValidationError)},
		{"blank text", storage.DocumentTypeCV, "cv.txt", []byte(" \n\t "), new(*ValidationError)},
		{"traversal", storage.DocumentTypeCV, "../cv.txt", []byte("x"), new(*SecurityError)},
		{"null byte", storage.DocumentTypeCV, "cv.txt\x00.pdf", []byte("x"), new(*SecurityError)},
		{"unsupported", storage.DocumentTypeCV, "cv.xlsx", []byte("x"), new(*converter.UnsupportedFormatError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ing.Ingest(ctx, tt.kind, tt.filename, tt.data)
			require.Error(t, err)
			assert.ErrorAs(t, err, tt.target)
			assert.False(t, IsDegraded(err))
		})
	}
}

func TestIngestURL(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches and stores", func(t *testing.T) {
		fetcher := &staticFetcher{text: "Backend engineer, Go and SQL"}
		store := &flakyStore{}
		doc, err := newTestIngestor(store).WithFetcher(fetcher).IngestURL(ctx, storage.DocumentTypeJD, "https://jobs.example.com/42")
		require.NoError(t, err)
		assert.Equal(t, "Backend engineer, Go and SQL", doc.Text)
		assert.Equal(t, storage.GenerateID([]byte(doc.Text)), doc.Hash)
		assert.Equal(t, "https://jobs.example.com/42", doc.Filename)
		assert.Len(t, store.saved, 1)
	})

	t.Run("retries retryable fetch errors", func(t *testing.T) {
		fetcher := &staticFetcher{err: &converter.HTTPError{StatusCode: 503, URL: "https://x.test"}}
		_, err := newTestIngestor(nil).WithFetcher(fetcher).IngestURL(ctx, storage.DocumentTypeJD, "https://x.test")
		require.Error(t, err)
		assert.Equal(t, fastRetry.MaxAttempts, fetcher.calls)
	})

	t.Run("does not retry 404", func(t *testing.T) {
		fetcher := &staticFetcher{err: &converter.HTTPError{StatusCode: 404, URL: "https://x.test"}}
		_, err := newTestIngestor(nil).WithFetcher(fetcher).IngestURL(ctx, storage.DocumentTypeJD, "https://x.test")
		require.Error(t, err)
		assert.Equal(t, 1, fetcher.calls)
	})

	t.Run("rejects non urls", func(t *testing.T) {
		_, err := newTestIngestor(nil).WithFetcher(&staticFetcher{}).IngestURL(ctx, storage.DocumentTypeJD, "not a url")
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("requires fetcher", func(t *testing.T) {
		_, err := newTestIngestor(nil).IngestURL(ctx, storage.DocumentTypeJD, "https://x.test")
		assert.Error(t, err)
	})
}

func TestIngest_WithStorageManager(t *testing.T) {
	ctx := context.Background()
	sm, err := storage.NewStorageManager(ctx, storage.StorageConfig{BasePath: "/data", Fs: afero.NewMemMapFs()})
	require.NoError(t, err)

	doc, err := newTestIngestor(sm).Ingest(ctx, storage.DocumentTypeCV, "cv.md", []byte("Call 555-123-4567"))
	require.NoError(t, err)

	stored, err := sm.ReadDocument(ctx, doc.URI)
	require.NoError(t, err)
	assert.True(t, strings.Contains(stored.Body, "[PHONE_REDACTED]"))
	assert.Equal(t, doc.Hash, stored.Meta.ID)
}
