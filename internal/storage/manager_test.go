package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*StorageManager, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	sm, err := NewStorageManager(context.Background(), StorageConfig{
		BasePath: "/test-storage",
		Fs:       fs,
	})
	require.NoError(t, err)
	return sm, fs
}

func TestStorageManager_NewStorageManager(t *testing.T) {
	t.Run("uses defaults", func(t *testing.T) {
		sm, err := NewStorageManager(context.Background(), StorageConfig{Fs: afero.NewMemMapFs()})
		require.NoError(t, err)

		assert.Equal(t, "./storage", sm.basePath)
		assert.Equal(t, 24*time.Hour, sm.defaultTTL)
		assert.NotNil(t, sm.logger)
	})

	t.Run("creates type directories", func(t *testing.T) {
		sm, fs := newTestManager(t)
		for _, docType := range DocumentTypes {
			ok, err := afero.DirExists(fs, sm.GetPath(docType))
			require.NoError(t, err)
			assert.True(t, ok, docType)
		}
	})

	t.Run("fails on read-only filesystem", func(t *testing.T) {
		_, err := NewStorageManager(context.Background(), StorageConfig{
			BasePath: "/ro",
			Fs:       afero.NewReadOnlyFs(afero.NewMemMapFs()),
		})
		var storageErr *StorageError
		require.True(t, errors.As(err, &storageErr))
		assert.Equal(t, "init", storageErr.Operation)
	})
}

func TestStorageManager_IsAccessible(t *testing.T) {
	t.Run("accessible when all directories exist", func(t *testing.T) {
		sm, _ := newTestManager(t)
		assert.True(t, sm.IsAccessible())
	})

	t.Run("inaccessible after removing base path", func(t *testing.T) {
		sm, fs := newTestManager(t)
		require.NoError(t, fs.RemoveAll("/test-storage"))
		assert.False(t, sm.IsAccessible())
	})

	t.Run("inaccessible after removing jd directory", func(t *testing.T) {
		sm, fs := newTestManager(t)
		require.NoError(t, fs.RemoveAll(sm.GetPath(DocumentTypeJD)))
		assert.False(t, sm.IsAccessible())
	})
}

func TestStorageManager_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t)
	id := GenerateID([]byte("original upload bytes"))

	uri, err := sm.SaveDocument(ctx, Frontmatter{
		ID:               id,
		Type:             DocumentTypeCV,
		OriginalFilename: "jane.pdf",
		Redactions:       2,
	}, "Jane Doe\n[EMAIL_REDACTED]\n---\nGo")
	require.NoError(t, err)
	assert.Equal(t, "cv://"+id, uri)
	assert.True(t, sm.DocumentExists(uri))

	doc, err := sm.ReadDocument(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n[EMAIL_REDACTED]\n---\nGo", doc.Body)
	assert.Equal(t, id, doc.Meta.ID)
	assert.Equal(t, DocumentTypeCV, doc.Meta.Type)
	assert.Equal(t, "jane.pdf", doc.Meta.OriginalFilename)
	assert.Equal(t, 2, doc.Meta.Redactions)
	assert.Equal(t, len([]rune(doc.Body)), doc.Meta.Chars)
	assert.False(t, doc.Meta.IngestedAt.IsZero())
}

func TestStorageManager_SaveDeduplicates(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t)

	first, err := sm.SaveDocument(ctx, Frontmatter{ID: "abc", Type: DocumentTypeJD}, "first")
	require.NoError(t, err)
	second, err := sm.SaveDocument(ctx, Frontmatter{ID: "abc", Type: DocumentTypeJD}, "second")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	doc, err := sm.ReadDocument(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "first", doc.Body)
}

func TestStorageManager_SaveDerivesID(t *testing.T) {
	sm, _ := newTestManager(t)
	uri, err := sm.SaveDocument(context.Background(), Frontmatter{Type: DocumentTypeJD}, "body")
	require.NoError(t, err)
	assert.Equal(t, "jd://"+GenerateID([]byte("body")), uri)
}

func TestStorageManager_SaveRejectsUnknownType(t *testing.T) {
	sm, _ := newTestManager(t)
	_, err := sm.SaveDocument(context.Background(), Frontmatter{Type: "resume"}, "body")
	assert.Error(t, err)
}

func TestStorageManager_ReadMissing(t *testing.T) {
	sm, _ := newTestManager(t)
	_, err := sm.ReadDocument(context.Background(), "cv://nope")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, retry.IsRetryable(err))
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		docType DocumentType
		id      string
		wantErr bool
	}{
		{"cv://abc123", DocumentTypeCV, "abc123", false},
		{"jd://def456", DocumentTypeJD, "def456", false},
		{"cv://", "", "", true},
		{"xx://abc", "", "", true},
		{"cv://../../etc/passwd", "", "", true},
		{"abc", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			docType, id, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.docType, docType)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID([]byte("content"))
	assert.Equal(t, a, GenerateID([]byte("content")))
	assert.NotEqual(t, a, GenerateID([]byte("other")))
	assert.Len(t, a, 64)
}

func TestStorageManager_Cleanup(t *testing.T) {
	ctx := context.Background()
	sm, fs := newTestManager(t)

	_, err := sm.SaveDocument(ctx, Frontmatter{ID: "old", Type: DocumentTypeCV}, "old")
	require.NoError(t, err)
	_, err = sm.SaveDocument(ctx, Frontmatter{ID: "new", Type: DocumentTypeJD}, "new")
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, fs.Chtimes(filepath.Join(sm.GetPath(DocumentTypeCV), "old.md"), past, past))

	removed, err := sm.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.False(t, sm.DocumentExists("cv://old"))
	assert.True(t, sm.DocumentExists("jd://new"))
}

func TestStorageManager_GetStorageStats(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t)

	stats, err := sm.GetStorageStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	for _, id := range []string{"a", "b"} {
		_, err := sm.SaveDocument(ctx, Frontmatter{ID: id, Type: DocumentTypeCV}, id)
		require.NoError(t, err)
	}
	_, err = sm.SaveDocument(ctx, Frontmatter{ID: "c", Type: DocumentTypeJD}, "c")
	require.NoError(t, err)

	stats, err = sm.GetStorageStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.CV)
	assert.Equal(t, int64(1), stats.JD)
	assert.Positive(t, stats.Bytes)
}

func TestStorageError(t *testing.T) {
	inner := errors.New("disk full")
	err := &StorageError{Operation: "save document", Path: "/x.md", Err: inner}

	assert.Equal(t, "storage error during save document (path: /x.md): disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.True(t, err.Retryable())
}
