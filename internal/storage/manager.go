// Package storage keeps redacted copies of uploaded CVs and job
// descriptions on disk, addressed by the SHA-256 of their content.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// StorageError represents a storage-related failure
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("storage error during %s", e.Operation)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the operation may succeed. A missing
// document or a malformed URI will not appear on retry.
func (e *StorageError) Retryable() bool {
	return !errors.Is(e.Err, ErrNotFound) && !errors.Is(e.Err, ErrInvalidURI)
}

var (
	ErrNotFound   = errors.New("document not found")
	ErrInvalidURI = errors.New("invalid document URI")
)

// DocumentType represents the type of document being stored
type DocumentType string

const (
	DocumentTypeCV DocumentType = "cv"
	DocumentTypeJD DocumentType = "jd"
)

// DocumentTypes lists every stored type
var DocumentTypes = []DocumentType{DocumentTypeCV, DocumentTypeJD}

// IsValid reports whether t is a known type
func (t DocumentType) IsValid() bool {
	return t == DocumentTypeCV || t == DocumentTypeJD
}

// Frontmatter is the YAML header written above each stored document
type Frontmatter struct {
	ID               string       `yaml:"id"`
	Type             DocumentType `yaml:"type"`
	OriginalFilename string       `yaml:"original_filename"`
	IngestedAt       time.Time    `yaml:"ingested_at"`
	Chars            int          `yaml:"chars"`
	Redactions       int          `yaml:"redactions,omitempty"`
}

// Document is a stored document split into header and body
type Document struct {
	Meta Frontmatter
	Body string
}

// StorageConfig holds configuration for the storage manager
type StorageConfig struct {
	BasePath   string
	DefaultTTL time.Duration
	Logger     *slog.Logger
	Fs         afero.Fs
}

// StorageManager handles content-addressed document storage
type StorageManager struct {
	basePath   string
	defaultTTL time.Duration
	logger     *slog.Logger
	fs         afero.Fs
	now        func() time.Time
}

// NewStorageManager creates the storage directories and returns a manager
func NewStorageManager(ctx context.Context, config StorageConfig) (*StorageManager, error) {
	if config.BasePath == "" {
		config.BasePath = "./storage"
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 24 * time.Hour
	}
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, docType := range DocumentTypes {
		path := filepath.Join(config.BasePath, string(docType))
		if err := config.Fs.MkdirAll(path, 0o755); err != nil {
			config.Logger.ErrorContext(ctx, "failed to create storage directory",
				"error", err,
				"path", path,
			)
			return nil, &StorageError{Operation: "init", Path: path, Err: err}
		}
	}

	config.Logger.InfoContext(ctx, "storage manager initialized",
		"base_path", config.BasePath,
		"default_ttl", config.DefaultTTL,
	)

	return &StorageManager{
		basePath:   config.BasePath,
		defaultTTL: config.DefaultTTL,
		logger:     config.Logger,
		fs:         config.Fs,
		now:        time.Now,
	}, nil
}

// GetPath returns the storage directory for a document type
func (sm *StorageManager) GetPath(docType DocumentType) string {
	return filepath.Join(sm.basePath, string(docType))
}

// GenerateID returns the hex SHA-256 of content
func GenerateID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// URI formats a document reference such as cv://<id>
func URI(docType DocumentType, id string) string {
	return fmt.Sprintf("%s://%s", docType, id)
}

// ParseURI splits a cv:// or jd:// URI
func ParseURI(uri string) (DocumentType, string, error) {
	scheme, id, ok := strings.Cut(uri, "://")
	docType := DocumentType(scheme)
	if !ok || !docType.IsValid() || id == "" || strings.ContainsAny(id, `/\.`) {
		return "", "", &StorageError{Operation: "parse URI", Err: fmt.Errorf("%w: %q", ErrInvalidURI, uri)}
	}
	return docType, id, nil
}

func (sm *StorageManager) documentPath(docType DocumentType, id string) string {
	return filepath.Join(sm.GetPath(docType), id+".md")
}

// SaveDocument stores body under id, the hash of the original upload. An
// existing document with the same id is kept and its URI returned.
func (sm *StorageManager) SaveDocument(ctx context.Context, meta Frontmatter, body string) (string, error) {
	if !meta.Type.IsValid() {
		return "", &StorageError{Operation: "save document", Err: fmt.Errorf("unknown document type %q", meta.Type)}
	}
	if meta.ID == "" {
		meta.ID = GenerateID([]byte(body))
	}
	if meta.IngestedAt.IsZero() {
		meta.IngestedAt = sm.now().UTC()
	}
	meta.Chars = len([]rune(body))

	path := sm.documentPath(meta.Type, meta.ID)
	uri := URI(meta.Type, meta.ID)

	if _, err := sm.fs.Stat(path); err == nil {
		sm.logger.DebugContext(ctx, "document already exists",
			"doc_type", meta.Type,
			"id", meta.ID,
		)
		return uri, nil
	}

	header, err := yaml.Marshal(meta)
	if err != nil {
		return "", &StorageError{Operation: "encode frontmatter", Path: path, Err: err}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n")
	buf.WriteString(body)

	if err := afero.WriteFile(sm.fs, path, buf.Bytes(), 0o644); err != nil {
		sm.logger.ErrorContext(ctx, "failed to save document",
			"error", err,
			"doc_type", meta.Type,
			"id", meta.ID,
			"path", path,
		)
		return "", &StorageError{Operation: "save document", Path: path, Err: err}
	}

	sm.logger.InfoContext(ctx, "document saved",
		"doc_type", meta.Type,
		"id", meta.ID,
		"filename", meta.OriginalFilename,
		"chars", meta.Chars,
	)
	return uri, nil
}

// ReadDocument loads and parses a stored document
func (sm *StorageManager) ReadDocument(ctx context.Context, uri string) (Document, error) {
	docType, id, err := ParseURI(uri)
	if err != nil {
		return Document{}, err
	}
	path := sm.documentPath(docType, id)

	raw, err := afero.ReadFile(sm.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, &StorageError{Operation: "read document", Path: path, Err: fmt.Errorf("%w: %s", ErrNotFound, uri)}
	}
	if err != nil {
		sm.logger.ErrorContext(ctx, "failed to read document", "error", err, "uri", uri)
		return Document{}, &StorageError{Operation: "read document", Path: path, Err: err}
	}

	doc, err := parseDocument(raw)
	if err != nil {
		return Document{}, &StorageError{Operation: "parse document", Path: path, Err: err}
	}
	return doc, nil
}

func parseDocument(raw []byte) (Document, error) {
	rest, ok := bytes.CutPrefix(raw, []byte("---\n"))
	if !ok {
		return Document{Body: string(raw)}, nil
	}
	header, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		return Document{}, errors.New("unterminated frontmatter")
	}

	var doc Document
	if err := yaml.Unmarshal(header, &doc.Meta); err != nil {
		return Document{}, fmt.Errorf("invalid frontmatter: %w", err)
	}
	doc.Body = string(body)
	return doc, nil
}

// DocumentExists checks if a document exists in storage
func (sm *StorageManager) DocumentExists(uri string) bool {
	docType, id, err := ParseURI(uri)
	if err != nil {
		return false
	}
	_, err = sm.fs.Stat(sm.documentPath(docType, id))
	return err == nil
}

// Cleanup removes documents older than ttl. Zero uses the default TTL.
func (sm *StorageManager) Cleanup(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl == 0 {
		ttl = sm.defaultTTL
	}
	cutoff := sm.now().Add(-ttl)
	var removed int64

	for _, docType := range DocumentTypes {
		dir := sm.GetPath(docType)
		entries, err := afero.ReadDir(sm.fs, dir)
		if err != nil {
			sm.logger.ErrorContext(ctx, "failed to read directory for cleanup",
				"error", err,
				"dir", dir,
			)
			return removed, &StorageError{Operation: "cleanup", Path: dir, Err: err}
		}

		for _, info := range entries {
			if info.IsDir() || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := sm.fs.Remove(filepath.Join(dir, info.Name())); err != nil {
				sm.logger.WarnContext(ctx, "failed to remove expired document", "error", err, "name", info.Name())
				continue
			}
			removed++
		}
	}

	sm.logger.InfoContext(ctx, "storage cleanup completed",
		"removed", removed,
		"ttl", ttl,
	)
	return removed, nil
}

// Stats counts stored documents per type
type Stats struct {
	CV    int64 `json:"cv"`
	JD    int64 `json:"jd"`
	Bytes int64 `json:"bytes"`
}

// GetStorageStats returns statistics about the storage
func (sm *StorageManager) GetStorageStats(ctx context.Context) (Stats, error) {
	var stats Stats
	for _, docType := range DocumentTypes {
		dir := sm.GetPath(docType)
		entries, err := afero.ReadDir(sm.fs, dir)
		if err != nil {
			return Stats{}, &StorageError{Operation: "stats", Path: dir, Err: err}
		}
		for _, info := range entries {
			if info.IsDir() {
				continue
			}
			stats.Bytes += info.Size()
			switch docType {
			case DocumentTypeCV:
				stats.CV++
			case DocumentTypeJD:
				stats.JD++
			}
		}
	}

	sm.logger.DebugContext(ctx, "storage stats retrieved",
		"cv_count", stats.CV,
		"jd_count", stats.JD,
	)
	return stats, nil
}

// IsAccessible checks that the base and per-type directories exist
func (sm *StorageManager) IsAccessible() bool {
	if _, err := sm.fs.Stat(sm.basePath); err != nil {
		return false
	}
	for _, docType := range DocumentTypes {
		if _, err := sm.fs.Stat(sm.GetPath(docType)); err != nil {
			return false
		}
	}
	return true
}
