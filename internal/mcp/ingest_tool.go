package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"

	"github.com/kfreiman/interviewcoach/internal/converter"
	"github.com/kfreiman/interviewcoach/internal/ingest"
	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/kfreiman/interviewcoach/internal/storage"
)

// pastedFilename names raw text passed instead of a path
const pastedFilename = "pasted.txt"

// IngestDocumentTool extracts CV and job description text and attaches it
// to a session
type IngestDocumentTool struct {
	accounts
	ingestor ingest.Ingestor
	sessions *interview.Registry
	fs       afero.Fs
	logger   *slog.Logger
}

// NewIngestDocumentTool creates a new ingest document tool. users may be
// nil.
func NewIngestDocumentTool(ingestor ingest.Ingestor, sessions *interview.Registry, users UserStore) *IngestDocumentTool {
	return &IngestDocumentTool{
		accounts: accounts{users: users, retry: retry.DefaultConfig},
		ingestor: ingestor,
		sessions: sessions,
		fs:       afero.NewOsFs(),
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the tool
func (t *IngestDocumentTool) WithLogger(logger *slog.Logger) *IngestDocumentTool {
	t.logger = logger
	return t
}

// WithFs sets the filesystem local paths are read from
func (t *IngestDocumentTool) WithFs(fs afero.Fs) *IngestDocumentTool {
	t.fs = fs
	return t
}

type ingestArgs struct {
	Path          string `json:"path"`
	Type          string `json:"type"`
	SessionID     string `json:"session_id"`
	PositionTitle string `json:"position_title"`
}

type ingestResponse struct {
	URI       string `json:"uri,omitempty"`
	Type      string `json:"type"`
	Filename  string `json:"filename"`
	Hash      string `json:"hash"`
	Chars     int    `json:"chars"`
	Truncated bool   `json:"truncated"`
	SessionID string `json:"session_id,omitempty"`
	Degraded  string `json:"degraded,omitempty"`
}

// Call implements the MCP tool interface
func (t *IngestDocumentTool) Call(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args ingestArgs
	if err := parseArgs(request, &args); err != nil {
		return errorResult("%v", err), nil
	}

	if args.Path == "" {
		return errorResult("'path' parameter is required"), nil
	}
	if args.Type == "" {
		args.Type = string(storage.DocumentTypeCV)
	}
	kind := storage.DocumentType(args.Type)
	if !kind.IsValid() {
		return errorResult("'type' must be 'cv' or 'jd'"), nil
	}

	doc, err := t.ingest(ctx, kind, args.Path)
	degraded := ""
	if err != nil {
		if !ingest.IsDegraded(err) {
			t.logger.ErrorContext(ctx, "document ingestion failed",
				"error", err,
				"type", kind,
				"operation", "ingest_document",
			)
			return errorResult("%v", err), nil
		}
		degraded = err.Error()
	}

	if args.SessionID != "" {
		if err := t.attach(ctx, args.SessionID, doc, strings.TrimSpace(args.PositionTitle)); err != nil {
			t.logger.ErrorContext(ctx, "failed to attach document to session",
				"error", err,
				"session_id", args.SessionID,
				"operation", "ingest_document",
			)
			return errorResult("%v", err), nil
		}
	}

	return jsonResult(ingestResponse{
		URI:       doc.URI,
		Type:      string(doc.Kind),
		Filename:  doc.Filename,
		Hash:      doc.Hash,
		Chars:     len([]rune(doc.Text)),
		Truncated: doc.Truncated,
		SessionID: args.SessionID,
		Degraded:  degraded,
	})
}

// ingest dispatches on the input kind: URL, local file or raw text
func (t *IngestDocumentTool) ingest(ctx context.Context, kind storage.DocumentType, input string) (ingest.Document, error) {
	info := converter.ParseInput(input)
	switch info.Type {
	case converter.InputTypeURL:
		return t.ingestor.IngestURL(ctx, kind, input)
	case converter.InputTypeFile:
		if err := validatePath(input); err != nil {
			return ingest.Document{}, err
		}
		data, err := afero.ReadFile(t.fs, input)
		if err != nil {
			return ingest.Document{}, &storage.StorageError{Operation: "read input", Path: input, Err: err}
		}
		return t.ingestor.Ingest(ctx, kind, filepath.Base(input), data)
	default:
		return t.ingestor.Ingest(ctx, kind, pastedFilename, []byte(input))
	}
}

// attach stores the document text on the session. A CV is also saved for
// the user, a job description links the user to its vacancy.
func (t *IngestDocumentTool) attach(ctx context.Context, sessionID string, doc ingest.Document, positionTitle string) error {
	return t.sessions.With(sessionID, func(s *interview.Session) error {
		d := s.Durable()
		switch doc.Kind {
		case storage.DocumentTypeCV:
			if d.UserID != nil && t.users != nil {
				err := retry.Do(ctx, t.retry, func(int) error {
					return t.users.UpdateUserCV(ctx, *d.UserID, doc.Hash, doc.Text)
				})
				if err != nil {
					return fmt.Errorf("save CV: %w", err)
				}
			}
			s.UpdateDurable(func(d *interview.Durable) {
				d.CVText = doc.Text
				d.CVFileHash = doc.Hash
			})
		case storage.DocumentTypeJD:
			d.JDText = doc.Text
			d.JDFileHash = doc.Hash
			d.JobDescription = doc.Text
			if positionTitle != "" {
				d.PositionTitle = positionTitle
			}
			if err := t.linkVacancy(ctx, &d, doc.Text); err != nil {
				return fmt.Errorf("link vacancy: %w", err)
			}
			s.UpdateDurable(func(cur *interview.Durable) {
				*cur = d
			})
		}
		t.logger.InfoContext(ctx, "document attached to session",
			"session_id", sessionID,
			"type", doc.Kind,
			"hash", doc.Hash,
		)
		return nil
	})
}

// validatePath validates a file path to prevent path traversal
func validatePath(path string) error {
	if strings.Contains(path, "..") {
		return &SecurityError{
			Type:    "path_traversal",
			Details: fmt.Sprintf("path contains traversal sequence: %s", path),
		}
	}
	if strings.Contains(path, "\x00") {
		return &SecurityError{
			Type:    "null_byte",
			Details: "path contains null bytes",
		}
	}
	return nil
}
