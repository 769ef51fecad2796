package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/interviewcoach/internal/storage"
)

const statsURI = "interviewcoach://storage/stats"

// StorageResourceHandler handles cv:// and jd:// resource requests
type StorageResourceHandler struct {
	storageManager *storage.StorageManager
	logger         *slog.Logger
}

// NewStorageResourceHandler creates a new storage resource handler
func NewStorageResourceHandler(storageManager *storage.StorageManager) *StorageResourceHandler {
	return &StorageResourceHandler{
		storageManager: storageManager,
		logger:         slog.Default(),
	}
}

// WithLogger sets the logger for the handler
func (h *StorageResourceHandler) WithLogger(logger *slog.Logger) *StorageResourceHandler {
	h.logger = logger
	return h
}

// ReadResource returns the redacted body of a stored document
func (h *StorageResourceHandler) ReadResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI

	if _, _, err := storage.ParseURI(uri); err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	doc, err := h.storageManager.ReadDocument(ctx, uri)
	if err != nil {
		h.logger.DebugContext(ctx, "document not readable", "uri", uri, "error", err)
		return nil, mcp.ResourceNotFoundError(uri)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     doc.Body,
		}},
	}, nil
}

// ReadStats returns document counts as JSON
func (h *StorageResourceHandler) ReadStats(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	stats, err := h.storageManager.GetStorageStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get storage stats", "error", err)
		return nil, err
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
