package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/storage"
)

// CleanupStorageTool removes expired documents and idle sessions
type CleanupStorageTool struct {
	storageManager *storage.StorageManager
	sessions       *interview.Registry
	defaultTTL     time.Duration
	logger         *slog.Logger
}

// NewCleanupStorageTool creates a new cleanup storage tool
func NewCleanupStorageTool(storageManager *storage.StorageManager, sessions *interview.Registry, defaultTTL time.Duration) *CleanupStorageTool {
	return &CleanupStorageTool{
		storageManager: storageManager,
		sessions:       sessions,
		defaultTTL:     defaultTTL,
		logger:         slog.Default(),
	}
}

// WithLogger sets the logger for the tool
func (t *CleanupStorageTool) WithLogger(logger *slog.Logger) *CleanupStorageTool {
	t.logger = logger
	return t
}

// CleanupReport is the outcome of one cleanup run
type CleanupReport struct {
	TTL             string        `json:"ttl"`
	Removed         int64         `json:"removed"`
	Before          storage.Stats `json:"before"`
	After           storage.Stats `json:"after"`
	SessionsEvicted int           `json:"sessions_evicted"`
}

// parseTTL accepts a duration string or a number of hours. Empty means zero.
func parseTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if ttl, err := time.ParseDuration(raw); err == nil {
		return ttl, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{
			Field:  "ttl",
			Value:  raw,
			Reason: "use a duration string (e.g., '24h') or hours as number",
		}
	}
	return time.Duration(hours) * time.Hour, nil
}

// Call implements the MCP tool interface
func (t *CleanupStorageTool) Call(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		TTL string `json:"ttl"`
	}
	if err := parseArgs(request, &args); err != nil {
		return errorResult("%v", err), nil
	}

	ttl, err := parseTTL(args.TTL)
	if err != nil {
		t.logger.ErrorContext(ctx, "invalid TTL format",
			"error", err,
			"ttl_input", args.TTL,
			"operation", "cleanup_storage",
		)
		return errorResult("%v", err), nil
	}
	if ttl <= 0 {
		ttl = t.defaultTTL
	}

	report, err := t.Run(ctx, ttl)
	if err != nil {
		return errorResult("cleanup failed: %v", err), nil
	}
	return jsonResult(report)
}

// Run removes documents and sessions older than ttl
func (t *CleanupStorageTool) Run(ctx context.Context, ttl time.Duration) (CleanupReport, error) {
	report := CleanupReport{TTL: ttl.String()}

	before, err := t.storageManager.GetStorageStats(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to get storage stats before cleanup",
			"error", err,
			"operation", "cleanup_storage",
		)
		return report, fmt.Errorf("storage stats: %w", err)
	}
	report.Before = before

	removed, err := t.storageManager.Cleanup(ctx, ttl)
	if err != nil {
		t.logger.ErrorContext(ctx, "cleanup operation failed",
			"error", err,
			"ttl", ttl,
			"operation", "cleanup_storage",
		)
		return report, err
	}
	report.Removed = removed

	// counts after a successful cleanup are informational only
	report.After, _ = t.storageManager.GetStorageStats(ctx)

	if t.sessions != nil {
		report.SessionsEvicted = t.sessions.Evict(ttl)
	}

	t.logger.InfoContext(ctx, "storage cleanup completed",
		"ttl", ttl,
		"removed", removed,
		"cv_before", before.CV,
		"cv_after", report.After.CV,
		"jd_before", before.JD,
		"jd_after", report.After.JD,
		"sessions_evicted", report.SessionsEvicted,
	)
	return report, nil
}

// StartCleanupRoutine runs Run every interval until ctx is done
func (t *CleanupStorageTool) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := t.Run(ctx, t.defaultTTL); err != nil {
					t.logger.WarnContext(ctx, "periodic cleanup failed", "error", err)
				}
			}
		}
	}()
}
