package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/store"
)

// AnalyticsStore reads the persisted interview history
type AnalyticsStore interface {
	SessionAnalytics(ctx context.Context, userVacancyID int64) (store.Analytics, error)
	PopulationCorrectness(ctx context.Context, userID int64) (store.Population, error)
}

// AnalyticsTool reports scores of persisted interviews
type AnalyticsTool struct {
	store    AnalyticsStore
	sessions *interview.Registry
	logger   *slog.Logger
}

// NewAnalyticsTool creates a new analytics tool
func NewAnalyticsTool(s AnalyticsStore, sessions *interview.Registry) *AnalyticsTool {
	return &AnalyticsTool{
		store:    s,
		sessions: sessions,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the tool
func (t *AnalyticsTool) WithLogger(logger *slog.Logger) *AnalyticsTool {
	t.logger = logger
	return t
}

type analyticsArgs struct {
	SessionID     string `json:"session_id"`
	UserVacancyID int64  `json:"user_vacancy_id"`
}

type analyticsResponse struct {
	UserVacancyID int64 `json:"user_vacancy_id"`
	store.Analytics
	Population *store.Population `json:"population,omitempty"`
}

// Call implements the MCP tool interface
func (t *AnalyticsTool) Call(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args analyticsArgs
	if err := parseArgs(request, &args); err != nil {
		return errorResult("%v", err), nil
	}

	uv := args.UserVacancyID
	var userID *int64
	if args.SessionID != "" {
		err := t.sessions.With(args.SessionID, func(s *interview.Session) error {
			d := s.Durable()
			if d.UserVacancyID != nil {
				uv = *d.UserVacancyID
			}
			userID = d.UserID
			return nil
		})
		if err != nil {
			return errorResult("%v", err), nil
		}
	}
	if uv <= 0 {
		return errorResult("no persisted interview: pass 'user_vacancy_id' or a session created with an email and a job description"), nil
	}

	analytics, err := t.store.SessionAnalytics(ctx, uv)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to load analytics",
			"error", err,
			"user_vacancy_id", uv,
			"operation", "get_analytics",
		)
		return errorResult("failed to load analytics: %v", err), nil
	}

	resp := analyticsResponse{UserVacancyID: uv, Analytics: analytics}
	if userID != nil {
		population, err := t.store.PopulationCorrectness(ctx, *userID)
		if err != nil {
			t.logger.WarnContext(ctx, "failed to load population correctness",
				"error", err,
				"user_id", *userID,
			)
		} else {
			resp.Population = &population
		}
	}

	t.logger.DebugContext(ctx, "analytics retrieved",
		"user_vacancy_id", uv,
		"total_questions", analytics.Summary.TotalQuestions,
	)
	return jsonResult(resp)
}
