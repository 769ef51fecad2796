package mcp

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/interviewcoach/internal/coach"
	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/prompts"
	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/kfreiman/interviewcoach/internal/schema"
	"github.com/kfreiman/interviewcoach/internal/storage"
)

// untitledPosition names vacancies created without a title
const untitledPosition = "Untitled position"

// UserStore persists users and the vacancies they interview for
type UserStore interface {
	UpsertUser(ctx context.Context, email, firstName, lastName string) (int64, error)
	UpdateUserCV(ctx context.Context, userID int64, cvHash, cvText string) error
	UserProfile(ctx context.Context, userID int64) (*schema.CandidateProfile, error)
	UserTopSkills(ctx context.Context, userID int64) ([]string, error)
	UpsertVacancy(ctx context.Context, positionTitle, jdHash, jdText string) (int64, error)
	LinkUserVacancy(ctx context.Context, userID, vacancyID int64) (int64, error)
}

// accounts ties sessions to stored users and vacancies
type accounts struct {
	users UserStore
	retry retry.Config
}

// SessionTools exposes the coach operations as MCP tools
type SessionTools struct {
	accounts
	coach  *coach.Coach
	logger *slog.Logger
}

// NewSessionTools creates the session tools. users may be nil, in which
// case sessions are never persisted.
func NewSessionTools(c *coach.Coach, users UserStore) *SessionTools {
	return &SessionTools{
		accounts: accounts{users: users, retry: retry.DefaultConfig},
		coach:    c,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the tools
func (t *SessionTools) WithLogger(logger *slog.Logger) *SessionTools {
	t.logger = logger
	return t
}

// WithRetry sets the retry policy for database calls
func (t *SessionTools) WithRetry(cfg retry.Config) *SessionTools {
	t.retry = cfg
	return t
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	CVText    string `json:"cv_text"`
}

type createSessionArgs struct {
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PositionTitle  string `json:"position_title"`
	JobDescription string `json:"job_description"`
	PromptMode     string `json:"prompt_mode"`
}

// sessionResponse is the JSON body of every session tool
type sessionResponse struct {
	SessionID string `json:"session_id"`
	coach.Result
}

// CreateSession implements the create_session tool
func (t *SessionTools) CreateSession(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createSessionArgs
	if err := parseArgs(request, &args); err != nil {
		return errorResult("%v", err), nil
	}

	mode, err := prompts.ParseMode(args.PromptMode)
	if err != nil {
		return errorResult("%v", err), nil
	}

	d := interview.Durable{
		PromptMode:     string(mode),
		PositionTitle:  strings.TrimSpace(args.PositionTitle),
		JobDescription: strings.TrimSpace(args.JobDescription),
	}

	if email := strings.TrimSpace(args.Email); email != "" && t.users != nil {
		if err := t.loadUser(ctx, &d, email, args.FirstName, args.LastName); err != nil {
			t.logger.ErrorContext(ctx, "failed to load user",
				"error", err,
				"operation", "create_session",
			)
			return errorResult("%s", coach.GenericFailureMessage), nil
		}
		if d.JobDescription != "" {
			if err := t.linkVacancy(ctx, &d, d.JobDescription); err != nil {
				t.logger.ErrorContext(ctx, "failed to link vacancy",
					"error", err,
					"operation", "create_session",
				)
				return errorResult("%s", coach.GenericFailureMessage), nil
			}
		}
	}

	id := t.coach.Registry().Create(d)
	var snap interview.Snapshot
	if err := t.coach.Registry().With(id, func(s *interview.Session) error {
		snap = s.Snapshot()
		return nil
	}); err != nil {
		return errorResult("%v", err), nil
	}

	t.logger.InfoContext(ctx, "session created",
		"session_id", id,
		"prompt_mode", d.PromptMode,
		"persisted", d.UserID != nil,
	)
	return jsonResult(sessionResponse{
		SessionID: id,
		Result:    coach.Result{Status: coach.StatusOK, Session: &snap},
	})
}

// loadUser upserts the user and restores the stored profile and skills
func (t accounts) loadUser(ctx context.Context, d *interview.Durable, email, first, last string) error {
	var userID int64
	err := retry.Do(ctx, t.retry, func(int) error {
		var err error
		userID, err = t.users.UpsertUser(ctx, email, strings.TrimSpace(first), strings.TrimSpace(last))
		return err
	})
	if err != nil {
		return err
	}
	d.UserID = &userID

	profile, err := t.users.UserProfile(ctx, userID)
	if err != nil {
		return err
	}
	d.Profile = profile
	skills, err := t.users.UserTopSkills(ctx, userID)
	if err != nil {
		return err
	}
	if len(skills) > 0 {
		d.TopSkills = skills
	}
	return nil
}

// linkVacancy records the vacancy for jdText and links it to the session
// user, which turns on turn persistence
func (t accounts) linkVacancy(ctx context.Context, d *interview.Durable, jdText string) error {
	if d.UserID == nil || t.users == nil {
		return nil
	}
	title := d.PositionTitle
	if title == "" {
		title = untitledPosition
	}
	hash := d.JDFileHash
	if hash == "" {
		hash = storage.GenerateID([]byte(jdText))
	}

	var vacancyID, userVacancyID int64
	err := retry.Do(ctx, t.retry, func(int) error {
		var err error
		if vacancyID, err = t.users.UpsertVacancy(ctx, title, hash, jdText); err != nil {
			return err
		}
		userVacancyID, err = t.users.LinkUserVacancy(ctx, *d.UserID, vacancyID)
		return err
	})
	if err != nil {
		return err
	}
	d.VacancyID = &vacancyID
	d.UserVacancyID = &userVacancyID
	return nil
}

// BuildProfile implements the build_profile tool
func (t *SessionTools) BuildProfile(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, request, "build_profile", func(args sessionArgs) coach.Result {
		return t.coach.BuildProfile(ctx, args.SessionID, args.CVText)
	})
}

// StartInterview implements the start_interview tool
func (t *SessionTools) StartInterview(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, request, "start_interview", func(args sessionArgs) coach.Result {
		return t.coach.Start(ctx, args.SessionID)
	})
}

// SubmitAnswer implements the submit_answer tool
func (t *SessionTools) SubmitAnswer(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, request, "submit_answer", func(args sessionArgs) coach.Result {
		return t.coach.Submit(ctx, args.SessionID, args.Answer)
	})
}

// SkipQuestion implements the skip_question tool
func (t *SessionTools) SkipQuestion(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, request, "skip_question", func(args sessionArgs) coach.Result {
		return t.coach.Skip(ctx, args.SessionID)
	})
}

// ResetInterview implements the reset_interview tool
func (t *SessionTools) ResetInterview(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, request, "reset_interview", func(args sessionArgs) coach.Result {
		return t.coach.Reset(ctx, args.SessionID)
	})
}

// GetSession implements the get_session tool
func (t *SessionTools) GetSession(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, request, "get_session", func(args sessionArgs) coach.Result {
		var res coach.Result
		err := t.coach.Registry().With(args.SessionID, func(s *interview.Session) error {
			snap := s.Snapshot()
			res = coach.Result{Status: coach.StatusOK, Session: &snap}
			return nil
		})
		if err != nil {
			return coach.Result{Status: coach.StatusRejected, Message: "Session not found. Create a new session first.", Err: err}
		}
		return res
	})
}

// run parses the session arguments, calls op and renders its result
func (t *SessionTools) run(ctx context.Context, request *mcp.CallToolRequest, operation string, op func(sessionArgs) coach.Result) (*mcp.CallToolResult, error) {
	var args sessionArgs
	if err := parseArgs(request, &args); err != nil {
		return errorResult("%v", err), nil
	}
	if strings.TrimSpace(args.SessionID) == "" {
		return errorResult("'session_id' parameter is required"), nil
	}

	res := op(args)
	switch res.Status {
	case coach.StatusFailed:
		t.logger.ErrorContext(ctx, "session operation failed",
			"error", res.Err,
			"session_id", args.SessionID,
			"operation", operation,
		)
	case coach.StatusRejected:
		t.logger.InfoContext(ctx, "session operation rejected",
			"session_id", args.SessionID,
			"operation", operation,
			"reason", res.Message,
		)
	default:
		t.logger.DebugContext(ctx, "session operation completed",
			"session_id", args.SessionID,
			"operation", operation,
		)
	}

	result, err := jsonResult(sessionResponse{SessionID: args.SessionID, Result: res})
	if err != nil {
		return nil, err
	}
	result.IsError = !res.OK()
	return result, nil
}
