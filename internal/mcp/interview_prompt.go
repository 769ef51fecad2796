package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/prompts"
)

// MockInterviewPrompt handles the mock_interview prompt
type MockInterviewPrompt struct {
	sessions *interview.Registry
	catalog  *prompts.Catalog
}

// NewMockInterviewPrompt creates a new mock interview prompt
func NewMockInterviewPrompt(sessions *interview.Registry, catalog *prompts.Catalog) *MockInterviewPrompt {
	return &MockInterviewPrompt{
		sessions: sessions,
		catalog:  catalog,
	}
}

// Handle implements the prompt handler interface
func (p *MockInterviewPrompt) Handle(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sessionID := req.Params.Arguments["session_id"]
	if sessionID == "" {
		return nil, fmt.Errorf("session_id parameter is required")
	}

	var d interview.Durable
	err := p.sessions.With(sessionID, func(s *interview.Session) error {
		d = s.Durable()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	mode, err := prompts.ParseMode(d.PromptMode)
	if err != nil {
		return nil, err
	}
	tone, err := p.catalog.Tone(mode)
	if err != nil {
		return nil, err
	}

	return &mcp.GetPromptResult{
		Description: "Run a mock interview",
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: BuildMockInterviewPrompt(sessionID, d, tone),
				},
			},
		},
	}, nil
}

// BuildMockInterviewPrompt describes the interview loop for a client model
func BuildMockInterviewPrompt(sessionID string, d interview.Durable, tone string) string {
	position := d.PositionTitle
	if position == "" {
		position = "the role in the job description"
	}

	var missing []string
	if strings.TrimSpace(d.JobDescription) == "" && strings.TrimSpace(d.JDText) == "" {
		missing = append(missing, "- No job description yet: call ingest_document with type \"jd\".")
	}
	if d.Profile == nil {
		missing = append(missing, "- No candidate profile yet: ingest the CV, then call build_profile.")
	}
	setup := "The session is ready."
	if len(missing) > 0 {
		setup = "Before starting:\n" + strings.Join(missing, "\n")
	}

	skills := "derived when the interview starts"
	if len(d.TopSkills) > 0 {
		skills = strings.Join(d.TopSkills, ", ")
	}

	return fmt.Sprintf(`You are hosting a mock interview for %s.

Session: %s
Interviewer tone: %s
Skills in rotation: %s

%s

## Loop

1. Call start_interview and show the question to the candidate.
2. Pass the candidate's reply to submit_answer, or call skip_question when they want to skip.
3. After each answer show the scorecard (0-5 per dimension), the strengths and improvements,
   then the fallacy hint. Present fallacy hints as possible patterns, never as verdicts.
4. Show the next question and repeat.
5. When the candidate is done, call get_analytics and summarize the trend.

If a tool returns status "rejected", show its message and ask the candidate to rephrase.
If it returns status "failed" with retryable true, retry the same call once.`,
		position, sessionID, tone, skills, setup)
}
