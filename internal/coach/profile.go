package coach

import (
	"context"
	"strings"

	"github.com/kfreiman/interviewcoach/internal/coverage"
	"github.com/kfreiman/interviewcoach/internal/events"
	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/kfreiman/interviewcoach/internal/schema"
)

// BuildProfile derives the candidate profile from cvText, or from the CV
// already on the session when cvText is empty, and picks the skills to
// track. The profile is stored on the session and, for known users, in the
// database.
func (c *Coach) BuildProfile(ctx context.Context, sessionID, cvText string) Result {
	return c.withSession(sessionID, func(s *interview.Session) Result {
		if c.profiler == nil {
			return failed(ErrNotConfigured)
		}
		d := s.Durable()
		if strings.TrimSpace(cvText) == "" {
			cvText = d.CVText
		}
		decision := c.safety.Check(ctx, cvText, "a CV")
		if !decision.Allowed {
			return rejected(decision.UserMessage, nil)
		}

		profile, err := c.profiler.Profile(ctx, decision.SafeText)
		if err == nil {
			profile.Normalize()
			err = profile.Validate()
		}
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to build profile", "session_id", sessionID, "error", err)
			return failed(err)
		}

		topSkills := c.rankSkills(ctx, &profile, jobDescription(d))

		if c.profileStore != nil && d.UserID != nil {
			err := retry.Do(ctx, c.retry, func(int) error {
				return c.profileStore.UpdateUserProfile(ctx, *d.UserID, profile, topSkills)
			})
			if err != nil {
				c.logger.ErrorContext(ctx, "failed to persist profile", "session_id", sessionID, "error", err)
				return failed(err)
			}
		}

		s.UpdateDurable(func(d *interview.Durable) {
			d.Profile = &profile
			d.TopSkills = topSkills
			d.CVText = cvText
		})

		c.logger.InfoContext(ctx, "profile built", "session_id", sessionID, "seniority", profile.Seniority, "top_skills", len(topSkills))
		c.publish(ctx, events.Event{
			Type:          events.TypeProfileBuilt,
			SessionID:     sessionID,
			UserID:        d.UserID,
			UserVacancyID: d.UserVacancyID,
		})
		return succeeded(s, "")
	})
}

// rankSkills orders the profile skills by relevance to the job
// description, falling back to profile order
func (c *Coach) rankSkills(ctx context.Context, profile *schema.CandidateProfile, jd string) []string {
	if c.ranker != nil {
		skills, err := c.ranker.TopSkills(ctx, profile, jd)
		if err == nil {
			return skills
		}
		c.logger.WarnContext(ctx, "failed to rank skills, keeping profile order", "error", err)
	}
	return coverage.Dedupe(append(append([]string{}, profile.Skills...), profile.Tools...))
}
