// Package safety validates free text before it reaches a language model:
// it normalizes and truncates input, records prompt-injection signals and
// optionally asks a moderation provider for a verdict.
package safety

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the input cap applied when none is configured
const DefaultMaxChars = 12000

// BlockedMessage is shown when moderation flags the text
const BlockedMessage = "This content may violate safety policies. Please rephrase and try again."

// Verdict is a moderation provider's opinion about a text
type Verdict struct {
	Provider   string   `json:"provider"`
	Model      string   `json:"model,omitempty"`
	Flagged    bool     `json:"flagged"`
	Categories []string `json:"categories,omitempty"`
}

// Moderator classifies text. An error means the provider could not decide.
type Moderator interface {
	Moderate(ctx context.Context, text string) (Verdict, error)
}

// Meta is diagnostic data about a check, meant for logs only
type Meta struct {
	Label             string   `json:"label"`
	Empty             bool     `json:"empty,omitempty"`
	Chars             int      `json:"chars"`
	Truncated         bool     `json:"truncated"`
	InjectionDetected bool     `json:"injection_detected"`
	Signals           []string `json:"signals,omitempty"`
	Moderation        *Verdict `json:"moderation,omitempty"`
	// ModerationUnavailable is set when the moderator failed and the text was let through
	ModerationUnavailable bool   `json:"moderation_unavailable,omitempty"`
	ModerationError       string `json:"moderation_error,omitempty"`
}

// Decision is the outcome of Check. SafeText is empty unless Allowed.
type Decision struct {
	Allowed     bool   `json:"allowed"`
	UserMessage string `json:"user_message,omitempty"`
	SafeText    string `json:"-"`
	Meta        Meta   `json:"meta"`
}

// Checker runs the safety pipeline
type Checker struct {
	maxChars  int
	moderator Moderator
	logger    *slog.Logger
}

// NewChecker creates a checker. maxChars <= 0 selects DefaultMaxChars and a
// nil moderator disables moderation.
func NewChecker(maxChars int, moderator Moderator) *Checker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Checker{
		maxChars:  maxChars,
		moderator: moderator,
		logger:    slog.Default(),
	}
}

// WithLogger sets a custom logger for the checker
func (c *Checker) WithLogger(logger *slog.Logger) *Checker {
	c.logger = logger
	return c
}

// Check validates text. label names the field in user messages, for
// example "an answer" or "a job description".
func (c *Checker) Check(ctx context.Context, text, label string) Decision {
	safe, truncated := Truncate(text, c.maxChars)
	if safe == "" {
		return Decision{
			UserMessage: fmt.Sprintf("Please provide %s.", label),
			Meta:        Meta{Label: label, Empty: true},
		}
	}

	signals := DetectInjection(safe)
	meta := Meta{
		Label:             label,
		Chars:             utf8.RuneCountInString(safe),
		Truncated:         truncated,
		InjectionDetected: len(signals) > 0,
		Signals:           signals,
	}
	if meta.InjectionDetected {
		c.logger.WarnContext(ctx, "prompt injection signals detected", "label", label, "signals", len(signals))
	}

	if c.moderator != nil {
		verdict, err := c.moderator.Moderate(ctx, safe)
		if err != nil {
			meta.ModerationUnavailable = true
			meta.ModerationError = truncateError(err)
			c.logger.WarnContext(ctx, "moderation unavailable", "label", label, "error", err)
		} else {
			meta.Moderation = &verdict
			if verdict.Flagged {
				c.logger.InfoContext(ctx, "text blocked by moderation", "label", label, "categories", verdict.Categories)
				return Decision{UserMessage: BlockedMessage, Meta: meta}
			}
		}
	}

	return Decision{Allowed: true, SafeText: safe, Meta: meta}
}

// Normalize removes NUL bytes and surrounding whitespace
func Normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\x00", ""))
}

// Truncate normalizes text and cuts it to at most maxChars runes
func Truncate(text string, maxChars int) (string, bool) {
	text = Normalize(text)
	if utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:maxChars]), true
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 300 {
		return msg[:300]
	}
	return msg
}
