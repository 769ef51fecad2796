package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	structuredAttempts = 2
	strictSystemSuffix = "\nIMPORTANT: Return ONLY strict JSON. No prose, no markdown."
	strictUserSuffix   = "\n\nRETRY: Output must be strict JSON."
)

// Validator is implemented by records that can check themselves
type Validator interface {
	Validate() error
}

// Normalizer is implemented by records that fill defaults after decoding
type Normalizer interface {
	Normalize()
}

// Structured asks gen for a JSON document shaped like T. The JSON schema of
// T is appended to the user content as a hint. Output that does not decode
// or validate is retried once with a stricter instruction; provider errors
// are returned as is. event prefixes the lifecycle log messages.
func Structured[T any](ctx context.Context, gen Generator, req Request, event string, logger *slog.Logger) (T, error) {
	var zero T
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, event+"_started", "provider", gen.Name())

	hint, err := SchemaHint[T]()
	if err != nil {
		return zero, fmt.Errorf("%s: %w", event, err)
	}
	base := req
	base.User = req.User + "\n\nJSON schema (for reference): " + hint
	base.JSON = true

	var lastErr error
	for attempt := 1; attempt <= structuredAttempts; attempt++ {
		call := base
		if attempt > 1 {
			call.System += strictSystemSuffix
			call.User += strictUserSuffix
		}

		text, err := gen.Generate(ctx, call)
		if err != nil {
			logger.ErrorContext(ctx, event+"_failed", "provider", gen.Name(), "attempt", attempt, "error", err)
			return zero, fmt.Errorf("%s: %w", event, err)
		}

		v, err := decode[T](text)
		if err == nil {
			logger.InfoContext(ctx, event+"_succeeded", "provider", gen.Name(), "attempt", attempt)
			return v, nil
		}
		lastErr = err
		logger.InfoContext(ctx, event+"_retry", "attempt", attempt, "error", err)
	}

	logger.ErrorContext(ctx, event+"_failed", "provider", gen.Name(), "error", lastErr)
	return zero, &OutputError{Event: event, Attempts: structuredAttempts, Err: lastErr}
}

// SchemaHint renders the JSON schema inferred for T
func SchemaHint[T any]() (string, error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return "", fmt.Errorf("infer schema: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return string(data), nil
}

func decode[T any](text string) (T, error) {
	var v T
	raw, err := ExtractJSON(text)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode json: %w", err)
	}
	if n, ok := any(&v).(Normalizer); ok {
		n.Normalize()
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, err
		}
	}
	return v, nil
}

// ExtractJSON returns the JSON document in model output. Markdown fences are
// stripped; if the text still is not valid JSON, the span from the first
// '{' to the last '}' is tried.
func ExtractJSON(text string) ([]byte, error) {
	text = stripFences(strings.TrimSpace(text))
	if json.Valid([]byte(text)) {
		return []byte(text), nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, errors.New("no json object in model output")
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, errors.New("malformed json in model output")
	}
	return []byte(candidate), nil
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the language tag line
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}
