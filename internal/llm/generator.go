// Package llm talks to text-generation providers and turns their output
// into validated records.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Request is one prompt exchange
type Request struct {
	System      string
	User        string
	Temperature float32
	// JSON asks the provider for a JSON response when it supports it
	JSON bool
}

// Generator produces text for a request
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Fallback tries each generator in order until one succeeds
type Fallback struct {
	generators []Generator
	logger     *slog.Logger
}

// NewFallback chains generators. Nil entries are skipped.
func NewFallback(generators ...Generator) *Fallback {
	f := &Fallback{logger: slog.Default()}
	for _, g := range generators {
		if g != nil {
			f.generators = append(f.generators, g)
		}
	}
	return f
}

// WithLogger sets a custom logger
func (f *Fallback) WithLogger(logger *slog.Logger) *Fallback {
	f.logger = logger
	return f
}

// Name lists the chained providers
func (f *Fallback) Name() string {
	name := "fallback("
	for i, g := range f.generators {
		if i > 0 {
			name += ","
		}
		name += g.Name()
	}
	return name + ")"
}

// Generate returns the first successful response. A cancelled context
// stops the chain.
func (f *Fallback) Generate(ctx context.Context, req Request) (string, error) {
	if len(f.generators) == 0 {
		return "", errors.New("no generators configured")
	}

	var errs []error
	for i, g := range f.generators {
		out, err := g.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", g.Name(), err))
		if ctx.Err() != nil {
			break
		}
		if i < len(f.generators)-1 {
			f.logger.WarnContext(ctx, "provider failed, falling back",
				"provider", g.Name(),
				"next", f.generators[i+1].Name(),
				"error", err,
			)
		}
	}
	return "", fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}
