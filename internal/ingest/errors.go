package ingest

import (
	"errors"
	"fmt"
)

// ValidationError represents input validation failure
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s '%s': %s", e.Field, e.Value, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// SecurityError represents a rejected filename
type SecurityError struct {
	Type    string // "path_traversal" or "null_byte"
	Details string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security violation (%s): %s", e.Type, e.Details)
}

// DegradedError is returned together with a usable result when a
// non-critical step failed
type DegradedError struct {
	Component string
	Err       error
	Fallback  string
}

func (e *DegradedError) Error() string {
	msg := fmt.Sprintf("degraded operation in %s", e.Component)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Fallback != "" {
		msg += fmt.Sprintf(" (using fallback: %s)", e.Fallback)
	}
	return msg
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}

// IsDegraded checks if an error allows graceful degradation
func IsDegraded(err error) bool {
	var d *DegradedError
	return errors.As(err, &d)
}
