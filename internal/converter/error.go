package converter

import (
	"fmt"
	"net/http"
)

// ConversionError represents a conversion failure with detailed error info
type ConversionError struct {
	OriginalError error
	Path          string
	Hint          string
}

func (e *ConversionError) Error() string {
	msg := "document conversion failed"
	if e.OriginalError != nil {
		msg += fmt.Sprintf(": %v", e.OriginalError)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (file: %s)", e.Path)
	}
	if e.Hint != "" {
		msg += fmt.Sprintf("\nHint: %s", e.Hint)
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.OriginalError
}

// UnsupportedFormatError is returned for file types with no extractor
type UnsupportedFormatError struct {
	Filename string
	Ext      string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("unsupported file type: %s has no extension", e.Filename)
	}
	return fmt.Sprintf("unsupported file type %s (file: %s)", e.Ext, e.Filename)
}

// HTTPError represents an HTTP error
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, http.StatusText(e.StatusCode))
}

// Retryable reports whether fetching again may succeed
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
