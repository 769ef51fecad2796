package llm

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ProviderError is a failed call to a model provider
type ProviderError struct {
	Provider string
	Model    string
	Code     int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s provider error (model %s, status %d): %v", e.Provider, e.Model, e.Code, e.Err)
	}
	return fmt.Sprintf("%s provider error (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the provider signalled a transient condition
func (e *ProviderError) Retryable() bool {
	switch {
	case e.Code == http.StatusTooManyRequests, e.Code == http.StatusRequestTimeout:
		return true
	case e.Code >= 500 && e.Code <= 599:
		return true
	default:
		return false
	}
}

// OutputError means the model answered but the output could not be turned
// into the requested structure.
type OutputError struct {
	Event    string
	Attempts int
	Err      error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s: invalid model output after %d attempts: %v", e.Event, e.Attempts, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// Retryable is true: sampling again may produce valid output
func (e *OutputError) Retryable() bool {
	return true
}

// ErrEmptyResponse is returned when a provider produced no text
var ErrEmptyResponse = errors.New("empty model response")

func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
