// Package providers defines the contract shared by the vision model adapters
// and the policy table that tells the pipeline how to drive each model.
package providers

import (
	"context"
	"errors"
	"fmt"
)

// Request is one generation attempt against a provider.
type Request struct {
	Credential string
	Model      string
	Prompt     string
	Image      []byte
	MimeType   string
	// SystemRole sends the prompt as a system message instead of alongside
	// the image in the user message.
	SystemRole bool
}

// Adapter performs exactly one network round trip and returns the model's
// raw text. Adapters never retry.
type Adapter interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

var (
	// ErrSafetyBlocked is returned when the provider refused the image.
	ErrSafetyBlocked = errors.New("content blocked by safety filter")
	// ErrMissingAPIKey is returned before any request when no key is set.
	ErrMissingAPIKey = errors.New("api key is required")
)

// StatusError is a non-2xx response or a transport failure.
type StatusError struct {
	Provider string
	Code     int
	Message  string
	// Timeout is set when the request never got a response in time.
	Timeout bool
	Err     error
}

func (e *StatusError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s request timed out: %s", e.Provider, e.Message)
	case e.Code == 0:
		return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s status %d", e.Provider, e.Code)
	default:
		return fmt.Sprintf("%s status %d: %s", e.Provider, e.Code, e.Message)
	}
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
