package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrMissingCredentials = errors.New("no api keys configured for provider")
	ErrStopped            = errors.New("run stopped")
	ErrUnsupportedModel   = errors.New("unsupported model")
)

// FailureKind classifies why generation for an item did not succeed.
type FailureKind int

const (
	KindRetryable FailureKind = iota + 1
	KindFatal
	KindTerminal
	KindConfiguration
)

func (k FailureKind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindFatal:
		return "fatal"
	case KindTerminal:
		return "terminal"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// GenerationError is the single error type surfaced by the pipeline.
type GenerationError struct {
	Kind     FailureKind
	Provider Provider
	Status   int
	Message  string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s error (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s error: %s", e.Provider, e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries a GenerationError of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var ge *GenerationError
	return errors.As(err, &ge) && ge.Kind == kind
}
