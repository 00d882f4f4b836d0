package providers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"stockmeta/internal/providers/prompt"
)

// Outcome is the tagged result of one attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// Classify decides from structured error data whether an attempt may be
// repeated with the same credential.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	switch {
	case errors.Is(err, context.Canceled):
		return OutcomeFatal
	case errors.Is(err, ErrSafetyBlocked), errors.Is(err, ErrMissingAPIKey):
		return OutcomeFatal
	case errors.Is(err, prompt.ErrMalformedResponse):
		return OutcomeRetryable
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Timeout:
			return OutcomeRetryable
		case se.Code == http.StatusTooManyRequests, se.Code >= http.StatusInternalServerError:
			return OutcomeRetryable
		case se.Code == 0:
			return OutcomeRetryable
		default:
			return OutcomeFatal
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeRetryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return OutcomeRetryable
	}
	return OutcomeFatal
}
