package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"stockmeta/internal/domain"
	"stockmeta/internal/providers/prompt"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "nil", err: nil, want: OutcomeSuccess},
		{name: "429", err: &StatusError{Provider: "groq", Code: http.StatusTooManyRequests}, want: OutcomeRetryable},
		{name: "500", err: &StatusError{Provider: "groq", Code: 500}, want: OutcomeRetryable},
		{name: "503_wrapped", err: fmt.Errorf("call: %w", &StatusError{Code: 503}), want: OutcomeRetryable},
		{name: "timeout", err: &StatusError{Timeout: true}, want: OutcomeRetryable},
		{name: "transport", err: &StatusError{Message: "connection reset"}, want: OutcomeRetryable},
		{name: "net_error", err: timeoutErr{}, want: OutcomeRetryable},
		{name: "deadline", err: context.DeadlineExceeded, want: OutcomeRetryable},
		{name: "parse", err: fmt.Errorf("%w: missing title", prompt.ErrMalformedResponse), want: OutcomeRetryable},
		{name: "401", err: &StatusError{Code: http.StatusUnauthorized}, want: OutcomeFatal},
		{name: "403", err: &StatusError{Code: http.StatusForbidden}, want: OutcomeFatal},
		{name: "400", err: &StatusError{Code: http.StatusBadRequest}, want: OutcomeFatal},
		{name: "safety", err: fmt.Errorf("gemini: %w", ErrSafetyBlocked), want: OutcomeFatal},
		{name: "missing_key", err: ErrMissingAPIKey, want: OutcomeFatal},
		{name: "canceled", err: &StatusError{Err: context.Canceled}, want: OutcomeFatal},
		{name: "unknown", err: errors.New("boom"), want: OutcomeFatal},
		{name: "message_mentions_401", err: &StatusError{Code: 500, Message: "upstream said 401"}, want: OutcomeRetryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestLookupPolicies(t *testing.T) {
	cases := []struct {
		provider    domain.Provider
		model       string
		family      Family
		timeout     time.Duration
		retries     int
		concurrency int
		systemRole  bool
		needsKey    bool
	}{
		{domain.ProviderGemini, "gemini-3-flash-preview", FamilySchema, 90 * time.Second, 5, 4, false, false},
		{domain.ProviderGemini, "gemini-3-pro-preview", FamilySchema, 120 * time.Second, 5, 4, false, false},
		{domain.ProviderGroq, "meta-llama/llama-4-scout-17b-16e-instruct", FamilyChat, 90 * time.Second, 5, 4, false, true},
		{domain.ProviderGroq, "meta-llama/llama-4-maverick-17b-128e-instruct", FamilyChat, 90 * time.Second, 5, 1, true, true},
		{domain.ProviderMistral, "pixtral-12b-latest", FamilyChat, 120 * time.Second, 10, 4, false, true},
		{domain.ProviderMistral, "mistral-small-latest", FamilyChat, 60 * time.Second, 5, 4, false, true},
	}
	for _, tc := range cases {
		p, ok := Lookup(tc.provider, tc.model)
		if !ok {
			t.Fatalf("Lookup(%s, %s) not found", tc.provider, tc.model)
		}
		if p.Family != tc.family || p.Timeout != tc.timeout || p.Retries != tc.retries ||
			p.Concurrency != tc.concurrency || p.SystemRole != tc.systemRole || p.RequiresCredential != tc.needsKey {
			t.Fatalf("Lookup(%s, %s) = %+v", tc.provider, tc.model, p)
		}
	}
	if _, ok := Lookup("openai", "gpt"); ok {
		t.Fatal("unknown provider should not resolve")
	}
}

func TestPolicyDelay(t *testing.T) {
	groq, _ := Lookup(domain.ProviderGroq, "")
	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second} {
		if got := groq.Delay(attempt); got != want {
			t.Fatalf("exponential Delay(%d) = %s, want %s", attempt, got, want)
		}
	}
	pixtral, _ := Lookup(domain.ProviderMistral, "pixtral-12b-latest")
	if pixtral.Delay(0) != 4*time.Second || pixtral.Delay(7) != 4*time.Second {
		t.Fatalf("fixed delay = %s/%s, want 4s", pixtral.Delay(0), pixtral.Delay(7))
	}
	gemini, _ := Lookup(domain.ProviderGemini, "")
	if gemini.Delay(0) != 2*time.Second || gemini.Delay(2) != 6*time.Second {
		t.Fatalf("linear delay = %s/%s, want 2s/6s", gemini.Delay(0), gemini.Delay(2))
	}
}
