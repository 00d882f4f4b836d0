package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"stockmeta/internal/providers"
	"stockmeta/internal/providers/prompt"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(fn roundTripFunc) *Client {
	return NewClient(Options{
		BaseURL:    "https://gemini.test/v1beta",
		HTTPClient: &http.Client{Transport: fn},
	})
}

func TestGenerateSendsSchemaAndImage(t *testing.T) {
	var captured geminiGenerateContentRequest
	var path, key string
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		path = r.URL.Path
		key = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{\"title\":\"Apple\"}"}]},"finishReason":"STOP"}]}`), nil
	})

	out, err := client.Generate(context.Background(), providers.Request{
		Credential: "k1",
		Model:      "gemini-3-flash-preview",
		Prompt:     "describe",
		Image:      []byte{0xff, 0xd8},
		MimeType:   "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != `{"title":"Apple"}` {
		t.Fatalf("Generate = %q", out)
	}
	if path != "/v1beta/models/gemini-3-flash-preview:generateContent" {
		t.Fatalf("path = %q", path)
	}
	if key != "k1" {
		t.Fatalf("key = %q, want k1", key)
	}
	cfg := captured.GenerationConfig
	if cfg == nil || cfg.ResponseMimeType != "application/json" || cfg.Temperature != 0.1 {
		t.Fatalf("generationConfig = %+v", cfg)
	}
	if cfg.ResponseSchema == nil || len(cfg.ResponseSchema.Required) != 8 {
		t.Fatalf("schema required fields = %+v", cfg.ResponseSchema)
	}
	parts := captured.Contents[0].Parts
	if len(parts) != 2 || parts[0].Text != "describe" || parts[1].InlineData == nil || parts[1].InlineData.Data != "/9g=" {
		t.Fatalf("parts = %+v", parts)
	}
}

func TestGenerateFallsBackToDefaultKey(t *testing.T) {
	var key string
	client := NewClient(Options{
		APIKey: "env-key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			key = r.URL.Query().Get("key")
			return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`), nil
		})},
	})
	if _, err := client.Generate(context.Background(), providers.Request{Model: "m"}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if key != "env-key" {
		t.Fatalf("key = %q, want env-key", key)
	}
}

func TestGenerateWithoutKeyMakesNoCall(t *testing.T) {
	called := false
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unexpected")
	})
	_, err := client.Generate(context.Background(), providers.Request{Model: "m"})
	if !errors.Is(err, providers.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if called {
		t.Fatal("request sent without a key")
	}
}

func TestGenerateStatusErrors(t *testing.T) {
	cases := []struct {
		name    string
		code    int
		body    string
		message string
		outcome providers.Outcome
	}{
		{name: "rate_limit", code: 429, body: `{"error":{"code":429,"message":"Resource exhausted"}}`, message: "Resource exhausted", outcome: providers.OutcomeRetryable},
		{name: "auth", code: 403, body: `{"error":{"code":403,"message":"API key not valid"}}`, message: "API key not valid", outcome: providers.OutcomeFatal},
		{name: "plain_body", code: 503, body: "overloaded", message: "overloaded", outcome: providers.OutcomeRetryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(func(r *http.Request) (*http.Response, error) {
				return jsonResponse(tc.code, tc.body), nil
			})
			_, err := client.Generate(context.Background(), providers.Request{Credential: "k", Model: "m"})
			var se *providers.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StatusError", err)
			}
			if se.Code != tc.code || se.Message != tc.message {
				t.Fatalf("StatusError = %+v", se)
			}
			if got := providers.Classify(err); got != tc.outcome {
				t.Fatalf("Classify = %s, want %s", got, tc.outcome)
			}
		})
	}
}

func TestGenerateSafetyBlock(t *testing.T) {
	bodies := []string{
		`{"promptFeedback":{"blockReason":"SAFETY"}}`,
		`{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`,
	}
	for _, body := range bodies {
		client := newTestClient(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, body), nil
		})
		_, err := client.Generate(context.Background(), providers.Request{Credential: "k", Model: "m"})
		if !errors.Is(err, providers.ErrSafetyBlocked) {
			t.Fatalf("err = %v, want ErrSafetyBlocked", err)
		}
	}
}

func TestGenerateEmptyCandidatesIsRetryable(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"candidates":[]}`), nil
	})
	_, err := client.Generate(context.Background(), providers.Request{Credential: "k", Model: "m"})
	if !errors.Is(err, prompt.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestGenerateTransportTimeout(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	_, err := client.Generate(context.Background(), providers.Request{Credential: "k", Model: "m"})
	var se *providers.StatusError
	if !errors.As(err, &se) || !se.Timeout {
		t.Fatalf("err = %v, want timeout StatusError", err)
	}
	if providers.Classify(err) != providers.OutcomeRetryable {
		t.Fatal("timeout should be retryable")
	}
}
