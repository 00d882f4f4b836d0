// Package chat implements the generic OpenAI-compatible chat completions
// adapter used for Groq and Mistral vision models.
package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockmeta/internal/infra"
	"stockmeta/internal/providers"
	"stockmeta/internal/providers/prompt"
)

const (
	GroqBaseURL    = "https://api.groq.com/openai/v1"
	MistralBaseURL = "https://api.mistral.ai/v1"
)

// Options configures a chat completions client.
type Options struct {
	// Name identifies the provider in errors and logs.
	Name       string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs one chat completion per Generate call.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a chat client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "chat"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Name implements providers.Adapter.
func (c *Client) Name() string {
	return c.name
}

// Generate sends the prompt and the image as a data URL and returns the
// assistant message content.
func (c *Client) Generate(ctx context.Context, req providers.Request) (string, error) {
	key := strings.TrimSpace(req.Credential)
	if key == "" {
		return "", fmt.Errorf("%s: %w", c.name, providers.ErrMissingAPIKey)
	}

	payload := chatRequest{
		Model:       req.Model,
		Messages:    buildMessages(req),
		Temperature: 0.1,
		MaxTokens:   1000,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("%s: encode request: %w", c.name, err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", c.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var netErr net.Error
		timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
		return "", &providers.StatusError{Provider: c.name, Message: err.Error(), Timeout: timeout, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return "", &providers.StatusError{Provider: c.name, Code: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: %w: decode response: %v", c.name, prompt.ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: %w: no choices", c.name, prompt.ErrMalformedResponse)
	}
	if out.Choices[0].FinishReason == "content_filter" {
		return "", fmt.Errorf("%s: %w", c.name, providers.ErrSafetyBlocked)
	}

	c.logger.Debug().
		Str("provider", c.name).
		Str("model", req.Model).
		Str("finish_reason", out.Choices[0].FinishReason).
		Msg("chat: generated metadata")

	return out.Choices[0].Message.Content, nil
}

func buildMessages(req providers.Request) []chatMessage {
	mime := req.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	image := contentPart{
		Type:     "image_url",
		ImageURL: &imageURL{URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image)},
	}
	if req.SystemRole {
		return []chatMessage{
			{Role: "system", Content: req.Prompt},
			{Role: "user", Content: []contentPart{image}},
		}
	}
	return []chatMessage{{
		Role:    "user",
		Content: []contentPart{{Type: "text", Text: req.Prompt}, image},
	}}
}

func readErrorMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	var apiErr errorResponse
	if err := json.Unmarshal(data, &apiErr); err == nil {
		if apiErr.Error.Message != "" {
			return apiErr.Error.Message
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return strings.TrimSpace(string(data))
}
