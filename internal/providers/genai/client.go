package genai

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
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockmeta/internal/domain"
	"stockmeta/internal/infra"
	"stockmeta/internal/providers"
	"stockmeta/internal/providers/prompt"
)

const providerName = "gemini"

// Options controls how the Gemini client is configured.
type Options struct {
	// APIKey is used when a request carries no credential of its own.
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is the schema-constrained adapter: the response shape is declared in
// the request so Gemini itself enforces the metadata fields.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]geminiSchema `json:"properties,omitempty"`
	Items      *geminiSchema           `json:"items,omitempty"`
	Required   []string                `json:"required,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64       `json:"temperature"`
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *geminiSchema `json:"responseSchema,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

var blockedFinishReasons = map[string]struct{}{
	"SAFETY":             {},
	"PROHIBITED_CONTENT": {},
	"BLOCKLIST":          {},
	"SPII":               {},
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; per-attempt deadlines come from the request context.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
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
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: client,
		logger:     logger,
	}
}

// Name implements providers.Adapter.
func (c *Client) Name() string {
	return providerName
}

// Generate issues one generateContent call with the prompt, the inline image
// and a strict response schema, returning the model's JSON text.
func (c *Client) Generate(ctx context.Context, req providers.Request) (string, error) {
	key := strings.TrimSpace(req.Credential)
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return "", fmt.Errorf("gemini: %w", providers.ErrMissingAPIKey)
	}

	mime := req.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: req.Prompt},
				{InlineData: &geminiInlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(req.Image)}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.1,
			ResponseMimeType: "application/json",
			ResponseSchema:   metadataSchema(),
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(req.Model))
	if err := c.invokeGemini(ctx, key, path, payload, &response); err != nil {
		return "", err
	}

	if fb := response.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("gemini: %w (%s)", providers.ErrSafetyBlocked, fb.BlockReason)
	}
	if len(response.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w: no candidates", prompt.ErrMalformedResponse)
	}
	candidate := response.Candidates[0]
	if _, blocked := blockedFinishReasons[candidate.FinishReason]; blocked {
		return "", fmt.Errorf("gemini: %w (%s)", providers.ErrSafetyBlocked, candidate.FinishReason)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	c.logger.Debug().
		Str("provider", providerName).
		Str("model", req.Model).
		Str("finish_reason", candidate.FinishReason).
		Msg("genai: generated metadata")

	return text.String(), nil
}

func metadataSchema() *geminiSchema {
	props := map[string]geminiSchema{
		"title":       {Type: "STRING"},
		"description": {Type: "STRING"},
		"keywords":    {Type: "ARRAY", Items: &geminiSchema{Type: "STRING"}},
	}
	required := []string{"title", "description", "keywords"}
	for _, f := range domain.CategoryFields() {
		props[string(f)] = geminiSchema{Type: "STRING"}
		required = append(required, string(f))
	}
	return &geminiSchema{Type: "OBJECT", Properties: props, Required: required}
}

func (c *Client) invokeGemini(ctx context.Context, key, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", key)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		var apiErr geminiErrorResponse
		msg := strings.TrimSpace(string(data))
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return &providers.StatusError{Provider: providerName, Code: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini: %w: decode response: %v", prompt.ErrMalformedResponse, err)
	}
	return nil
}

func transportError(err error) error {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return &providers.StatusError{Provider: providerName, Message: err.Error(), Timeout: timeout, Err: err}
}
