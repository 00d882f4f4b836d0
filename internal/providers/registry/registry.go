// Package registry builds the provider adapters from configuration.
package registry

import (
	"net/http"
	"time"

	"stockmeta/internal/domain"
	"stockmeta/internal/infra"
	"stockmeta/internal/providers"
	"stockmeta/internal/providers/chat"
	"stockmeta/internal/providers/genai"
)

// clientTimeout sits above every per-attempt policy timeout so the policy
// context is what ends a slow attempt.
const clientTimeout = 3 * time.Minute

// New returns one adapter per supported provider.
func New(cfg *infra.Config, logger *infra.Logger) map[domain.Provider]providers.Adapter {
	httpClient := &http.Client{Timeout: clientTimeout}

	var geminiKey string
	if len(cfg.GeminiAPIKeys) > 0 {
		geminiKey = cfg.GeminiAPIKeys[0]
	}

	return map[domain.Provider]providers.Adapter{
		domain.ProviderGemini: genai.NewClient(genai.Options{
			APIKey:     geminiKey,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		domain.ProviderGroq: chat.NewClient(chat.Options{
			Name:       string(domain.ProviderGroq),
			BaseURL:    orDefault(cfg.GroqBaseURL, chat.GroqBaseURL),
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		domain.ProviderMistral: chat.NewClient(chat.Options{
			Name:       string(domain.ProviderMistral),
			BaseURL:    orDefault(cfg.MistralBaseURL, chat.MistralBaseURL),
			HTTPClient: httpClient,
			Logger:     logger,
		}),
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
