// Package pipeline drives metadata generation for a batch of images: Tier 1
// retries against one credential, Tier 2 rotation across the credential pool
// and a bounded pool of workers over a shared queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"stockmeta/internal/domain"
	"stockmeta/internal/infra"
	"stockmeta/internal/metrics"
	"stockmeta/internal/normalize"
	"stockmeta/internal/providers"
	"stockmeta/internal/providers/prompt"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	Adapters map[domain.Provider]providers.Adapter
	Logger   *infra.Logger
	// Sleep is used for the per-model pre-delay.
	Sleep Sleeper
	// NewTimer returns the timer used between Tier 1 attempts. Nil uses a
	// real timer.
	NewTimer func() backoff.Timer
}

// Generator turns one image into finalized metadata using one credential.
type Generator struct {
	adapters map[domain.Provider]providers.Adapter
	logger   *infra.Logger
	sleep    Sleeper
	newTimer func() backoff.Timer
}

// NewGenerator constructs a Generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	return &Generator{
		adapters: opts.Adapters,
		logger:   logger,
		sleep:    sleep,
		newTimer: opts.NewTimer,
	}
}

// Generate runs Tier 1 for one credential: build the prompt, call the
// adapter, parse and finalize. Retryable failures are repeated per the model
// policy. Every failure is returned as *domain.GenerationError; a stopped run
// additionally matches domain.ErrStopped.
func (g *Generator) Generate(ctx context.Context, image []byte, mime string, cfg domain.GenerationConfig, credential string) (domain.Metadata, error) {
	provider := cfg.Provider
	policy, ok := providers.Lookup(provider, cfg.Model)
	if !ok {
		return domain.Metadata{}, &domain.GenerationError{
			Kind:     domain.KindConfiguration,
			Provider: provider,
			Message:  fmt.Sprintf("unknown provider %q", provider),
			Err:      domain.ErrUnsupportedModel,
		}
	}
	adapter, ok := g.adapters[provider]
	if !ok {
		return domain.Metadata{}, &domain.GenerationError{
			Kind:     domain.KindConfiguration,
			Provider: provider,
			Message:  fmt.Sprintf("no adapter registered for %s", provider.Label()),
			Err:      domain.ErrUnsupportedModel,
		}
	}

	if err := g.sleep(ctx, policy.PreDelay); err != nil {
		return domain.Metadata{}, wrapFailure(provider, err)
	}

	req := providers.Request{
		Credential: credential,
		Model:      cfg.Model,
		Prompt:     prompt.Build(cfg),
		Image:      image,
		MimeType:   mime,
		SystemRole: policy.SystemRole,
	}

	var (
		raw     domain.Metadata
		attempt int
	)
	op := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		defer cancel()

		start := time.Now()
		text, err := adapter.Generate(attemptCtx, req)
		if err == nil {
			raw, err = prompt.Parse(text)
		}
		metrics.AttemptDurationSeconds.WithLabelValues(string(provider)).Observe(time.Since(start).Seconds())
		metrics.AttemptsTotal.WithLabelValues(string(provider), providers.Classify(err).String()).Inc()
		if err != nil {
			g.logger.Debug().
				Err(err).
				Str("provider", string(provider)).
				Str("model", cfg.Model).
				Int("attempt", attempt).
				Msg("pipeline: attempt failed")
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		g.logger.Warn().
			Err(err).
			Str("provider", string(provider)).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("pipeline: retrying")
	}

	var timer backoff.Timer
	if g.newTimer != nil {
		timer = g.newTimer()
	}
	if err := retry(ctx, policy, timer, op, notify); err != nil {
		return domain.Metadata{}, wrapFailure(provider, err)
	}
	return normalize.Finalize(raw, cfg), nil
}

func wrapFailure(provider domain.Provider, err error) error {
	var ge *domain.GenerationError
	if errors.As(err, &ge) {
		return err
	}
	kind := domain.KindFatal
	if errors.Is(err, domain.ErrStopped) {
		kind = domain.KindRetryable
	}
	return &domain.GenerationError{
		Kind:     kind,
		Provider: provider,
		Status:   providers.StatusCode(err),
		Message:  failureMessage(err),
		Err:      err,
	}
}

// failureMessage prefers the provider's own message over the wrapped chain.
func failureMessage(err error) string {
	var se *providers.StatusError
	if errors.As(err, &se) && strings.TrimSpace(se.Message) != "" {
		return se.Message
	}
	msg := err.Error()
	if errors.Is(err, domain.ErrStopped) {
		msg = strings.TrimPrefix(msg, domain.ErrStopped.Error()+"\n")
	}
	return msg
}
