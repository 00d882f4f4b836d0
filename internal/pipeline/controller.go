package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stockmeta/internal/domain"
	"stockmeta/internal/infra"
	"stockmeta/internal/metrics"
	"stockmeta/internal/providers"
)

// DefaultStagger spaces out worker start times.
const DefaultStagger = 500 * time.Millisecond

// Summary tallies the outcome of a run.
type Summary struct {
	Completed int
	Failed    int
	Requeued  int
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Stagger time.Duration
	Sleep   Sleeper
	Logger  *infra.Logger
	// Cursor is shared with other runs on the same provider; nil starts a
	// fresh one per run.
	Cursor *Cursor
}

// Controller runs one batch with a bounded pool of workers. A Controller is
// single use; create a new one per run.
type Controller struct {
	rotator *Rotator
	stagger time.Duration
	sleep   Sleeper
	logger  *infra.Logger
	cursor  *Cursor
	stop    atomic.Bool
	running atomic.Bool
}

// NewController constructs a Controller over rotator.
func NewController(rotator *Rotator, opts ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	stagger := opts.Stagger
	if stagger < 0 {
		stagger = 0
	}
	return &Controller{rotator: rotator, stagger: stagger, sleep: sleep, logger: logger, cursor: opts.Cursor}
}

// Stop asks workers to finish their in-flight attempt and exit.
func (c *Controller) Stop() {
	c.stop.Store(true)
}

// Stopped reports whether Stop was called.
func (c *Controller) Stopped() bool {
	return c.stop.Load()
}

// Running reports whether Run is in progress.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// Run processes every pending or errored item. Per-item outcomes are
// delivered to obs; the returned error is reserved for configuration
// problems detected before any worker starts and for ctx cancellation.
func (c *Controller) Run(ctx context.Context, items []domain.WorkItem, cfg domain.GenerationConfig, pool []string, obs Observer) (Summary, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	policy, err := Preflight(cfg, pool)
	if err != nil {
		return Summary{}, err
	}

	queue := make(chan domain.WorkItem, len(items))
	for _, item := range items {
		if item.Status.Runnable() {
			queue <- item
		}
	}
	close(queue)

	workers := min(max(policy.Concurrency, 1), len(queue))
	if workers == 0 {
		return Summary{}, nil
	}
	if !c.running.CompareAndSwap(false, true) {
		return Summary{}, errors.New("pipeline: controller already running")
	}
	defer c.running.Store(false)

	c.logger.Info().
		Str("provider", string(cfg.Provider)).
		Str("model", cfg.Model).
		Int("items", len(queue)).
		Int("workers", workers).
		Int("keys", len(pool)).
		Msg("pipeline: run started")

	runCtx := WithStop(ctx, &c.stop)
	cursor := c.cursor
	if cursor == nil {
		cursor = &Cursor{}
	}
	var completed, failed, requeued atomic.Int64

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		delay := time.Duration(i) * c.stagger
		g.Go(func() error {
			if err := c.sleep(runCtx, delay); err != nil {
				return err
			}
			for {
				if c.stop.Load() {
					return nil
				}
				item, ok := <-queue
				if !ok {
					return nil
				}
				if err := ctx.Err(); err != nil {
					return err
				}

				obs.Observe(Event{Kind: EventProcessing, ItemID: item.ID, Provider: cfg.Provider})
				metrics.WorkersInFlight.Inc()
				md, err := c.rotator.Process(runCtx, item, cfg, pool, cursor, obs)
				metrics.WorkersInFlight.Dec()

				switch {
				case err == nil:
					completed.Add(1)
					metrics.ItemsTotal.WithLabelValues(string(cfg.Provider), "complete").Inc()
					obs.Observe(Event{Kind: EventComplete, ItemID: item.ID, Provider: cfg.Provider, Metadata: &md})
				case errors.Is(err, domain.ErrStopped) || ctx.Err() != nil:
					requeued.Add(1)
					obs.Observe(Event{Kind: EventRequeued, ItemID: item.ID, Provider: cfg.Provider})
				default:
					failed.Add(1)
					metrics.ItemsTotal.WithLabelValues(string(cfg.Provider), "error").Inc()
					obs.Observe(Event{Kind: EventError, ItemID: item.ID, Provider: cfg.Provider, Message: ErrorMessage(err)})
					c.logger.Error().
						Err(err).
						Str("item", item.ID).
						Str("file", item.Filename).
						Msg("pipeline: item failed")
				}
			}
		})
	}
	err = g.Wait()

	sum := Summary{
		Completed: int(completed.Load()),
		Failed:    int(failed.Load()),
		Requeued:  int(requeued.Load()),
	}
	c.logger.Info().
		Int("completed", sum.Completed).
		Int("failed", sum.Failed).
		Int("requeued", sum.Requeued).
		Bool("stopped", c.stop.Load()).
		Msg("pipeline: run finished")
	return sum, err
}

// Preflight validates a run before any worker starts: the provider must be
// known and, when the model requires one, the pool must hold a credential.
func Preflight(cfg domain.GenerationConfig, pool []string) (providers.Policy, error) {
	policy, ok := providers.Lookup(cfg.Provider, cfg.Model)
	if !ok {
		return providers.Policy{}, &domain.GenerationError{
			Kind:     domain.KindConfiguration,
			Provider: cfg.Provider,
			Message:  fmt.Sprintf("unknown provider %q", cfg.Provider),
			Err:      domain.ErrUnsupportedModel,
		}
	}
	if policy.RequiresCredential && len(pool) == 0 {
		return providers.Policy{}, &domain.GenerationError{
			Kind:     domain.KindConfiguration,
			Provider: cfg.Provider,
			Message:  fmt.Sprintf("no API keys configured for %s", cfg.Provider.Label()),
			Err:      domain.ErrMissingCredentials,
		}
	}
	return policy, nil
}

// ErrorMessage is the text shown for a failed item.
func ErrorMessage(err error) string {
	var ge *domain.GenerationError
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return err.Error()
}
