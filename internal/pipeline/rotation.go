package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"stockmeta/internal/domain"
	"stockmeta/internal/infra"
	"stockmeta/internal/metrics"
)

// DefaultCooldown is the pause between credentials after a rotation.
const DefaultCooldown = 2 * time.Second

// MetadataGenerator is the Tier 1 contract the rotator drives.
type MetadataGenerator interface {
	Generate(ctx context.Context, image []byte, mime string, cfg domain.GenerationConfig, credential string) (domain.Metadata, error)
}

// Cursor is the run-wide rotation index shared by every worker. Reads take
// it modulo the pool size.
type Cursor struct {
	n atomic.Uint64
}

// Load returns the current cursor value.
func (c *Cursor) Load() uint64 {
	return c.n.Load()
}

// Advance moves the cursor one slot forward and returns the new value.
// Concurrent callers each receive a distinct value.
func (c *Cursor) Advance() uint64 {
	return c.n.Add(1)
}

// RotatorOptions configures a Rotator.
type RotatorOptions struct {
	Cooldown time.Duration
	Sleep    Sleeper
	Logger   *infra.Logger
}

// Rotator is Tier 2: it moves an item across the credential pool when a
// credential fails.
type Rotator struct {
	gen      MetadataGenerator
	cooldown time.Duration
	sleep    Sleeper
	logger   *infra.Logger
}

// NewRotator wraps gen with credential rotation.
func NewRotator(gen MetadataGenerator, opts RotatorOptions) *Rotator {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	cooldown := opts.Cooldown
	if cooldown < 0 {
		cooldown = 0
	}
	return &Rotator{gen: gen, cooldown: cooldown, sleep: sleep, logger: logger}
}

// Process generates metadata for one item, trying every credential of pool
// at most once starting from the shared cursor. An empty pool makes a single
// attempt with no credential. When every credential fails the result is a
// terminal *domain.GenerationError carrying the last failure message.
func (r *Rotator) Process(ctx context.Context, item domain.WorkItem, cfg domain.GenerationConfig, pool []string, cursor *Cursor, obs Observer) (domain.Metadata, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	n := len(pool)
	bound := max(n, 1)
	tried := make([]bool, bound)
	at := cursor.Load()
	var last error

	for exhausted := 0; exhausted < bound; exhausted++ {
		slot, credential := 0, ""
		if n > 0 {
			slot = nextSlot(int(at%uint64(n)), tried)
			credential = pool[slot]
		}

		md, err := r.gen.Generate(ctx, item.Image, item.MimeType, cfg, credential)
		if err == nil {
			return md, nil
		}
		if ctx.Err() != nil || errors.Is(err, domain.ErrStopped) || domain.IsKind(err, domain.KindConfiguration) {
			return domain.Metadata{}, err
		}
		tried[slot] = true
		last = err
		at = cursor.Advance()

		if exhausted+1 >= bound {
			break
		}
		if Stopped(ctx) {
			return domain.Metadata{}, errors.Join(domain.ErrStopped, err)
		}

		msg := fmt.Sprintf("Limit reached for key %d. Rotating to next API key...", slot+1)
		obs.Observe(Event{Kind: EventRotation, ItemID: item.ID, Provider: cfg.Provider, Message: msg, Slot: slot + 1})
		metrics.RotationsTotal.WithLabelValues(string(cfg.Provider)).Inc()
		r.logger.Warn().
			Err(err).
			Str("provider", string(cfg.Provider)).
			Str("item", item.ID).
			Int("slot", slot+1).
			Msg("pipeline: rotating credential")

		if err := r.sleep(ctx, r.cooldown); err != nil {
			return domain.Metadata{}, err
		}
		if Stopped(ctx) {
			return domain.Metadata{}, errors.Join(domain.ErrStopped, err)
		}
	}

	return domain.Metadata{}, terminal(cfg.Provider, last)
}

// nextSlot returns the first untried slot at or after start.
func nextSlot(start int, tried []bool) int {
	for i := range tried {
		slot := (start + i) % len(tried)
		if !tried[slot] {
			return slot
		}
	}
	return start
}

func terminal(provider domain.Provider, last error) error {
	out := &domain.GenerationError{Kind: domain.KindTerminal, Provider: provider, Err: last}
	var ge *domain.GenerationError
	if errors.As(last, &ge) {
		out.Status = ge.Status
		out.Message = ge.Message
	} else if last != nil {
		out.Message = last.Error()
	}
	return out
}
