// Package batch owns uploaded image batches and the runs over them.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stockmeta/internal/domain"
	"stockmeta/internal/domain/jsoncfg"
	"stockmeta/internal/imaging"
	"stockmeta/internal/infra"
	"stockmeta/internal/pipeline"
)

// ErrRunning is returned when starting a batch that is already running.
var ErrRunning = errors.New("batch: run already in progress")

// Upload is one file received from a client.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

// KeySource resolves the credential pool for a provider.
type KeySource interface {
	Keys(ctx context.Context, provider domain.Provider) ([]string, error)
}

// Options configures a Service.
type Options struct {
	Generator pipeline.MetadataGenerator
	Keys      KeySource
	Image     imaging.Options
	Cooldown  time.Duration
	Stagger   time.Duration
	Sleep     pipeline.Sleeper
	Observer  pipeline.Observer
	Logger    *infra.Logger
}

// Service prepares batches and runs them in the background.
type Service struct {
	opts   Options
	logger *infra.Logger

	mu      sync.RWMutex
	batches map[string]*Batch
	cursors map[domain.Provider]*pipeline.Cursor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService constructs a Service. Background runs end when Shutdown is
// called.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		opts:    opts,
		logger:  logger,
		batches: make(map[string]*Batch),
		cursors: make(map[domain.Provider]*pipeline.Cursor),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Prepare turns uploads into work items ordered naturally by filename.
// Unsupported or unreadable files are skipped and reported by name.
func (s *Service) Prepare(uploads []Upload) ([]domain.WorkItem, []string) {
	var (
		items   []domain.WorkItem
		skipped []string
	)
	for _, u := range uploads {
		if !imaging.Accept(u.Filename, u.MimeType) {
			skipped = append(skipped, u.Filename)
			continue
		}
		prepared, err := imaging.Prepare(u.Data, s.opts.Image)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", u.Filename).Msg("batch: image skipped")
			skipped = append(skipped, u.Filename)
			continue
		}
		items = append(items, domain.WorkItem{
			ID:       uuid.NewString(),
			Filename: u.Filename,
			Image:    prepared.Data,
			MimeType: imaging.MimeType,
			Status:   domain.StatusPending,
		})
	}
	imaging.SortByName(items, func(i domain.WorkItem) string { return i.Filename })
	return items, skipped
}

// Create registers a new batch. It does not start a run.
func (s *Service) Create(uploads []Upload, cfg jsoncfg.Settings) *Batch {
	cfg.Normalize()
	items, skipped := s.Prepare(uploads)
	b := &Batch{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Settings:  cfg,
		Skipped:   skipped,
		tracker:   pipeline.NewTracker(items),
	}
	s.mu.Lock()
	s.batches[b.ID] = b
	s.mu.Unlock()
	return b
}

// Get returns a registered batch.
func (s *Service) Get(id string) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// Start validates the run synchronously and then processes the batch in the
// background. Configuration errors are returned before anything runs.
func (s *Service) Start(ctx context.Context, b *Batch) error {
	_, err := s.start(ctx, b, false)
	return err
}

func (s *Service) start(ctx context.Context, b *Batch, reset bool) (int, error) {
	ctrl, pool, n, err := s.begin(ctx, b, reset)
	if err != nil {
		return 0, err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.finish(b, ctrl, pool)
	}()
	return n, nil
}

// Run processes the batch and blocks until the run ends.
func (s *Service) Run(ctx context.Context, b *Batch) (pipeline.Summary, error) {
	ctrl, pool, _, err := s.begin(ctx, b, false)
	if err != nil {
		return pipeline.Summary{}, err
	}
	return s.run(ctx, b, ctrl, pool)
}

// begin validates and claims the batch. With reset, failed items return to
// pending once the claim succeeds; the count is returned.
func (s *Service) begin(ctx context.Context, b *Batch, reset bool) (*pipeline.Controller, []string, int, error) {
	pool, err := s.opts.Keys.Keys(ctx, b.Settings.Provider)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("batch: load keys: %w", err)
	}
	if _, err := pipeline.Preflight(b.Settings.GenerationConfig, pool); err != nil {
		return nil, nil, 0, err
	}
	rotator := pipeline.NewRotator(s.opts.Generator, pipeline.RotatorOptions{
		Cooldown: s.opts.Cooldown,
		Sleep:    s.opts.Sleep,
		Logger:   s.logger,
	})
	ctrl := pipeline.NewController(rotator, pipeline.ControllerOptions{
		Stagger: s.opts.Stagger,
		Sleep:   s.opts.Sleep,
		Logger:  s.logger,
		Cursor:  s.cursor(b.Settings.Provider),
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil, nil, 0, ErrRunning
	}
	var n int
	if reset {
		n = b.tracker.ResetFailed()
	}
	b.ctrl = ctrl
	b.running = true
	b.lastErr = ""
	return ctrl, pool, n, nil
}

// cursor returns the rotation cursor shared by every run on provider.
func (s *Service) cursor(provider domain.Provider) *pipeline.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[provider]
	if !ok {
		c = &pipeline.Cursor{}
		s.cursors[provider] = c
	}
	return c
}

func (s *Service) finish(b *Batch, ctrl *pipeline.Controller, pool []string) {
	if _, err := s.run(s.ctx, b, ctrl, pool); err != nil {
		s.logger.Error().Err(err).Str("batch", b.ID).Msg("batch: run failed")
	}
}

func (s *Service) run(ctx context.Context, b *Batch, ctrl *pipeline.Controller, pool []string) (pipeline.Summary, error) {
	var obs pipeline.Observer = b.tracker
	if s.opts.Observer != nil {
		obs = fanout{b.tracker, s.opts.Observer}
	}
	sum, err := ctrl.Run(ctx, b.runnable(), b.Settings.GenerationConfig, pool, obs)

	b.mu.Lock()
	b.running = false
	if err != nil {
		b.lastErr = err.Error()
	}
	b.mu.Unlock()
	return sum, err
}

// Stop asks a running batch to stop after its in-flight attempts.
func (s *Service) Stop(b *Batch) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil || !b.running {
		return false
	}
	b.ctrl.Stop()
	return true
}

// Retry moves failed items back to pending and starts a new run.
func (s *Service) Retry(ctx context.Context, b *Batch) (int, error) {
	return s.start(ctx, b, true)
}

// Describe generates metadata for a single upload without registering a
// batch. It rotates through the whole pool like a batch item would.
func (s *Service) Describe(ctx context.Context, u Upload, cfg jsoncfg.Settings) (domain.Metadata, error) {
	cfg.Normalize()
	if !imaging.Accept(u.Filename, u.MimeType) {
		return domain.Metadata{}, fmt.Errorf("%w: %s", imaging.ErrUnsupportedImage, u.Filename)
	}
	prepared, err := imaging.Prepare(u.Data, s.opts.Image)
	if err != nil {
		return domain.Metadata{}, err
	}
	pool, err := s.opts.Keys.Keys(ctx, cfg.Provider)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("batch: load keys: %w", err)
	}
	if _, err := pipeline.Preflight(cfg.GenerationConfig, pool); err != nil {
		return domain.Metadata{}, err
	}
	rotator := pipeline.NewRotator(s.opts.Generator, pipeline.RotatorOptions{
		Cooldown: s.opts.Cooldown,
		Sleep:    s.opts.Sleep,
		Logger:   s.logger,
	})
	item := domain.WorkItem{ID: uuid.NewString(), Filename: u.Filename, Image: prepared.Data, MimeType: imaging.MimeType}
	return rotator.Process(ctx, item, cfg.GenerationConfig, pool, s.cursor(cfg.Provider), s.opts.Observer)
}

// Shutdown cancels background runs and waits for them to return.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fanout []pipeline.Observer

func (f fanout) Observe(e pipeline.Event) {
	for _, o := range f {
		o.Observe(e)
	}
}
