package batch

import (
	"sync"
	"time"

	"stockmeta/internal/domain"
	"stockmeta/internal/domain/jsoncfg"
	"stockmeta/internal/pipeline"
)

// Batch is a set of prepared images sharing one settings snapshot.
type Batch struct {
	ID        string
	CreatedAt time.Time
	Settings  jsoncfg.Settings
	Skipped   []string

	tracker *pipeline.Tracker

	mu      sync.Mutex
	ctrl    *pipeline.Controller
	running bool
	lastErr string
}

// Snapshot is the JSON view of a batch.
type Snapshot struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Provider  domain.Provider       `json:"provider"`
	Model     string                `json:"model"`
	Running   bool                  `json:"running"`
	Stopping  bool                  `json:"stopping"`
	Counts    map[domain.Status]int `json:"counts"`
	Items     []domain.WorkItem     `json:"items"`
	Skipped   []string              `json:"skipped,omitempty"`
	Notices   []string              `json:"notices,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// Items returns the current item states in upload order.
func (b *Batch) Items() []domain.WorkItem {
	return b.tracker.Items()
}

// Running reports whether a run is in progress.
func (b *Batch) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Snapshot captures the batch state for clients.
func (b *Batch) Snapshot() Snapshot {
	b.mu.Lock()
	running := b.running
	stopping := running && b.ctrl != nil && b.ctrl.Stopped()
	lastErr := b.lastErr
	b.mu.Unlock()

	return Snapshot{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		Provider:  b.Settings.Provider,
		Model:     b.Settings.Model,
		Running:   running,
		Stopping:  stopping,
		Counts:    b.tracker.Counts(),
		Items:     b.tracker.Items(),
		Skipped:   b.Skipped,
		Notices:   b.tracker.Notices(),
		Error:     lastErr,
	}
}

// runnable lists items a run may pick up.
func (b *Batch) runnable() []domain.WorkItem {
	var out []domain.WorkItem
	for _, item := range b.tracker.Items() {
		if item.Status.Runnable() && len(item.Image) > 0 {
			out = append(out, item)
		}
	}
	return out
}
