package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"stockmeta/internal/domain"
)

// EventKind tags a progress event emitted by a run.
type EventKind string

const (
	EventProcessing EventKind = "processing"
	EventComplete   EventKind = "complete"
	EventError      EventKind = "error"
	// EventRequeued returns an item to pending after a stop.
	EventRequeued EventKind = "requeued"
	// EventRotation is a notice; it does not change item state.
	EventRotation EventKind = "rotation"
)

// Event is reported to an Observer. Observers may be called from several
// workers at once.
type Event struct {
	Kind     EventKind
	ItemID   string
	Provider domain.Provider
	Metadata *domain.Metadata
	Message  string
	// Slot is the 1-based credential index for rotation notices.
	Slot int
}

// Observer receives run progress.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// Tracker is an Observer that keeps the item list current. It is the state
// behind batch status endpoints and CLI summaries.
type Tracker struct {
	mu      sync.RWMutex
	order   []string
	items   map[string]*domain.WorkItem
	notices []string
}

// NewTracker registers items in their original order.
func NewTracker(items []domain.WorkItem) *Tracker {
	t := &Tracker{items: make(map[string]*domain.WorkItem, len(items))}
	for i := range items {
		item := items[i]
		if item.Status == "" {
			item.Status = domain.StatusPending
		}
		t.order = append(t.order, item.ID)
		t.items[item.ID] = &item
	}
	return t
}

// Observe implements Observer.
func (t *Tracker) Observe(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.Kind == EventRotation {
		t.notices = append(t.notices, e.Message)
		return
	}
	item, ok := t.items[e.ItemID]
	if !ok {
		return
	}
	switch e.Kind {
	case EventProcessing:
		item.Status = domain.StatusProcessing
		item.Err = ""
	case EventComplete:
		item.Status = domain.StatusComplete
		item.Metadata = e.Metadata
		item.Err = ""
	case EventError:
		item.Status = domain.StatusError
		item.Err = e.Message
	case EventRequeued:
		item.Status = domain.StatusPending
	}
}

// Items returns a copy of every item in registration order.
func (t *Tracker) Items() []domain.WorkItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.WorkItem, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.items[id])
	}
	return out
}

// Item returns a copy of one item.
func (t *Tracker) Item(id string) (domain.WorkItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[id]
	if !ok {
		return domain.WorkItem{}, false
	}
	return *item, true
}

// ResetFailed moves errored items back to pending and reports how many.
func (t *Tracker) ResetFailed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, item := range t.items {
		if item.Status == domain.StatusError {
			item.Status = domain.StatusPending
			item.Err = ""
			n++
		}
	}
	return n
}

// Notices returns the rotation notices seen so far.
func (t *Tracker) Notices() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.notices...)
}

// Counts tallies items by status.
func (t *Tracker) Counts() map[domain.Status]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[domain.Status]int, 4)
	for _, item := range t.items {
		out[item.Status]++
	}
	return out
}

type stopKey struct{}

// WithStop attaches a cooperative stop flag to ctx. Workers and the retry
// loop consult it between attempts; it never interrupts an attempt.
func WithStop(ctx context.Context, flag *atomic.Bool) context.Context {
	return context.WithValue(ctx, stopKey{}, flag)
}

// Stopped reports whether the stop flag carried by ctx is set.
func Stopped(ctx context.Context) bool {
	flag, _ := ctx.Value(stopKey{}).(*atomic.Bool)
	return flag != nil && flag.Load()
}
