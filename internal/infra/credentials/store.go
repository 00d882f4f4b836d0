// Package credentials manages the per-provider API key pools.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"stockmeta/internal/domain"
	"stockmeta/internal/infra"
	"stockmeta/internal/sqlinline"
)

// ErrEmptyKey is returned when adding a blank key.
var ErrEmptyKey = errors.New("credentials: api key is required")

// Keyring stores an ordered list of keys per provider.
type Keyring interface {
	List(ctx context.Context, provider domain.Provider) ([]string, error)
	Add(ctx context.Context, provider domain.Provider, key string) error
	// Remove deletes the key at the 0-based index of List.
	Remove(ctx context.Context, provider domain.Provider, index int) error
}

// Store is the Postgres backed Keyring.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) List(ctx context.Context, provider domain.Provider) ([]string, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListProviderKeys, string(provider))
	if err != nil {
		return nil, fmt.Errorf("credentials: list %s: %w", provider, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("credentials: scan %s: %w", provider, err)
		}
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys, rows.Err()
}

func (s *Store) Add(ctx context.Context, provider domain.Provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QInsertProviderKey, string(provider), key); err != nil {
		return fmt.Errorf("credentials: add %s: %w", provider, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, provider domain.Provider, index int) error {
	if index < 0 {
		return domain.ErrNotFound
	}
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteProviderKeyAt, string(provider), index)
	if err != nil {
		return fmt.Errorf("credentials: remove %s: %w", provider, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MemoryStore is a process local Keyring.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[domain.Provider][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[domain.Provider][]string)}
}

func (m *MemoryStore) List(_ context.Context, provider domain.Provider) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.keys[provider]...), nil
}

// Add appends key unless it is already present.
func (m *MemoryStore) Add(_ context.Context, provider domain.Provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.keys[provider] {
		if existing == key {
			return nil
		}
	}
	m.keys[provider] = append(m.keys[provider], key)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, provider domain.Provider, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.keys[provider]
	if index < 0 || index >= len(keys) {
		return domain.ErrNotFound
	}
	m.keys[provider] = append(keys[:index:index], keys[index+1:]...)
	return nil
}

// Pool resolves the credential pool for a run: stored keys first, the
// environment keys when nothing is stored.
type Pool struct {
	ring Keyring
	env  func(provider string) []string
}

// NewPool combines a Keyring with an environment fallback. env may be nil.
func NewPool(ring Keyring, env func(provider string) []string) *Pool {
	return &Pool{ring: ring, env: env}
}

// Keys returns the ordered pool for provider. The slice is a snapshot; later
// edits do not affect a run that already holds it.
func (p *Pool) Keys(ctx context.Context, provider domain.Provider) ([]string, error) {
	keys, err := p.ring.List(ctx, provider)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 && p.env != nil {
		for _, key := range p.env(string(provider)) {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// Keyring exposes the underlying store for management operations.
func (p *Pool) Keyring() Keyring {
	return p.ring
}

// Entry is a masked key for listings.
type Entry struct {
	Index  int    `json:"index"`
	Masked string `json:"masked"`
	Source string `json:"source"`
}

// Entries lists the pool with masked keys. Source is "store" or "env".
func (p *Pool) Entries(ctx context.Context, provider domain.Provider) ([]Entry, error) {
	stored, err := p.ring.List(ctx, provider)
	if err != nil {
		return nil, err
	}
	source, keys := "store", stored
	if len(stored) == 0 {
		source = "env"
		keys, _ = p.Keys(ctx, provider)
	}
	out := make([]Entry, 0, len(keys))
	for i, key := range keys {
		out = append(out, Entry{Index: i, Masked: Mask(key), Source: source})
	}
	return out, nil
}

// Mask keeps the first and last four characters of long keys.
func Mask(key string) string {
	if len(key) <= 10 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 8) + key[len(key)-4:]
}

var (
	_ Keyring = (*Store)(nil)
	_ Keyring = (*MemoryStore)(nil)
)
