package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stockmeta/internal/domain"
	"stockmeta/internal/infra/pgxtest"
	"stockmeta/internal/sqlinline"
)

func TestStoreList(t *testing.T) {
	exec := &pgxtest.Executor{Rows: func(string, []any) (pgx.Rows, error) {
		return pgxtest.NewStringRows(" k1 ", "", "k2"), nil
	}}
	keys, err := NewStore(exec).List(context.Background(), domain.ProviderGroq)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "k1" || keys[1] != "k2" {
		t.Fatalf("keys = %#v", keys)
	}
	call := exec.Last()
	if call.Query != sqlinline.QListProviderKeys || call.Args[0] != "groq" {
		t.Fatalf("call = %+v", call)
	}
}

func TestStoreAdd(t *testing.T) {
	exec := &pgxtest.Executor{}
	store := NewStore(exec)
	if err := store.Add(context.Background(), domain.ProviderGemini, " AIza-secret "); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	call := exec.Last()
	if len(call.Args) != 2 || call.Args[1] != "AIza-secret" {
		t.Fatalf("args = %#v", call.Args)
	}
	if err := store.Add(context.Background(), domain.ProviderGemini, "  "); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("Add blank err = %v, want ErrEmptyKey", err)
	}
}

func TestStoreRemove(t *testing.T) {
	exec := &pgxtest.Executor{ExecTag: pgconn.NewCommandTag("DELETE 1")}
	if err := NewStore(exec).Remove(context.Background(), domain.ProviderMistral, 2); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if got := exec.Last().Args[1]; got != 2 {
		t.Fatalf("index arg = %v, want 2", got)
	}

	missing := &pgxtest.Executor{ExecTag: pgconn.NewCommandTag("DELETE 0")}
	if err := NewStore(missing).Remove(context.Background(), domain.ProviderMistral, 9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Remove missing err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	for _, k := range []string{"a", "b", "a", "c"} {
		if err := m.Add(ctx, domain.ProviderGroq, k); err != nil {
			t.Fatalf("Add(%q) error: %v", k, err)
		}
	}
	if err := m.Remove(ctx, domain.ProviderGroq, 1); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	keys, _ := m.List(ctx, domain.ProviderGroq)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("keys = %#v", keys)
	}
	if err := m.Remove(ctx, domain.ProviderGroq, 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Remove out of range err = %v", err)
	}
}

func TestPoolFallsBackToEnv(t *testing.T) {
	ctx := context.Background()
	ring := NewMemoryStore()
	pool := NewPool(ring, func(provider string) []string {
		if provider == "gemini" {
			return []string{"env-1", " "}
		}
		return nil
	})

	keys, err := pool.Keys(ctx, domain.ProviderGemini)
	if err != nil || len(keys) != 1 || keys[0] != "env-1" {
		t.Fatalf("Keys = %#v, %v", keys, err)
	}

	_ = ring.Add(ctx, domain.ProviderGemini, "stored-1")
	keys, _ = pool.Keys(ctx, domain.ProviderGemini)
	if len(keys) != 1 || keys[0] != "stored-1" {
		t.Fatalf("Keys = %#v, want stored key only", keys)
	}

	if keys, _ := pool.Keys(ctx, domain.ProviderGroq); len(keys) != 0 {
		t.Fatalf("groq keys = %#v, want none", keys)
	}
}

func TestPoolEntriesMasked(t *testing.T) {
	ctx := context.Background()
	ring := NewMemoryStore()
	_ = ring.Add(ctx, domain.ProviderGroq, "gsk_abcdefghijklmnop")
	entries, err := NewPool(ring, nil).Entries(ctx, domain.ProviderGroq)
	if err != nil {
		t.Fatalf("Entries error: %v", err)
	}
	if len(entries) != 1 || entries[0].Masked != "gsk_********mnop" || entries[0].Source != "store" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestMask(t *testing.T) {
	if got := Mask("short"); got != "*****" {
		t.Fatalf("Mask(short) = %q", got)
	}
	if got := Mask("AIzaSyD-1234567890"); got != "AIza********7890" {
		t.Fatalf("Mask = %q", got)
	}
}
