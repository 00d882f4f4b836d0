package registry

import (
	"testing"

	"stockmeta/internal/domain"
	"stockmeta/internal/infra"
)

func TestNewCoversEveryProvider(t *testing.T) {
	adapters := New(&infra.Config{}, nil)
	for _, p := range domain.Providers() {
		a, ok := adapters[p]
		if !ok {
			t.Fatalf("no adapter for %s", p)
		}
		if a.Name() != string(p) {
			t.Fatalf("adapter name = %q, want %q", a.Name(), p)
		}
	}
}
