package settings

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stockmeta/internal/domain"
	"stockmeta/internal/domain/jsoncfg"
	"stockmeta/internal/infra/pgxtest"
)

func TestPGStoreLoadMissingDocument(t *testing.T) {
	store := NewPGStore(&pgxtest.Executor{})
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got != jsoncfg.DefaultSettings() {
		t.Fatalf("Load = %+v, want defaults", got)
	}
}

func TestPGStoreLoadMigratesDocument(t *testing.T) {
	exec := &pgxtest.Executor{Row: pgxtest.NewRow(func(dest ...any) error {
		*(dest[0].(*[]byte)) = []byte(`{"provider":"Groq Cloud","kwCount":80,"speedMode":"fast"}`)
		return nil
	})}
	got, err := NewPGStore(exec).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Provider != domain.ProviderGroq || got.KwCount != 50 {
		t.Fatalf("Load = %+v", got)
	}
	if got.Model != domain.DefaultModel(domain.ProviderGroq) {
		t.Fatalf("Model = %q", got.Model)
	}
}

func TestPGStoreLoadError(t *testing.T) {
	exec := &pgxtest.Executor{Row: pgxtest.NewRow(func(...any) error { return errors.New("boom") })}
	if _, err := NewPGStore(exec).Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestPGStoreSaveNormalizes(t *testing.T) {
	exec := &pgxtest.Executor{}
	in := jsoncfg.DefaultSettings()
	in.TitleLen = 1
	saved, err := NewPGStore(exec).Save(context.Background(), in)
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if saved.TitleLen != 5 {
		t.Fatalf("TitleLen = %d, want 5", saved.TitleLen)
	}
	call := exec.Last()
	if call.Args[0] != DocumentID {
		t.Fatalf("id arg = %v", call.Args[0])
	}
	var doc map[string]any
	if err := json.Unmarshal(call.Args[1].([]byte), &doc); err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc["titleLen"] != float64(5) {
		t.Fatalf("document titleLen = %v", doc["titleLen"])
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "metagen.yaml")
	store := NewFileStore(path)
	ctx := context.Background()

	got, err := store.Load(ctx)
	if err != nil || got != jsoncfg.DefaultSettings() {
		t.Fatalf("Load missing = %+v, %v", got, err)
	}

	in := jsoncfg.DefaultSettings()
	in.PrefixActive = true
	in.PrefixText = "Vector "
	in.Platform = domain.PlatformAdobe
	if _, err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Prefix() != "Vector " || got.Platform != domain.PlatformAdobe {
		t.Fatalf("Load = %+v", got)
	}
}

func TestLoadFileLegacyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.yaml")
	doc := "provider: mistral\ntitleLen: 20\nnegativeKeywordsActive: true\nnegativeKeywordsWords: background, vector\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if got.Provider != domain.ProviderMistral || got.Model != "pixtral-12b-latest" || got.TitleLen != 20 {
		t.Fatalf("LoadFile = %+v", got)
	}
	if words := got.NegativeKeywordList(); len(words) != 2 || words[1] != "vector" {
		t.Fatalf("NegativeKeywordList = %#v", words)
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("titleLen: [unterminated"), 0o600)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected decode error")
	}
}
