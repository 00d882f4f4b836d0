// Package settings persists the generation settings document.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"stockmeta/internal/domain/jsoncfg"
	"stockmeta/internal/infra"
	"stockmeta/internal/sqlinline"
)

// DocumentID is the app_settings row used by the service.
const DocumentID = "default"

// Store loads and saves the settings document. Load always returns
// normalized settings; a missing document yields the defaults.
type Store interface {
	Load(ctx context.Context) (jsoncfg.Settings, error)
	Save(ctx context.Context, s jsoncfg.Settings) (jsoncfg.Settings, error)
}

// PGStore keeps the document as jsonb in app_settings.
type PGStore struct {
	sql infra.SQLExecutor
}

func NewPGStore(sql infra.SQLExecutor) *PGStore {
	return &PGStore{sql: sql}
}

func (s *PGStore) Load(ctx context.Context) (jsoncfg.Settings, error) {
	var doc []byte
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectAppSettings, DocumentID).Scan(&doc); err != nil {
		if infra.IsNoRows(err) {
			return jsoncfg.DefaultSettings(), nil
		}
		return jsoncfg.Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	return jsoncfg.DecodeSettings(doc)
}

func (s *PGStore) Save(ctx context.Context, in jsoncfg.Settings) (jsoncfg.Settings, error) {
	in.Normalize()
	doc, err := json.Marshal(in)
	if err != nil {
		return jsoncfg.Settings{}, fmt.Errorf("settings: encode: %w", err)
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertAppSettings, DocumentID, doc); err != nil {
		return jsoncfg.Settings{}, fmt.Errorf("settings: save: %w", err)
	}
	return in, nil
}

// FileStore keeps the document in a YAML file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) (jsoncfg.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return LoadFile(f.path)
}

func (f *FileStore) Save(_ context.Context, in jsoncfg.Settings) (jsoncfg.Settings, error) {
	in.Normalize()
	data, err := yaml.Marshal(in)
	if err != nil {
		return jsoncfg.Settings{}, fmt.Errorf("settings: encode: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return jsoncfg.Settings{}, fmt.Errorf("settings: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return jsoncfg.Settings{}, fmt.Errorf("settings: write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return jsoncfg.Settings{}, fmt.Errorf("settings: write: %w", err)
	}
	return in, nil
}

// LoadFile reads a YAML settings file through the same migration as the
// stored JSON document. A missing file yields the defaults.
func LoadFile(path string) (jsoncfg.Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return jsoncfg.DefaultSettings(), nil
	}
	if err != nil {
		return jsoncfg.Settings{}, fmt.Errorf("settings: read: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return jsoncfg.Settings{}, fmt.Errorf("settings: decode %s: %w", filepath.Base(path), err)
	}
	return jsoncfg.MigrateSettings(raw), nil
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*FileStore)(nil)
)
