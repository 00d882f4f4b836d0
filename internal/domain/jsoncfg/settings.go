package jsoncfg

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"stockmeta/internal/domain"
)

const (
	// SettingsVersion is the schema version written by this build.
	SettingsVersion = 2

	DefaultTitleLen = 12
	DefaultDescLen  = 25
	DefaultKwCount  = 40

	MinTitleLen = 5
	MaxTitleLen = 30
	MinDescLen  = 10
	MaxDescLen  = 60
	MinKwCount  = 3
	MaxKwCount  = 50

	// ExtensionDefault keeps the uploaded filename untouched on export.
	ExtensionDefault = "default"
)

var allowedExtensions = map[string]struct{}{
	ExtensionDefault: {},
	"jpg":            {},
	"jpeg":           {},
	"png":            {},
	"svg":            {},
	"eps":            {},
	"ai":             {},
}

// Settings is the persisted user configuration: the generation config plus
// export preferences that never reach the pipeline.
type Settings struct {
	Version                 int `json:"version" yaml:"version"`
	domain.GenerationConfig `yaml:",inline"`
	ExtensionMode           string `json:"extensionMode" yaml:"extensionMode"`
}

// DefaultSettings returns a fresh settings document.
func DefaultSettings() Settings {
	return Settings{
		Version: SettingsVersion,
		GenerationConfig: domain.GenerationConfig{
			TitleLen: DefaultTitleLen,
			DescLen:  DefaultDescLen,
			KwCount:  DefaultKwCount,
			Platform: domain.PlatformGeneral,
			Provider: domain.ProviderGemini,
			Model:    domain.DefaultModel(domain.ProviderGemini),
		},
		ExtensionMode: ExtensionDefault,
	}
}

// Normalize clamps numeric targets and repairs enum fields in place.
func (s *Settings) Normalize() {
	if s == nil {
		return
	}
	s.Version = SettingsVersion
	s.TitleLen = clampInt(s.TitleLen, DefaultTitleLen, MinTitleLen, MaxTitleLen)
	s.DescLen = clampInt(s.DescLen, DefaultDescLen, MinDescLen, MaxDescLen)
	s.KwCount = clampInt(s.KwCount, DefaultKwCount, MinKwCount, MaxKwCount)
	if p, ok := domain.ParsePlatform(string(s.Platform)); ok {
		s.Platform = p
	} else {
		s.Platform = domain.PlatformGeneral
	}
	if p, ok := domain.ParseProvider(string(s.Provider)); ok {
		s.Provider = p
	} else {
		s.Provider = domain.ProviderGemini
	}
	s.Model = strings.TrimSpace(s.Model)
	if s.Model == "" {
		s.Model = domain.DefaultModel(s.Provider)
	}
	s.ExtensionMode = strings.ToLower(strings.TrimSpace(s.ExtensionMode))
	if _, ok := allowedExtensions[s.ExtensionMode]; !ok {
		s.ExtensionMode = ExtensionDefault
	}
}

// Validate ensures the settings can drive a generation run.
func (s Settings) Validate() error {
	if !s.Provider.Valid() {
		return fmt.Errorf("provider %q is not supported", s.Provider)
	}
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if s.TitleLen < MinTitleLen || s.TitleLen > MaxTitleLen {
		return fmt.Errorf("titleLen must be between %d and %d", MinTitleLen, MaxTitleLen)
	}
	if s.DescLen < MinDescLen || s.DescLen > MaxDescLen {
		return fmt.Errorf("descLen must be between %d and %d", MinDescLen, MaxDescLen)
	}
	if s.KwCount < MinKwCount || s.KwCount > MaxKwCount {
		return fmt.Errorf("kwCount must be between %d and %d", MinKwCount, MaxKwCount)
	}
	return nil
}

// MigrateSettings turns any stored settings document, including ones written
// by older releases, into the current schema. Unknown and deprecated keys are
// dropped, missing keys take defaults, and legacy provider display names are
// mapped to identifiers. It never fails: unusable values fall back to defaults.
func MigrateSettings(raw map[string]any) Settings {
	s := DefaultSettings()
	if raw == nil {
		return s
	}
	if v, ok := intValue(raw["titleLen"]); ok {
		s.TitleLen = v
	}
	if v, ok := intValue(raw["descLen"]); ok {
		s.DescLen = v
	}
	if v, ok := intValue(raw["kwCount"]); ok {
		s.KwCount = v
	}
	if v, ok := raw["platform"].(string); ok {
		s.Platform = domain.Platform(v)
	}
	providerChanged := false
	if v, ok := raw["provider"].(string); ok {
		if p, ok := domain.ParseProvider(v); ok {
			providerChanged = p != s.Provider
			s.Provider = p
		}
	}
	if v, ok := raw["model"].(string); ok {
		s.Model = v
	} else if providerChanged {
		s.Model = ""
	}
	s.UseCustomPrompt = boolValue(raw["useCustomPrompt"])
	s.CustomPrompt = stringValue(raw["customPrompt"])
	s.PrefixActive = boolValue(raw["prefixActive"])
	s.PrefixText = stringValue(raw["prefixText"])
	s.SuffixActive = boolValue(raw["suffixActive"])
	s.SuffixText = stringValue(raw["suffixText"])
	s.NegativeTitleActive = boolValue(raw["negativeTitleActive"])
	s.NegativeTitleWords = stringValue(raw["negativeTitleWords"])
	s.NegativeKeywordsActive = boolValue(raw["negativeKeywordsActive"])
	s.NegativeKeywordsWords = stringValue(raw["negativeKeywordsWords"])
	if v, ok := raw["extensionMode"].(string); ok {
		s.ExtensionMode = v
	}
	s.Normalize()
	return s
}

// DecodeSettings parses a JSON settings document through MigrateSettings.
func DecodeSettings(data []byte) (Settings, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return DefaultSettings(), nil
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return MigrateSettings(raw), nil
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(math.Round(n)), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(math.Round(f)), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func clampInt(v, fallback, lo, hi int) int {
	if v == 0 {
		return fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
