package jsoncfg

import (
	"encoding/json"
	"testing"

	"stockmeta/internal/domain"
)

func TestMigrateSettingsDefaults(t *testing.T) {
	s := MigrateSettings(nil)

	if s.Version != SettingsVersion {
		t.Fatalf("Version = %d, want %d", s.Version, SettingsVersion)
	}
	if s.TitleLen != DefaultTitleLen || s.DescLen != DefaultDescLen || s.KwCount != DefaultKwCount {
		t.Fatalf("targets = %d/%d/%d, want %d/%d/%d", s.TitleLen, s.DescLen, s.KwCount, DefaultTitleLen, DefaultDescLen, DefaultKwCount)
	}
	if s.Provider != domain.ProviderGemini {
		t.Fatalf("Provider = %q, want %q", s.Provider, domain.ProviderGemini)
	}
	if s.Model != "gemini-3-flash-preview" {
		t.Fatalf("Model = %q, want %q", s.Model, "gemini-3-flash-preview")
	}
	if s.ExtensionMode != ExtensionDefault {
		t.Fatalf("ExtensionMode = %q, want %q", s.ExtensionMode, ExtensionDefault)
	}
}

func TestMigrateSettingsLegacyDocument(t *testing.T) {
	raw := map[string]any{
		"titleLen":               float64(15),
		"descLen":                "30",
		"kwCount":                json.Number("45"),
		"platform":               "adobe stock",
		"provider":               "Groq Cloud",
		"speedMode":              "turbo",
		"prefixActive":           true,
		"prefixText":             "Stock Photo",
		"negativeKeywordsActive": "true",
		"negativeKeywordsWords":  "background",
		"extensionMode":          "EPS",
	}
	s := MigrateSettings(raw)

	if s.TitleLen != 15 || s.DescLen != 30 || s.KwCount != 45 {
		t.Fatalf("targets = %d/%d/%d, want 15/30/45", s.TitleLen, s.DescLen, s.KwCount)
	}
	if s.Platform != domain.PlatformAdobe {
		t.Fatalf("Platform = %q, want %q", s.Platform, domain.PlatformAdobe)
	}
	if s.Provider != domain.ProviderGroq {
		t.Fatalf("Provider = %q, want %q", s.Provider, domain.ProviderGroq)
	}
	if s.Model != domain.DefaultModel(domain.ProviderGroq) {
		t.Fatalf("Model = %q, want groq default", s.Model)
	}
	if s.Prefix() != "Stock Photo" {
		t.Fatalf("Prefix() = %q, want %q", s.Prefix(), "Stock Photo")
	}
	if got := s.NegativeKeywordList(); len(got) != 1 || got[0] != "background" {
		t.Fatalf("NegativeKeywordList() = %#v", got)
	}
	if s.ExtensionMode != "eps" {
		t.Fatalf("ExtensionMode = %q, want eps", s.ExtensionMode)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := back["speedMode"]; ok {
		t.Fatal("deprecated speedMode key survived migration")
	}
}

func TestMigrateSettingsClampsTargets(t *testing.T) {
	s := MigrateSettings(map[string]any{"titleLen": 99, "descLen": 1, "kwCount": -4})
	if s.TitleLen != MaxTitleLen {
		t.Fatalf("TitleLen = %d, want %d", s.TitleLen, MaxTitleLen)
	}
	if s.DescLen != MinDescLen {
		t.Fatalf("DescLen = %d, want %d", s.DescLen, MinDescLen)
	}
	if s.KwCount != MinKwCount {
		t.Fatalf("KwCount = %d, want %d", s.KwCount, MinKwCount)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDecodeSettingsRejectsGarbage(t *testing.T) {
	if _, err := DecodeSettings([]byte("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
	s, err := DecodeSettings(nil)
	if err != nil {
		t.Fatalf("DecodeSettings(nil): %v", err)
	}
	if s.KwCount != DefaultKwCount {
		t.Fatalf("KwCount = %d, want %d", s.KwCount, DefaultKwCount)
	}
}

func TestInactiveFiltersAreIgnored(t *testing.T) {
	s := MigrateSettings(map[string]any{
		"prefixActive":        false,
		"prefixText":          "Hidden",
		"negativeTitleActive": false,
		"negativeTitleWords":  "red, blue",
		"useCustomPrompt":     false,
		"customPrompt":        "be loud",
	})
	if s.Prefix() != "" {
		t.Fatalf("Prefix() = %q, want empty", s.Prefix())
	}
	if s.NegativeTitleList() != nil {
		t.Fatalf("NegativeTitleList() = %#v, want nil", s.NegativeTitleList())
	}
	if s.CustomInstructions() != "" {
		t.Fatalf("CustomInstructions() = %q, want empty", s.CustomInstructions())
	}
}
