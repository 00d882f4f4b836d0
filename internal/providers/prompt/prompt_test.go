package prompt

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"stockmeta/internal/domain"
)

func TestBuildListsCategoriesAndTargets(t *testing.T) {
	cfg := domain.GenerationConfig{TitleLen: 12, DescLen: 25, KwCount: 40}
	got := Build(cfg)

	for _, f := range domain.CategoryFields() {
		if !strings.Contains(got, "'"+string(f)+"'") {
			t.Fatalf("prompt missing category field %s", f)
		}
	}
	for _, want := range []string{"Buildings and Architecture", "Backgrounds/Textures", "Icons & Emblems (sets)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing category %q", want)
		}
	}
	for _, want := range []string{"approx 12 words", "approx 25 words", "EXACTLY 40 unique keywords", "SINGLE WORDS ONLY"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "USER OVERRIDE") {
		t.Fatal("custom instructions rendered while disabled")
	}
}

func TestBuildFilters(t *testing.T) {
	cfg := domain.GenerationConfig{
		KwCount:                10,
		PrefixActive:           true,
		PrefixText:             "Stock Photo",
		SuffixActive:           false,
		SuffixText:             "Hidden Suffix",
		NegativeTitleActive:    true,
		NegativeTitleWords:     "cheap, ugly",
		NegativeKeywordsActive: false,
		NegativeKeywordsWords:  "secret",
	}
	got := Build(cfg)
	if !strings.Contains(got, `DO NOT INCLUDE THE PREFIX "Stock Photo"`) {
		t.Fatal("prompt does not forbid the active prefix")
	}
	if strings.Contains(got, "Hidden Suffix") {
		t.Fatal("inactive suffix leaked into prompt")
	}
	if !strings.Contains(got, "DO NOT USE THESE WORDS IN THE TITLE: [cheap, ugly]") {
		t.Fatal("negative title words missing")
	}
	if strings.Contains(got, "secret") {
		t.Fatal("inactive negative keywords leaked into prompt")
	}
}

func TestBuildAppendsCustomInstructionsLast(t *testing.T) {
	cfg := domain.GenerationConfig{KwCount: 5, UseCustomPrompt: true, CustomPrompt: "Mention the season."}
	got := Build(cfg)
	idx := strings.Index(got, "USER OVERRIDE INSTRUCTIONS: Mention the season.")
	if idx < 0 {
		t.Fatal("custom instructions missing")
	}
	if idx < strings.Index(got, "OUTPUT FORMAT") {
		t.Fatal("custom instructions must come after the structural rules")
	}

	cfg.CustomPrompt = "   "
	if strings.Contains(Build(cfg), "USER OVERRIDE") {
		t.Fatal("blank custom prompt rendered")
	}
}

func TestBuildDeterministic(t *testing.T) {
	cfg := domain.GenerationConfig{TitleLen: 7, DescLen: 20, KwCount: 30, PrefixActive: true, PrefixText: "X"}
	if Build(cfg) != Build(cfg) {
		t.Fatal("Build is not deterministic")
	}
}

func TestParseExtractsObjectFromProse(t *testing.T) {
	raw := "Sure! Here is the metadata:\n```json\n{\"title\":\"Red {apple}\",\"description\":\"A \\\"fresh\\\" apple\",\"keywords\":[\"apple\",\"red\"],\"adobe_category\":\"Food\"}\n```\nLet me know {if} you need more."
	m, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Title != "Red {apple}" {
		t.Fatalf("Title = %q, want %q", m.Title, "Red {apple}")
	}
	if m.Description != `A "fresh" apple` {
		t.Fatalf("Description = %q", m.Description)
	}
	if !reflect.DeepEqual(m.Keywords, []string{"apple", "red"}) {
		t.Fatalf("Keywords = %#v", m.Keywords)
	}
	if m.AdobeCategory != "Food" {
		t.Fatalf("AdobeCategory = %q, want Food", m.AdobeCategory)
	}
}

func TestParseKeywordString(t *testing.T) {
	m, err := Parse(`{"title":"Sea","keywords":"sea, wave ,sand"}`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !reflect.DeepEqual(m.Keywords, []string{"sea", "wave", "sand"}) {
		t.Fatalf("Keywords = %#v", m.Keywords)
	}
}

func TestParseDoesNotMutateContent(t *testing.T) {
	m, err := Parse(`{"title":"  Stock Photo: apple!! ","keywords":["bright,colors"],"shutterstock_main":"buildings"}`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Title != "  Stock Photo: apple!! " {
		t.Fatalf("Title = %q", m.Title)
	}
	if m.Keywords[0] != "bright,colors" || m.ShutterstockMain != "buildings" {
		t.Fatalf("content mutated: %#v", m)
	}
}

func TestParseRejectsIncompleteOutput(t *testing.T) {
	cases := map[string]string{
		"no_object":      "I cannot help with that.",
		"bad_json":       `{"title": "x", "keywords": [}`,
		"missing_title":  `{"keywords":["a"]}`,
		"blank_title":    `{"title":"  ","keywords":["a"]}`,
		"missing_kw":     `{"title":"Apple"}`,
		"empty_kw":       `{"title":"Apple","keywords":[]}`,
		"non_string_ttl": `{"title":42,"keywords":["a"]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("Parse error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestExtractObjectFallback(t *testing.T) {
	got := extractObject(`prefix {"a": "unterminated } tail`)
	if got != `{"a": "unterminated }` {
		t.Fatalf("extractObject = %q", got)
	}
}
