package domain

import "strings"

// Provider identifies the upstream AI service used to describe an image.
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderGroq    Provider = "groq"
	ProviderMistral Provider = "mistral"
)

var providerLabels = map[Provider]string{
	ProviderGemini:  "Google Gemini",
	ProviderGroq:    "Groq Cloud",
	ProviderMistral: "Mistral AI",
}

// Providers lists the supported providers in display order.
func Providers() []Provider {
	return []Provider{ProviderGemini, ProviderGroq, ProviderMistral}
}

// Label returns the human readable provider name.
func (p Provider) Label() string {
	if label, ok := providerLabels[p]; ok {
		return label
	}
	return string(p)
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	_, ok := providerLabels[p]
	return ok
}

// ParseProvider accepts either the identifier or the display label.
func ParseProvider(raw string) (Provider, bool) {
	needle := strings.TrimSpace(raw)
	for p, label := range providerLabels {
		if strings.EqualFold(needle, string(p)) || strings.EqualFold(needle, label) {
			return p, true
		}
	}
	return "", false
}

// Platform is the stock agency the output is tailored for.
type Platform string

const (
	PlatformGeneral      Platform = "General"
	PlatformAdobe        Platform = "Adobe Stock"
	PlatformShutterstock Platform = "Shutterstock"
	PlatformVecteezy     Platform = "Vecteezy"
	PlatformVectorStock  Platform = "VectorStock"
)

// Platforms lists every supported export platform.
func Platforms() []Platform {
	return []Platform{PlatformGeneral, PlatformAdobe, PlatformShutterstock, PlatformVecteezy, PlatformVectorStock}
}

// ParsePlatform matches a platform name case-insensitively.
func ParsePlatform(raw string) (Platform, bool) {
	needle := strings.TrimSpace(raw)
	for _, p := range Platforms() {
		if strings.EqualFold(needle, string(p)) {
			return p, true
		}
	}
	return "", false
}

// GenerationConfig is the immutable per-run configuration. Filters whose
// active flag is false must never influence output, so consumers read them
// through the accessor methods rather than the raw fields.
type GenerationConfig struct {
	TitleLen int      `json:"titleLen" yaml:"titleLen"`
	DescLen  int      `json:"descLen" yaml:"descLen"`
	KwCount  int      `json:"kwCount" yaml:"kwCount"`
	Platform Platform `json:"platform" yaml:"platform"`
	Provider Provider `json:"provider" yaml:"provider"`
	Model    string   `json:"model" yaml:"model"`

	UseCustomPrompt bool   `json:"useCustomPrompt" yaml:"useCustomPrompt"`
	CustomPrompt    string `json:"customPrompt" yaml:"customPrompt"`

	PrefixActive bool   `json:"prefixActive" yaml:"prefixActive"`
	PrefixText   string `json:"prefixText" yaml:"prefixText"`
	SuffixActive bool   `json:"suffixActive" yaml:"suffixActive"`
	SuffixText   string `json:"suffixText" yaml:"suffixText"`

	NegativeTitleActive    bool   `json:"negativeTitleActive" yaml:"negativeTitleActive"`
	NegativeTitleWords     string `json:"negativeTitleWords" yaml:"negativeTitleWords"`
	NegativeKeywordsActive bool   `json:"negativeKeywordsActive" yaml:"negativeKeywordsActive"`
	NegativeKeywordsWords  string `json:"negativeKeywordsWords" yaml:"negativeKeywordsWords"`
}

// Prefix returns the prefix text, or "" when the filter is inactive.
func (c GenerationConfig) Prefix() string {
	if !c.PrefixActive {
		return ""
	}
	return c.PrefixText
}

// Suffix returns the suffix text, or "" when the filter is inactive.
func (c GenerationConfig) Suffix() string {
	if !c.SuffixActive {
		return ""
	}
	return c.SuffixText
}

// NegativeTitleList returns the trimmed negative title words.
func (c GenerationConfig) NegativeTitleList() []string {
	if !c.NegativeTitleActive {
		return nil
	}
	return splitCSV(c.NegativeTitleWords)
}

// NegativeKeywordList returns the trimmed negative keywords.
func (c GenerationConfig) NegativeKeywordList() []string {
	if !c.NegativeKeywordsActive {
		return nil
	}
	return splitCSV(c.NegativeKeywordsWords)
}

// CustomInstructions returns the user override text verbatim when enabled
// and not blank.
func (c GenerationConfig) CustomInstructions() string {
	if !c.UseCustomPrompt || strings.TrimSpace(c.CustomPrompt) == "" {
		return ""
	}
	return c.CustomPrompt
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
