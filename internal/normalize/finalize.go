package normalize

import "stockmeta/internal/domain"

// Finalize produces contract-compliant metadata from parsed model output.
// It is pure and idempotent.
func Finalize(raw domain.Metadata, cfg domain.GenerationConfig) domain.Metadata {
	prefix, suffix := cfg.Prefix(), cfg.Suffix()

	out := domain.Metadata{
		Title:                prefix + TitleBody(raw.Title, prefix, suffix, cfg.NegativeTitleList()) + suffix,
		Description:          Description(raw.Description),
		Keywords:             Keywords(raw.Keywords, cfg.NegativeKeywordList(), cfg.KwCount),
		AdobeCategory:        raw.AdobeCategory,
		ShutterstockMain:     raw.ShutterstockMain,
		ShutterstockOptional: raw.ShutterstockOptional,
		VectorstockPrimary:   raw.VectorstockPrimary,
		VectorstockSecondary: raw.VectorstockSecondary,
	}
	Categories(&out)
	return out
}
