package normalize

import (
	"strings"

	"golang.org/x/text/cases"

	"stockmeta/internal/domain"
)

// ValidateCategory maps a model's category guess onto the closed list. An
// exact match passes through, a case-insensitive match takes the canonical
// casing and anything else yields fallback.
func ValidateCategory(value string, list []string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	for _, item := range list {
		if item == trimmed {
			return item
		}
	}
	fold := cases.Fold()
	needle := fold.String(trimmed)
	for _, item := range list {
		if fold.String(item) == needle {
			return item
		}
	}
	return fallback
}

// DefaultCategory is the fallback for a slot: the first list entry for
// primary slots and the second for secondary ones, so the two never collide.
func DefaultCategory(f domain.CategoryField) string {
	list := f.Categories()
	if len(list) == 0 {
		return ""
	}
	if f.Secondary() && len(list) > 1 {
		return list[1]
	}
	return list[0]
}

// Categories validates all five category slots of m in place.
func Categories(m *domain.Metadata) {
	for _, f := range domain.CategoryFields() {
		m.Set(f, ValidateCategory(m.Get(f), f.Categories(), DefaultCategory(f)))
	}
}
