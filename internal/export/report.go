package export

import (
	"fmt"
	"strings"

	"stockmeta/internal/domain"
)

const rule = "-------------------------------------------------\n"

// Report renders a plain text summary comparing each completed item with the
// configured length targets. It is empty when nothing completed.
func Report(items []domain.WorkItem, cfg domain.GenerationConfig) string {
	done := Completed(items)
	if len(done) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("METADATA GENERATION REPORT\n")
	b.WriteString(strings.Repeat("=", 49) + "\n\n")

	for i, item := range done {
		m := clean(*item.Metadata)
		titleWords := len(strings.Fields(m.Title))
		descWords := len(strings.Fields(m.Description))

		fmt.Fprintf(&b, "FILE %d: %s\n", i+1, item.Filename)
		b.WriteString(rule)
		fmt.Fprintf(&b, "1. TITLE\n   Length: %d words (target %d)\n   Note: %s\n   Content: %s\n\n",
			titleWords, cfg.TitleLen, lengthNote(titleWords, cfg.TitleLen, "title"), m.Title)
		fmt.Fprintf(&b, "2. DESCRIPTION\n   Length: %d words (target %d)\n   Note: %s\n   Content: %s\n\n",
			descWords, cfg.DescLen, lengthNote(descWords, cfg.DescLen, "description"), m.Description)
		fmt.Fprintf(&b, "3. KEYWORDS\n   Count: %d (target %d)\n   Note: %s\n   Content: %s\n\n",
			len(m.Keywords), cfg.KwCount, lengthNote(len(m.Keywords), cfg.KwCount, "keyword count"), joinKeywords(m.Keywords))
		fmt.Fprintf(&b, "4. CATEGORIES\n   %s\n", categoryLine(m))
		b.WriteString(rule + "\n")
	}
	return b.String()
}

func lengthNote(actual, target int, what string) string {
	switch {
	case actual == target:
		return fmt.Sprintf("The %s matches the target exactly.", what)
	case actual < target:
		return fmt.Sprintf("The %s is shorter than the target to avoid filler.", what)
	default:
		return fmt.Sprintf("The %s runs over the target to cover every visible subject.", what)
	}
}

func categoryLine(m domain.Metadata) string {
	parts := make([]string, 0, len(domain.CategoryFields()))
	for _, f := range domain.CategoryFields() {
		parts = append(parts, fmt.Sprintf("%s=%s", f, m.Get(f)))
	}
	return strings.Join(parts, "; ")
}
