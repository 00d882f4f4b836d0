// Package normalize turns raw model output into metadata that satisfies the
// lexical contracts of the stock agencies: character whitelist, affixes
// applied exactly once, bounded single-word keywords and closed category lists.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// separatorNoise matches the characters models tend to pad titles with.
const separatorNoise = ".:,-_| \t\r\n\v\f"

// CleanText replaces every character outside the whitelist (ASCII letters,
// digits, whitespace, comma, period and apostrophe variants) with a space and
// collapses runs of whitespace.
func CleanText(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if allowedRune(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	switch r {
	case ',', '.', '\'', '‘', '’', '‚', '‛':
		return true
	}
	return false
}

// CleanSeparators trims separator noise from both ends.
func CleanSeparators(s string) string {
	return strings.Trim(s, separatorNoise)
}

// CollapseSpace folds any whitespace run into a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// affixVariants lists the spellings models use when echoing an affix.
func affixVariants(target string) []string {
	base := strings.ToLower(strings.TrimSpace(target))
	if base == "" {
		return nil
	}
	bases := []string{base}
	if core := CleanSeparators(base); core != "" && core != base {
		bases = append(bases, core)
	}
	var out []string
	for _, b := range bases {
		out = append(out, b, b+".", "."+b, b+":", b+" -", "- "+b)
	}
	return out
}

// StripAffix removes every leading and trailing occurrence of target,
// case-insensitively and including its punctuation variants, re-trimming
// separators after each removal until nothing matches.
func StripAffix(text, target string) string {
	variants := affixVariants(target)
	if len(variants) == 0 {
		return text
	}
	result := text
	for changed := true; changed; {
		changed = false
		for _, v := range variants {
			if hasPrefixFold(result, v) {
				result = CleanSeparators(result[len(v):])
				changed = true
			}
			if hasSuffixFold(result, v) {
				result = CleanSeparators(result[:len(result)-len(v)])
				changed = true
			}
		}
	}
	return result
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// RemoveWords deletes whole-word, case-insensitive matches of each word.
func RemoveWords(text string, words []string) string {
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		text = CollapseSpace(re.ReplaceAllString(text, ""))
	}
	return text
}

// TitleBody cleans the model's title down to the body that sits between the
// configured prefix and suffix. The passes repeat until the body is stable so
// that finalizing an already finalized title changes nothing.
func TitleBody(raw, prefix, suffix string, negatives []string) string {
	body := raw
	for i := 0; ; i++ {
		next := CleanSeparators(body)
		next = StripAffix(next, prefix)
		next = StripAffix(next, suffix)
		next = RemoveWords(next, negatives)
		next = CleanSeparators(CleanText(next))
		if next == body || i > len(raw) {
			return next
		}
		body = next
	}
}

// Description applies separator trimming and the character whitelist.
func Description(raw string) string {
	return CleanSeparators(CleanText(CleanSeparators(raw)))
}
