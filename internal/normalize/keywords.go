package normalize

import "strings"

// Keywords splits every entry on non-alphanumeric boundaries, drops empties
// and duplicates (first seen wins, case-sensitive), removes negative keywords
// case-insensitively and truncates to limit.
func Keywords(raw []string, negatives []string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}
	blocked := make(map[string]struct{}, len(negatives))
	for _, n := range negatives {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			blocked[n] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, limit)
	for _, entry := range raw {
		for _, frag := range splitAlnum(entry) {
			if _, dup := seen[frag]; dup {
				continue
			}
			seen[frag] = struct{}{}
			if _, neg := blocked[strings.ToLower(frag)]; neg {
				continue
			}
			out = append(out, frag)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

func splitAlnum(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
}
