package imaging

import (
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

var acceptedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Accept reports whether an upload is a supported image, by declared type or
// by file extension.
func Accept(filename, mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if acceptedTypes[mt] {
		return true
	}
	return acceptedExts[strings.ToLower(filepath.Ext(filename))]
}

// SortNatural orders names so that embedded numbers compare by value
// ("img2" before "img10").
func SortNatural(names []string) {
	SortByName(names, func(s string) string { return s })
}

// SortByName sorts items stably by the natural order of name(item).
func SortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.Und, collate.Numeric)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(name(items[i]), name(items[j])) < 0
	})
}
