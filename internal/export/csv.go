// Package export renders finished work items as agency upload sheets.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"stockmeta/internal/domain"
	"stockmeta/internal/domain/jsoncfg"
	"stockmeta/internal/normalize"
	"stockmeta/pkg/zip"
)

// bom makes spreadsheet tools read the sheet as UTF-8.
var bom = []byte{0xEF, 0xBB, 0xBF}

type layout struct {
	header []string
	row    func(name string, m domain.Metadata) []string
}

var layouts = map[domain.Platform]layout{
	domain.PlatformAdobe: {
		header: []string{"Filename", "Title", "Keywords", "Category"},
		row: func(name string, m domain.Metadata) []string {
			return []string{name, m.Title, joinKeywords(m.Keywords), m.AdobeCategory}
		},
	},
	domain.PlatformShutterstock: {
		header: []string{"Filename", "Description", "Keywords", "Categories", "Editorial", "Mature content", "illustration"},
		row: func(name string, m domain.Metadata) []string {
			var cats []string
			for _, c := range []string{m.ShutterstockMain, m.ShutterstockOptional} {
				if c != "" {
					cats = append(cats, c)
				}
			}
			return []string{name, m.Description, joinKeywords(m.Keywords), strings.Join(cats, ", "), "no", "no", "yes"}
		},
	},
	domain.PlatformVecteezy: {
		header: []string{"Filename", "Title", "Keywords"},
		row: func(name string, m domain.Metadata) []string {
			return []string{name, m.Title, joinKeywords(m.Keywords)}
		},
	},
	domain.PlatformVectorStock: {
		header: []string{"Filename", "Title", "Description", "Keywords", "Primary Category", "Secondary Category"},
		row: func(name string, m domain.Metadata) []string {
			return []string{name, m.Title, m.Description, joinKeywords(m.Keywords), m.VectorstockPrimary, m.VectorstockSecondary}
		},
	},
	domain.PlatformGeneral: {
		header: []string{
			"File Name", "Title", "Description", "Keywords",
			"Adobe Stock Category", "Shutterstock Main Category",
			"Shutterstock Optional Category", "VectorStock Primary Category",
			"VectorStock Secondary Category",
		},
		row: func(name string, m domain.Metadata) []string {
			return []string{
				name, m.Title, m.Description, joinKeywords(m.Keywords),
				m.AdobeCategory, m.ShutterstockMain, m.ShutterstockOptional,
				m.VectorstockPrimary, m.VectorstockSecondary,
			}
		},
	},
}

func joinKeywords(kws []string) string {
	return strings.Join(kws, ", ")
}

// Filename applies the extension override. "default" keeps the original name.
func Filename(original, extensionMode string) string {
	if extensionMode == "" || extensionMode == jsoncfg.ExtensionDefault {
		return original
	}
	base := strings.TrimSuffix(original, path.Ext(original))
	return base + "." + extensionMode
}

// Completed returns the items that have metadata, in order.
func Completed(items []domain.WorkItem) []domain.WorkItem {
	var out []domain.WorkItem
	for _, item := range items {
		if item.Status == domain.StatusComplete && item.Metadata != nil {
			out = append(out, item)
		}
	}
	return out
}

// CSV writes the upload sheet for platform. Only completed items are written;
// text fields pass through the whitelist once more.
func CSV(w io.Writer, items []domain.WorkItem, platform domain.Platform, extensionMode string) error {
	l, ok := layouts[platform]
	if !ok {
		l = layouts[domain.PlatformGeneral]
	}
	if _, err := w.Write(bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(l.header); err != nil {
		return err
	}
	for _, item := range Completed(items) {
		if err := cw.Write(l.row(Filename(item.Filename, extensionMode), clean(*item.Metadata))); err != nil {
			return fmt.Errorf("export: %s: %w", item.Filename, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func clean(m domain.Metadata) domain.Metadata {
	m.Title = normalize.CleanText(m.Title)
	m.Description = normalize.CleanText(m.Description)
	kws := make([]string, 0, len(m.Keywords))
	for _, k := range m.Keywords {
		if k = normalize.CleanText(k); k != "" {
			kws = append(kws, k)
		}
	}
	m.Keywords = kws
	return m
}

// SheetName is the file name used for a platform sheet.
func SheetName(platform domain.Platform) string {
	slug := strings.ToLower(strings.ReplaceAll(string(platform), " ", "_"))
	return "metadata_" + slug + ".csv"
}

// Bundle archives one sheet per platform plus the text report.
func Bundle(items []domain.WorkItem, cfg jsoncfg.Settings, now time.Time) ([]byte, error) {
	var entries []zip.Entry
	for _, p := range domain.Platforms() {
		var buf bytes.Buffer
		if err := CSV(&buf, items, p, cfg.ExtensionMode); err != nil {
			return nil, err
		}
		entries = append(entries, zip.Entry{Name: SheetName(p), Data: buf.Bytes(), Modified: now})
	}
	entries = append(entries, zip.Entry{Name: "report.txt", Data: []byte(Report(items, cfg.GenerationConfig)), Modified: now})
	return zip.Archive(entries)
}
