package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stockmeta/internal/domain"
)

// ErrMalformedResponse marks model output that is not usable metadata. It is
// retryable: asking the model again often yields valid output.
var ErrMalformedResponse = errors.New("malformed model response")

// Parse extracts the first top-level JSON object from raw model text and
// decodes it into unnormalized metadata. A non-empty title and at least one
// keyword are required. Content is never altered here.
func Parse(raw string) (domain.Metadata, error) {
	fragment := extractObject(raw)
	if fragment == "" {
		return domain.Metadata{}, fmt.Errorf("%w: no json object found", ErrMalformedResponse)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(fragment), &fields); err != nil {
		return domain.Metadata{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	m := domain.Metadata{
		Title:       stringField(fields["title"]),
		Description: stringField(fields["description"]),
		Keywords:    keywordsField(fields["keywords"]),
	}
	for _, f := range domain.CategoryFields() {
		m.Set(f, stringField(fields[string(f)]))
	}

	if strings.TrimSpace(m.Title) == "" {
		return domain.Metadata{}, fmt.Errorf("%w: missing title", ErrMalformedResponse)
	}
	if len(m.Keywords) == 0 {
		return domain.Metadata{}, fmt.Errorf("%w: missing keywords", ErrMalformedResponse)
	}
	return m, nil
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// keywordsField accepts either a JSON array or a comma separated string.
func keywordsField(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			switch v := item.(type) {
			case string:
				if strings.TrimSpace(v) != "" {
					out = append(out, v)
				}
			case float64, bool:
				out = append(out, fmt.Sprint(v))
			}
		}
		return out
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		var out []string
		for _, part := range strings.Split(joined, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// extractObject returns the first balanced {...} span, honouring JSON string
// literals. When no balanced span exists it falls back to the text between the
// first '{' and the last '}'.
func extractObject(raw string) string {
	text := trimCodeFence(raw)
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	if end := strings.LastIndexByte(text, '}'); end > start {
		return text[start : end+1]
	}
	return ""
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
