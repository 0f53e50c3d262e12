package ranker

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// Tokenize lower-cases text and splits it on runs of whitespace
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// ResolveQueryText reduces a raw query value to a plain string.
//
// Strings are returned as is. For objects the first non-empty of a nested
// "text" field, a nested "query" field, or the JSON encoding of the object
// wins. Anything that cannot be reduced yields "".
func ResolveQueryText(raw any) string {
	switch q := raw.(type) {
	case nil:
		return ""
	case string:
		return q
	case []byte:
		return string(q)
	case fmt.Stringer:
		return q.String()
	case map[string]any:
		if s := nonEmptyString(q["text"]); s != "" {
			return s
		}
		if s := nonEmptyString(q["query"]); s != "" {
			return s
		}
	case map[string]string:
		if q["text"] != "" {
			return q["text"]
		}
		if q["query"] != "" {
			return q["query"]
		}
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func nonEmptyString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Haystack builds the lower-cased text a query is matched against:
// description, original filename and space-joined tags.
func Haystack(m *types.Media) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.Description)
	b.WriteByte(' ')
	b.WriteString(m.OriginalName)
	b.WriteByte(' ')
	b.WriteString(strings.Join(m.Tags, " "))
	return strings.ToLower(b.String())
}

// KeywordScore returns the fraction of tokens that occur as a substring of
// haystack. Each token counts at most once. No tokens scores 0.
func KeywordScore(haystack string, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	hits := 0
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
