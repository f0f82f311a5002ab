package report

import (
	"encoding/json"
	"math"
	"strings"
	"unicode"
)

const wordsPerMinute = 200

// proseFields are the field names whose string values always count toward
// the read-time estimate, regardless of length or shape.
var proseFields = map[string]bool{
	"executive_summary":      true,
	"text":                   true,
	"headline":               true,
	"narrative_lead":         true,
	"primary_recommendation": true,
	"narrative":              true,
	"core_contradiction":     true,
	"reframed_problem":       true,
	"summary":                true,
	"mechanism":              true,
	"insight":                true,
	"analogy":                true,
	"assumption":             true,
	"challenge":              true,
	"verdict":                true,
	"risk":                   true,
	"mitigation":             true,
	"why_this_wins":          true,
	"expected_improvement":   true,
	"confidence_note":        true,
	"brief":                  true,
}

// ReadTimeMinutes estimates reading time for a canonical report by walking
// every string in the document. Strings under a prose field name always
// count; other strings are skipped when they look like tags or identifiers
// rather than prose. Never returns less than one minute.
func ReadTimeMinutes(r *Report) int {
	blob, err := json.Marshal(r)
	if err != nil {
		return 1
	}
	var tree any
	if err := json.Unmarshal(blob, &tree); err != nil {
		return 1
	}
	// The marshaled tree already inlines retained unknown fields, so one
	// walk covers the whole document.
	words := countWords(tree, "")
	minutes := int(math.Round(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func countWords(node any, field string) int {
	switch v := node.(type) {
	case string:
		if !proseFields[field] && !looksLikeProse(v) {
			return 0
		}
		return len(strings.Fields(v))
	case map[string]any:
		total := 0
		for key, child := range v {
			total += countWords(child, key)
		}
		return total
	case []any:
		total := 0
		for _, child := range v {
			total += countWords(child, field)
		}
		return total
	default:
		return 0
	}
}

// looksLikeProse filters out strings that are almost certainly enum tags,
// identifiers, or URLs: short values, fully upper-case values, and
// single-token or link-shaped values.
func looksLikeProse(v string) bool {
	v = strings.TrimSpace(v)
	if len(v) < 20 {
		return false
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return false
	}
	if !strings.ContainsRune(v, ' ') {
		return false
	}
	hasLower := false
	for _, r := range v {
		if unicode.IsLower(r) {
			hasLower = true
			break
		}
	}
	return hasLower
}
