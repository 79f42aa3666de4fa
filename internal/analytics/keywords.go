package analytics

import (
	"sort"
	"strings"

	"github.com/timmy/applytrack/internal/domain"
)

// stopWords are dropped from title keywords. Tokens of two characters or fewer
// are dropped before this set is consulted.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "from": true,
	"into": true, "our": true, "your": true, "you": true, "are": true,
	"was": true, "were": true, "this": true, "that": true, "who": true,
	"will": true, "all": true, "any": true, "not": true, "but": true,
	"via": true, "per": true, "has": true, "have": true, "its": true,
}

// Keywords returns the limit most frequent title tokens, highest count first.
// Equal counts keep the order in which the tokens were first seen.
func Keywords(apps []domain.Application, limit int) []KeywordCount {
	counts := make(map[string]int)
	var order []string
	for _, app := range apps {
		for _, tok := range tokenize(app.Title) {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	out := make([]KeywordCount, 0, len(order))
	for _, tok := range order {
		out = append(out, KeywordCount{Keyword: capitalize(tok), Count: counts[tok]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// tokenize lower-cases s, splits it on anything outside a-z and 0-9 and
// drops short tokens and stop words. Non-ASCII letters act as separators.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) <= 2 || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func capitalize(s string) string {
	return strings.ToUpper(s[:1]) + s[1:]
}
