package domain

import (
	"fmt"
	"strings"
)

// MatchMode selects how the importer compares natural keys.
type MatchMode string

const (
	// MatchExact compares company and title byte for byte.
	MatchExact MatchMode = "exact"
	// MatchNormalized trims surrounding whitespace and folds case first.
	MatchNormalized MatchMode = "normalized"
)

// ParseMatchMode maps a config value to a MatchMode. Empty means exact.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchExact:
		return MatchExact, nil
	case MatchNormalized:
		return MatchNormalized, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

// Key is the (company, title) pair identifying "the same application".
type Key struct {
	Company string
	Title   string
	Mode    MatchMode
}

// NaturalKey builds the lookup key for company and title under mode.
func NaturalKey(company, title string, mode MatchMode) Key {
	if mode == MatchNormalized {
		return Key{
			Company: normalizeKeyPart(company),
			Title:   normalizeKeyPart(title),
			Mode:    mode,
		}
	}
	return Key{Company: company, Title: title, Mode: MatchExact}
}

func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
