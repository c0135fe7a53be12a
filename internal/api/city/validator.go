package city

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pogodnik/pogodnik/internal/api"
)

// Normalize trims and case-normalizes a raw city name so that variants like
// "lOS angeles" and "Los angeles" collide to the same lookup and storage key.
// The rule is a single capitalization pass: first rune upper, remainder lower.
// Multi-word names are not special-cased, so "new york" becomes "New york".
//
// Fails with api.ErrInvalidCity when the input is empty, shorter than two
// runes after normalization, or contains anything besides letters, whitespace,
// hyphens and apostrophes.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("city name is empty: %w", api.ErrInvalidCity)
	}

	normalized := capitalize(trimmed)

	if utf8.RuneCountInString(normalized) < 2 {
		return "", fmt.Errorf("city name %q is too short: %w", normalized, api.ErrInvalidCity)
	}

	for _, r := range normalized {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '-' && r != '\'' {
			return "", fmt.Errorf("city name %q contains invalid characters: %w", normalized, api.ErrInvalidCity)
		}
	}

	return normalized, nil
}

func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
