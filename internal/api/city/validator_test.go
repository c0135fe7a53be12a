package city

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogodnik/pogodnik/internal/api"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "london", "London"},
		{"uppercase", "LONDON", "London"},
		{"mixed case", "lOS angeles", "Los angeles"},
		{"surrounding whitespace", " ekaterinburg ", "Ekaterinburg"},
		{"already normalized", "Paris", "Paris"},
		{"hyphenated", "rostov-on-don", "Rostov-on-don"},
		{"apostrophe", "l'aquila", "L'aquila"},
		{"cyrillic", "екатеринбург", "Екатеринбург"},
		// Multi-word capitals are deliberately not special-cased.
		{"multi-word", "new york", "New york"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"london", " LONDON ", "lOS angeles", "rostov-on-don", "москва"}
	for _, input := range inputs {
		once, err := Normalize(input)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only whitespace", "   "},
		{"single character", "a"},
		{"single character padded", " a "},
		{"digits", "london1"},
		{"punctuation", "london!"},
		{"underscore", "new_york"},
		{"period", "st. petersburg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, api.ErrInvalidCity), "expected ErrInvalidCity, got %v", err)
			assert.Empty(t, got)
		})
	}
}
