package lexical

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple words", "Use camelCase", []string{"use", "camelcase"}},
		{"punctuation splits", "error-handling, retries; (backoff)", []string{"error", "handling", "retries", "backoff"}},
		{"underscore kept", "snake_case_name", []string{"snake_case_name"}},
		{"digits kept", "HTTP2 on port 8080", []string{"http2", "on", "port", "8080"}},
		{"whitespace runs", "  a \t\n  b  ", []string{"a", "b"}},
		{"unicode letters", "Café Größe", []string{"café", "größe"}},
		{"dotted path", "internal/storage.go", []string{"internal", "storage", "go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestTokenize_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "!!!", "-- ?? .."} {
		assert.Empty(t, Tokenize(input), "input %q", input)
	}
}

func TestTokenize_Idempotent(t *testing.T) {
	inputs := []string{
		"Use camelCase for variables",
		"Don't repeat yourself!! (DRY)",
		"path/to/file_name.go:42",
		"ÜBER-cool naïve façade",
		"",
	}

	for _, input := range inputs {
		first := Tokenize(input)
		second := Tokenize(strings.Join(first, " "))
		assert.Equal(t, first, second, "input %q", input)
	}
}
