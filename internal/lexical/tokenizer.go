package lexical

import (
	"strings"
	"unicode"
)

// Tokenize turns free text into a normalized token sequence. It never fails
// and returns an empty slice when text has no word characters.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), isSeparator)
}

// isSeparator reports whether r splits tokens
func isSeparator(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}
