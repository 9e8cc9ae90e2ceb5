package bm25

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// Tokenize normalises text into stemmed terms: lowercase, split on any
// non-alphanumeric rune, then Snowball-stem each token. The exact same
// pipeline runs at build and at query time; asymmetry here would silently
// break matching.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		stemmed := english.Stem(f, false)
		if stemmed != "" {
			tokens = append(tokens, stemmed)
		}
	}
	return tokens
}
