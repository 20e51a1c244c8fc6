// Package tokenizer approximates model tokens by whitespace-delimited words,
// which is enough to keep inputs inside a model's sequence limit without
// shipping a real tokenizer.
package tokenizer

import (
	"strings"
	"unicode"
)

// Count returns the approximate number of tokens in text.
func Count(text string) int {
	return len(strings.Fields(text))
}

// Truncate keeps at most maxTokens words of text. The original string is
// returned untouched (and false) when it already fits or maxTokens <= 0;
// otherwise the prefix up to the end of the last kept word is returned, so
// the kept part is byte-identical to the input.
func Truncate(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return text, false
	}
	words := 0
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			inWord = true
			words++
			if words > maxTokens {
				return strings.TrimRightFunc(text[:i], unicode.IsSpace), true
			}
		}
	}
	return text, false
}
