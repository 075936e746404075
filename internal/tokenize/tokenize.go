// Package tokenize implements the normative tokenization shared by the BM25
// term index (spec §4.4) and the hashed-feature embedding (spec §4.5): NFKC
// normalization, lowercasing, splitting on any rune that is not a letter,
// digit, or underscore, dropping tokens shorter than two runes, and
// dropping a fixed English stop-word list. It must be byte-reproducible
// across readers and writers, so nothing here may depend on locale or
// external state.
//
// NFKC normalization is grounded on t-kawata-mycute's use of
// golang.org/x/text/unicode/norm for its own search/graph normalization
// passes (pkg/cuber/utils/normalize.go).
package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// minTokenLength is the shortest token length kept by the tokenizer (spec §4.4).
const minTokenLength = 2

// stopWords is the fixed English stop-word list. It must stay identical
// across every reader/writer that exchanges amem files (spec §4.4).
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "if": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "such": {},
	"that": {}, "the": {}, "their": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "will": {}, "with": {},
	"from": {}, "has": {}, "have": {}, "had": {}, "we": {}, "you": {},
	"i": {}, "its": {}, "been": {}, "do": {}, "does": {}, "did": {},
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Tokens splits text into normalized, filtered tokens per spec §4.4.
func Tokens(text string) []string {
	normalized := norm.NFKC.String(text)
	normalized = strings.ToLower(normalized)

	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := b.String()
		b.Reset()
		if len([]rune(tok)) < minTokenLength {
			return
		}
		if _, stop := stopWords[tok]; stop {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range normalized {
		if isWordRune(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
