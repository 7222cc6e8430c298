package retriever

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "with": {}, "you": {},
}

// Terms returns the distinct lowercase content words of text, in order of first use.
func Terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words = lo.Filter(words, func(w string, _ int) bool {
		if len([]rune(w)) < 2 {
			return false
		}
		_, stop := stopwords[w]
		return !stop
	})
	return lo.Uniq(words)
}
