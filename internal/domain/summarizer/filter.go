package summarizer

import (
	"strings"

	"golang.org/x/text/cases"
)

// LexicalFilter decides which tokens take part in ranking and scoring.
type LexicalFilter struct {
	allowed map[string]struct{}
}

// NewLexicalFilter builds a filter accepting the given part-of-speech tags.
// Tags are compared case-insensitively.
func NewLexicalFilter(tags []string) LexicalFilter {
	allowed := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		allowed[tag] = struct{}{}
	}
	return LexicalFilter{allowed: allowed}
}

// IsSignificant reports whether the token is neither punctuation nor a stop
// word and carries an allowed tag.
func (f LexicalFilter) IsSignificant(t Token) bool {
	if t.IsPunct || t.IsStop {
		return false
	}
	_, ok := f.allowed[strings.ToUpper(t.POS)]
	return ok
}

// lemmaFolder case-folds lemmas. A cases.Caser is stateful, so one folder
// belongs to a single goroutine.
type lemmaFolder struct {
	caser cases.Caser
}

func newLemmaFolder() *lemmaFolder {
	return &lemmaFolder{caser: cases.Fold()}
}

func (f *lemmaFolder) fold(t Token) string {
	lemma := strings.TrimSpace(t.Lemma)
	if lemma == "" {
		lemma = strings.TrimSpace(t.Text)
	}
	if lemma == "" {
		return ""
	}
	return f.caser.String(lemma)
}

// significantLemmas returns, per sentence, the ordered case-folded lemmas of
// its significant tokens. Non-significant tokens are dropped, not treated as
// breaks.
func significantLemmas(sentences []Sentence, filter LexicalFilter) [][]string {
	folder := newLemmaFolder()
	out := make([][]string, len(sentences))
	for i, sentence := range sentences {
		lemmas := make([]string, 0, len(sentence.Tokens))
		for _, token := range sentence.Tokens {
			if !filter.IsSignificant(token) {
				continue
			}
			if lemma := folder.fold(token); lemma != "" {
				lemmas = append(lemmas, lemma)
			}
		}
		out[i] = lemmas
	}
	return out
}
