package summarizer

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Candidate is a sentence competing for a place in the summary.
type Candidate struct {
	Index  int
	Text   string
	Length int
	Score  float64
}

// Selection holds the accepted candidates in document order.
type Selection struct {
	Sentences []Candidate
	Used      int
}

// Select greedily accepts the best scored candidates while each one fits
// strictly inside the remaining budget. Equal scores keep document order.
// Selection stops at the first candidate that does not fit. A candidate whose
// length equals the remaining budget does not fit.
func Select(candidates []Candidate, budget int) Selection {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score == ranked[j].Score {
			return ranked[i].Index < ranked[j].Index
		}
		return ranked[i].Score > ranked[j].Score
	})

	remaining := budget
	accepted := make([]Candidate, 0, len(ranked))
	for _, candidate := range ranked {
		if remaining <= candidate.Length {
			break
		}
		remaining -= candidate.Length
		accepted = append(accepted, candidate)
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Index < accepted[j].Index
	})
	return Selection{Sentences: accepted, Used: budget - remaining}
}

// Join concatenates the trimmed sentence texts with sep.
func (s Selection) Join(sep string) string {
	parts := make([]string, 0, len(s.Sentences))
	for _, candidate := range s.Sentences {
		if text := strings.TrimSpace(candidate.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, sep)
}

// TokenCounter counts BPE tokens for the tokens length unit.
type TokenCounter interface {
	CountTokens(text string) int
}

// sentenceLength measures a sentence in the configured unit. Words are the
// non-punctuation tokens; without tokens the text is split on whitespace.
func sentenceLength(sentence Sentence, unit LengthUnit, counter TokenCounter) int {
	text := strings.TrimSpace(sentence.Text)
	switch unit {
	case UnitChars:
		return utf8.RuneCountInString(text)
	case UnitTokens:
		if counter != nil {
			return counter.CountTokens(text)
		}
	}
	if len(sentence.Tokens) == 0 {
		return len(strings.Fields(text))
	}
	words := 0
	for _, token := range sentence.Tokens {
		if !token.IsPunct {
			words++
		}
	}
	return words
}
