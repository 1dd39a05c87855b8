package summarizer

import (
	"encoding/json"
	"time"

	"github.com/yanqian/news-reducer/pkg/metrics"
)

// ScoringMode selects how shared lemmas contribute to a sentence score.
type ScoringMode string

const (
	// ScoringWeighted adds the lemma importance score per matching token pair.
	ScoringWeighted ScoringMode = "weighted"
	// ScoringUnit adds 1 per matching token pair.
	ScoringUnit ScoringMode = "unit"
)

// Valid reports whether the mode is supported.
func (m ScoringMode) Valid() bool {
	return m == ScoringWeighted || m == ScoringUnit
}

// LengthUnit is the unit used to measure sentences against the budget.
type LengthUnit string

const (
	// UnitWords counts non-punctuation tokens.
	UnitWords LengthUnit = "words"
	// UnitChars counts runes of the trimmed sentence text.
	UnitChars LengthUnit = "chars"
	// UnitTokens counts BPE tokens of the trimmed sentence text.
	UnitTokens LengthUnit = "tokens"
)

// Valid reports whether the unit is supported.
func (u LengthUnit) Valid() bool {
	return u == UnitWords || u == UnitChars || u == UnitTokens
}

// Config configures the extractive summarizer.
type Config struct {
	AllowedTags          []string
	Damping              float64
	ConvergenceThreshold float64
	MaxIterations        int
	Budget               int
	MaxBudget            int
	LengthUnit           LengthUnit
	ScoringMode          ScoringMode
	Separator            string
	MaxKeywords          int
	Workers              int
	Timeout              time.Duration
}

// DefaultConfig mirrors the defaults of the config package.
func DefaultConfig() Config {
	return Config{
		AllowedTags:          []string{"NOUN", "PROPN", "ADJ"},
		Damping:              0.85,
		ConvergenceThreshold: 0.001,
		MaxIterations:        100,
		Budget:               250,
		MaxBudget:            5000,
		LengthUnit:           UnitWords,
		ScoringMode:          ScoringWeighted,
		Separator:            "\n",
		MaxKeywords:          5,
		Workers:              1,
		Timeout:              10 * time.Second,
	}
}

// Token is one annotated token as produced by the external annotator.
type Token struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	POS     string `json:"pos"`
	IsPunct bool   `json:"isPunct"`
	IsStop  bool   `json:"isStop"`
}

// UnmarshalJSON accepts the flags in both camelCase and the snake_case
// used by the annotator service. camelCase wins when both are present.
func (t *Token) UnmarshalJSON(data []byte) error {
	type plain Token
	var raw struct {
		plain
		IsPunct      *bool `json:"isPunct"`
		IsStop       *bool `json:"isStop"`
		SnakeIsPunct *bool `json:"is_punct"`
		SnakeIsStop  *bool `json:"is_stop"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Token(raw.plain)
	t.IsPunct = firstFlag(raw.IsPunct, raw.SnakeIsPunct)
	t.IsStop = firstFlag(raw.IsStop, raw.SnakeIsStop)
	return nil
}

func firstFlag(flags ...*bool) bool {
	for _, f := range flags {
		if f != nil {
			return *f
		}
	}
	return false
}

// Sentence is an annotated sentence and its 0-based document position.
type Sentence struct {
	Index  int     `json:"index"`
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
}

// Document is the annotator output for one article.
type Document struct {
	Title     string
	Sentences []Sentence
}

// Request represents the plain-text summarization payload.
type Request struct {
	Text        string      `json:"text"`
	Title       string      `json:"title,omitempty"`
	Budget      int         `json:"budget,omitempty"`
	ScoringMode ScoringMode `json:"scoringMode,omitempty"`
}

// AnnotatedRequest carries sentences that were already annotated upstream.
type AnnotatedRequest struct {
	Title       string      `json:"title,omitempty"`
	Sentences   []Sentence  `json:"sentences"`
	Budget      int         `json:"budget,omitempty"`
	ScoringMode ScoringMode `json:"scoringMode,omitempty"`
}

// SelectedSentence is one sentence of the final summary.
type SelectedSentence struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Response is returned by both summarization endpoints.
type Response struct {
	Title      string             `json:"title,omitempty"`
	Summary    string             `json:"summary"`
	Sentences  []SelectedSentence `json:"sentences"`
	Keywords   []string           `json:"keywords"`
	Converged  bool               `json:"converged"`
	Stats      metrics.RunStats   `json:"stats"`
	DurationMs int64              `json:"durationMs,omitempty"`
}
