package summarizer

import (
	"context"
	"errors"
	"sort"

	"github.com/yanqian/news-reducer/pkg/metrics"
)

// Pipeline runs filter → graph → rank → correlate → select for one
// document. It keeps no state between runs.
type Pipeline struct {
	cfg     Config
	filter  LexicalFilter
	counter TokenCounter
}

// RunOptions carries per-request overrides. Zero values fall back to the
// pipeline configuration.
type RunOptions struct {
	Budget      int
	ScoringMode ScoringMode
}

// Result is the outcome of one pipeline run.
type Result struct {
	Summary   string
	Selection Selection
	Scores    []SentenceScore
	Keywords  []string
	Ranking   Ranking
	Stats     metrics.RunStats
}

// NewPipeline builds a pipeline. counter may be nil unless the tokens length
// unit is configured.
func NewPipeline(cfg Config, counter TokenCounter) *Pipeline {
	defaults := DefaultConfig()
	if len(cfg.AllowedTags) == 0 {
		cfg.AllowedTags = defaults.AllowedTags
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if !cfg.LengthUnit.Valid() {
		cfg.LengthUnit = defaults.LengthUnit
	}
	if !cfg.ScoringMode.Valid() {
		cfg.ScoringMode = defaults.ScoringMode
	}
	return &Pipeline{cfg: cfg, filter: NewLexicalFilter(cfg.AllowedTags), counter: counter}
}

// Run summarizes the sentences. Non-convergence does not fail the run; it is
// reported through Result.Ranking.Converged. Only context errors are returned.
func (p *Pipeline) Run(ctx context.Context, sentences []Sentence, opts RunOptions) (Result, error) {
	budget := opts.Budget
	if budget <= 0 {
		budget = p.cfg.Budget
	}
	mode := opts.ScoringMode
	if !mode.Valid() {
		mode = p.cfg.ScoringMode
	}
	stats := metrics.RunStats{
		Sentences:  len(sentences),
		Budget:     budget,
		LengthUnit: string(p.cfg.LengthUnit),
	}
	if len(sentences) == 0 {
		return Result{Ranking: Ranking{Converged: true}, Stats: stats}, nil
	}

	lemmas := significantLemmas(sentences, p.filter)
	graph, considered := BuildGraph(lemmas)
	stats.SignificantLemmas = len(considered)
	stats.Edges = graph.EdgeCount()
	stats.Degraded = len(considered) == 0

	ranking, err := Rank(ctx, graph, considered, RankOptions{
		Damping:       p.cfg.Damping,
		Threshold:     p.cfg.ConvergenceThreshold,
		MaxIterations: p.cfg.MaxIterations,
	})
	if err != nil && !errors.Is(err, ErrNotConverged) {
		return Result{}, err
	}
	stats.Iterations = ranking.Iterations

	scores, err := Correlate(ctx, lemmas, ranking.Scores, mode, p.cfg.Workers)
	if err != nil {
		return Result{}, err
	}

	candidates := make([]Candidate, len(sentences))
	for i, sentence := range sentences {
		candidates[i] = Candidate{
			Index:  i,
			Text:   sentence.Text,
			Length: sentenceLength(sentence, p.cfg.LengthUnit, p.counter),
			Score:  scores[i].Score,
		}
	}
	selection := Select(candidates, budget)
	stats.Selected = len(selection.Sentences)
	stats.BudgetUsed = selection.Used

	return Result{
		Summary:   selection.Join(p.cfg.Separator),
		Selection: selection,
		Scores:    scores,
		Keywords:  topKeywords(considered, ranking.Scores, p.cfg.MaxKeywords),
		Ranking:   ranking,
		Stats:     stats,
	}, nil
}

// topKeywords returns the highest ranked lemmas; ties keep first appearance.
func topKeywords(considered []string, scores map[string]float64, limit int) []string {
	if limit <= 0 || len(considered) == 0 {
		return []string{}
	}
	ordered := make([]string, len(considered))
	copy(ordered, considered)
	sort.SliceStable(ordered, func(i, j int) bool {
		return scores[ordered[i]] > scores[ordered[j]]
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}
