package summarizer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// SentenceScore is the correlation score of one sentence.
type SentenceScore struct {
	Index int
	Score float64
}

// lemmaBag counts significant lemmas of a sentence. order keeps first
// appearance so sums are accumulated in a stable order.
type lemmaBag struct {
	order  []string
	counts map[string]int
}

func newLemmaBag(lemmas []string) lemmaBag {
	bag := lemmaBag{counts: make(map[string]int, len(lemmas))}
	for _, lemma := range lemmas {
		if bag.counts[lemma] == 0 {
			bag.order = append(bag.order, lemma)
		}
		bag.counts[lemma]++
	}
	return bag
}

// Correlate scores every sentence by its lexical overlap with every other
// sentence. Each pair of matching significant tokens (one in sentence i, one
// in sentence j, j != i) adds the lemma's importance score to sentence i, or
// 1 in unit mode. With workers > 1 sentences are scored concurrently.
func Correlate(ctx context.Context, lemmas [][]string, importance map[string]float64, mode ScoringMode, workers int) ([]SentenceScore, error) {
	bags := make([]lemmaBag, len(lemmas))
	for i, sentence := range lemmas {
		bags[i] = newLemmaBag(sentence)
	}

	weight := func(lemma string) float64 {
		if mode == ScoringUnit {
			return 1
		}
		return importance[lemma]
	}

	out := make([]SentenceScore, len(bags))
	score := func(i int) {
		total := 0.0
		for j := range bags {
			if i == j {
				continue
			}
			other := bags[j].counts
			for _, lemma := range bags[i].order {
				matches := bags[i].counts[lemma] * other[lemma]
				if matches == 0 {
					continue
				}
				total += float64(matches) * weight(lemma)
			}
		}
		out[i] = SentenceScore{Index: i, Score: total}
	}

	if workers <= 1 {
		for i := range bags {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			score(i)
		}
		return out, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i := range bags {
		i := i
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			score(i)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
