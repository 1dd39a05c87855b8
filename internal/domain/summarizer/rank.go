package summarizer

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrNotConverged is returned by Rank together with best-effort scores when
// the iteration cap is hit before the threshold is met.
var ErrNotConverged = errors.New("importance ranking did not converge")

const defaultMaxIterations = 100

// RankOptions tunes the fixed-point iteration.
type RankOptions struct {
	Damping       float64
	Threshold     float64
	MaxIterations int
}

// Ranking is the outcome of Rank.
type Ranking struct {
	Scores     map[string]float64
	Iterations int
	Converged  bool
	MaxChange  float64
}

// Rank computes graph-rank importance for the considered lemmas.
//
// Rounds are synchronous: every new score of a round is computed from the
// scores of the previous round before any of them is published. A node's
// contribution to a successor is its score divided by its out-degree,
// duplicate edges included. The graph's node scores hold the final values
// afterwards.
func Rank(ctx context.Context, g *Graph, considered []string, opts RankOptions) (Ranking, error) {
	ranking := Ranking{Scores: make(map[string]float64, len(considered)), Converged: true}
	if len(considered) == 0 {
		return ranking, nil
	}
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	members := make([]int, 0, len(considered))
	for _, lemma := range considered {
		members = append(members, g.ensure(lemma))
	}

	current := make([]float64, len(g.nodes))
	for i := range g.nodes {
		current[i] = g.nodes[i].Score
	}
	next := make([]float64, len(current))
	copy(next, current)

	base := (1 - opts.Damping) / float64(len(members))
	ranking.Converged = false
	for round := 1; round <= maxIterations; round++ {
		if err := ctx.Err(); err != nil {
			return ranking, err
		}
		maxChange := 0.0
		for _, v := range members {
			incoming := 0.0
			for _, p := range g.nodes[v].Predecessors {
				incoming += current[p] / float64(len(g.nodes[p].Successors))
			}
			next[v] = base + opts.Damping*incoming
			if change := math.Abs(next[v] - current[v]); change > maxChange {
				maxChange = change
			}
		}
		current, next = next, current
		ranking.Iterations = round
		ranking.MaxChange = maxChange
		if maxChange <= opts.Threshold {
			ranking.Converged = true
			break
		}
	}

	for _, v := range members {
		g.nodes[v].Score = current[v]
		ranking.Scores[g.nodes[v].Lemma] = current[v]
	}
	if !ranking.Converged {
		return ranking, fmt.Errorf("%w after %d rounds (max change %g)", ErrNotConverged, ranking.Iterations, ranking.MaxChange)
	}
	return ranking, nil
}
