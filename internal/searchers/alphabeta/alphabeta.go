// Package alphabeta implements a depth-limited minimax search with alpha-beta pruning over searchers.Position.
//
// See: wikipedia.org/wiki/Alpha-beta_pruning
package alphabeta

import (
	"math"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/arcadeai/internal/searchers"
	"k8s.io/klog/v2"
)

// WinScore is the magnitude of a terminal score. Terminal positions score ±(WinScore + remaining depth),
// so that faster wins and slower losses are preferred.
const WinScore = 1000.0

// DefaultMaxDepth for search.
const DefaultMaxDepth = 3

// Searcher runs minimax with alpha-beta pruning. It is not safe for concurrent use: create one per search,
// they are cheap.
type Searcher[M any] struct {
	maxDepth int
	stats    Stats
}

// Stats stores running stats collected during the search: for benchmarking, monitoring and debugging purposes.
type Stats struct {
	// Nodes "played" during search: each call to Position.Play.
	Nodes int

	// Evals is the number of static evaluations at the depth cutoff. Terminal positions don't count here.
	Evals int

	// Prunes is the number of alpha-beta cutoffs.
	Prunes int
}

// New returns a Searcher with DefaultMaxDepth. See Searcher.WithMaxDepth.
func New[M any]() *Searcher[M] {
	return &Searcher[M]{maxDepth: DefaultMaxDepth}
}

// WithMaxDepth sets the max depth of search: the unit here are plies (ply singular). Each player
// playing counts as one ply. See https://en.wikipedia.org/wiki/Ply_(game_theory).
//
// It panics if maxDepth < 1.
func (ab *Searcher[M]) WithMaxDepth(maxDepth int) *Searcher[M] {
	if maxDepth < 1 {
		exceptions.Panicf("alphabeta: max depth must be >= 1, got %d", maxDepth)
	}
	ab.maxDepth = maxDepth
	return ab
}

// MaxDepth returns the configured max depth.
func (ab *Searcher[M]) MaxDepth() int { return ab.maxDepth }

// Stats returns the counters accumulated by the searches run so far.
func (ab *Searcher[M]) Stats() Stats { return ab.stats }

// Search returns the best move for the side to play in root, and its minimax score.
//
// Every root move is searched with a full window, in generation order, and the first one with the highest
// score wins ties. It returns ok=false if root has no moves.
func (ab *Searcher[M]) Search(root searchers.Position[M]) (best M, score float64, ok bool) {
	start := time.Now()
	moves := root.Moves()
	if len(moves) == 0 {
		return
	}
	score = math.Inf(-1)
	for _, move := range moves {
		ab.stats.Nodes++
		moveScore := ab.recursion(root.Play(move), ab.maxDepth-1, math.Inf(-1), math.Inf(1), false)
		if !ok || moveScore > score {
			best, score, ok = move, moveScore, true
		}
	}
	if klog.V(2).Enabled() {
		elapsed := time.Since(start).Seconds()
		klog.Infof("alphabeta: depth=%d, score=%.1f, counts=%+v", ab.maxDepth, score, ab.stats)
		if elapsed > 0 {
			klog.Infof("  nodes/s=%.1f, evals/s=%.1f", float64(ab.stats.Nodes)/elapsed, float64(ab.stats.Evals)/elapsed)
		}
	}
	return
}

// recursion of the minimax, with depthLeft plies to go. maximizing is true when the side that started
// the search is to play.
func (ab *Searcher[M]) recursion(pos searchers.Position[M], depthLeft int, alpha, beta float64, maximizing bool) float64 {
	switch pos.Terminal() {
	case searchers.Win:
		return WinScore + float64(depthLeft)
	case searchers.Loss:
		return -WinScore - float64(depthLeft)
	case searchers.Draw:
		return 0
	}
	if depthLeft <= 0 {
		ab.stats.Evals++
		return pos.Evaluate()
	}

	moves := pos.Moves()
	if len(moves) == 0 {
		// A side that cannot move loses.
		if maximizing {
			return -WinScore - float64(depthLeft)
		}
		return WinScore + float64(depthLeft)
	}

	if maximizing {
		best := math.Inf(-1)
		for _, move := range moves {
			ab.stats.Nodes++
			best = max(best, ab.recursion(pos.Play(move), depthLeft-1, alpha, beta, false))
			alpha = max(alpha, best)
			if beta <= alpha {
				ab.stats.Prunes++
				break
			}
		}
		return best
	}
	best := math.Inf(1)
	for _, move := range moves {
		ab.stats.Nodes++
		best = min(best, ab.recursion(pos.Play(move), depthLeft-1, alpha, beta, true))
		beta = min(beta, best)
		if beta <= alpha {
			ab.stats.Prunes++
			break
		}
	}
	return best
}
