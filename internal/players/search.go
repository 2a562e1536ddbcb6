package players

import (
	"math/rand/v2"

	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/searchers"
	"github.com/janpfeifer/arcadeai/internal/searchers/alphabeta"
)

// ShouldSearch draws whether a search-based strategy plays its best move this turn: it does so with
// probability 1 - error_chance.
func ShouldSearch(params parameters.Params, rng *rand.Rand) (bool, error) {
	errorChance, err := parameters.GetParamOr(params, "error_chance", 0.0)
	if err != nil {
		return false, err
	}
	return rng.Float64() > errorChance, nil
}

// Search runs alpha-beta pruning on root to the "max_depth" given in params (defaultDepth if not set).
// It returns ok=false if there are no moves.
func Search[M any](root searchers.Position[M], params parameters.Params, defaultDepth int) (move M, ok bool, err error) {
	maxDepth, err := parameters.GetParamOr(params, "max_depth", defaultDepth)
	if err != nil {
		return
	}
	searcher := alphabeta.New[M]().WithMaxDepth(max(maxDepth, 1))
	move, _, ok = searcher.Search(root)
	return
}
