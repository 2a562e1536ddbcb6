package alphabeta_test

import (
	"testing"

	"github.com/janpfeifer/arcadeai/internal/searchers"
	"github.com/janpfeifer/arcadeai/internal/searchers/alphabeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nim is the subtraction game: players alternate taking 1 to 3 tokens, whoever takes the last one wins.
type nim struct {
	pile int
	mine bool // Whether the searching side is to play.
}

var _ searchers.Position[int] = nim{}

func (n nim) Moves() []int {
	var moves []int
	for take := 1; take <= 3 && take <= n.pile; take++ {
		moves = append(moves, take)
	}
	return moves
}

func (n nim) Play(take int) searchers.Position[int] { return nim{pile: n.pile - take, mine: !n.mine} }

func (n nim) Terminal() searchers.Outcome {
	if n.pile > 0 {
		return searchers.Ongoing
	}
	if n.mine {
		return searchers.Loss
	}
	return searchers.Win
}

func (n nim) Evaluate() float64 { return 0 }

// tree is an explicit game tree: moves are indices into children.
type tree struct {
	children []*tree
	outcome  searchers.Outcome
	eval     float64
}

func (t *tree) Moves() []int {
	moves := make([]int, len(t.children))
	for ii := range moves {
		moves[ii] = ii
	}
	return moves
}

func (t *tree) Play(move int) searchers.Position[int] { return t.children[move] }
func (t *tree) Terminal() searchers.Outcome           { return t.outcome }
func (t *tree) Evaluate() float64                     { return t.eval }

func TestNim(t *testing.T) {
	// 5 tokens: take 1, leaving the opponent a multiple of 4.
	move, score, ok := alphabeta.New[int]().WithMaxDepth(10).Search(nim{pile: 5, mine: true})
	require.True(t, ok)
	assert.Equal(t, 1, move)
	assert.Equal(t, alphabeta.WinScore+7, score)

	// 4 tokens: every move loses, the first one is kept.
	move, score, ok = alphabeta.New[int]().WithMaxDepth(10).Search(nim{pile: 4, mine: true})
	require.True(t, ok)
	assert.Equal(t, 1, move)
	assert.Equal(t, -alphabeta.WinScore-8, score)
}

func TestPrefersFasterWin(t *testing.T) {
	slowWin := &tree{children: []*tree{{children: []*tree{{outcome: searchers.Win}}}}}
	fastWin := &tree{outcome: searchers.Win}
	root := &tree{children: []*tree{slowWin, fastWin}}
	move, score, ok := alphabeta.New[int]().WithMaxDepth(4).Search(root)
	require.True(t, ok)
	assert.Equal(t, 1, move)
	assert.Equal(t, alphabeta.WinScore+3, score)
}

func TestPrefersSlowerLoss(t *testing.T) {
	fastLoss := &tree{outcome: searchers.Loss}
	slowLoss := &tree{children: []*tree{{children: []*tree{{outcome: searchers.Loss}}}}}
	root := &tree{children: []*tree{fastLoss, slowLoss}}
	move, _, ok := alphabeta.New[int]().WithMaxDepth(4).Search(root)
	require.True(t, ok)
	assert.Equal(t, 1, move)
}

func TestCutoffUsesEvaluate(t *testing.T) {
	root := &tree{children: []*tree{{eval: 1}, {eval: 5}, {eval: 5}, {eval: -3}}}
	searcher := alphabeta.New[int]().WithMaxDepth(1)
	move, score, ok := searcher.Search(root)
	require.True(t, ok)
	assert.Equal(t, 1, move, "first best move should win ties")
	assert.Equal(t, 5.0, score)
	assert.Equal(t, 4, searcher.Stats().Evals)
	assert.Equal(t, 4, searcher.Stats().Nodes)
}

func TestDrawScoresZero(t *testing.T) {
	root := &tree{children: []*tree{{eval: -10}, {outcome: searchers.Draw}}}
	move, score, ok := alphabeta.New[int]().WithMaxDepth(1).Search(root)
	require.True(t, ok)
	assert.Equal(t, 1, move)
	assert.Equal(t, 0.0, score)
}

func TestPrunes(t *testing.T) {
	searcher := alphabeta.New[int]().WithMaxDepth(8)
	_, _, ok := searcher.Search(nim{pile: 13, mine: true})
	require.True(t, ok)
	assert.Greater(t, searcher.Stats().Prunes, 0)
}

func TestNoMoves(t *testing.T) {
	_, _, ok := alphabeta.New[int]().Search(nim{pile: 0, mine: true})
	assert.False(t, ok)
}

func TestWithMaxDepth(t *testing.T) {
	assert.Equal(t, alphabeta.DefaultMaxDepth, alphabeta.New[int]().MaxDepth())
	assert.Equal(t, 9, alphabeta.New[int]().WithMaxDepth(9).MaxDepth())
	assert.Panics(t, func() { alphabeta.New[int]().WithMaxDepth(0) })
}
