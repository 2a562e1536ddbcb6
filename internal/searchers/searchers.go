// Package searchers defines the game-tree abstraction shared by the search algorithms.
//
// Search algorithms themselves live in sub-packages (e.g. alphabeta), and are driven by the per-game
// strategies under internal/players.
package searchers

// Outcome of a position, always from the point of view of the side that started the search.
type Outcome int8

const (
	// Ongoing means the game is not over.
	Ongoing Outcome = iota
	Win
	Loss
	Draw
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	}
	return "unknown"
}

// Position is a node of a two-player, alternating-turns game tree, parametrized by the move type M.
//
// Positions are immutable: Play returns a new Position, leaving the receiver untouched.
type Position[M any] interface {
	// Moves available to the side to play, in generation order. Searchers break ties in favour of the earliest move.
	Moves() []M

	// Play returns the position after the side to play makes the given move.
	Play(move M) Position[M]

	// Terminal returns Ongoing if the game is not over, or the final outcome for the side that started the search.
	Terminal() Outcome

	// Evaluate returns a static score of a non-terminal position, from the point of view of the side that
	// started the search: higher is better.
	Evaluate() float64
}
