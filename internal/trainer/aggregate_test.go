package trainer

import (
	"testing"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suggest(adjustments parameters.Params) *Suggestion {
	return &Suggestion{SuggestedAdjustments: adjustments}
}

func TestAggregateSmoothing(t *testing.T) {
	schema, err := parameters.SchemaFor(games.Pong)
	require.NoError(t, err)
	current := parameters.Params{"base_error": 20.0, "max_bounces": 2.0, "strategy": "balanced"}
	for _, n := range []int{1, 5, 17} {
		suggestions := make([]*Suggestion, n)
		for ii := range suggestions {
			suggestions[ii] = suggest(parameters.Params{"base_error": 7.0})
		}
		merged, unknown := Aggregate(schema, current, suggestions)
		assert.Empty(t, unknown)
		assert.InDelta(t, SmoothingAlpha*7+(1-SmoothingAlpha)*20, merged["base_error"], 1e-12)
		assert.Equal(t, 2.0, merged["max_bounces"])
		assert.Equal(t, "balanced", merged["strategy"])
	}
	// current is not modified.
	assert.Equal(t, 20.0, current["base_error"])
}

func TestAggregateAverages(t *testing.T) {
	schema, err := parameters.SchemaFor(games.Pong)
	require.NoError(t, err)
	current := parameters.Params{"base_error": 20.0, "max_bounces": 2.0}
	merged, _ := Aggregate(schema, current, []*Suggestion{
		suggest(parameters.Params{"base_error": 10.0}),
		nil, // Dropped match.
		suggest(parameters.Params{"base_error": 30.0, "max_bounces": 10.0}),
		suggest(parameters.Params{"base_error": "lower", "aggressive_offset": 20.0}),
	})
	assert.InDelta(t, 0.3*20+0.7*20, merged["base_error"], 1e-12)
	assert.InDelta(t, 0.3*10+0.7*2, merged["max_bounces"], 1e-12)
	// Not in current: the average is used directly.
	assert.InDelta(t, 20.0, merged["aggressive_offset"], 1e-12)
}

func TestAggregateClamps(t *testing.T) {
	schema, err := parameters.SchemaFor(games.TicTacToe)
	require.NoError(t, err)
	current := parameters.Params{"error_chance": 0.9, "max_depth": 8.0, "position_weights": []float64{3, 2, 3, 2, 4, 2, 3, 2, 3}}
	merged, unknown := Aggregate(schema, current, []*Suggestion{
		suggest(parameters.Params{"error_chance": 5.0, "max_depth": 1000.0, "temperature": 1.0, "magic": 2.0}),
		suggest(parameters.Params{"position_weights": []float64{1, 2, 3}}), // Wrong length.
	})
	assert.Equal(t, []string{"magic", "temperature"}, unknown)
	assert.Equal(t, 1.0, merged["error_chance"])
	assert.Equal(t, 9.0, merged["max_depth"])
	assert.Equal(t, current["position_weights"], merged["position_weights"])
	assert.NotContains(t, merged, "magic")
	require.NoError(t, parameters.Validate(games.TicTacToe, merged))
}

func TestAggregateArrays(t *testing.T) {
	schema, err := parameters.SchemaFor(games.TicTacToe)
	require.NoError(t, err)
	current := parameters.Params{"position_weights": []float64{3, 2, 3, 2, 4, 2, 3, 2, 3}}
	merged, _ := Aggregate(schema, current, []*Suggestion{
		suggest(parameters.Params{"position_weights": []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}}),
		suggest(parameters.Params{"position_weights": []float64{5, 5, 5, 5, 5, 5, 5, 5, 5}}),
	})
	weights := merged["position_weights"].([]float64)
	assert.InDelta(t, 0.3*3+0.7*3, weights[0], 1e-12)
	assert.InDelta(t, 0.3*3+0.7*4, weights[4], 1e-12)
	// current is not modified.
	assert.Equal(t, 4.0, current["position_weights"].([]float64)[4])
}
