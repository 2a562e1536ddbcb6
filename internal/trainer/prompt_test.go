package trainer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPrompt(t *testing.T, match storage.MatchRecord) string {
	schema, err := parameters.SchemaFor(match.GameID)
	require.NoError(t, err)
	current, err := parameters.Default(games.Key{Game: match.GameID, Difficulty: games.Medium})
	require.NoError(t, err)
	prompt, err := BuildPrompt(match, schema, current)
	require.NoError(t, err)
	return prompt
}

func TestBuildPromptPong(t *testing.T) {
	moments := make([]json.RawMessage, 15)
	for ii := range moments {
		moments[ii] = json.RawMessage(`{"event":"miss"}`)
	}
	prompt := buildPrompt(t, storage.MatchRecord{GameID: games.Pong, PlayerWon: true, Score: 7, CriticalMoments: moments})
	assert.Contains(t, prompt, "Pong match")
	assert.Contains(t, prompt, "Player won: true")
	assert.Contains(t, prompt, "base_error (number in [0, 100])")
	assert.Contains(t, prompt, "max_bounces (integer in [0, 10])")
	assert.NotContains(t, prompt, "- strategy")
	assert.Contains(t, prompt, `"base_error":20`)
	assert.Equal(t, MaxCriticalMoments, strings.Count(prompt, `"event": "miss"`))
}

func TestBuildPromptTicTacToe(t *testing.T) {
	prompt := buildPrompt(t, storage.MatchRecord{
		GameID:     games.TicTacToe,
		TotalMoves: 5,
		FinalState: json.RawMessage(`{"board": ["X", "O", null, "", "X", "O", "", "", "X"]}`),
	})
	assert.Contains(t, prompt, "Final board: XO-|-XO|--X")
	assert.Contains(t, prompt, "position_weights (array of 9 numbers in [0, 100])")
	assert.Contains(t, prompt, "Total moves: 5")
}

func TestBuildPromptGeneric(t *testing.T) {
	prompt := buildPrompt(t, storage.MatchRecord{GameID: games.Tron, TotalMoves: 80, DurationSeconds: 42})
	assert.Contains(t, prompt, "Analyze this tron match")
	assert.Contains(t, prompt, "the AI won")
	assert.Contains(t, prompt, "evade_distance")
	assert.Contains(t, prompt, "Duration: 42s")

	_, err := BuildPrompt(storage.MatchRecord{GameID: "chess"}, nil, nil)
	require.ErrorIs(t, err, games.ErrUnknown)
}

func TestFinalBoard(t *testing.T) {
	assert.Equal(t, "unknown", finalBoard(nil))
	assert.Equal(t, "XO-XO-XO-", finalBoard(json.RawMessage(`{"board": "XO-XO-XO-"}`)))
	assert.Equal(t, `{"cells":3}`, finalBoard(json.RawMessage(`{"cells":3}`)))
}
