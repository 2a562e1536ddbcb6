package _default_test

import (
	"context"
	"testing"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/players"
	_ "github.com/janpfeifer/arcadeai/internal/players/default"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAllGames decides on the default state of every game and difficulty.
func TestAllGames(t *testing.T) {
	ctx := context.Background()
	player := players.New(players.Defaults).WithSeed(42, 42)
	for _, key := range games.AllKeys() {
		strategy, err := players.Get(key.Game)
		require.NoError(t, err, "game %s", key.Game)
		assert.Equal(t, key.Game, strategy.Game())

		s, err := state.Initial(key.Game)
		require.NoError(t, err)
		move, err := player.Decide(ctx, key, s)
		require.NoError(t, err, "decide %s", key)
		require.NotNil(t, move)
		assert.Equal(t, key.Game, move.Game(), "decide %s", key)
	}
	stats := player.Stats()
	assert.Equal(t, int64(len(games.AllKeys())), stats.Decisions)
	assert.Zero(t, stats.Fallbacks)
}
