package storage

import (
	"context"
	"testing"

	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s := NewMemoryStore()
		require.NoError(t, s.Init(context.Background()))
		return s
	})
}

func TestMemoryStoreNotInitialized(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _, err := s.GetActive(ctx, pongMedium)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, s.SaveSession(ctx, Session{ID: "x"}), ErrNotInitialized)
}

func TestMemoryStoreCopySemantics(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Init(ctx))

	params := parameters.Params{"position_weights": []float64{1, 2, 3}}
	row := ActiveRow{Key: tttEasy, Version: 1, Params: params, UpdatedAt: baseTime}
	require.NoError(t, s.CommitActive(ctx, 0, row, historyEntry(tttEasy, 1, ReasonSeed, params)))

	// Changing the caller's values doesn't affect the store.
	params["position_weights"].([]float64)[0] = 100
	params["new"] = 1.0

	got, _, err := s.GetActive(ctx, tttEasy)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got.Params["position_weights"])
	assert.NotContains(t, got.Params, "new")

	// Neither do changes to returned values.
	got.Params["position_weights"].([]float64)[1] = 200
	history, err := s.History(ctx, tttEasy, 5)
	require.NoError(t, err)
	history[0].Params["position_weights"].([]float64)[2] = 300

	got, _, err = s.GetActive(ctx, tttEasy)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got.Params["position_weights"])
	history, err = s.History(ctx, tttEasy, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, history[0].Params["position_weights"])
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, CloseIfSupported(s))

	_, err = NewStore("postgres", "")
	require.Error(t, err)
}
