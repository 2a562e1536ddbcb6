//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s := NewSQLiteStore(filepath.Join(t.TempDir(), "arcadeai.db"))
		require.NoError(t, s.Init(context.Background()))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "arcadeai.db")
	s, err := NewStore("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))
	row := ActiveRow{Key: pongMedium, Version: 1, Params: parameters.Params{"base_error": 20.0}, UpdatedAt: baseTime}
	require.NoError(t, s.CommitActive(ctx, 0, row))
	require.NoError(t, CloseIfSupported(s))

	_, _, err = s.GetActive(ctx, pongMedium)
	require.ErrorIs(t, err, ErrNotInitialized)

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	defer func() { _ = reopened.Close() }()
	got, found, err := reopened.GetActive(ctx, pongMedium)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, row, got)
}
