// Package _default registers the strategies of all supported games, so they can be used by any of
// the binaries through players.Player.
package _default

import (
	_ "github.com/janpfeifer/arcadeai/internal/players/checkers"
	_ "github.com/janpfeifer/arcadeai/internal/players/offroad"
	_ "github.com/janpfeifer/arcadeai/internal/players/pacman"
	_ "github.com/janpfeifer/arcadeai/internal/players/pong"
	_ "github.com/janpfeifer/arcadeai/internal/players/tictactoe"
	_ "github.com/janpfeifer/arcadeai/internal/players/tron"
)
