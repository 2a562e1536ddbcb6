// decide prints the move chosen by the game AI for a state, as JSON.
//
// The state is given as JSON with -state, read from stdin, or taken from the start of a match with
// -initial. Examples:
//
//	decide -game=tictactoe -difficulty=expert -state='{"board":[1,0,0,0,2,0,0,0,0],"player":"O"}'
//	echo '{"ball":{"x":400,"y":300,"dx":5,"dy":3}}' | decide -game=pong -difficulty=hard
//
// See -help for flags.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/paramstore"
	"github.com/janpfeifer/arcadeai/internal/players"
	_ "github.com/janpfeifer/arcadeai/internal/players/default"
	"github.com/janpfeifer/arcadeai/internal/profilers"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/janpfeifer/arcadeai/internal/storeflag"
	"github.com/janpfeifer/arcadeai/internal/ui/cli"
	"github.com/janpfeifer/arcadeai/internal/ui/spinning"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Flags
var (
	flagGame       = flag.String("game", "", "Game of the state, e.g. \"tictactoe\".")
	flagDifficulty = flag.String("difficulty", "medium", "Difficulty of the AI.")
	flagState      = flag.String("state", "", "State as JSON. If empty, it is read from stdin.")
	flagInitial    = flag.Bool("initial", false, "Use the state at the start of a match instead of -state.")
	flagSeed       = flag.Uint64("seed", 0, "If > 0, seeds the random decisions, making them reproducible.")
	flagPrint      = flag.Bool("print", false, "Print the board (TicTacToe and Chinese Checkers) to stderr.")
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled when the program is about to exit either by
	// an interrupt (ctrl+C) or by reaching the end.
	globalCtx = context.Background()
)

// Decision is the output of the program.
type Decision struct {
	Key  games.Key  `json:"key"`
	Move state.Move `json:"move"`
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)
	defer globalCancel()

	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	key := must.M1(games.NewKey(*flagGame, *flagDifficulty))
	s := must.M1(readState(key.Game, *flagInitial, *flagState, os.Stdin))
	if *flagPrint {
		cli.NewWithWriter(os.Stderr).PrintBoard(s)
	}

	store := must.M1(storeflag.Open(globalCtx))
	defer storeflag.Close(store)
	player := players.New(must.M1(paramstore.New(store)))
	if *flagSeed > 0 {
		player = player.WithSeed(*flagSeed, *flagSeed)
	}
	decision := must.M1(decide(globalCtx, player, key, s))
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	must.M(encoder.Encode(decision))
}

// readState returns the initial state of game, or decodes the one in the JSON string, or, if it is
// empty, in stdin.
func readState(game games.ID, initial bool, jsonState string, stdin io.Reader) (state.GameState, error) {
	if initial {
		return state.Initial(game)
	}
	data := []byte(jsonState)
	if jsonState == "" {
		var err error
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "reading state from stdin")
		}
	}
	return state.Decode(game, data)
}

// decide asks the player for a move.
func decide(ctx context.Context, player *players.Player, key games.Key, s state.GameState) (*Decision, error) {
	move, err := player.Decide(ctx, key, s)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("%s: %s", key, move)
	return &Decision{Key: key, Move: move}, nil
}
