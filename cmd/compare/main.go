// compare plays matches of TicTacToe or Chinese Checkers between two difficulties of the game AI,
// using their active parameters, and reports the results.
//
// With -record the matches are stored as training data, from the point of view of the AI of
// -difficulty2, so that a later training of the game can use them.
//
// Example:
//
//	compare -game=tictactoe -difficulty1=medium -difficulty2=expert -num_matches=100
//
// See -help for flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/paramstore"
	"github.com/janpfeifer/arcadeai/internal/players"
	_ "github.com/janpfeifer/arcadeai/internal/players/default"
	"github.com/janpfeifer/arcadeai/internal/profilers"
	"github.com/janpfeifer/arcadeai/internal/recorder"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/janpfeifer/arcadeai/internal/storeflag"
	"github.com/janpfeifer/arcadeai/internal/ui/cli"
	"github.com/janpfeifer/arcadeai/internal/ui/spinning"
	"github.com/janpfeifer/must"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	flagGame        = flag.String("game", "tictactoe", "Game to play: \"tictactoe\" or \"chinese_checkers\".")
	flagDifficulty1 = flag.String("difficulty1", "medium", "Difficulty of the 1st AI.")
	flagDifficulty2 = flag.String("difficulty2", "expert", "Difficulty of the 2nd AI.")
	flagNumMatches  = flag.Int("num_matches", 20, "Number of matches to play. The starting side is alternated.")
	flagParallelism = flag.Int("parallelism", 0, "If > 0 ignore GOMAXPROCS and play "+
		"these many matches simultaneously.")
	flagMaxMoves = flag.Int("max_moves", DefaultMaxMoves, "Max moves of a Chinese Checkers match before it is a draw.")
	flagRecord   = flag.Bool("record", false, "Record the matches as training data.")
	flagPrint    = flag.Bool("print", false, "Print the final board of each match.")
	flagSeed     = flag.Uint64("seed", 0, "If > 0, seeds the random decisions. Matches played in parallel are still not reproducible.")
	flagColor    = flag.Bool("color", true, "Use colors, if the terminal supports them.")
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled when the program is about to exit either by
	// an interrupt (ctrl+C) or by reaching the end.
	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	// Capture Control+C
	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)
	defer globalCancel()

	// Profilers: HTTP profiler server and CPU profile.
	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	game := must.M1(games.ParseID(*flagGame))
	keys := [2]games.Key{
		must.M1(games.NewKey(*flagGame, *flagDifficulty1)),
		must.M1(games.NewKey(*flagGame, *flagDifficulty2)),
	}
	store := must.M1(storeflag.Open(globalCtx))
	defer storeflag.Close(store)
	player := players.New(must.M1(paramstore.New(store)))
	if *flagSeed > 0 {
		player = player.WithSeed(*flagSeed, *flagSeed)
	}
	c := &comparison{
		player:   player,
		game:     game,
		keys:     keys,
		maxMoves: *flagMaxMoves,
		ui:       cli.New(*flagColor),
		print:    *flagPrint,
	}
	if *flagRecord {
		c.recorder = recorder.New(store)
	}

	spinner := spinning.New(globalCtx, fmt.Sprintf("playing %d matches of %s vs %s", *flagNumMatches, keys[0], keys[1]))
	results, err := c.run(globalCtx, *flagNumMatches, getParallelism())
	spinner.Done()
	must.M(err)
	c.ui.PrintTable(fmt.Sprintf("Results after %s", time.Since(results.start).Round(time.Millisecond)),
		[]string{"AI", "wins", "as 1st", "as 2nd", "draws", "losses"}, results.rows(keys))
	if globalCtx.Err() != nil {
		fmt.Printf("Interrupted after %d of %d matches: %s\n", results.played, *flagNumMatches, globalCtx.Err())
	}
}

// comparison between the two AIs.
type comparison struct {
	player   *players.Player
	game     games.ID
	keys     [2]games.Key
	maxMoves int
	recorder *recorder.Recorder

	muUI  sync.Mutex
	ui    *cli.UI
	print bool
}

// Results of the comparison. Index 0 is the 1st AI, index 1 the 2nd.
type Results struct {
	mu                   sync.Mutex
	start                time.Time
	winsAs1st, winsAs2nd [2]int
	draws                int
	played, recorded     int
}

// rows of the results table.
func (r *Results) rows(keys [2]games.Key) [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([][]string, 2)
	for ai := range 2 {
		wins := r.winsAs1st[ai] + r.winsAs2nd[ai]
		losses := r.played - r.draws - wins
		rows[ai] = []string{keys[ai].String(), fmt.Sprint(wins), fmt.Sprint(r.winsAs1st[ai]),
			fmt.Sprint(r.winsAs2nd[ai]), fmt.Sprint(r.draws), fmt.Sprint(losses)}
	}
	return rows
}

// run plays numMatches matches, parallelism at a time, alternating which AI starts.
func (c *comparison) run(ctx context.Context, numMatches, parallelism int) (*Results, error) {
	r := &Results{start: time.Now()}
	var wg errgroup.Group
	wg.SetLimit(parallelism)
	for matchIdx := range numMatches {
		wg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			// ai1st is the index of the AI playing first.
			ai1st := matchIdx % 2
			keys := [2]games.Key{c.keys[ai1st], c.keys[1-ai1st]}
			m, err := playMatch(ctx, c.player, matchIdx, c.game, keys, c.maxMoves)
			if err != nil || m == nil {
				return err
			}
			c.report(m)
			recorded := c.record(ctx, m, state.Side(2-ai1st))

			r.mu.Lock()
			defer r.mu.Unlock()
			r.played++
			if recorded {
				r.recorded++
			}
			switch m.Winner {
			case state.None:
				r.draws++
			case state.First:
				r.winsAs1st[ai1st]++
			case state.Second:
				r.winsAs2nd[1-ai1st]++
			}
			return nil
		})
	}
	err := wg.Wait()
	if c.recorder != nil {
		klog.Infof("Recorded %d matches as training data for %s", r.recorded, c.game)
	}
	return r, err
}

// report prints the final board of the match, if requested.
func (c *comparison) report(m *Match) {
	if !c.print {
		return
	}
	c.muUI.Lock()
	defer c.muUI.Unlock()
	c.ui.PrintTable(fmt.Sprintf("Match %d", m.Num), []string{"side", "AI"}, [][]string{
		{sideName(m.Game, state.First), m.Keys[0].String()},
		{sideName(m.Game, state.Second), m.Keys[1].String()},
	})
	c.ui.PrintBoard(m.Final)
	c.ui.PrintWinner(m.Game, m.Winner, m.Reason)
}

// record stores the match from the point of view of side, the one played by the 2nd AI. Failures
// are logged.
func (c *comparison) record(ctx context.Context, m *Match, side state.Side) bool {
	if c.recorder == nil {
		return false
	}
	sub, err := m.Submission(side)
	if err == nil {
		_, err = c.recorder.RecordMatch(ctx, sub)
	}
	if err != nil {
		klog.Errorf("Failed to record match %d: %+v", m.Num, err)
		return false
	}
	return true
}

// getParallelism returns the parallelism.
func getParallelism() (parallelism int) {
	parallelism = runtime.GOMAXPROCS(0)
	if *flagParallelism > 0 {
		parallelism = *flagParallelism
	}
	return
}
