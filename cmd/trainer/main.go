// trainer tunes the parameters of the game AI from recorded matches, with the help of an LLM oracle.
//
// It trains one game/difficulty given by flags, or several from a YAML plan (-plan). Matches can be
// imported first from a file of JSON submissions, one per line (-import), which is how the in-memory
// store is fed.
//
// Examples:
//
//	trainer -game=pong -difficulty=medium -oracle="ollama,model=llama3.2"
//	trainer -store=sqlite -sqlite=arcade.db -plan=nightly.yaml
//
// See -help for flags.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/janpfeifer/arcadeai/internal/oracle"
	"github.com/janpfeifer/arcadeai/internal/paramstore"
	"github.com/janpfeifer/arcadeai/internal/profilers"
	"github.com/janpfeifer/arcadeai/internal/recorder"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/janpfeifer/arcadeai/internal/storeflag"
	"github.com/janpfeifer/arcadeai/internal/trainer"
	"github.com/janpfeifer/arcadeai/internal/ui/cli"
	"github.com/janpfeifer/arcadeai/internal/ui/spinning"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// Flags
var (
	flagGame        = flag.String("game", "", "Game to train, e.g. \"pong\" or \"tictactoe\". Ignored with -plan.")
	flagDifficulty  = flag.String("difficulty", "medium", "Difficulty to train. Ignored with -plan.")
	flagBatchSize   = flag.Int("batch_size", trainer.DefaultBatchSize, fmt.Sprintf("Max number of recent matches analyzed, at most %d.", trainer.MaxBatchSize))
	flagPlan        = flag.String("plan", "", "YAML file with the plan of training runs.")
	flagOracle      = flag.String("oracle", oracle.DefaultConfig, fmt.Sprintf("Oracle configuration, e.g. \"ollama,model=llama3.2,url=http://localhost:11434/api\". Available: %v", oracle.Modules()))
	flagWindow      = flag.Duration("window", trainer.DefaultWindow, "Only matches played within this window are used.")
	flagCallTimeout = flag.Duration("call_timeout", trainer.DefaultCallTimeout, "Timeout of each oracle call.")
	flagParallelism = flag.Int("parallelism", trainer.DefaultParallelism, "Number of concurrent oracle calls.")
	flagImport      = flag.String("import", "", "File with match submissions (JSON, one per line) to record before training. Use \"-\" for stdin.")
	flagColor       = flag.Bool("color", true, "Use colors in the report, if the terminal supports them.")
	flagProgress    = flag.Bool("progress", true, "Show a progress bar of the oracle calls.")
	flagStats       = flag.Bool("stats", false, "Print statistics of the recorded training data before training.")
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

	var plan *Plan
	if *flagPlan != "" {
		plan = must.M1(LoadPlan(*flagPlan))
	} else {
		if *flagGame == "" {
			klog.Fatal("Set the game to train with -game, or a plan of runs with -plan")
		}
		plan = planFromFlags()
		must.M(plan.validate())
	}
	plan = plan.withDefaults()

	// Capture Control+C: the running training stops calling the oracle and reports what it has.
	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 10*time.Second)
	defer globalCancel()

	// Profilers: HTTP profiler server and CPU profile.
	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	store := must.M1(storeflag.Open(globalCtx))
	defer storeflag.Close(store)
	if *flagImport != "" {
		count := must.M1(importSubmissions(globalCtx, store, *flagImport))
		klog.Infof("Imported %d match submissions from %q", count, *flagImport)
	}
	params := must.M1(paramstore.New(store))
	o := must.M1(oracle.New(plan.Oracle))
	klog.V(1).Infof("Oracle: %s", o)

	ui := cli.New(*flagColor)
	if *flagStats {
		ui.PrintStats(must.M1(recorder.New(store).Stats(globalCtx, "")))
	}
	failures := 0
	for _, run := range plan.Runs {
		if globalCtx.Err() != nil {
			break
		}
		outcome, err := runTraining(globalCtx, plan, run, store, params, o)
		if outcome != nil {
			ui.PrintOutcome(outcome)
		}
		if err != nil {
			klog.Errorf("Training %s/%s failed: %+v", run.Game, run.Difficulty, err)
		}
		if err != nil || outcome == nil || !outcome.Succeeded() {
			failures++
		}
	}
	if failures > 0 {
		klog.Warningf("%d of %d training runs didn't update the parameters", failures, len(plan.Runs))
	}
}

// runTraining trains one run of the plan, with a progress bar over the oracle calls.
func runTraining(ctx context.Context, plan *Plan, run Run, matches trainer.MatchSource,
	params trainer.ParamsStore, o oracle.Oracle) (*trainer.Outcome, error) {
	key := must.M1(run.Key())
	t := trainer.New(matches, params, o).
		WithWindow(plan.Window).
		WithCallTimeout(plan.CallTimeout).
		WithParallelism(plan.Parallelism)
	var bar *progressbar.ProgressBar
	if *flagProgress {
		t = t.WithProgress(func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription(fmt.Sprintf("analyzing %s", key)),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish())
			}
			_ = bar.Set(done)
		})
	}
	outcome, err := t.Train(ctx, key, run.BatchSize)
	if bar != nil {
		_ = bar.Finish()
	}
	return outcome, err
}

// importSubmissions records the match submissions in path, one JSON object per line.
func importSubmissions(ctx context.Context, store storage.Store, path string) (int, error) {
	var reader io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return 0, errors.Wrapf(err, "opening submissions")
		}
		defer func() { _ = f.Close() }()
		reader = f
	}
	return recordSubmissions(ctx, recorder.New(store), reader)
}

// recordSubmissions records each line of reader, skipping the empty ones.
func recordSubmissions(ctx context.Context, rec *recorder.Recorder, reader io.Reader) (int, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	count, lineNum := 0, 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var sub recorder.Submission
		if err := json.Unmarshal(line, &sub); err != nil {
			return count, errors.Wrapf(err, "line %d", lineNum)
		}
		if _, err := rec.RecordMatch(ctx, sub); err != nil {
			return count, errors.WithMessagef(err, "line %d", lineNum)
		}
		count++
	}
	return count, errors.Wrap(scanner.Err(), "reading submissions")
}
