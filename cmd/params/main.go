// params inspects and edits the versioned parameters of the game AI.
//
// Examples:
//
//	params -all
//	params -game=pong -difficulty=hard -history=10
//	params -game=pong -difficulty=hard -set="paddle_speed=18,base_error=12"
//	params -game=pong -difficulty=hard -rollback=3
//	params -init
//
// See -help for flags.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/paramstore"
	"github.com/janpfeifer/arcadeai/internal/profilers"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/janpfeifer/arcadeai/internal/storeflag"
	"github.com/janpfeifer/arcadeai/internal/ui/cli"
	"github.com/janpfeifer/arcadeai/internal/ui/spinning"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Flags
var (
	flagGame       = flag.String("game", "", "Game of the parameters, e.g. \"pong\".")
	flagDifficulty = flag.String("difficulty", "medium", "Difficulty of the parameters.")
	flagShow       = flag.Bool("show", false, "Show the active parameters of -game/-difficulty. Default if no other action is given.")
	flagHistory    = flag.Int("history", 0, "If > 0, show up to this many history entries of -game/-difficulty.")
	flagRollback   = flag.Int("rollback", 0, "If > 0, reinstate the parameters of this version as a new version.")
	flagSet        = flag.String("set", "", "Parameters to change, e.g. \"paddle_speed=18,prediction_frames=12\". "+
		"Arrays are given separated by \";\". The other parameters keep their active values.")
	flagInit  = flag.Bool("init", false, "Store the default parameters of every game and difficulty that has none.")
	flagAll   = flag.Bool("all", false, "List the stored parameters of every game and difficulty.")
	flagColor = flag.Bool("color", true, "Use colors, if the terminal supports them.")
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled when the program is about to exit either by
	// an interrupt (ctrl+C) or by reaching the end.
	globalCtx = context.Background()
)

// options of the actions, taken from the flags.
type options struct {
	key             games.Key
	keyErr          error
	show, init, all bool
	history         int
	rollback        int
	set             string
}

func optionsFromFlags() options {
	opts := options{
		show:     *flagShow,
		init:     *flagInit,
		all:      *flagAll,
		history:  *flagHistory,
		rollback: *flagRollback,
		set:      *flagSet,
	}
	opts.key, opts.keyErr = games.NewKey(*flagGame, *flagDifficulty)
	return opts
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

	store := must.M1(storeflag.Open(globalCtx))
	defer storeflag.Close(store)
	params := must.M1(paramstore.New(store))
	must.M(run(globalCtx, params, cli.New(*flagColor), optionsFromFlags()))
}

// run executes the actions in opts, in a fixed order: init, set, rollback, then the reports.
func run(ctx context.Context, params *paramstore.Store, ui *cli.UI, opts options) error {
	needsKey := opts.set != "" || opts.rollback > 0 || opts.history > 0 || opts.show
	if !needsKey && !opts.init && !opts.all {
		if opts.keyErr != nil {
			return errors.WithMessage(opts.keyErr, "nothing to do: set -game or one of -init and -all")
		}
		opts.show, needsKey = true, true
	}
	if needsKey && opts.keyErr != nil {
		return opts.keyErr
	}

	if opts.init {
		created, existing, err := params.InitializeDefaults(ctx)
		if err != nil {
			return err
		}
		klog.Infof("Default parameters stored for %d keys (%d already had parameters)", created, existing)
	}
	if opts.set != "" {
		if err := setParams(ctx, params, opts.key, opts.set); err != nil {
			return err
		}
		opts.show = true
	}
	if opts.rollback > 0 {
		if _, err := params.Rollback(ctx, opts.key, opts.rollback); err != nil {
			return err
		}
		opts.show = true
	}
	if opts.all {
		versions, err := params.AllActive(ctx)
		if err != nil {
			return err
		}
		ui.PrintAllActive(versions)
	}
	if opts.show {
		v, err := params.GetActive(ctx, opts.key)
		if err != nil {
			return err
		}
		ui.PrintVersion(v)
	}
	if opts.history > 0 {
		entries, err := params.History(ctx, opts.key, opts.history)
		if err != nil {
			return err
		}
		ui.PrintHistory(opts.key, entries)
	}
	return nil
}

// setParams merges the changes in config over the active parameters of key and stores the result
// as a manual update.
func setParams(ctx context.Context, params *paramstore.Store, key games.Key, config string) error {
	changes, err := parameters.NewFromConfigString(config)
	if err != nil {
		return err
	}
	current, err := params.GetActive(ctx, key)
	if err != nil {
		return err
	}
	updated := current.Params.Clone()
	for name, value := range changes {
		updated[name] = value
	}
	version, err := params.SetActiveIfVersion(ctx, key, current.Version, updated.Normalize(), storage.ReasonManual,
		storage.Metrics{"changed": len(changes)})
	if err != nil {
		return err
	}
	klog.Infof("Parameters of %s updated to version %d", key, version)
	return nil
}
