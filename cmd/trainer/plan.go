package main

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/trainer"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Plan of training runs, loaded from a YAML file given with -plan. Example:
//
//	oracle: "ollama,model=llama3.2,timeout=90s"
//	window: 72h
//	parallelism: 4
//	runs:
//	  - game: pong
//	    difficulty: medium
//	  - game: tictactoe
//	    difficulty: hard
//	    batch_size: 30
//
// Fields left empty take the value of the corresponding flag.
type Plan struct {
	Oracle      string        `yaml:"oracle"`
	Window      time.Duration `yaml:"window"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	Parallelism int           `yaml:"parallelism"`
	Runs        []Run         `yaml:"runs"`
}

// Run trains one game/difficulty.
type Run struct {
	Game       string `yaml:"game"`
	Difficulty string `yaml:"difficulty"`
	BatchSize  int    `yaml:"batch_size"`
}

// Key of the run.
func (r Run) Key() (games.Key, error) {
	return games.NewKey(r.Game, r.Difficulty)
}

// LoadPlan reads and validates the plan in path.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading plan %q", path)
	}
	return ParsePlan(data)
}

// ParsePlan decodes and validates a YAML plan. Unknown fields are errors.
func ParsePlan(data []byte) (*Plan, error) {
	plan := &Plan{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(plan); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parsing plan")
	}
	if err := plan.validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// validate checks the runs and the settings of the plan.
func (plan *Plan) validate() error {
	if len(plan.Runs) == 0 {
		return errors.New("plan has no runs")
	}
	if plan.Window < 0 || plan.CallTimeout < 0 || plan.Parallelism < 0 {
		return errors.New("plan window, call_timeout and parallelism can't be negative")
	}
	for ii, run := range plan.Runs {
		if _, err := run.Key(); err != nil {
			return errors.WithMessagef(err, "plan run #%d", ii)
		}
		if run.BatchSize < 0 || run.BatchSize > trainer.MaxBatchSize {
			return errors.Errorf("plan run #%d: batch_size must be at most %d, got %d",
				ii, trainer.MaxBatchSize, run.BatchSize)
		}
	}
	return nil
}

// planFromFlags returns the single-run plan described by the flags.
func planFromFlags() *Plan {
	return &Plan{Runs: []Run{{Game: *flagGame, Difficulty: *flagDifficulty, BatchSize: *flagBatchSize}}}
}

// withDefaults fills the fields left empty with the values of the flags.
func (plan *Plan) withDefaults() *Plan {
	if plan.Oracle == "" {
		plan.Oracle = *flagOracle
	}
	if plan.Window == 0 {
		plan.Window = *flagWindow
	}
	if plan.CallTimeout == 0 {
		plan.CallTimeout = *flagCallTimeout
	}
	if plan.Parallelism == 0 {
		plan.Parallelism = *flagParallelism
	}
	for ii := range plan.Runs {
		if plan.Runs[ii].BatchSize == 0 {
			plan.Runs[ii].BatchSize = *flagBatchSize
		}
	}
	return plan
}
