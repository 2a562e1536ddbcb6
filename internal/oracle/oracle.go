// Package oracle defines the advisory language model consulted by the trainer, and a factory of
// oracles from configuration strings.
//
// Oracles are slow (seconds to minutes per call) and unreliable: they are only used offline, never
// while playing.
package oracle

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/pkg/errors"
)

// Oracle answers a text prompt with free text. Each call is independent.
type Oracle interface {
	Suggest(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to an Oracle.
type Func func(ctx context.Context, prompt string) (string, error)

// Suggest implements Oracle.
func (fn Func) Suggest(ctx context.Context, prompt string) (string, error) {
	return fn(ctx, prompt)
}

// Module creates oracles from their configuration parameters.
// It should consume (delete) the parameters it uses: left over parameters are reported as errors.
type Module func(params parameters.Params) (Oracle, error)

var (
	muModules sync.Mutex
	modules   = make(map[string]Module)
)

// RegisterModule makes an oracle available to New under the given name.
func RegisterModule(name string, module Module) {
	muModules.Lock()
	defer muModules.Unlock()
	modules[name] = module
}

// Modules returns the names of the registered oracles, sorted.
func Modules() []string {
	muModules.Lock()
	defer muModules.Unlock()
	return slices.Collect(generics.SortedKeys(modules))
}

// DefaultConfig is used by New when the configuration is empty.
var DefaultConfig = "ollama"

// New creates an oracle from a configuration string: the module name, followed by a ":" or a ","
// and a comma-separated list of parameters. E.g.:
//
//	ollama,url=http://localhost:11434/api,model=llama3.2,timeout=2m,max_tokens=500
func New(config string) (Oracle, error) {
	config = strings.TrimSpace(config)
	if config == "" {
		config = DefaultConfig
	}
	name, rest := config, ""
	if idx := strings.IndexAny(config, ":,"); idx != -1 {
		name, rest = config[:idx], config[idx+1:]
	}
	muModules.Lock()
	module, found := modules[name]
	muModules.Unlock()
	if !found {
		return nil, errors.Errorf("unknown oracle %q, registered oracles: %v", name, Modules())
	}
	params, err := parameters.NewFromConfigString(rest)
	if err != nil {
		return nil, errors.WithMessagef(err, "oracle %q", name)
	}
	o, err := module(params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create oracle %q", name)
	}
	if len(params) > 0 {
		return nil, errors.Errorf("unknown parameters for oracle %q: %s", name, params)
	}
	return o, nil
}
