// Package storeflag opens the storage backend selected by the command-line flags.
//
// If linked, it installs the -store and -sqlite flags.
package storeflag

import (
	"context"
	"flag"

	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagStore = flag.String("store", "memory", "Storage backend: \"memory\" (lost on exit) or \"sqlite\" "+
		"(requires building with -tags sqlite).")
	flagSQLite = flag.String("sqlite", "arcadeai.db", "Path of the SQLite database, used with -store=sqlite.")
)

// Open creates and initializes the store configured by the flags. Close it with Close.
func Open(ctx context.Context) (storage.Store, error) {
	return OpenWith(ctx, *flagStore, *flagSQLite)
}

// OpenWith creates and initializes a store of the given kind.
func OpenWith(ctx context.Context, kind, sqlitePath string) (storage.Store, error) {
	store, err := storage.NewStore(kind, sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, errors.WithMessagef(err, "initializing %s store", kind)
	}
	if kind == "" || kind == "memory" {
		klog.Warning("Using the in-memory store: nothing is persisted after the program exits (see -store)")
	}
	return store, nil
}

// Close the store, logging failures.
func Close(store storage.Store) {
	if err := storage.CloseIfSupported(store); err != nil {
		klog.Errorf("Failed to close the store: %+v", err)
	}
}
