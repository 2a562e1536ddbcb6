package storage

import "github.com/pkg/errors"

// NewStore creates a store of the given kind: "memory" (or empty) or "sqlite". The returned store
// still needs Init.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, errors.Errorf("unsupported store backend %q, valid values are \"memory\" or \"sqlite\"", kind)
	}
}

// CloseIfSupported closes the store if it holds resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
