// Package storage defines the backend-agnostic repository contract the load
// and verify stages talk to, plus a factory registry the concrete backends
// hook into at init time.
//
// Callers pick a backend by name through Config.Kind and never import the
// backend packages themselves; importing storage/all wires every built-in
// backend into the registry.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and parameterizes a storage backend.
type Config struct {
	Kind string // backend name, e.g. "postgres", "sqlite", "mysql", "mssql"
	DSN  string // backend-specific connection string
}

// Repository is the contract every storage backend implements.
//
// CopyInto is the bulk write path: implementations use the fastest primitive
// their store offers (Postgres COPY, SQL Server bulk copy, multi-row INSERT)
// and must be atomic per call, so a failed call leaves none of its rows
// behind. Rows rejected by a constraint surface as *ConstraintError.
type Repository interface {
	// CopyInto bulk-writes rows into table. Every row must align with the
	// columns order. It returns the number of rows written.
	CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs a statement that returns no rows, typically DDL.
	Exec(ctx context.Context, sql string) error

	// QueryRow runs a query expected to return exactly one row and scans it
	// into dest.
	QueryRow(ctx context.Context, sql string, dest ...any) error

	// QueryAll runs a query and returns every result row as a generic value
	// slice, in result order.
	QueryAll(ctx context.Context, sql string) ([][]any, error)

	// Close releases the underlying pool or connection.
	Close()
}

// Factory constructs a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under the given kind. Registering the
// same kind again overrides the previous factory, which tests rely on.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind using the registered factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered backend kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
