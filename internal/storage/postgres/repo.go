// Package postgres implements a Postgres repository using pgx v5. Bulk writes
// go through the COPY protocol, which loads large batches in a single
// round-trip.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxietl/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// pgConn is the slice of pgxpool.Pool the repository uses. Tests substitute
// a fake to exercise the repository without a server.
type pgConn interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	conn pgConn
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup. The pool connects lazily, so DSN problems beyond parse errors
// surface on first use.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{conn: pool}, closeFn, nil
}

// CopyInto bulk-writes rows via the COPY protocol. COPY is atomic: either the
// whole batch lands or none of it does. Integrity violations (SQLSTATE class
// 23) are mapped to *storage.ConstraintError.
func (r *Repository) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.conn.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
			return 0, &storage.ConstraintError{Table: table, Detail: pgErr.Detail, Err: err}
		}
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// Exec runs a statement that returns no rows, typically DDL.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.conn.Exec(ctx, sql); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// QueryRow runs a single-row query and scans the result into dest.
func (r *Repository) QueryRow(ctx context.Context, sql string, dest ...any) error {
	return r.conn.QueryRow(ctx, sql).Scan(dest...)
}

// QueryAll runs a query and returns every row as generic values.
func (r *Repository) QueryAll(ctx context.Context, sql string) ([][]any, error) {
	rows, err := r.conn.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(name string) pgx.Identifier {
	parts := strings.Split(name, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		id = append(id, p)
	}
	return id
}
