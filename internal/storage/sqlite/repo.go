// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver. Bulk writes run as batched
// INSERTs inside a transaction; SQLite has no dedicated bulk-load API like
// Postgres COPY, but a single transaction keeps performance acceptable for
// moderate volumes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"

	"taxietl/internal/storage"
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:taxi.db?cache=shared"
	//   "taxi.db"
	//   ":memory:"
	DSN string
}

// sqliteConstraint is the primary SQLITE_CONSTRAINT result code. Extended
// codes such as SQLITE_CONSTRAINT_FOREIGNKEY carry it in their low byte.
const sqliteConstraint = 19

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
//
// The pool is pinned to a single connection: SQLite allows one writer at a
// time anyway, and pinning keeps the foreign_keys pragma applied to every
// statement the repository runs.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// CopyInto inserts the given rows into table using a single transaction and
// a prepared INSERT statement. The transaction rolls back as a whole on the
// first failed row, so a failed call writes nothing.
func (r *Repository) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyInto: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(mapIdent(columns), ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyInto: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, mapInsertErr(table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sqlStmt string) error {
	if strings.TrimSpace(sqlStmt) == "" {
		return fmt.Errorf("sqlite: empty statement")
	}
	if _, err := r.db.ExecContext(ctx, sqlStmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// QueryRow runs a single-row query and scans the result into dest.
func (r *Repository) QueryRow(ctx context.Context, query string, dest ...any) error {
	return r.db.QueryRowContext(ctx, query).Scan(dest...)
}

// QueryAll runs a query and returns every row as generic values.
func (r *Repository) QueryAll(ctx context.Context, query string) ([][]any, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()
	return storage.AllRows(rows)
}

// mapInsertErr converts SQLITE_CONSTRAINT family errors into
// *storage.ConstraintError and wraps everything else.
func mapInsertErr(table string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqliteConstraint {
		return &storage.ConstraintError{Table: table, Err: err}
	}
	return fmt.Errorf("sqlite: insert into %s: %w", table, err)
}

// quoteIdent quotes a single identifier segment, doubling embedded quotes.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}
