// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API, which streams rows to the server without running
// into the 2100 parameter limit ordinary INSERT statements have.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"taxietl/internal/storage"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup. The DSN is parsed up front to fail fast on obvious mistakes.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// CopyInto streams rows through the bulk copy protocol inside a transaction.
// CheckConstraints keeps foreign keys enforced during the bulk insert; SQL
// Server skips them by default.
func (r *Repository) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mssql: CopyInto: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		mssql.CopyIn(table, mssql.BulkOptions{CheckConstraints: true}, columns...))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mssql: prepare bulk copy: %w", err)
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, fmt.Errorf("mssql: CopyInto: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, mapBulkErr(table, err)
		}
	}

	// Exec with no args flushes the bulk operation.
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = tx.Rollback()
		return 0, mapBulkErr(table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mssql: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit: %w", err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sqlStmt string) error {
	if _, err := r.db.ExecContext(ctx, sqlStmt); err != nil {
		return fmt.Errorf("mssql: exec: %w", err)
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
		return nil, fmt.Errorf("mssql: query: %w", err)
	}
	defer rows.Close()
	return storage.AllRows(rows)
}

// mapBulkErr converts rejected-write errors into *storage.ConstraintError:
// 547 covers foreign key and check constraints, 2627 primary keys, 2601
// unique indexes.
func mapBulkErr(table string, err error) error {
	var me mssql.Error
	if errors.As(err, &me) {
		switch me.Number {
		case 547, 2627, 2601:
			return &storage.ConstraintError{Table: table, Detail: me.Message, Err: err}
		}
	}
	return fmt.Errorf("mssql: bulk copy into %s: %w", table, err)
}
