// Package mysql implements a MySQL-backed storage.Repository using
// database/sql and go-sql-driver. Bulk writes use multi-row INSERT statements
// inside a transaction, which is the closest MySQL gets to a bulk load
// without LOAD DATA INFILE.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"taxietl/internal/storage"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in go-sql-driver format, e.g.
	//   "taxi_user:taxi_password@tcp(localhost:3306)/taxi_db?parseTime=true"
	DSN string
}

// maxRowsPerInsert caps how many rows one INSERT statement carries so the
// statement stays under default max_allowed_packet limits.
const maxRowsPerInsert = 1000

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository validates the DSN, opens a connection pool and pings it,
// returning a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// CopyInto writes rows as chunked multi-row INSERTs inside one transaction.
// The transaction rolls back as a whole on the first failed chunk, so a
// failed call writes nothing.
func (r *Repository) CopyInto(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyInto: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	var written int64
	for start := 0; start < len(rows); start += maxRowsPerInsert {
		end := min(start+maxRowsPerInsert, len(rows))
		stmtSQL, args, err := buildInsert(table, columns, rows[start:end], start)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, stmtSQL, args...); err != nil {
			_ = tx.Rollback()
			return 0, mapInsertErr(table, err)
		}
		written += int64(end - start)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return written, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sqlStmt string) error {
	if _, err := r.db.ExecContext(ctx, sqlStmt); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
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
		return nil, fmt.Errorf("mysql: query: %w", err)
	}
	defer rows.Close()
	return storage.AllRows(rows)
}

// buildInsert renders one multi-row INSERT plus its flattened argument list.
// base is the absolute index of the chunk's first row, used in error
// messages.
func buildInsert(table string, columns []string, rows [][]any, base int) (string, []any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ",
		quoteIdent(table), strings.Join(mapIdent(columns), ", "))

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("mysql: CopyInto: row %d length %d != columns length %d",
				base+i, len(row), len(columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

// mapInsertErr converts rejected-write errors into *storage.ConstraintError:
// 1452 is a foreign key miss on INSERT, 1062 a duplicate key.
func mapInsertErr(table string, err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == 1452 || me.Number == 1062) {
		return &storage.ConstraintError{Table: table, Detail: me.Message, Err: err}
	}
	return fmt.Errorf("mysql: insert into %s: %w", table, err)
}

// quoteIdent quotes a single identifier segment, doubling embedded backticks.
func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}
