// Package schema defines the warehouse tables the pipeline loads and renders
// their DDL for each supported SQL dialect.
//
// The model stays deliberately small: ordered column definitions plus the few
// attributes the taxi tables actually need (primary keys, store-assigned
// surrogate keys, foreign key references). Identifier quoting and dialect
// quirks such as auto-increment spelling live in the render layer, not here.
package schema

import "fmt"

// Dialect selects the SQL flavor used when rendering DDL.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	MSSQL    Dialect = "mssql"
)

// ParseDialect maps a storage kind string onto a Dialect. Storage kinds and
// dialects share the same names, so config values pass through unchanged.
func ParseDialect(kind string) (Dialect, error) {
	switch d := Dialect(kind); d {
	case Postgres, SQLite, MySQL, MSSQL:
		return d, nil
	}
	return "", fmt.Errorf("schema: unknown dialect %q", kind)
}

// Ref names the table and column a foreign key points at. The zero value
// means the column has no reference.
type Ref struct {
	Table  string
	Column string
}

// ColumnDef describes a single column.
//
// Name is the logical, unquoted column name; quoting happens at render time.
// SQLType is a portable type (INTEGER, DECIMAL(10,2), VARCHAR(50), TIMESTAMP,
// DATE) that the renderer translates where a dialect needs a different
// spelling. Columns are nullable unless NotNull is set, matching SQL's
// default.
//
// AutoIncrement marks a store-assigned surrogate key; it requires PrimaryKey
// and is rendered as SERIAL, AUTOINCREMENT, AUTO_INCREMENT or IDENTITY(1,1)
// depending on the dialect.
type ColumnDef struct {
	Name          string
	SQLType       string
	NotNull       bool
	PrimaryKey    bool
	AutoIncrement bool
	References    Ref
	Default       string
}

// TableDef holds a table name and its ordered column list. Column order is
// load-bearing: it fixes both the rendered DDL and the column order bulk
// writes use.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnNames returns every column name in definition order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

// LoadColumns returns the column names callers are expected to provide when
// inserting rows, i.e. every column except store-assigned auto-increment
// keys.
func (t TableDef) LoadColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.AutoIncrement {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}
