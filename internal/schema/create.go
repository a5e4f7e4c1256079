package schema

import (
	"fmt"
	"strings"
)

// QuoteIdent quotes an identifier for the given dialect, doubling any
// embedded quote character:
//
//	postgres/sqlite:  name   -> "name"     we"ird -> "we""ird"
//	mysql:            name   -> `name`
//	mssql:            name   -> [name]     weird] -> [weird]]]
func QuoteIdent(d Dialect, ident string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case MSSQL:
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// typeFor translates a portable SQL type into the dialect's spelling.
// TIMESTAMP is the only type that needs it: in T-SQL the word means
// rowversion, and MySQL's TIMESTAMP carries range limits and auto-update
// semantics that DATETIME avoids.
func typeFor(d Dialect, sqlType string) string {
	if strings.EqualFold(strings.TrimSpace(sqlType), "TIMESTAMP") {
		switch d {
		case MySQL:
			return "DATETIME"
		case MSSQL:
			return "DATETIME2"
		}
	}
	return sqlType
}

// autoIncrementType returns the column type clause for a store-assigned
// primary key in the given dialect.
func autoIncrementType(d Dialect) string {
	switch d {
	case Postgres:
		return "SERIAL"
	case SQLite:
		return "INTEGER"
	case MySQL:
		return "INTEGER AUTO_INCREMENT"
	case MSSQL:
		return "INT IDENTITY(1,1)"
	}
	return ""
}

// BuildCreateTableSQL renders a plain CREATE TABLE statement for the given
// dialect. Identifiers are quoted, foreign keys are rendered as inline
// REFERENCES clauses and single-column primary keys are rendered inline so
// that SQLite's AUTOINCREMENT form stays legal.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	return renderCreate(d, t, false)
}

// BuildCreateTableIfAbsentSQL renders a CREATE TABLE that is a no-op when the
// table already exists: IF NOT EXISTS where the dialect supports it, and an
// IF OBJECT_ID(...) IS NULL guard on SQL Server.
func BuildCreateTableIfAbsentSQL(d Dialect, t TableDef) (string, error) {
	return renderCreate(d, t, true)
}

// BuildDropTableSQL renders an idempotent DROP TABLE. Postgres gets CASCADE
// so dependent objects never block a reset; the other dialects drop in
// reverse dependency order instead.
func BuildDropTableSQL(d Dialect, table string) string {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", QuoteIdent(d, table))
	if d == Postgres {
		stmt += " CASCADE"
	}
	return stmt + ";"
}

func renderCreate(d Dialect, t TableDef, ifAbsent bool) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("schema: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("schema: table %s has no columns", name)
	}

	singlePK := pkCount(t) == 1

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		cname := strings.TrimSpace(c.Name)
		if cname == "" {
			return "", fmt.Errorf("schema: column with empty name in table %s", name)
		}
		if c.AutoIncrement && !c.PrimaryKey {
			return "", fmt.Errorf("schema: column %s.%s: auto-increment requires a primary key", name, cname)
		}
		if c.AutoIncrement && !singlePK {
			return "", fmt.Errorf("schema: column %s.%s: auto-increment requires a single-column primary key", name, cname)
		}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(d, cname))
		sb.WriteByte(' ')

		if c.AutoIncrement {
			sb.WriteString(autoIncrementType(d))
		} else {
			typ := strings.TrimSpace(c.SQLType)
			if typ == "" {
				return "", fmt.Errorf("schema: column %s.%s missing SQLType", name, cname)
			}
			sb.WriteString(typeFor(d, typ))
		}

		switch {
		case c.PrimaryKey && singlePK:
			sb.WriteString(" PRIMARY KEY")
			if c.AutoIncrement && d == SQLite {
				sb.WriteString(" AUTOINCREMENT")
			}
		case c.PrimaryKey:
			pks = append(pks, QuoteIdent(d, cname))
		}

		if c.NotNull && !c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			// Default is emitted as a raw SQL expression.
			sb.WriteString(def)
		}

		if c.References.Table != "" {
			fmt.Fprintf(&sb, " REFERENCES %s(%s)",
				QuoteIdent(d, c.References.Table), QuoteIdent(d, c.References.Column))
		}

		cols = append(cols, sb.String())
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	qname := QuoteIdent(d, name)
	body := fmt.Sprintf("(\n  %s\n)", strings.Join(cols, ",\n  "))

	if !ifAbsent {
		return fmt.Sprintf("CREATE TABLE %s %s;", qname, body), nil
	}

	if d == MSSQL {
		// T-SQL has no CREATE TABLE IF NOT EXISTS.
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\nCREATE TABLE %s %s;\nEND",
			qname, qname, body,
		), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s;", qname, body), nil
}

func pkCount(t TableDef) int {
	n := 0
	for _, c := range t.Columns {
		if c.PrimaryKey {
			n++
		}
	}
	return n
}
