package schema

import (
	"context"
	"fmt"
)

// Execer is the slice of the storage contract the manager needs to apply DDL.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// Manager applies the taxi schema to a target database. Tables are created in
// dependency order (zones before trips) and dropped in reverse.
type Manager struct {
	dialect Dialect
	db      Execer
	tables  []TableDef
}

// NewManager returns a Manager for the taxi tables in the given dialect.
func NewManager(d Dialect, db Execer) *Manager {
	return &Manager{
		dialect: d,
		db:      db,
		tables:  []TableDef{Zones(), Trips()},
	}
}

// Reset drops both taxi tables and recreates them empty. Every run starts
// from a known-clean schema, so a rerun never appends to a previous load.
func (m *Manager) Reset(ctx context.Context) error {
	for i := len(m.tables) - 1; i >= 0; i-- {
		name := m.tables[i].Name
		if err := m.db.Exec(ctx, BuildDropTableSQL(m.dialect, name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return m.create(ctx, false)
}

// Ensure creates any taxi table that does not exist yet and leaves existing
// tables, and their data, untouched.
func (m *Manager) Ensure(ctx context.Context) error {
	return m.create(ctx, true)
}

func (m *Manager) create(ctx context.Context, ifAbsent bool) error {
	for _, t := range m.tables {
		var (
			stmt string
			err  error
		)
		if ifAbsent {
			stmt, err = BuildCreateTableIfAbsentSQL(m.dialect, t)
		} else {
			stmt, err = BuildCreateTableSQL(m.dialect, t)
		}
		if err != nil {
			return err
		}
		if err := m.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
	}
	return nil
}
