package schema

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptExec records every statement it is asked to run and can be told to
// fail on the nth call.
type scriptExec struct {
	stmts   []string
	failOn  int // 1-based call index, 0 means never
	failErr error
}

func (s *scriptExec) Exec(_ context.Context, sql string) error {
	s.stmts = append(s.stmts, sql)
	if s.failOn > 0 && len(s.stmts) == s.failOn {
		return s.failErr
	}
	return nil
}

// TestManager_Reset verifies the statement order: drop in reverse dependency
// order, then create in dependency order.
func TestManager_Reset(t *testing.T) {
	t.Parallel()

	db := &scriptExec{}
	m := NewManager(Postgres, db)

	if err := m.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	wantPrefixes := []string{
		`DROP TABLE IF EXISTS "trips"`,
		`DROP TABLE IF EXISTS "zones"`,
		`CREATE TABLE "zones"`,
		`CREATE TABLE "trips"`,
	}
	if len(db.stmts) != len(wantPrefixes) {
		t.Fatalf("got %d statements, want %d:\n%s", len(db.stmts), len(wantPrefixes), strings.Join(db.stmts, "\n---\n"))
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(db.stmts[i], prefix) {
			t.Fatalf("statement %d = %q, want prefix %q", i, db.stmts[i], prefix)
		}
	}
}

// TestManager_ResetDropFailure checks that a failed drop stops the reset and
// names the table.
func TestManager_ResetDropFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection lost")
	db := &scriptExec{failOn: 2, failErr: boom}
	m := NewManager(SQLite, db)

	err := m.Reset(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error %v does not wrap cause", err)
	}
	if !strings.Contains(err.Error(), "drop zones") {
		t.Fatalf("error %q does not name the failing table", err.Error())
	}
	if len(db.stmts) != 2 {
		t.Fatalf("reset continued after failure: %d statements", len(db.stmts))
	}
}

// TestManager_Ensure verifies the create-if-absent path leaves drops out and
// keeps the guard clauses in.
func TestManager_Ensure(t *testing.T) {
	t.Parallel()

	db := &scriptExec{}
	m := NewManager(MySQL, db)

	if err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if len(db.stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(db.stmts))
	}
	for i, stmt := range db.stmts {
		if strings.Contains(stmt, "DROP TABLE") {
			t.Fatalf("ensure issued a drop: %q", stmt)
		}
		if !strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS") {
			t.Fatalf("statement %d missing guard: %q", i, stmt)
		}
	}
	if !strings.Contains(db.stmts[0], "`zones`") || !strings.Contains(db.stmts[1], "`trips`") {
		t.Fatalf("tables created out of order:\n%s", strings.Join(db.stmts, "\n---\n"))
	}
}

// TestManager_EnsureCreateFailure checks error wrapping on the create path.
func TestManager_EnsureCreateFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("permission denied")
	db := &scriptExec{failOn: 1, failErr: boom}
	m := NewManager(MSSQL, db)

	err := m.Ensure(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "create zones") {
		t.Fatalf("error %q does not name the failing table", err.Error())
	}
}
