package storage

import "fmt"

// ConstraintError reports a bulk write rejected by an integrity constraint,
// most commonly a trip row pointing at a zone that was never loaded. Backends
// map their driver-specific errors (Postgres SQLSTATE class 23, MySQL 1452,
// SQL Server 547, SQLite constraint codes) into this type so callers can
// detect the condition without importing a driver.
type ConstraintError struct {
	Table  string // target table of the failed write
	Detail string // driver-provided detail, may be empty
	Err    error  // underlying driver error
}

func (e *ConstraintError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("constraint violation on %s: %s", e.Table, e.Detail)
	}
	return fmt.Sprintf("constraint violation on %s: %v", e.Table, e.Err)
}

// Unwrap exposes the driver error for errors.Is and errors.As chains.
func (e *ConstraintError) Unwrap() error { return e.Err }
