// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories with the storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "postgres" (taxietl/internal/storage/postgres)
//   - "mysql"    (taxietl/internal/storage/mysql)
//   - "mssql"    (taxietl/internal/storage/mssql)
//   - "sqlite"   (taxietl/internal/storage/sqlite)
//
// Typical usage (in cmd/taxietl/main.go or a similar wiring layer):
//
//	import (
//	    _ "taxietl/internal/storage/all" // enable all built-in backends
//
//	    "taxietl/internal/storage"
//	)
//
//	repo, err := storage.New(ctx, storage.Config{
//	    Kind: cfg.StorageKind,
//	    DSN:  cfg.DSN(),
//	})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
//
// A binary that supports only a subset of backends can blank-import the
// required backend packages directly instead of this one.
package all

import (
	_ "taxietl/internal/storage/mssql"
	_ "taxietl/internal/storage/mysql"
	_ "taxietl/internal/storage/postgres"
	_ "taxietl/internal/storage/sqlite"
)
