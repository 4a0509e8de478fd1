// Package database handles database connections.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration. The reconciliation
// ledger (batches, stock outcomes, normalization rules, circuit states) lives in
// this database.
//
// # Connect
//
// The Connect function establishes a connection with sane pool settings and
// verifies it with a ping. Connection, read, and write timeouts are embedded
// in the DSN so a wedged database cannot stall a batch indefinitely.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
