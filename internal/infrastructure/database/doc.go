// Package database provides SQLite connectivity for AutoFarm Core.
//
// It owns the connection lifecycle, WAL configuration, and the embedded
// schema migrations. The telemetry tables are insert-only, which keeps
// the migration story simple: changes are additive, with a down file
// per migration for development rollbacks.
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
