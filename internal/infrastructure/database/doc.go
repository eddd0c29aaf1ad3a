// Package database provides SQLite connectivity for Gray Logic Thermal.
//
// It opens the database with WAL mode and a busy timeout, and applies the
// schema migrations shipped with the binary. The control event log is the
// only table the service writes.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
