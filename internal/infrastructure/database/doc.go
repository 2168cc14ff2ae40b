// Package database provides SQLite connectivity for miot-agent.
//
// The database holds the cached Mijia session (auth_sessions) and the
// tool-call history (tool_calls). Schema changes ship as embedded migration
// files, see the migrations package.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements and the database file is kept
// at 0600.
package database
