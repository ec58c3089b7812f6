// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files live in an fs.FS (usually an embed.FS compiled into the
// binary) and follow the naming convention {version}_{description}.sql, for
// example "001_initial_schema.sql". Applied versions are tracked in the
// schema_migrations table together with the file checksum; each migration runs
// in its own transaction and is recorded in that same transaction.
//
// Example usage:
//
//	runner := migration.NewRunner(db, migrations.Files, ".", logger)
//	if _, err := runner.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
