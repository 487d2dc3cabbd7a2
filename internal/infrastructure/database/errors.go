package database

import "errors"

// Domain errors for the database package.
var (
	// ErrNoPath is returned when Open is called without a database path.
	ErrNoPath = errors.New("database path is empty")

	// ErrMigrationMissing is returned when an applied migration has no
	// matching file in the migration source.
	ErrMigrationMissing = errors.New("migration not found in source")

	// ErrNoDownMigration is returned when rolling back a migration that has
	// no .down.sql file.
	ErrNoDownMigration = errors.New("migration has no down SQL")
)
