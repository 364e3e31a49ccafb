package database

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Every statement is idempotent
// (CREATE TABLE IF NOT EXISTS / INSERT OR IGNORE), so it is safe to run
// at startup of every binary. The entity_types seed rows live here too:
// the import pipeline reads them but never writes them.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
