package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the repository tables. All rows carry a JSON
// payload column; relational columns exist only for lookup and ordering.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS agent_states (
		agent_id   TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS memory_banks (
		agent_id   TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loop_archive (
		loop_id      TEXT PRIMARY KEY,
		agent_id     TEXT NOT NULL,
		loop_number  INTEGER NOT NULL,
		payload      TEXT NOT NULL,
		completed_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loop_archive_agent
		ON loop_archive(agent_id, loop_number)`,
}

// initSchema creates all tables if they do not exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
