package database

import (
	"database/sql"
	"fmt"
)

// initSchema creates the tables used by the monitor. The engine state
// document is a single row; sessions and daily summaries additionally
// get their own rows for querying.
func initSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS engine_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			document TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ended_at TIMESTAMP NOT NULL,
			volume REAL NOT NULL,
			duration_s INTEGER NOT NULL,
			avg_flow REAL NOT NULL,
			hot_pct REAL NOT NULL,
			gaps INTEGER NOT NULL DEFAULT 0,
			occupancy_class TEXT,
			people_bin TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at)`,
		`CREATE TABLE IF NOT EXISTS daily_summaries (
			date TEXT PRIMARY KEY,
			total_volume REAL NOT NULL,
			sessions INTEGER NOT NULL,
			avg_duration_s REAL NOT NULL,
			avg_hot_pct REAL NOT NULL,
			baseline_mean REAL NOT NULL,
			baseline_std REAL NOT NULL,
			threshold_3sigma REAL,
			anomaly INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}
