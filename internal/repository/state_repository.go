package repository

import (
	"database/sql"
	"fmt"

	"github.com/markaggar/water-monitor-go/internal/database"
)

// StateRepository persists the engine's single-document state
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new state repository
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Load returns the stored document, or nil when none exists yet.
// A missing document is normal first-run state, not an error.
func (r *StateRepository) Load() ([]byte, error) {
	var document string
	err := r.db.QueryRow("SELECT document FROM engine_state WHERE id = 1").Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load engine state: %w", err)
	}
	return []byte(document), nil
}

// Save replaces the stored document atomically
func (r *StateRepository) Save(document []byte) error {
	err := database.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO engine_state (id, document, updated_at)
			VALUES (1, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				document = excluded.document,
				updated_at = CURRENT_TIMESTAMP
		`, string(document))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save engine state: %w", err)
	}
	return nil
}
