// Package sqlite implements store.BatchStore against SQLite, for
// single-node deployments that want durability without running a separate
// database server. Storage layout mirrors the postgres/mysql backends: one
// row per batch id holding the BatchState as a JSON text blob.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/getpup/preprocessing-orchestrator"
)

// TableConfig configures the table name backing the store.
type TableConfig struct {
	BatchesTable string
}

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{BatchesTable: "orchestrator_batches"}
}

// MigrationUp returns the SQL to create the batches table.
func MigrationUp(config TableConfig) string {
	return fmt.Sprintf(`CREATE TABLE %s (
    batch_id TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    status TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_batches_status ON %s(status);
`, config.BatchesTable, config.BatchesTable)
}

// MigrationDown returns the SQL to drop the batches table.
func MigrationDown(config TableConfig) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;\n", config.BatchesTable)
}

// Store is a SQLite implementation of store.BatchStore.
type Store struct {
	db    *sql.DB
	table string
}

// New creates a new SQLite store with the default table name.
func New(db *sql.DB) *Store {
	return NewWithConfig(db, DefaultTableConfig())
}

// NewWithConfig creates a new SQLite store with a custom table name.
func NewWithConfig(db *sql.DB, config TableConfig) *Store {
	return &Store{db: db, table: config.BatchesTable}
}

// Create implements store.BatchStore.
func (s *Store) Create(ctx context.Context, state batch.BatchState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("sqlite: marshal batch state: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (batch_id, state, status) VALUES (?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, query, state.BatchID, string(blob), string(state.Status))
	if err != nil {
		if isUniqueConstraint(err) {
			return batch.ErrBatchExists
		}
		return fmt.Errorf("sqlite: create batch: %w", err)
	}
	return nil
}

// Get implements store.BatchStore.
func (s *Store) Get(ctx context.Context, batchID string) (batch.BatchState, error) {
	query := fmt.Sprintf(`SELECT state FROM %s WHERE batch_id = ?`, s.table)

	var blob string
	err := s.db.QueryRowContext(ctx, query, batchID).Scan(&blob)
	if err == sql.ErrNoRows {
		return batch.BatchState{}, batch.ErrBatchNotFound
	}
	if err != nil {
		return batch.BatchState{}, fmt.Errorf("sqlite: get batch: %w", err)
	}

	var state batch.BatchState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return batch.BatchState{}, fmt.Errorf("sqlite: unmarshal batch state: %w", err)
	}
	return state, nil
}

// Update implements store.BatchStore.
func (s *Store) Update(ctx context.Context, state batch.BatchState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("sqlite: marshal batch state: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET state = ?, status = ? WHERE batch_id = ?`, s.table)
	result, err := s.db.ExecContext(ctx, query, string(blob), string(state.Status), state.BatchID)
	if err != nil {
		return fmt.Errorf("sqlite: update batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return batch.ErrBatchNotFound
	}
	return nil
}

// Delete implements store.BatchStore.
func (s *Store) Delete(ctx context.Context, batchID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE batch_id = ?`, s.table)

	result, err := s.db.ExecContext(ctx, query, batchID)
	if err != nil {
		return fmt.Errorf("sqlite: delete batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return batch.ErrBatchNotFound
	}
	return nil
}

// List implements store.BatchStore.
func (s *Store) List(ctx context.Context) ([]batch.BatchState, error) {
	query := fmt.Sprintf(`SELECT state FROM %s`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list batches: %w", err)
	}
	defer rows.Close()

	var states []batch.BatchState
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("sqlite: scan batch: %w", err)
		}
		var state batch.BatchState
		if err := json.Unmarshal([]byte(blob), &state); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal batch state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate batches: %w", err)
	}
	return states, nil
}

// isUniqueConstraint reports whether err is a SQLite UNIQUE constraint
// violation. The mattn/go-sqlite3 driver reports this as a plain error
// whose message contains "UNIQUE constraint failed"; unlike postgres/mysql
// it exposes no typed error code, so a substring match is what the driver
// actually offers callers.
func isUniqueConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
