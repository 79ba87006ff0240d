// Package mysql implements store.BatchStore against MySQL/MariaDB, storing
// each BatchState as a JSON blob keyed by batch_id. Structurally identical
// to the postgres backend; kept separate because placeholder syntax and
// upsert semantics differ enough between the two drivers to not share a
// single query string.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

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
    batch_id VARCHAR(255) PRIMARY KEY,
    state JSON NOT NULL,
    status VARCHAR(64) NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_batches_status (status)
);
`, config.BatchesTable)
}

// MigrationDown returns the SQL to drop the batches table.
func MigrationDown(config TableConfig) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;\n", config.BatchesTable)
}

// Store is a MySQL implementation of store.BatchStore.
type Store struct {
	db    *sql.DB
	table string
}

// New creates a new MySQL store with the default table name.
func New(db *sql.DB) *Store {
	return NewWithConfig(db, DefaultTableConfig())
}

// NewWithConfig creates a new MySQL store with a custom table name.
func NewWithConfig(db *sql.DB, config TableConfig) *Store {
	return &Store{db: db, table: config.BatchesTable}
}

// Create implements store.BatchStore.
func (s *Store) Create(ctx context.Context, state batch.BatchState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("mysql: marshal batch state: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (batch_id, state, status) VALUES (?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, query, state.BatchID, blob, string(state.Status))
	if err != nil {
		if isDuplicateKey(err) {
			return batch.ErrBatchExists
		}
		return fmt.Errorf("mysql: create batch: %w", err)
	}
	return nil
}

// Get implements store.BatchStore.
func (s *Store) Get(ctx context.Context, batchID string) (batch.BatchState, error) {
	query := fmt.Sprintf(`SELECT state FROM %s WHERE batch_id = ?`, s.table)

	var blob []byte
	err := s.db.QueryRowContext(ctx, query, batchID).Scan(&blob)
	if err == sql.ErrNoRows {
		return batch.BatchState{}, batch.ErrBatchNotFound
	}
	if err != nil {
		return batch.BatchState{}, fmt.Errorf("mysql: get batch: %w", err)
	}

	var state batch.BatchState
	if err := json.Unmarshal(blob, &state); err != nil {
		return batch.BatchState{}, fmt.Errorf("mysql: unmarshal batch state: %w", err)
	}
	return state, nil
}

// Update implements store.BatchStore.
func (s *Store) Update(ctx context.Context, state batch.BatchState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("mysql: marshal batch state: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET state = ?, status = ? WHERE batch_id = ?`, s.table)
	result, err := s.db.ExecContext(ctx, query, blob, string(state.Status), state.BatchID)
	if err != nil {
		return fmt.Errorf("mysql: update batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mysql: check rows affected: %w", err)
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
		return fmt.Errorf("mysql: delete batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mysql: check rows affected: %w", err)
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
		return nil, fmt.Errorf("mysql: list batches: %w", err)
	}
	defer rows.Close()

	var states []batch.BatchState
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("mysql: scan batch: %w", err)
		}
		var state batch.BatchState
		if err := json.Unmarshal(blob, &state); err != nil {
			return nil, fmt.Errorf("mysql: unmarshal batch state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: iterate batches: %w", err)
	}
	return states, nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
