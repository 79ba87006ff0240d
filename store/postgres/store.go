// Package postgres implements store.BatchStore against PostgreSQL, storing
// each BatchState as a JSONB blob keyed by batch_id.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/getpup/preprocessing-orchestrator"
)

// Store is a PostgreSQL implementation of store.BatchStore.
type Store struct {
	db    *sql.DB
	table string
}

// New creates a new PostgreSQL store with the default table name.
func New(db *sql.DB) *Store {
	return NewWithConfig(db, DefaultTableConfig())
}

// NewWithConfig creates a new PostgreSQL store with a custom table name.
func NewWithConfig(db *sql.DB, config TableConfig) *Store {
	return &Store{db: db, table: config.BatchesTable}
}

// Create implements store.BatchStore.
func (s *Store) Create(ctx context.Context, state batch.BatchState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("postgres: marshal batch state: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (batch_id, state, status, updated_at)
		VALUES ($1, $2, $3, NOW())
	`, s.table)

	_, err = s.db.ExecContext(ctx, query, state.BatchID, blob, string(state.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return batch.ErrBatchExists
		}
		return fmt.Errorf("postgres: create batch: %w", err)
	}
	return nil
}

// Get implements store.BatchStore.
func (s *Store) Get(ctx context.Context, batchID string) (batch.BatchState, error) {
	query := fmt.Sprintf(`SELECT state FROM %s WHERE batch_id = $1`, s.table)

	var blob []byte
	err := s.db.QueryRowContext(ctx, query, batchID).Scan(&blob)
	if err == sql.ErrNoRows {
		return batch.BatchState{}, batch.ErrBatchNotFound
	}
	if err != nil {
		return batch.BatchState{}, fmt.Errorf("postgres: get batch: %w", err)
	}

	var state batch.BatchState
	if err := json.Unmarshal(blob, &state); err != nil {
		return batch.BatchState{}, fmt.Errorf("postgres: unmarshal batch state: %w", err)
	}
	return state, nil
}

// Update implements store.BatchStore.
func (s *Store) Update(ctx context.Context, state batch.BatchState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("postgres: marshal batch state: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET state = $2, status = $3, updated_at = NOW()
		WHERE batch_id = $1
	`, s.table)

	result, err := s.db.ExecContext(ctx, query, state.BatchID, blob, string(state.Status))
	if err != nil {
		return fmt.Errorf("postgres: update batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return batch.ErrBatchNotFound
	}
	return nil
}

// Delete implements store.BatchStore.
func (s *Store) Delete(ctx context.Context, batchID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE batch_id = $1`, s.table)

	result, err := s.db.ExecContext(ctx, query, batchID)
	if err != nil {
		return fmt.Errorf("postgres: delete batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: check rows affected: %w", err)
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
		return nil, fmt.Errorf("postgres: list batches: %w", err)
	}
	defer rows.Close()

	var states []batch.BatchState
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("postgres: scan batch: %w", err)
		}
		var state batch.BatchState
		if err := json.Unmarshal(blob, &state); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal batch state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate batches: %w", err)
	}
	return states, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
