package postgres

import (
	"strings"
	"testing"

	"github.com/getpup/preprocessing-orchestrator/store"
	"github.com/stretchr/testify/assert"
)

// TestStoreInitialization verifies that the Store can be initialized correctly.
func TestStoreInitialization(t *testing.T) {
	t.Run("New creates store with default table name", func(t *testing.T) {
		s := New(nil)
		assert.Equal(t, "orchestrator_batches", s.table)
	})

	t.Run("NewWithConfig creates store with custom table name", func(t *testing.T) {
		s := NewWithConfig(nil, TableConfig{BatchesTable: "custom_batches"})
		assert.Equal(t, "custom_batches", s.table)
	})
}

// TestContextHandling verifies Store implements store.BatchStore.
func TestContextHandling(t *testing.T) {
	var _ store.BatchStore = (*Store)(nil)
}

func TestMigrations(t *testing.T) {
	t.Run("MigrationUp generates valid SQL", func(t *testing.T) {
		config := DefaultTableConfig()
		sql := MigrationUp(config)

		assert.Contains(t, sql, "CREATE TABLE orchestrator_batches")
		assert.Contains(t, sql, "CREATE INDEX idx_batches_status")
		assert.Contains(t, sql, "JSONB NOT NULL")
	})

	t.Run("MigrationDown generates valid SQL", func(t *testing.T) {
		sql := MigrationDown(DefaultTableConfig())
		assert.Contains(t, sql, "DROP TABLE IF EXISTS orchestrator_batches")
	})

	t.Run("MigrationUp with custom table name", func(t *testing.T) {
		sql := MigrationUp(TableConfig{BatchesTable: "custom_batches"})
		assert.Contains(t, sql, "CREATE TABLE custom_batches")
	})
}

func TestTableConfigDefaults(t *testing.T) {
	config := DefaultTableConfig()
	assert.Equal(t, "orchestrator_batches", config.BatchesTable)
}

func TestIsUniqueViolation_NonPQErrorIsFalse(t *testing.T) {
	assert.False(t, isUniqueViolation(assertError("plain error")))
}

type plainError string

func (e plainError) Error() string { return string(e) }

func assertError(msg string) error {
	return plainError(msg)
}

func TestMigrationUp_KeysOnBatchID(t *testing.T) {
	assert.True(t, strings.Contains(MigrationUp(DefaultTableConfig()), "batch_id"))
}
