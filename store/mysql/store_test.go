package mysql

import (
	"testing"

	"github.com/getpup/preprocessing-orchestrator/store"
	"github.com/stretchr/testify/assert"
)

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

func TestImplementsBatchStore(t *testing.T) {
	var _ store.BatchStore = (*Store)(nil)
}

func TestMigrations(t *testing.T) {
	t.Run("MigrationUp generates valid SQL", func(t *testing.T) {
		sql := MigrationUp(DefaultTableConfig())
		assert.Contains(t, sql, "CREATE TABLE orchestrator_batches")
		assert.Contains(t, sql, "JSON NOT NULL")
		assert.Contains(t, sql, "INDEX idx_batches_status")
	})

	t.Run("MigrationDown generates valid SQL", func(t *testing.T) {
		sql := MigrationDown(DefaultTableConfig())
		assert.Contains(t, sql, "DROP TABLE IF EXISTS orchestrator_batches")
	})
}

func TestTableConfigDefaults(t *testing.T) {
	assert.Equal(t, "orchestrator_batches", DefaultTableConfig().BatchesTable)
}
