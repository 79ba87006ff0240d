package postgres

import "fmt"

// TableConfig configures the table name backing the store.
type TableConfig struct {
	// BatchesTable is the name of the table storing batch state.
	BatchesTable string
}

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{BatchesTable: "orchestrator_batches"}
}

// MigrationUp returns the SQL to create the batches table, one row per
// batch id holding the full BatchState as JSONB.
func MigrationUp(config TableConfig) string {
	return fmt.Sprintf(`-- Create orchestrator_batches table
CREATE TABLE %s (
    batch_id TEXT PRIMARY KEY,
    state JSONB NOT NULL,
    status TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Index for the retention sweep's scan over terminal batches
CREATE INDEX idx_batches_status ON %s(status);
`, config.BatchesTable, config.BatchesTable)
}

// MigrationDown returns the SQL to drop the batches table.
func MigrationDown(config TableConfig) string {
	return fmt.Sprintf(`-- Drop orchestrator_batches table
DROP TABLE IF EXISTS %s;
`, config.BatchesTable)
}
