package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerate_Postgres(t *testing.T) {
	tmpDir := t.TempDir()

	config := Config{
		Backend:        BackendPostgres,
		OutputFolder:   tmpDir,
		OutputFilename: "test_migration.sql",
		BatchesTable:   "orchestrator_batches",
	}

	if err := Generate(config); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, config.OutputFilename))
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}

	sql := string(content)
	for _, required := range []string{
		"Database: postgres",
		"CREATE TABLE orchestrator_batches",
		"JSONB NOT NULL",
		"CREATE INDEX idx_batches_status",
	} {
		if !strings.Contains(sql, required) {
			t.Errorf("missing required string: %s", required)
		}
	}
}

func TestGenerate_MySQL(t *testing.T) {
	tmpDir := t.TempDir()

	config := Config{
		Backend:        BackendMySQL,
		OutputFolder:   tmpDir,
		OutputFilename: "test_migration.sql",
		BatchesTable:   "orchestrator_batches",
	}

	if err := Generate(config); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, config.OutputFilename))
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}

	if !strings.Contains(string(content), "JSON NOT NULL") {
		t.Error("missing JSON column definition")
	}
}

func TestGenerate_SQLite(t *testing.T) {
	tmpDir := t.TempDir()

	config := Config{
		Backend:        BackendSQLite,
		OutputFolder:   tmpDir,
		OutputFilename: "test_migration.sql",
		BatchesTable:   "orchestrator_batches",
	}

	if err := Generate(config); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, config.OutputFilename))
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}

	if !strings.Contains(string(content), "CREATE TABLE orchestrator_batches") {
		t.Error("missing table definition")
	}
}

func TestGenerate_UnknownBackend(t *testing.T) {
	tmpDir := t.TempDir()

	config := Config{
		Backend:      Backend("oracle"),
		OutputFolder: tmpDir,
		BatchesTable: "orchestrator_batches",
	}

	if err := Generate(config); err == nil {
		t.Error("expected error for unknown backend, got nil")
	}
}

func TestGenerate_RejectsUnsafeTableName(t *testing.T) {
	tmpDir := t.TempDir()

	config := Config{
		Backend:      BackendPostgres,
		OutputFolder: tmpDir,
		BatchesTable: "batches; DROP TABLE users",
	}

	if err := Generate(config); err == nil {
		t.Error("expected error for unsafe table name, got nil")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig(BackendPostgres)
	if config.BatchesTable != "orchestrator_batches" {
		t.Errorf("unexpected default batches table: %s", config.BatchesTable)
	}
	if !strings.HasSuffix(config.OutputFilename, "_init_orchestrator_batches.sql") {
		t.Errorf("unexpected default filename: %s", config.OutputFilename)
	}
}
