// Package migrate generates the SQL migration file that creates the
// batches table for a chosen backend, so deployments that don't run a
// migration framework can still provision their schema from the CLI.
package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/getpup/preprocessing-orchestrator/store/mysql"
	"github.com/getpup/preprocessing-orchestrator/store/postgres"
	"github.com/getpup/preprocessing-orchestrator/store/sqlite"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// validateIdentifier ensures a table name contains only safe characters,
// since it is interpolated directly into generated SQL.
func validateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", fieldName, name)
	}
	return nil
}

// Backend names a supported database engine.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMySQL    Backend = "mysql"
	BackendSQLite   Backend = "sqlite"
)

// Config configures migration file generation.
type Config struct {
	// Backend selects which database's SQL dialect to generate.
	Backend Backend

	// OutputFolder is the directory the migration file is written to.
	OutputFolder string

	// OutputFilename is the name of the migration file. If empty, a
	// timestamped default is used.
	OutputFilename string

	// BatchesTable is the name of the table storing batch state.
	BatchesTable string
}

// DefaultConfig returns the default configuration for a given backend.
func DefaultConfig(backend Backend) Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		Backend:        backend,
		OutputFolder:   "migrations",
		OutputFilename: fmt.Sprintf("%s_init_orchestrator_batches.sql", timestamp),
		BatchesTable:   "orchestrator_batches",
	}
}

// Generate writes the migration file for config.Backend to
// config.OutputFolder/config.OutputFilename.
func Generate(config Config) error {
	if err := validateIdentifier(config.BatchesTable, "BatchesTable"); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sql, err := generateSQL(config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	outputPath := filepath.Join(config.OutputFolder, config.OutputFilename)
	if err := os.WriteFile(outputPath, []byte(sql), 0o600); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}

	return nil
}

func generateSQL(config Config) (string, error) {
	header := fmt.Sprintf("-- Preprocessing orchestrator batch state migration\n-- Generated: %s\n-- Database: %s\n\n",
		time.Now().Format(time.RFC3339), config.Backend)

	switch config.Backend {
	case BackendPostgres:
		return header + postgres.MigrationUp(postgres.TableConfig{BatchesTable: config.BatchesTable}), nil
	case BackendMySQL:
		return header + mysql.MigrationUp(mysql.TableConfig{BatchesTable: config.BatchesTable}), nil
	case BackendSQLite:
		return header + sqlite.MigrationUp(sqlite.TableConfig{BatchesTable: config.BatchesTable}), nil
	default:
		return "", fmt.Errorf("migrate: unknown backend %q", config.Backend)
	}
}
