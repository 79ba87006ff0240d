package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getpup/preprocessing-orchestrator/store/migrate"
)

var (
	migrateBackend string
	migrateOutput  string
	migrateTable   string
)

func init() {
	migrateCmd.Flags().StringVar(&migrateBackend, "backend", "postgres", "database backend (postgres, mysql, sqlite)")
	migrateCmd.Flags().StringVar(&migrateOutput, "output", "migrations", "output folder for the generated migration file")
	migrateCmd.Flags().StringVar(&migrateTable, "table", "orchestrator_batches", "name of the batch state table")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Generate the SQL migration file for a chosen database backend",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	backend := migrate.Backend(migrateBackend)
	switch backend {
	case migrate.BackendPostgres, migrate.BackendMySQL, migrate.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want postgres, mysql, or sqlite)", migrateBackend)
	}

	cfg := migrate.DefaultConfig(backend)
	cfg.OutputFolder = migrateOutput
	cfg.BatchesTable = migrateTable

	if err := migrate.Generate(cfg); err != nil {
		return fmt.Errorf("generate migration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s/%s\n", cfg.OutputFolder, cfg.OutputFilename)
	return nil
}
