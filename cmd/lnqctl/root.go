package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lesnouvelles-feed/internal/infra/db"
	"lesnouvelles-feed/internal/observability/logging"
)

var (
	databaseURL string
	logger      *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lnqctl",
	Short: "Operate the lesnouvelles feed pipeline",
	Long: `lnqctl manages prompts and runs pipeline passes on demand.

Example usage:
  lnqctl migrate up
  lnqctl prompt create --text "Hockey et Canadiens de Montréal"
  lnqctl prompt feed <id>
  lnqctl run enrich score`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewTextLogger()
		cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"),
		"postgres connection string (default $DATABASE_URL)")
}

// errSchemaMissing tells the operator to migrate first.
var errSchemaMissing = errors.New("database schema missing, run 'lnqctl migrate up' first")

// openDatabase connects and, unless migrating, checks the schema exists.
func openDatabase(ctx context.Context, requireSchema bool) (*sql.DB, error) {
	database, err := db.Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if !requireSchema {
		return database, nil
	}
	ready, err := db.SchemaReady(ctx, database)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	if !ready {
		_ = database.Close()
		return nil, errSchemaMissing
	}
	return database, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
