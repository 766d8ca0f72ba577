package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lesnouvelles-feed/internal/infra/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create the articles and prompts tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.MigrateUp(cmd.Context(), database); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop every table (all data is lost)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to drop tables without --yes")
		}
		database, err := openDatabase(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.MigrateDown(cmd.Context(), database); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema dropped")
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().Bool("yes", false, "confirm dropping every table")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
