package cmd

import (
	"fmt"

	"github.com/mediajenny/the-oracle/src/database"
	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|version]",
	Short:     "Apply, roll back or inspect the database schema",
	Long:      `Runs the embedded schema migrations against DATABASE_PATH. Defaults to "up".`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		action := "up"
		if len(args) == 1 {
			action = args[0]
		}

		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database at %s: %w", cfg.DatabasePath, err)
		}
		defer db.Close()

		switch action {
		case "up":
			if err := database.MigrateUp(db); err != nil {
				return err
			}
		case "down":
			if err := database.MigrateDown(db); err != nil {
				return err
			}
		}

		version, dirty, err := database.MigrationVersion(db)
		if err != nil {
			return err
		}
		logger.L.Info("Migration state", "action", action, "version", version, "dirty", dirty)
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
