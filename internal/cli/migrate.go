package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/database"
)

var downSteps int

var migrateUpCmd = &cobra.Command{
	Use:   "migrate-up",
	Short: "Apply all pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return database.MigrateUp(cfg.DB, newLogger(cmd))
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "migrate-down",
	Short: "Roll back schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if downSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return database.MigrateDown(cfg.DB, downSteps, newLogger(cmd))
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	rootCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
