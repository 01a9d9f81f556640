package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"smartspend-server/src/config"
	"smartspend-server/src/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("DB connection failed: %w", err)
			}
			defer pool.Close()

			if err := db.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			log.Println("INFO: Schema applied")
			return nil
		},
	}
}
