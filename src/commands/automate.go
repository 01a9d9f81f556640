package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"smartspend-server/src/automation"
	"smartspend-server/src/config"
	"smartspend-server/src/db"
	sqldb "smartspend-server/src/db/sql"
)

func newAutomateCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "automate",
		Short: "Run one recurring rule pass for a user and print its effects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id, got %d", userID)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("DB connection failed: %w", err)
			}
			defer pool.Close()

			store := sqldb.AutomationStore{Pool: pool}
			sched := automation.NewScheduler(store, store, automation.SystemClock{Location: cfg.Location})
			defer sched.Close()

			effects, err := sched.RunNow(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if effects == nil {
				effects = []automation.Effect{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(effects)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id to run the pass for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
