package main

import (
	"fmt"

	"dreams-membership/internal/infra/worker"

	"github.com/spf13/cobra"
)

var syncUserID string

var syncCmd = &cobra.Command{
	Use:   "sync-entitlements",
	Short: "Recompute the cached member flag for one user or every profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		r := worker.NewResyncer(a.profiles, a.entitlement, a.tm, a.cfg.Scheduler.SyncWorkers, a.log)
		out := cmd.OutOrStdout()

		if syncUserID != "" {
			member, err := r.SyncUser(ctx, syncUserID)
			if err != nil {
				return fmt.Errorf("sync %s: %w", syncUserID, err)
			}
			fmt.Fprintf(out, "user=%s is_member=%t\n", syncUserID, member)
			return nil
		}

		res, err := r.ResyncAll(ctx)
		fmt.Fprintf(out, "users=%d synced=%d failed=%d members=%d\n", res.Users, res.Synced, res.Failed, res.Members)
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d users failed to sync", res.Failed)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncUserID, "user", "", "sync a single user id")
}
