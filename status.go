package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCmd reports storage availability and per-user pending counts.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show offline storage state and pending change counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := openService()
			defer svc.Close()

			if !svc.Supported() {
				fmt.Println("offline storage: unavailable")
				return nil
			}

			fmt.Println("offline storage: ok")
			fmt.Printf("store: %s\n", resolvedCfg.Storage.Path)

			ctx := cmd.Context()

			userIDs, err := svc.ListPendingUserIDs(ctx)
			if err != nil {
				return err
			}

			if len(userIDs) == 0 {
				fmt.Println("pending changes: none")
				return nil
			}

			for _, userID := range userIDs {
				count, err := svc.CountPendingRequests(ctx, userID)
				if err != nil {
					return err
				}

				fmt.Printf("pending changes for %s: %d\n", userID, count)
			}

			return nil
		},
	}
}
