package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPendingCmd groups the outbox inspection subcommands.
func newPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect and maintain the queue of unconfirmed mutations",
	}

	cmd.AddCommand(newPendingListCmd())
	cmd.AddCommand(newPendingClearCmd())

	return cmd
}

// newPendingListCmd lists a user's queued mutations in replay order.
func newPendingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List queued mutations for a user in replay order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := openService()
			defer svc.Close()

			entries, err := svc.ListPendingRequests(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				statusf("no pending mutations for %s\n", args[0])
				return nil
			}

			w := newTableWriter()
			fmt.Fprintln(w, "ID\tMETHOD\tURL\tTARGET\tCREATED")

			for i := range entries {
				e := &entries[i]

				target := "-"

				switch {
				case e.OptimisticID != nil:
					target = fmt.Sprintf("optimistic %d", *e.OptimisticID)
				case e.ShiftID != nil:
					target = fmt.Sprintf("shift %d", *e.ShiftID)
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Method, e.URL, target, formatNano(e.CreatedAt))
			}

			return w.Flush()
		},
	}
}

// newPendingClearCmd drops a user's queue, e.g. before a forced resync.
func newPendingClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <user-id>",
		Short: "Drop all queued mutations for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := openService()
			defer svc.Close()

			ctx := cmd.Context()

			count, err := svc.CountPendingRequests(ctx, args[0])
			if err != nil {
				return err
			}

			if err := svc.ClearPendingRequests(ctx, args[0]); err != nil {
				return err
			}

			statusf("cleared %d pending mutations for %s\n", count, args[0])

			return nil
		},
	}
}
