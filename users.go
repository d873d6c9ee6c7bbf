package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newUsersCmd lists the cached users.
func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List cached users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := openService()
			defer svc.Close()

			users, err := svc.CachedUsers(cmd.Context())
			if err != nil {
				return err
			}

			if len(users) == 0 {
				statusf("no cached users\n")
				return nil
			}

			// Language-aware name ordering; cached names are NFC-normalized
			// so accented names collate predictably.
			coll := collate.New(language.Und)
			sort.Slice(users, func(i, j int) bool {
				return coll.CompareString(users[i].Name, users[j].Name) < 0
			})

			w := newTableWriter()
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCALENDAR")

			for i := range users {
				u := &users[i]

				calendar := "-"
				if u.CalendarID != nil {
					calendar = fmt.Sprintf("%d", *u.CalendarID)
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, calendar)
			}

			return w.Flush()
		},
	}
}
