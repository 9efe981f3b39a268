package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thomasari/quest-bingo/internal/state"
)

func newRoomsCmd(cfg *config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List recently joined rooms.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := state.Open(ctx, cfg.stateDir)
			if err != nil {
				return fmt.Errorf("open state: %w", err)
			}
			defer store.Close()

			rooms, err := store.RecentRooms(ctx, limit)
			if err != nil {
				return fmt.Errorf("list rooms: %w", err)
			}
			if len(rooms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no rooms joined yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, r := range rooms {
				fmt.Fprintf(w, "%s\t%s\n", r.ID, r.LastJoinedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of rooms to list")

	return cmd
}
