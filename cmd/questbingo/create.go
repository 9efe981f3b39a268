package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thomasari/quest-bingo/internal/api"
)

func newCreateCmd(cfg *config) *cobra.Command {
	var join bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room and print its code.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			client := api.New(cfg.backendURL)
			code, err := client.CreateRoom(cmd.Context())
			if err != nil {
				return fmt.Errorf("create room: %w", err)
			}
			if !join {
				fmt.Fprintln(cmd.OutOrStdout(), code)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created room %s\n", code)
			return runJoin(cmd.Context(), cfg, code, false)
		},
	}

	cmd.Flags().BoolVar(&join, "join", true, "join the room right away")

	return cmd
}
