package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appconfig "github.com/thomasari/quest-bingo/internal/config"
	"github.com/thomasari/quest-bingo/internal/devserver"
)

// newDevCmd runs the bundled development backend so the client can be
// exercised without the real server.
func newDevCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dev",
		Short: "Run a local development backend.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := appconfig.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: cfg.LogLevel,
			}))

			srv := devserver.New(cfg.HTTPAddr, logger, cfg.BoardRows, cfg.BoardCols)

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				logger.Info("starting dev backend", "addr", cfg.HTTPAddr)
				return srv.Run(gctx)
			})

			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down dev backend")
				return srv.Shutdown(context.Background())
			})

			return g.Wait()
		},
	}
}
