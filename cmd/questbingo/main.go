package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := &config{}
	cobra.CheckErr(newRootCmd(cfg).ExecuteContext(ctx))
}
