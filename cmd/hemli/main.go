package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/systmms/hemli/cmd/hemli/commands"
	"github.com/systmms/hemli/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()
	memguard.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	rootCmd := commands.NewRootCommand(cfg, fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))

	err := rootCmd.ExecuteContext(ctx)
	if cfg.MetricsTextfile != "" {
		if werr := cfg.Metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			cfg.Logger.Warn("could not write metrics to %s: %v", cfg.MetricsTextfile, werr)
		}
	}
	return err
}
