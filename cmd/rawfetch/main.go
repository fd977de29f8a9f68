package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spachava753/rawfetch/internal/cli"
)

func main() {
	// Setup context with manual signal handling
	ctx, cancel := context.WithCancel(context.Background())

	// Listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("interrupt received, cancelling in-flight downloads", "signal", sig)
		cancel()
	}()

	err := cli.Execute(ctx)

	signal.Stop(sigChan)
	cancel()

	if err != nil {
		cli.ReportError(os.Stderr, err)
	}
	os.Exit(cli.ExitCode(err))
}
