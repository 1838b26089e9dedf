package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"canvasctl/internal/cli"
)

func main() {
	// Cancel in-flight API calls and downloads on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
