package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/desertthunder/spotapi/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := runner.app().Run(ctx, os.Args)
	stop()

	if closeErr := runner.Close(); closeErr != nil {
		logger.Warn("failed to close", "error", closeErr)
	}

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
