package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/causalest/causalest/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.GetLogger().Error("causalest failed", "error", err)
		os.Exit(1)
	}
}
