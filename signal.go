package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// interruptContext returns a context that cancels on the first SIGINT or
// SIGTERM, abandoning the in-flight request or consent prompt. A second
// signal exits immediately.
func interruptContext(parent context.Context, logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Debug("interrupted", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case <-sigCh:
			os.Exit(exitInterrupted)
		case <-parent.Done():
			return
		}
	}()

	return ctx
}
