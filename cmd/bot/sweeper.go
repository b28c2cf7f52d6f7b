package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/logging"
)

// runAutoClose closes inactive tickets every interval until ctx is cancelled.
func (a *App) runAutoClose(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.l.Info("Auto close sweeper started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Tickets().CloseAllInactive(ctx); err != nil {
				AutoCloseSweeps.WithLabelValues("error").Inc()
				a.l.Error("Error closing inactive tickets", slog.String(logging.KeyError, err.Error()))
				continue
			}
			AutoCloseSweeps.WithLabelValues("ok").Inc()
		}
	}
}
