package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess/connection"
	"github.com/alexliesenfeld/health"
)

func (a *App) statusListener(component string) func(ctx context.Context, name string, state health.CheckState) {
	return func(_ context.Context, name string, state health.CheckState) {
		a.l.Info(fmt.Sprintf("%s health check status changed", component),
			slog.String("name", name),
			slog.String("state", string(state.Status)),
		)
	}
}

func (a *App) healthCheck() http.HandlerFunc {
	opts := []health.CheckerOption{
		// Set a TTL of 1 second for the results of the checks.
		health.WithCacheDuration(1 * time.Second),

		// Set a timeout of 2 seconds for the checks.
		health.WithTimeout(2 * time.Second),

		health.WithCheck(health.Check{
			Name: "MongoDB",
			Check: func(ctx context.Context) error {
				return connection.Ping(ctx, a.mongo)
			},
			Timeout:        2 * time.Second,
			StatusListener: a.statusListener("MongoDB"),
		}),

		// The gateway is checked in the background as it is rate limited.
		health.WithPeriodicCheck(15*time.Second, 5*time.Second, health.Check{
			Name: "Discord_API",
			Check: func(ctx context.Context) error {
				if _, err := a.s.GatewayBot(); err != nil {
					return fmt.Errorf("failed to ping Discord API: %w", err)
				}
				return nil
			},
			Timeout:        3 * time.Second,
			StatusListener: a.statusListener("Discord API"),
		}),
	}

	if a.redis != nil {
		opts = append(opts, health.WithCheck(health.Check{
			Name: "Redis",
			Check: func(ctx context.Context) error {
				return connection.PingRedis(ctx, a.redis)
			},
			Timeout:        2 * time.Second,
			StatusListener: a.statusListener("Redis"),
		}))
	}

	return health.NewHandler(health.NewChecker(opts...))
}
