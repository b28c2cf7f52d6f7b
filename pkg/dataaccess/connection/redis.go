package connection

import (
	"context"
	"fmt"
	"time"

	dbMonitoring "github.com/Jacobbrewer1/rabbit/pkg/dataaccess/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string
}

// Connect parses the URL, connects and pings redis.
func (r *Redis) Connect(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := PingRedis(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// PingRedis pings redis, recording the latency of the check.
func PingRedis(ctx context.Context, client redis.UniversalClient) error {
	t := prometheus.NewTimer(dbMonitoring.RedisLatency.WithLabelValues("health_check", "ping"))
	defer t.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("error pinging redis: %w", err)
	}
	return nil
}
