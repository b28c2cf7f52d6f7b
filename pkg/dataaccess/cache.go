package dataaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const cachedGuildDalName = "cached_guild_dal"

// DefaultCacheTTL is how long a cached guild is served before it is read again.
const DefaultCacheTTL = 5 * time.Minute

// Cache is the subset of the redis client used for caching.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// cachedGuildDal serves guild reads from redis. Every write goes to the wrapped layer first and then drops the
// cached copy.
type cachedGuildDal struct {
	l     *slog.Logger
	next  GuildDal
	cache Cache
	ttl   time.Duration
}

// NewCachedGuildDal wraps next with a read-through redis cache.
func NewCachedGuildDal(l *slog.Logger, next GuildDal, cache Cache, ttl time.Duration) GuildDal {
	return &cachedGuildDal{
		l:     l.With(slog.String(logging.KeyDal, cachedGuildDalName)),
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

func guildCacheKey(guildID string) string {
	return fmt.Sprintf("rabbit:guild:%s", guildID)
}

func (c *cachedGuildDal) observe(command string) *prometheus.Timer {
	return prometheus.NewTimer(monitoring.RedisLatency.WithLabelValues(cachedGuildDalName, command))
}

// lookup returns the cached guild, or nil when it is not cached. Cache errors are logged and treated as a miss.
func (c *cachedGuildDal) lookup(ctx context.Context, guildID string) *entities.Guild {
	t := c.observe("get")
	raw, err := c.cache.Get(ctx, guildCacheKey(guildID)).Bytes()
	t.ObserveDuration()

	if errors.Is(err, redis.Nil) {
		monitoring.CacheResults.WithLabelValues(cachedGuildDalName, "miss").Inc()
		return nil
	} else if err != nil {
		monitoring.CacheResults.WithLabelValues(cachedGuildDalName, "error").Inc()
		c.l.Warn("Error reading guild from cache", slog.String(logging.KeyGuild, guildID), slog.String(logging.KeyError, err.Error()))
		return nil
	}

	guild := new(entities.Guild)
	if err := json.Unmarshal(raw, guild); err != nil {
		monitoring.CacheResults.WithLabelValues(cachedGuildDalName, "error").Inc()
		c.l.Warn("Error decoding cached guild", slog.String(logging.KeyGuild, guildID), slog.String(logging.KeyError, err.Error()))
		return nil
	}

	monitoring.CacheResults.WithLabelValues(cachedGuildDalName, "hit").Inc()
	return guild
}

func (c *cachedGuildDal) store(ctx context.Context, guild *entities.Guild) {
	raw, err := json.Marshal(guild)
	if err != nil {
		c.l.Warn("Error encoding guild for cache", slog.String(logging.KeyGuild, guild.ID), slog.String(logging.KeyError, err.Error()))
		return
	}

	t := c.observe("set")
	defer t.ObserveDuration()

	if err := c.cache.Set(ctx, guildCacheKey(guild.ID), raw, c.ttl).Err(); err != nil {
		c.l.Warn("Error writing guild to cache", slog.String(logging.KeyGuild, guild.ID), slog.String(logging.KeyError, err.Error()))
	}
}

func (c *cachedGuildDal) invalidate(ctx context.Context, guildID string) {
	t := c.observe("del")
	defer t.ObserveDuration()

	if err := c.cache.Del(ctx, guildCacheKey(guildID)).Err(); err != nil {
		c.l.Warn("Error invalidating cached guild", slog.String(logging.KeyGuild, guildID), slog.String(logging.KeyError, err.Error()))
	}
}

func (c *cachedGuildDal) GetGuild(ctx context.Context, guildID string) (*entities.Guild, error) {
	if guild := c.lookup(ctx, guildID); guild != nil {
		return guild, nil
	}

	guild, err := c.next.GetGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, guild)
	return guild, nil
}

func (c *cachedGuildDal) GetOrCreateGuild(ctx context.Context, guildID string) (*entities.Guild, error) {
	if guild := c.lookup(ctx, guildID); guild != nil {
		return guild, nil
	}

	guild, err := c.next.GetOrCreateGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, guild)
	return guild, nil
}

func (c *cachedGuildDal) UpdateGuild(ctx context.Context, guildID string, update *entities.GuildUpdate) (*entities.Guild, error) {
	defer c.invalidate(ctx, guildID)
	return c.next.UpdateGuild(ctx, guildID, update)
}

func (c *cachedGuildDal) AddGuildRole(ctx context.Context, guildID string, set entities.GuildRoleSet, roleID string) (bool, error) {
	defer c.invalidate(ctx, guildID)
	return c.next.AddGuildRole(ctx, guildID, set, roleID)
}

func (c *cachedGuildDal) RemoveGuildRole(ctx context.Context, guildID string, set entities.GuildRoleSet, roleID string) (bool, error) {
	defer c.invalidate(ctx, guildID)
	return c.next.RemoveGuildRole(ctx, guildID, set, roleID)
}

func (c *cachedGuildDal) IncrementTicketCounter(ctx context.Context, guildID string) (int, error) {
	defer c.invalidate(ctx, guildID)
	return c.next.IncrementTicketCounter(ctx, guildID)
}

func (c *cachedGuildDal) ListAutoCloseGuilds(ctx context.Context) ([]*entities.Guild, error) {
	return c.next.ListAutoCloseGuilds(ctx)
}
