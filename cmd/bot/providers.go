package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/cmd/bot/config"
	"github.com/Jacobbrewer1/rabbit/pkg/applications"
	"github.com/Jacobbrewer1/rabbit/pkg/dashboard"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/panels"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/Jacobbrewer1/rabbit/pkg/transcript"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const connectTimeout = 15 * time.Second

func provideMongo(l *slog.Logger, cfg *config.Config) (*mongo.Client, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	conn := &connection.MongoDB{ConnectionString: cfg.MongoUri}
	client, err := conn.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	l.Debug("Connected to MongoDB", slog.String("database", cfg.MongoDatabase))

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return client, cleanup, nil
}

func provideDatabase(client *mongo.Client, cfg *config.Config) *mongo.Database {
	return client.Database(cfg.MongoDatabase)
}

// provideRedis returns a nil client when no redis URL is configured.
func provideRedis(l *slog.Logger, cfg *config.Config) (*redis.Client, func(), error) {
	if cfg.RedisUrl == "" {
		l.Info("No redis URL provided, guild caching is disabled and sessions are held in memory",
			slog.String("key", config.EnvRedisUrl))
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := (&connection.Redis{URL: cfg.RedisUrl}).Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	l.Debug("Connected to Redis")
	return client, func() { _ = client.Close() }, nil
}

// provideCache avoids handing a typed nil client to code that checks the interface for nil.
func provideCache(client *redis.Client) dataaccess.Cache {
	if client == nil {
		return nil
	}
	return client
}

func provideStore(l *slog.Logger, db *mongo.Database, cache dataaccess.Cache) dataaccess.Store {
	return dataaccess.NewMongoStore(l, db, cache)
}

func provideDiscordSession(cfg *config.Config) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(
		discordgo.IntentsGuilds |
			discordgo.IntentsGuildMembers |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsMessageContent,
	)
	return dg, nil
}

func providePlatform(s *discordgo.Session) platform.Client {
	return platform.NewDiscord(s)
}

func provideTranscripts(l *slog.Logger, client platform.Client, cfg *config.Config) *transcript.Generator {
	return transcript.NewGenerator(l, client, cfg.TranscriptDir)
}

func provideTickets(l *slog.Logger, store dataaccess.Store, client platform.Client, gen tickets.Transcriber, sink *notify.Sink) *tickets.Service {
	return tickets.NewService(l, store, client, gen, sink)
}

func provideApplications(l *slog.Logger, store dataaccess.Store, client platform.Client, opener applications.TicketOpener, sink *notify.Sink) *applications.Service {
	return applications.NewService(l, store, client, opener, sink)
}

func provideSessionStore(cache dataaccess.Cache) dashboard.SessionStore {
	if cache == nil {
		return dashboard.NewMemorySessionStore()
	}
	return dashboard.NewRedisSessionStore(cache)
}

// provideDashboard returns nil when the OAuth client or session secret is not configured.
func provideDashboard(
	l *slog.Logger,
	cfg *config.Config,
	s *discordgo.Session,
	sessions dashboard.SessionStore,
	store dataaccess.Store,
	client platform.Client,
	apps *applications.Service,
	panelSvc *panels.Service,
) *dashboard.Server {
	if !cfg.DashboardEnabled() {
		return nil
	}

	inGuild := func(guildID string) bool {
		_, err := s.State.Guild(guildID)
		return err == nil
	}

	return dashboard.NewServer(
		l.With(slog.String(logging.KeyComponent, "dashboard")),
		&dashboard.Config{
			BaseURL:        cfg.DashboardUrl,
			AllowedOrigins: []string{cfg.DashboardUrl},
			Secure:         cfg.Production(),
		},
		sessions,
		dashboard.NewTokens(cfg.SessionSecret, dashboard.DefaultSessionTTL),
		dashboard.NewDiscordAuth(cfg.ClientId, cfg.ClientSecret, cfg.DashboardUrl+"/callback"),
		store,
		client,
		apps,
		panelSvc,
		inGuild,
	)
}
