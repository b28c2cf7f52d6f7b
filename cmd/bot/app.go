package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/cmd/bot/config"
	"github.com/Jacobbrewer1/rabbit/pkg/applications"
	"github.com/Jacobbrewer1/rabbit/pkg/dashboard"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/panels"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/request"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppName is the name of the application.
const AppName = "rabbit"

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"

	shutdownTimeout = 10 * time.Second
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the application logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	Config() *config.Config
	Store() dataaccess.Store
	Platform() platform.Client
	Tickets() *tickets.Service
	Applications() *applications.Service
	Panels() *panels.Service
}

type App struct {
	l   *slog.Logger
	cfg *config.Config

	// r is the router for the monitoring server.
	r *mux.Router

	// servers are the monitoring server and, when configured, the dashboard server.
	servers []*http.Server

	// s is the discord session.
	s *discordgo.Session

	mongo *mongo.Client

	// redis is nil when no redis URL is configured.
	redis *redis.Client

	store     dataaccess.Store
	client    platform.Client
	tickets   *tickets.Service
	apps      *applications.Service
	panels    *panels.Service
	dashboard *dashboard.Server

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any
}

// NewApp creates a new instance of App. dash is nil when the dashboard is not configured.
func NewApp(
	l *slog.Logger,
	cfg *config.Config,
	r *mux.Router,
	s *discordgo.Session,
	mongoClient *mongo.Client,
	redisClient *redis.Client,
	store dataaccess.Store,
	client platform.Client,
	ticketSvc *tickets.Service,
	apps *applications.Service,
	panelSvc *panels.Service,
	dash *dashboard.Server,
) *App {
	return &App{
		l:         l,
		cfg:       cfg,
		r:         r,
		s:         s,
		mongo:     mongoClient,
		redis:     redisClient,
		store:     store,
		client:    client,
		tickets:   ticketSvc,
		apps:      apps,
		panels:    panelSvc,
		dashboard: dash,
	}
}

func (a *App) Log() *slog.Logger                   { return a.l }
func (a *App) Session() *discordgo.Session         { return a.s }
func (a *App) Config() *config.Config              { return a.cfg }
func (a *App) Store() dataaccess.Store             { return a.store }
func (a *App) Platform() platform.Client           { return a.client }
func (a *App) Tickets() *tickets.Service           { return a.tickets }
func (a *App) Applications() *applications.Service { return a.apps }
func (a *App) Panels() *panels.Service             { return a.panels }

// Run connects to Discord and serves until an interrupt or terminate signal is received.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dataaccess.EnsureIndexes(ctx, a.mongo.Database(a.cfg.MongoDatabase)); err != nil {
		return fmt.Errorf("error ensuring indexes: %w", err)
	}

	// Default the number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	// Buffered so that a slow listener does not block the gateway.
	a.eventNotifier = make(chan any, 100)
	a.s.SetEventNotifier(a.eventNotifier)
	go a.eventListener()

	a.s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.l.Info(fmt.Sprintf("Logged in as %s", r.User.Username), slog.Int("guilds", len(r.Guilds)))
	})
	a.registerDiscordHandlers()

	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}
	a.l.Info("Bot is now running")

	a.setupRoutes()
	a.serve(&http.Server{
		Addr:              ":" + a.cfg.MonitoringPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}, "monitoring")

	if a.dashboard != nil {
		a.serve(&http.Server{
			Addr:              ":" + a.cfg.DashboardPort,
			Handler:           a.dashboard.Handler(a.dashboardMiddleware),
			ReadHeaderTimeout: 5 * time.Second,
		}, "dashboard")
	} else {
		a.l.Warn("Dashboard is not configured and will not be available")
	}

	go a.runAutoClose(ctx, a.cfg.AutoCloseInterval)

	<-ctx.Done()
	a.l.Info("Received shutdown signal")
	return a.shutdown()
}

func (a *App) shutdown() error {
	TotalDiscordGuilds.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make([]error, 0)
	for _, svr := range a.servers {
		if err := svr.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down server on %s: %w", svr.Addr, err))
		}
	}

	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	a.r.NotFoundHandler = request.NotFoundHandler(a.l)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.l)
}

func (a *App) serve(svr *http.Server, name string) {
	a.servers = append(a.servers, svr)

	go func() {
		a.l.Info("Starting server", slog.String("server", name), slog.String("addr", svr.Addr))
		if err := svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.l.Error("Error running server", slog.String("server", name), slog.String(logging.KeyError, err.Error()))
			a.l.Warn(fmt.Sprintf("The %s server will not be available", name))
		}
	}()
}

func (a *App) registerDiscordHandlers() {
	a.s.AddHandler(guildJoinedHandler(a))
	a.s.AddHandler(guildLeaveHandler(a))
	a.s.AddHandler(memberJoinedHandler(a))
	a.s.AddHandler(messageCreateHandler(a))
	a.s.AddHandler(interactionHandler(a, newRouter()))
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.l.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}
