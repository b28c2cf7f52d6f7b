// Package dashboard serves the JSON API behind the web dashboard.
package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/applications"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/panels"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/request"
	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

const (
	sessionCookie = "rabbit_session"
	stateCookie   = "rabbit_oauth_state"
)

// Config is the dashboard configuration.
type Config struct {
	// BaseURL is where the dashboard is served. Users land on BaseURL + "/dashboard" after logging in.
	BaseURL string

	// AllowedOrigins may call the API from a browser.
	AllowedOrigins []string

	// Secure marks cookies as HTTPS only.
	Secure bool

	// RequestRate and RequestBurst limit each session's API calls.
	RequestRate  rate.Limit
	RequestBurst int
}

// Middleware wraps every route handler, typically with recovery and metrics.
type Middleware func(next http.HandlerFunc) http.HandlerFunc

// BotGuilds reports whether the bot is in a guild.
type BotGuilds func(guildID string) bool

type Server struct {
	l        *slog.Logger
	cfg      *Config
	sessions SessionStore
	tokens   *Tokens
	auth     Authenticator
	store    dataaccess.Store
	client   platform.Client
	apps     *applications.Service
	panels   *panels.Service
	inGuild  BotGuilds
	limits   *limiters
	policy   *bluemonday.Policy
	now      func() time.Time
}

func NewServer(
	l *slog.Logger,
	cfg *Config,
	sessions SessionStore,
	tokens *Tokens,
	auth Authenticator,
	store dataaccess.Store,
	client platform.Client,
	apps *applications.Service,
	panelSvc *panels.Service,
	inGuild BotGuilds,
) *Server {
	if cfg.RequestRate == 0 {
		cfg.RequestRate = rate.Every(time.Second / 5)
	}
	if cfg.RequestBurst == 0 {
		cfg.RequestBurst = 20
	}
	return &Server{
		l:        l,
		cfg:      cfg,
		sessions: sessions,
		tokens:   tokens,
		auth:     auth,
		store:    store,
		client:   client,
		apps:     apps,
		panels:   panelSvc,
		inGuild:  inGuild,
		limits:   newLimiters(cfg.RequestRate, cfg.RequestBurst),
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
	}
}

// Handler builds the dashboard routes. wrap is applied to every route.
func (s *Server) Handler(wrap Middleware) http.Handler {
	if wrap == nil {
		wrap = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	r := mux.NewRouter()
	r.NotFoundHandler = request.NotFoundHandler(s.l)
	r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(s.l)

	r.HandleFunc("/login", wrap(s.login)).Methods(http.MethodGet)
	r.HandleFunc("/callback", wrap(s.callback)).Methods(http.MethodGet)
	r.HandleFunc("/logout", wrap(s.logout)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate, s.rateLimit)
	api.HandleFunc("/user", wrap(s.user)).Methods(http.MethodGet)
	api.HandleFunc("/guilds", wrap(s.guilds)).Methods(http.MethodGet)

	g := api.PathPrefix("/guild/{guildID}").Subrouter()
	g.Use(s.guildAccess)
	g.HandleFunc("/stats", wrap(s.stats)).Methods(http.MethodGet)
	g.HandleFunc("/tickets", wrap(s.listTickets)).Methods(http.MethodGet)
	g.HandleFunc("/applications", wrap(s.listApplications)).Methods(http.MethodGet)
	g.HandleFunc("/settings", wrap(s.getSettings)).Methods(http.MethodGet)
	g.HandleFunc("/settings", wrap(s.updateSettings)).Methods(http.MethodPost)
	g.HandleFunc("/application-types", wrap(s.listApplicationTypes)).Methods(http.MethodGet)
	g.HandleFunc("/application-types", wrap(s.createApplicationType)).Methods(http.MethodPost)
	g.HandleFunc("/application-types/{typeID}", wrap(s.updateApplicationType)).Methods(http.MethodPatch)
	g.HandleFunc("/application-types/{typeID}", wrap(s.deleteApplicationType)).Methods(http.MethodDelete)
	g.HandleFunc("/application-types/{typeID}/questions", wrap(s.addQuestion)).Methods(http.MethodPost)
	g.HandleFunc("/application-types/{typeID}/questions/{order}", wrap(s.removeQuestion)).Methods(http.MethodDelete)
	g.HandleFunc("/panels", wrap(s.listPanels)).Methods(http.MethodGet)
	g.HandleFunc("/panels", wrap(s.createPanel)).Methods(http.MethodPost)
	g.HandleFunc("/panels/{panelID}", wrap(s.deletePanel)).Methods(http.MethodDelete)
	g.HandleFunc("/blacklist", wrap(s.listBlacklist)).Methods(http.MethodGet)
	g.HandleFunc("/blacklist", wrap(s.addBlacklist)).Methods(http.MethodPost)
	g.HandleFunc("/blacklist/{userID}", wrap(s.removeBlacklist)).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
