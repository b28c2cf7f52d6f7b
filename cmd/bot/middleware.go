package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/request"
	"github.com/gorilla/mux"
)

// middlewareHttp recovers from panics and records request metrics by route template.
func middlewareHttp(handler http.HandlerFunc, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// The status code is only known once the handler has returned.
			code := strconv.Itoa(cw.StatusCode())
			HttpTotalRequests.WithLabelValues(path, r.Method, code).Inc()
			HttpRequestDuration.WithLabelValues(path, r.Method, code).Observe(time.Since(now).Seconds())
		}()

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				if !cw.WroteHeader() {
					request.Encode(a.Log(), cw, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
				}
			}
		}()

		handler(cw, r)
	}
}

func (a *App) dashboardMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return middlewareHttp(next, a)
}

// interactionProcessor handles one kind of interaction.
type interactionProcessor func(a IApp, i *discordgo.InteractionCreate) error

type prefixRoute struct {
	prefix    string
	processor interactionProcessor
}

// router maps slash command names and component or modal custom IDs to processors. Custom IDs are matched exactly
// first, then by the longest registered prefix.
type router struct {
	commands   map[string]interactionProcessor
	components map[string]interactionProcessor
	prefixes   []prefixRoute
	modals     []prefixRoute
}

func (rt *router) component(customID string) (interactionProcessor, string, bool) {
	if p, ok := rt.components[customID]; ok {
		return p, customID, true
	}
	return matchPrefix(rt.prefixes, customID)
}

// matchPrefix returns the processor of the longest matching prefix. The prefix is returned as the name so that
// metric labels do not carry IDs.
func matchPrefix(routes []prefixRoute, customID string) (interactionProcessor, string, bool) {
	var best *prefixRoute
	for idx := range routes {
		r := &routes[idx]
		if strings.HasPrefix(customID, r.prefix) && (best == nil || len(r.prefix) > len(best.prefix)) {
			best = r
		}
	}
	if best == nil {
		return nil, customID, false
	}
	return best.processor, strings.TrimRight(best.prefix, ":_"), true
}

// route returns the processor for the interaction and the name it is recorded under.
func (rt *router) route(i *discordgo.InteractionCreate) (interactionProcessor, string, bool) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		p, ok := rt.commands[name]
		return p, name, ok
	case discordgo.InteractionMessageComponent:
		return rt.component(i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		return matchPrefix(rt.modals, i.ModalSubmitData().CustomID)
	default:
		return nil, "", false
	}
}

// interactionHandler dispatches interactions. Domain errors are shown to the user, anything else is logged and the
// user gets a generic reply.
func interactionHandler(a IApp, rt *router) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" || i.Member == nil {
			return
		}

		processor, name, ok := rt.route(i)
		if !ok {
			a.Log().Warn("No processor found for interaction",
				slog.String(logging.KeyCommand, name),
				slog.Int("type", int(i.Type)),
			)
			if err := respondSlashEphemeral(a, i, "This interaction is no longer supported."); err != nil {
				a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
			return
		}

		l := a.Log().With(
			slog.String(logging.KeyCommand, name),
			slog.String(logging.KeyGuild, i.GuildID),
			slog.String(logging.KeyChannel, i.ChannelID),
			slog.String(logging.KeyUser, i.Member.User.ID),
		)

		start := time.Now()
		outcome := "ok"
		defer func() {
			if rec := recover(); rec != nil {
				outcome = "error"
				l.Error("Panic handling interaction",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				replyError(a, i, messages.ErrUserErrorProcessing)
			}
			DiscordCommandDuration.WithLabelValues(name, outcome).Observe(time.Since(start).Seconds())
		}()

		l.Debug("Handling interaction")
		err := processor(a, i)
		if err == nil {
			return
		}

		text, domain := messages.ForError(err)
		if domain {
			outcome = "rejected"
			l.Debug("Interaction rejected", slog.String(logging.KeyError, err.Error()))
		} else {
			outcome = "error"
			l.Error("Error processing interaction", slog.String(logging.KeyError, err.Error()))
		}
		replyError(a, i, text)
	}
}
