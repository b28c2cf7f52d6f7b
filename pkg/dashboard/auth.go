package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey int

const sessionCtxKey ctxKey = iota

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

// sessionFrom returns the session attached by authenticate.
func sessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey).(*Session)
	return s
}

func (s *Server) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, s.cookie(stateCookie, state, 600))
	http.Redirect(w, r, s.auth.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || state.Value != q.Get("state") {
		http.Redirect(w, r, s.cfg.BaseURL+"/?error=invalid_state", http.StatusFound)
		return
	}
	http.SetCookie(w, s.cookie(stateCookie, "", -1))

	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, s.cfg.BaseURL+"/?error=no_code", http.StatusFound)
		return
	}

	user, guilds, err := s.auth.Identify(r.Context(), code)
	if err != nil {
		s.l.Error("Error identifying dashboard user", slog.String(logging.KeyError, err.Error()))
		http.Redirect(w, r, s.cfg.BaseURL+"/?error=callback_error", http.StatusFound)
		return
	}

	id := uuid.New().String()
	token, expires, err := s.tokens.Issue(id)
	if err != nil {
		s.l.Error("Error issuing session token", slog.String(logging.KeyError, err.Error()))
		http.Redirect(w, r, s.cfg.BaseURL+"/?error=callback_error", http.StatusFound)
		return
	}

	session := &Session{
		ID:        id,
		User:      *user,
		Guilds:    guilds,
		ExpiresAt: expires,
	}
	if err := s.sessions.Save(r.Context(), session); err != nil {
		s.l.Error("Error saving session", slog.String(logging.KeyError, err.Error()))
		http.Redirect(w, r, s.cfg.BaseURL+"/?error=callback_error", http.StatusFound)
		return
	}

	http.SetCookie(w, s.cookie(sessionCookie, token, int(s.tokens.ttl.Seconds())))
	s.l.Info("Dashboard login", slog.String(logging.KeyUser, user.ID))
	http.Redirect(w, r, s.cfg.BaseURL+"/dashboard", http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := s.tokens.Parse(c.Value); err == nil {
			if err := s.sessions.Delete(r.Context(), id); err != nil {
				s.l.Warn("Error deleting session", slog.String(logging.KeyError, err.Error()))
			}
		}
	}
	http.SetCookie(w, s.cookie(sessionCookie, "", -1))
	http.Redirect(w, r, s.cfg.BaseURL+"/", http.StatusFound)
}

// authenticate rejects requests without a live session.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			request.Encode(s.l, w, http.StatusUnauthorized, request.NewMessage(request.ErrUnauthorized.Error()))
			return
		}

		id, err := s.tokens.Parse(c.Value)
		if err != nil {
			request.Encode(s.l, w, http.StatusUnauthorized, request.NewMessage(request.ErrUnauthorized.Error()))
			return
		}

		session, err := s.sessions.Load(r.Context(), id)
		if errors.Is(err, ErrNoSession) {
			request.Encode(s.l, w, http.StatusUnauthorized, request.NewMessage(request.ErrUnauthorized.Error()))
			return
		} else if err != nil {
			s.l.Error("Error loading session", slog.String(logging.KeyError, err.Error()))
			request.Encode(s.l, w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r.Context())
		if session != nil && !s.limits.allow(session.ID, s.now()) {
			w.Header().Set("Retry-After", "1")
			request.Encode(s.l, w, http.StatusTooManyRequests, request.NewMessage(request.ErrTooManyRequests.Error()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// guildAccess rejects users that cannot manage the guild in the path.
func (s *Server) guildAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r.Context())
		if session == nil || !session.CanManage(mux.Vars(r)["guildID"]) {
			request.Encode(s.l, w, http.StatusForbidden, request.NewMessage(request.ErrForbidden.Error()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
