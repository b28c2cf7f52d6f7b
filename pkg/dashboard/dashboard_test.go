package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/applications"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess/dataaccesstest"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/panels"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/Jacobbrewer1/rabbit/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeAuth struct {
	user   *User
	guilds []Guild
	err    error
}

func (f *fakeAuth) AuthCodeURL(state string) string {
	return "https://discord.example/authorize?state=" + state
}

func (f *fakeAuth) Identify(context.Context, string) (*User, []Guild, error) {
	return f.user, f.guilds, f.err
}

type harness struct {
	store    *dataaccesstest.Store
	client   *platformtest.Client
	sessions SessionStore
	tokens   *Tokens
	auth     *fakeAuth
	srv      *Server
	handler  http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := dataaccesstest.NewStore()
	client := platformtest.NewClient()
	sink := notify.NewSink(slog.Default(), client)
	ticketSvc := tickets.NewService(slog.Default(), store, client, nil, sink)

	h := &harness{
		store:    store,
		client:   client,
		sessions: NewMemorySessionStore(),
		tokens:   NewTokens("secret", time.Hour),
		auth: &fakeAuth{
			user: &User{ID: "100", Username: "admin"},
			guilds: []Guild{
				{ID: "g1", Name: "Managed", Permissions: permissions.ManageGuild},
				{ID: "g2", Name: "Member", Permissions: 0},
			},
		},
	}
	h.srv = NewServer(
		slog.Default(),
		&Config{BaseURL: "https://dash.example", AllowedOrigins: []string{"https://dash.example"}},
		h.sessions,
		h.tokens,
		h.auth,
		store,
		client,
		applications.NewService(slog.Default(), store, client, ticketSvc, sink),
		panels.NewService(slog.Default(), store, client, ticketSvc),
		func(guildID string) bool { return guildID == "g1" },
	)
	h.handler = h.srv.Handler(nil)
	return h
}

// login creates a session for the fake user and returns its cookie.
func (h *harness) login(t *testing.T) *http.Cookie {
	t.Helper()

	token, expires, err := h.tokens.Issue("s1")
	require.NoError(t, err)
	require.NoError(t, h.sessions.Save(context.Background(), &Session{
		ID:        "s1",
		User:      *h.auth.user,
		Guilds:    h.auth.guilds,
		ExpiresAt: expires,
	}))
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func (h *harness) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, r)
	return w
}

func TestAPI_RequiresSession(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/user", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodGet, "/api/user", "", &http.Cookie{Name: sessionCookie, Value: "forged"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid token for a session that no longer exists.
	token, _, err := h.tokens.Issue("gone")
	require.NoError(t, err)
	w = h.do(t, http.MethodGet, "/api/user", "", &http.Cookie{Name: sessionCookie, Value: token})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodGet, "/api/user", "", h.login(t))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_GuildAccess(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	w := h.do(t, http.MethodGet, "/api/guild/g2/settings", "", cookie)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodGet, "/api/guild/g3/settings", "", cookie)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Never referenced by the bot.
	w = h.do(t, http.MethodGet, "/api/guild/g1/settings", "", cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Guilds(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/guilds", "", h.login(t))
	require.Equal(t, http.StatusOK, w.Code)

	var got []guildResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	require.Equal(t, "g1", got[0].ID)
	require.True(t, got[0].BotInGuild)
}

func TestAPI_Settings(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	w := h.do(t, http.MethodPost, "/api/guild/g1/settings", `{"ticket_limit":0}`, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/guild/g1/settings", `{"ticket_counter":99}`, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/guild/g1/settings", `{"ticket_limit":5,"auto_close_hours":48}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/guild/g1/settings", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	got := new(entities.Guild)
	require.NoError(t, json.NewDecoder(w.Body).Decode(got))
	require.Equal(t, 5, got.TicketLimit)
	require.Equal(t, 48, got.AutoCloseHours)
	require.Zero(t, got.TicketCounter)
}

func TestAPI_Stats(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	rating := 4
	h.store.PutGuild(&entities.Guild{ID: "g1", TicketCounter: 3})
	h.store.PutTicket(&entities.Ticket{ID: "t1", GuildID: "g1", ChannelID: "c1", Number: 1, Status: entities.TicketStatusOpen})
	h.store.PutTicket(&entities.Ticket{ID: "t2", GuildID: "g1", ChannelID: "c2", Number: 2, Status: entities.TicketStatusClosed, Rating: &rating})

	w := h.do(t, http.MethodGet, "/api/guild/g1/stats", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	got := new(statsResponse)
	require.NoError(t, json.NewDecoder(w.Body).Decode(got))
	require.EqualValues(t, 1, got.OpenTickets)
	require.EqualValues(t, 1, got.ClosedTickets)
	require.Equal(t, 3, got.TotalTickets)
	require.NotNil(t, got.AverageRating)
	require.InDelta(t, 4.0, *got.AverageRating, 1e-9)
	require.Len(t, got.RecentTickets, 2)
}

func TestAPI_Tickets(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	for i := 1; i <= 3; i++ {
		h.store.PutTicket(&entities.Ticket{
			ID:        string(rune('a' + i)),
			GuildID:   "g1",
			ChannelID: string(rune('a' + i)),
			Number:    i,
			Status:    entities.TicketStatusOpen,
		})
	}

	w := h.do(t, http.MethodGet, "/api/guild/g1/tickets?status=bogus", "", cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/guild/g1/tickets?status=open&limit=2&page=2", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	got := new(pageResponse[*entities.Ticket])
	require.NoError(t, json.NewDecoder(w.Body).Decode(got))
	require.EqualValues(t, 3, got.Total)
	require.Equal(t, 2, got.TotalPages)
	require.Len(t, got.Items, 1)
	require.Equal(t, 1, got.Items[0].Number)
}

func TestAPI_ApplicationTypes(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	w := h.do(t, http.MethodPost, "/api/guild/g1/application-types", `{"name":"<b>Staff</b>","description":"Join us"}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	at := new(entities.ApplicationType)
	require.NoError(t, json.NewDecoder(w.Body).Decode(at))
	require.Equal(t, "Staff", at.Name)

	w = h.do(t, http.MethodPost, "/api/guild/g1/application-types/"+at.ID+"/questions", `{"text":"Why?","type":"paragraph","required":true}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	w = h.do(t, http.MethodPatch, "/api/guild/g1/application-types/"+at.ID, `{"cooldown_hours":-1}`, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/guild/g1/application-types", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var list []applicationTypeSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	require.Equal(t, 1, list[0].QuestionCount)

	w = h.do(t, http.MethodDelete, "/api/guild/g1/application-types/"+at.ID+"/questions/x", "", cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodDelete, "/api/guild/g1/application-types/"+at.ID+"/questions/1", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	// Types of another guild are hidden.
	h.auth.guilds = append(h.auth.guilds, Guild{ID: "g9", Permissions: permissions.Administrator})
	cookie = h.login(t)
	w = h.do(t, http.MethodDelete, "/api/guild/g9/application-types/"+at.ID, "", cookie)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodDelete, "/api/guild/g1/application-types/"+at.ID, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"deleted":true}`, w.Body.String())
}

func TestAPI_Blacklist(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	w := h.do(t, http.MethodPost, "/api/guild/g1/blacklist", `{"user_id":"abc"}`, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/guild/g1/blacklist", `{"user_id":"200","reason":"<script>x</script>spam"}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	entry, err := h.store.Blacklist().GetBlacklistEntry(context.Background(), "g1", "200")
	require.NoError(t, err)
	require.Equal(t, "spam", entry.Reason)
	require.Equal(t, "100", entry.AddedBy)

	w = h.do(t, http.MethodDelete, "/api/guild/g1/blacklist/200", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodDelete, "/api/guild/g1/blacklist/200", "", cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Panels(t *testing.T) {
	h := newHarness(t)
	h.client.AddChannel("g1", "c1")
	cookie := h.login(t)

	w := h.do(t, http.MethodPost, "/api/guild/g1/panels", `{"channel_id":"c1","title":"Support","ticket_types":[]}`, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/guild/g1/panels", `{"channel_id":"c1","title":"Support","ticket_types":[{"name":"general","label":"General"}]}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	p := new(entities.Panel)
	require.NoError(t, json.NewDecoder(w.Body).Decode(p))
	require.Equal(t, "g1", p.GuildID)

	w = h.do(t, http.MethodDelete, "/api/guild/g1/panels/"+p.ID, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_ForeignChannels(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	foreign, err := h.client.CreateChannel(context.Background(), "g2", "their-support", "", nil)
	require.NoError(t, err)
	h.client.AddChannel("g1", "logs")
	h.store.PutGuild(&entities.Guild{ID: "g1"})

	w := h.do(t, http.MethodPost, "/api/guild/g1/application-types", `{"name":"Staff"}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	at := new(entities.ApplicationType)
	require.NoError(t, json.NewDecoder(w.Body).Decode(at))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{
			name:   "panel channel",
			method: http.MethodPost,
			path:   "/api/guild/g1/panels",
			body:   `{"channel_id":"` + foreign.ID + `","title":"Support","ticket_types":[{"name":"general","label":"General"}]}`,
		},
		{
			name:   "ticket type category",
			method: http.MethodPost,
			path:   "/api/guild/g1/panels",
			body:   `{"channel_id":"logs","title":"Support","ticket_types":[{"name":"general","label":"General","category_id":"` + foreign.ID + `"}]}`,
		},
		{
			name:   "log channel",
			method: http.MethodPost,
			path:   "/api/guild/g1/settings",
			body:   `{"log_channel_id":"` + foreign.ID + `"}`,
		},
		{
			name:   "transcript channel",
			method: http.MethodPost,
			path:   "/api/guild/g1/settings",
			body:   `{"transcript_channel_id":"` + foreign.ID + `"}`,
		},
		{
			name:   "ticket category",
			method: http.MethodPost,
			path:   "/api/guild/g1/settings",
			body:   `{"category_id":"` + foreign.ID + `"}`,
		},
		{
			name:   "application log channel",
			method: http.MethodPatch,
			path:   "/api/guild/g1/application-types/" + at.ID,
			body:   `{"log_channel_id":"` + foreign.ID + `"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, tt.method, tt.path, tt.body, cookie)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	require.Empty(t, h.client.Sent(foreign.ID))
	require.Empty(t, h.client.Sent("logs"))

	w = h.do(t, http.MethodGet, "/api/guild/g1/settings", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	got := new(entities.Guild)
	require.NoError(t, json.NewDecoder(w.Body).Decode(got))
	require.Empty(t, got.LogChannelID)
	require.Empty(t, got.TranscriptChannelID)
	require.Empty(t, got.CategoryID)

	// Channels of the guild itself are still accepted.
	w = h.do(t, http.MethodPost, "/api/guild/g1/settings", `{"log_channel_id":"logs"}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RateLimit(t *testing.T) {
	h := newHarness(t)
	h.srv.limits = newLimiters(rate.Every(time.Hour), 2)
	cookie := h.login(t)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/user", "", cookie).Code)
	}
	require.Equal(t, http.StatusTooManyRequests, h.do(t, http.MethodGet, "/api/user", "", cookie).Code)
}

func TestLogin_Flow(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/login", "", nil)
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	// The state must match the cookie.
	w = h.do(t, http.MethodGet, "/callback?code=abc&state=wrong", "", &http.Cookie{Name: stateCookie, Value: state})
	require.Equal(t, "https://dash.example/?error=invalid_state", w.Header().Get("Location"))

	w = h.do(t, http.MethodGet, "/callback?code=abc&state="+state, "", &http.Cookie{Name: stateCookie, Value: state})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "https://dash.example/dashboard", w.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	require.True(t, session.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, session.SameSite)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/user", "", session).Code)

	w = h.do(t, http.MethodGet, "/logout", "", session)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/user", "", session).Code)
}

func TestLogin_IdentifyFailure(t *testing.T) {
	h := newHarness(t)
	h.auth.err = errors.New("invalid_grant")

	w := h.do(t, http.MethodGet, "/callback?code=abc&state=s", "", &http.Cookie{Name: stateCookie, Value: "s"})
	require.Equal(t, "https://dash.example/?error=callback_error", w.Header().Get("Location"))
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, _, err := tokens.Issue("abc")
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "abc", id)

	_, err = NewTokens("other", time.Hour).Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSession_CanManage(t *testing.T) {
	s := &Session{Guilds: []Guild{
		{ID: "admin", Permissions: permissions.Administrator},
		{ID: "manage", Permissions: permissions.ManageGuild},
		{ID: "member", Permissions: 0x400},
	}}

	require.True(t, s.CanManage("admin"))
	require.True(t, s.CanManage("manage"))
	require.False(t, s.CanManage("member"))
	require.False(t, s.CanManage("unknown"))
}

func TestGuild_PermissionsDecodeFromString(t *testing.T) {
	var g Guild
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","name":"x","permissions":"2147483647"}`), &g))
	require.EqualValues(t, 2147483647, g.Permissions)
}
