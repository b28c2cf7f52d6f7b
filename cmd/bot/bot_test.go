package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/cmd/bot/config"
	"github.com/Jacobbrewer1/rabbit/pkg/applications"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/panels"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type fakeApp struct {
	l *slog.Logger
}

func (f *fakeApp) Log() *slog.Logger                   { return f.l }
func (f *fakeApp) Session() *discordgo.Session         { return nil }
func (f *fakeApp) Config() *config.Config              { return new(config.Config) }
func (f *fakeApp) Store() dataaccess.Store             { return nil }
func (f *fakeApp) Platform() platform.Client           { return nil }
func (f *fakeApp) Tickets() *tickets.Service           { return nil }
func (f *fakeApp) Applications() *applications.Service { return nil }
func (f *fakeApp) Panels() *panels.Service             { return nil }

// recorder returns a processor that records its name in called.
func recorder(called *string, name string) interactionProcessor {
	return func(IApp, *discordgo.InteractionCreate) error {
		*called = name
		return nil
	}
}

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: customID},
	}}
}

func TestMatchPrefix(t *testing.T) {
	var called string
	routes := []prefixRoute{
		{prefix: "app_", processor: recorder(&called, "short")},
		{prefix: "app_accept_", processor: recorder(&called, "long")},
	}

	p, name, ok := matchPrefix(routes, "app_accept_123")
	require.True(t, ok)
	require.Equal(t, "app_accept", name)
	require.NoError(t, p(nil, nil))
	require.Equal(t, "long", called)

	p, name, ok = matchPrefix(routes, "app_other")
	require.True(t, ok)
	require.Equal(t, "app", name)
	require.NoError(t, p(nil, nil))
	require.Equal(t, "short", called)

	_, name, ok = matchPrefix(routes, "unknown")
	require.False(t, ok)
	require.Equal(t, "unknown", name)
}

func TestRouter_Route(t *testing.T) {
	var called string
	rt := &router{
		commands: map[string]interactionProcessor{
			claimCmdName: recorder(&called, "claim"),
		},
		components: map[string]interactionProcessor{
			messages.TicketCloseID: recorder(&called, "close"),
		},
		prefixes: []prefixRoute{
			{prefix: messages.FeedbackPrefix, processor: recorder(&called, "feedback")},
		},
		modals: []prefixRoute{
			{prefix: messages.ApplicationSubmitPrefix, processor: recorder(&called, "modal")},
		},
	}

	tests := []struct {
		name     string
		i        *discordgo.InteractionCreate
		wantName string
		want     string
	}{
		{
			name: "command",
			i: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				Type: discordgo.InteractionApplicationCommand,
				Data: discordgo.ApplicationCommandInteractionData{Name: claimCmdName},
			}},
			wantName: claimCmdName,
			want:     "claim",
		},
		{
			name:     "exact component",
			i:        componentInteraction(messages.TicketCloseID),
			wantName: messages.TicketCloseID,
			want:     "close",
		},
		{
			name:     "prefixed component",
			i:        componentInteraction(messages.FeedbackID(4)),
			wantName: "feedback",
			want:     "feedback",
		},
		{
			name: "modal",
			i: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				Type: discordgo.InteractionModalSubmit,
				Data: discordgo.ModalSubmitInteractionData{CustomID: messages.ApplicationSubmitID("type-1")},
			}},
			want: "modal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = ""
			p, name, ok := rt.route(tt.i)
			require.True(t, ok)
			if tt.wantName != "" {
				require.Equal(t, tt.wantName, name)
			}
			require.NoError(t, p(nil, tt.i))
			require.Equal(t, tt.want, called)
		})
	}

	_, _, ok := rt.route(componentInteraction("nothing"))
	require.False(t, ok)
}

func TestNewRouter_CoversControls(t *testing.T) {
	rt := newRouter()

	ids := []string{
		messages.TicketCloseID,
		messages.TicketClaimID,
		messages.TicketDeleteID,
		messages.TicketSelectID,
		messages.FeedbackID(5),
		messages.CreateTicketID("support"),
		messages.ApplicationStartID("t1"),
		messages.AcceptID("t1"),
		messages.DenyID("t1"),
	}
	for _, id := range ids {
		_, _, ok := rt.component(id)
		require.True(t, ok, id)
	}

	for _, cmd := range slashCommands() {
		_, ok := rt.commands[cmd.Name]
		require.True(t, ok, cmd.Name)
		require.Equal(t, discordgo.ChatApplicationCommand, cmd.Type)
	}
}

func TestCommandOptions(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: ticketSettingsCmdName,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "limit",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "limit", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
					{Name: optUser, Type: discordgo.ApplicationCommandOptionUser, Value: "u1"},
					{Name: "required", Type: discordgo.ApplicationCommandOptionBoolean, Value: false},
				},
			}},
		},
	}}

	sub, opts := commandOptions(i)
	require.Equal(t, "limit", sub)

	limit, ok := opts.Int("limit")
	require.True(t, ok)
	require.Equal(t, 3, limit)

	require.Equal(t, "u1", opts.String(optUser))
	require.Empty(t, opts.String("missing"))

	required, ok := opts.Bool("required")
	require.True(t, ok)
	require.False(t, required)

	_, ok = opts.Bool("missing")
	require.False(t, ok)
}

func TestModalValues(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionModalSubmit,
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: messages.ApplicationSubmitID("t1"),
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: messages.QuestionID("q1"), Value: "first"},
				}},
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: messages.QuestionID("q2"), Value: "second"},
				}},
			},
		},
	}}

	values := modalValues(i)
	require.Equal(t, map[string]string{
		messages.QuestionID("q1"): "first",
		messages.QuestionID("q2"): "second",
	}, values)
}

func TestMiddlewareHttp_Recovers(t *testing.T) {
	a := &fakeApp{l: slog.Default()}

	r := mux.NewRouter()
	r.HandleFunc("/panic/{id}", middlewareHttp(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, a))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic/1", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body)
}

func TestMiddlewareHttp_KeepsStatus(t *testing.T) {
	a := &fakeApp{l: slog.Default()}

	r := mux.NewRouter()
	r.HandleFunc("/teapot", middlewareHttp(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}, a))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.Equal(t, http.StatusTeapot, w.Code)
}
