package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess/dataaccesstest"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/Jacobbrewer1/rabbit/pkg/transcript"
	"github.com/stretchr/testify/require"
)

const ticketChannel = "ticket-1"

type stubTranscripts struct{}

func (stubTranscripts) Generate(_ context.Context, _ *entities.Ticket, name string) (*transcript.File, error) {
	return &transcript.File{Path: "/tmp/" + name + ".html", Name: name + ".html", Data: []byte("<html></html>")}, nil
}

// storeApp is an app backed by the in-memory store and platform.
type storeApp struct {
	*fakeApp
	store   *dataaccesstest.Store
	client  *platformtest.Client
	tickets *tickets.Service
	delayed []func()
}

func (s *storeApp) Store() dataaccess.Store   { return s.store }
func (s *storeApp) Platform() platform.Client { return s.client }
func (s *storeApp) Tickets() *tickets.Service { return s.tickets }

// newStoreApp creates an app with an open ticket in ticketChannel created by u1. Members with the support role are
// staff.
func newStoreApp(t *testing.T) *storeApp {
	t.Helper()

	a := &storeApp{
		fakeApp: &fakeApp{l: slog.Default()},
		store:   dataaccesstest.NewStore(),
		client:  platformtest.NewClient(),
	}

	g := entities.NewGuild("g1")
	g.SupportRoles = custom.Snowflakes{"support"}
	a.store.PutGuild(g)
	a.store.PutTicket(&entities.Ticket{
		ID:        "t1",
		GuildID:   "g1",
		ChannelID: ticketChannel,
		UserID:    "u1",
		Number:    1,
		Status:    entities.TicketStatusOpen,
	})
	a.client.AddChannel("g1", ticketChannel)

	a.tickets = tickets.NewService(slog.Default(), a.store, a.client, stubTranscripts{}, notify.NewSink(slog.Default(), a.client),
		tickets.WithAfterFunc(func(_ time.Duration, f func()) { a.delayed = append(a.delayed, f) }),
	)
	return a
}

func message(channelID, userID, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "cmd-msg",
		GuildID:   "g1",
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: userID},
	}}
}

// lastEmbed returns the description of the last embed sent to the channel.
func lastEmbed(t *testing.T, c *platformtest.Client, channelID string) string {
	t.Helper()

	sent := c.Sent(channelID)
	require.NotEmpty(t, sent)
	last := sent[len(sent)-1]
	require.NotEmpty(t, last.Embeds)
	return last.Embeds[0].Description
}

var (
	creator = permissions.Actor{UserID: "u1"}
	support = permissions.Actor{UserID: "staff", Roles: []string{"support"}}
)

func TestRunPrefixCommand(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		content string
		actor   permissions.Actor
		check   func(t *testing.T, a *storeApp)
	}{
		{
			name:    "close passes the reason",
			channel: ticketChannel,
			content: "$close all sorted now",
			actor:   creator,
			check: func(t *testing.T, a *storeApp) {
				stored, err := a.tickets.Get(context.Background(), ticketChannel)
				require.NoError(t, err)
				require.False(t, stored.IsOpen())
				require.Equal(t, "all sorted now", stored.CloseReason)
				require.Equal(t, "u1", stored.ClosedBy)
				require.Equal(t, []string{"cmd-msg"}, a.client.DeletedMessages)
			},
		},
		{
			name:    "close is case insensitive",
			channel: ticketChannel,
			content: "$CLOSE",
			actor:   support,
			check: func(t *testing.T, a *storeApp) {
				stored, err := a.tickets.Get(context.Background(), ticketChannel)
				require.NoError(t, err)
				require.False(t, stored.IsOpen())
				require.Empty(t, stored.CloseReason)
			},
		},
		{
			name:    "rename without a name",
			channel: ticketChannel,
			content: "$rename   ",
			actor:   creator,
			check: func(t *testing.T, a *storeApp) {
				require.Contains(t, lastEmbed(t, a.client, ticketChannel), "Usage: $rename <name>")

				ch, err := a.client.Channel(context.Background(), ticketChannel)
				require.NoError(t, err)
				require.Empty(t, ch.Name)
			},
		},
		{
			name:    "rename",
			channel: ticketChannel,
			content: "$rename Billing Help",
			actor:   creator,
			check: func(t *testing.T, a *storeApp) {
				ch, err := a.client.Channel(context.Background(), ticketChannel)
				require.NoError(t, err)
				require.Equal(t, "billing-help", ch.Name)
				require.Contains(t, lastEmbed(t, a.client, ticketChannel), "billing-help")
			},
		},
		{
			name:    "delete",
			channel: ticketChannel,
			content: "$delete",
			actor:   support,
			check: func(t *testing.T, a *storeApp) {
				stored, err := a.tickets.Get(context.Background(), ticketChannel)
				require.NoError(t, err)
				require.False(t, stored.IsOpen())
				require.Equal(t, tickets.DeleteReason, stored.CloseReason)

				require.Empty(t, a.client.DeletedChannels)
				require.Len(t, a.delayed, 1)
				a.delayed[0]()
				require.Equal(t, []string{ticketChannel}, a.client.DeletedChannels)
			},
		},
		{
			name:    "delete needs support",
			channel: ticketChannel,
			content: "$delete",
			actor:   creator,
			check: func(t *testing.T, a *storeApp) {
				stored, err := a.tickets.Get(context.Background(), ticketChannel)
				require.NoError(t, err)
				require.True(t, stored.IsOpen())
				require.Empty(t, a.delayed)
				require.NotEmpty(t, lastEmbed(t, a.client, ticketChannel))
			},
		},
		{
			name:    "outside a ticket",
			channel: "general",
			content: "$close spam",
			actor:   support,
			check: func(t *testing.T, a *storeApp) {
				require.Empty(t, a.client.Sent("general"))
				require.Empty(t, a.client.DeletedMessages)
			},
		},
		{
			name:    "unknown command",
			channel: ticketChannel,
			content: "$closed",
			actor:   support,
			check: func(t *testing.T, a *storeApp) {
				stored, err := a.tickets.Get(context.Background(), ticketChannel)
				require.NoError(t, err)
				require.True(t, stored.IsOpen())
				require.Empty(t, a.client.Sent(ticketChannel))
				require.Empty(t, a.client.DeletedMessages)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newStoreApp(t)
			runPrefixCommand(context.Background(), a, message(tt.channel, tt.actor.UserID, tt.content), tt.actor)
			tt.check(t, a)
		})
	}
}

func TestRenamePrefixCmd_RequiresName(t *testing.T) {
	a := newStoreApp(t)

	err := renamePrefixCmd(context.Background(), a, message(ticketChannel, "u1", "$rename"), creator, "")
	require.ErrorIs(t, err, entities.ErrValidation)
}

func TestRunPrefixCommand_RecoversPanic(t *testing.T) {
	a := newStoreApp(t)
	a.tickets = nil

	require.NotPanics(t, func() {
		runPrefixCommand(context.Background(), a, message(ticketChannel, "u1", "$close"), creator)
	})
	require.True(t, strings.HasSuffix(lastEmbed(t, a.client, ticketChannel), "An error occurred while processing your request."))
}

func TestMessageCreateHandler_RecoversPanic(t *testing.T) {
	handler := messageCreateHandler(&fakeApp{l: slog.Default()})

	require.NotPanics(t, func() {
		handler(nil, message(ticketChannel, "u1", "hello"))
	})
}

func TestMessageCreateHandler_TouchesTicket(t *testing.T) {
	a := newStoreApp(t)

	messageCreateHandler(a)(nil, message(ticketChannel, "u1", "still there?"))

	stored, err := a.tickets.Get(context.Background(), ticketChannel)
	require.NoError(t, err)
	require.False(t, stored.LastActivityAt.IsZero())
	require.Empty(t, a.client.DeletedMessages)
}

func TestMemberJoinedHandler(t *testing.T) {
	tests := []struct {
		name      string
		autoRoles custom.Snowflakes
		storeErr  error
		bot       bool
		want      []string
	}{
		{
			name:      "roles above the bot are skipped",
			autoRoles: custom.Snowflakes{"member", "owner", "missing"},
			want:      []string{"member"},
		},
		{
			name:      "no auto roles",
			autoRoles: custom.Snowflakes{},
		},
		{
			name:      "bots are ignored",
			autoRoles: custom.Snowflakes{"member"},
			bot:       true,
		},
		{
			name:      "store failure",
			autoRoles: custom.Snowflakes{"member"},
			storeErr:  errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newStoreApp(t)
			a.client.Hierarchy.Positions = map[string]int{"member": 1, "owner": 2000}

			g := entities.NewGuild("g1")
			g.AutoRoles = tt.autoRoles
			a.store.PutGuild(g)
			a.store.Err = tt.storeErr

			memberJoinedHandler(a)(nil, &discordgo.GuildMemberAdd{Member: &discordgo.Member{
				GuildID: "g1",
				User:    &discordgo.User{ID: "new", Bot: tt.bot},
			}})

			roles, err := a.client.MemberRoles(context.Background(), "g1", "new")
			require.NoError(t, err)
			require.ElementsMatch(t, tt.want, roles)
		})
	}
}

func TestMemberJoinedHandler_UnknownGuild(t *testing.T) {
	a := newStoreApp(t)

	require.NotPanics(t, func() {
		memberJoinedHandler(a)(nil, &discordgo.GuildMemberAdd{Member: &discordgo.Member{
			GuildID: "other",
			User:    &discordgo.User{ID: "new"},
		}})
	})
	require.Empty(t, a.client.Roles)
}
