package panels

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess/dataaccesstest"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/stretchr/testify/require"
)

type recordingOpener struct {
	reqs []*tickets.CreateRequest
}

func (r *recordingOpener) Create(_ context.Context, req *tickets.CreateRequest) (*entities.Ticket, error) {
	r.reqs = append(r.reqs, req)
	return &entities.Ticket{GuildID: req.GuildID, UserID: req.CreatorID, TicketType: req.TicketType}, nil
}

func types(n int) []entities.TicketType {
	out := make([]entities.TicketType, n)
	for i := range out {
		out[i] = entities.TicketType{Name: string(rune('a' + i)), Label: "Type"}
	}
	return out
}

func TestCreate(t *testing.T) {
	client := platformtest.NewClient()
	client.AddChannel("g1", "support")
	store := dataaccesstest.NewStore()
	svc := NewService(slog.Default(), store, client, new(recordingOpener))

	p, err := svc.Create(context.Background(), &Request{
		GuildID:     "g1",
		ChannelID:   "support",
		Title:       "Support",
		TicketTypes: types(7),
	})
	require.NoError(t, err)
	require.Equal(t, entities.PanelStyleButtons, p.Style)
	require.NotEmpty(t, p.MessageID)

	sent := client.Sent("support")
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Components, 2)

	got, err := svc.GetByMessage(context.Background(), p.MessageID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{
			name: "no title",
			req:  &Request{ChannelID: "c", TicketTypes: types(1)},
		},
		{
			name: "no types",
			req:  &Request{ChannelID: "c", Title: "T"},
		},
		{
			name: "too many types",
			req:  &Request{ChannelID: "c", Title: "T", Style: entities.PanelStyleSelect, TicketTypes: types(26)},
		},
		{
			name: "duplicate names",
			req:  &Request{ChannelID: "c", Title: "T", TicketTypes: []entities.TicketType{{Name: "a", Label: "A"}, {Name: "a", Label: "B"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := platformtest.NewClient()
			svc := NewService(slog.Default(), dataaccesstest.NewStore(), client, new(recordingOpener))

			_, err := svc.Create(context.Background(), tt.req)
			require.ErrorIs(t, err, entities.ErrValidation)
			require.Empty(t, client.Messages)
		})
	}
}

func TestCreate_ForeignChannels(t *testing.T) {
	tests := []struct {
		name  string
		req   *Request
		field string
	}{
		{
			name:  "panel channel in another server",
			req:   &Request{GuildID: "g1", ChannelID: "theirs", Title: "T", TicketTypes: types(1)},
			field: "channel_id",
		},
		{
			name:  "unknown panel channel",
			req:   &Request{GuildID: "g1", ChannelID: "missing", Title: "T", TicketTypes: types(1)},
			field: "channel_id",
		},
		{
			name: "category in another server",
			req: &Request{GuildID: "g1", ChannelID: "mine", Title: "T", TicketTypes: []entities.TicketType{
				{Name: "a", Label: "A", CategoryID: "their-category"},
			}},
			field: "ticket_types",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := platformtest.NewClient()
			client.AddChannel("g1", "mine")
			client.AddChannel("g2", "theirs")
			client.AddChannel("g2", "their-category")
			store := dataaccesstest.NewStore()
			svc := NewService(slog.Default(), store, client, new(recordingOpener))

			_, err := svc.Create(context.Background(), tt.req)
			require.ErrorIs(t, err, entities.ErrValidation)

			var verr *entities.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tt.field, verr.Field)

			require.Empty(t, client.Sent("theirs"))
			require.Empty(t, client.Sent("mine"))
			panels, err := svc.List(context.Background(), "g1")
			require.NoError(t, err)
			require.Empty(t, panels)
		})
	}
}

func TestCreate_SaveFailureRemovesMessage(t *testing.T) {
	client := platformtest.NewClient()
	store := dataaccesstest.NewStore()
	store.Err = errors.New("connection refused")
	client.AddChannel("g1", "c")
	svc := NewService(slog.Default(), store, client, new(recordingOpener))

	_, err := svc.Create(context.Background(), &Request{GuildID: "g1", ChannelID: "c", Title: "T", TicketTypes: types(1)})
	require.ErrorIs(t, err, entities.ErrExternalService)
	require.Len(t, client.DeletedMessages, 1)
}

func TestOpen(t *testing.T) {
	opener := new(recordingOpener)
	store := dataaccesstest.NewStore()
	client := platformtest.NewClient()
	client.AddChannel("g1", "c")
	svc := NewService(slog.Default(), store, client, opener)

	p, err := svc.Create(context.Background(), &Request{
		GuildID:   "g1",
		ChannelID: "c",
		Title:     "T",
		TicketTypes: []entities.TicketType{
			{Name: "billing", Label: "Billing", SupportRoles: custom.Snowflakes{"finance"}},
		},
	})
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), p.MessageID, "billing", "u1")
	require.NoError(t, err)
	require.Len(t, opener.reqs, 1)
	require.Equal(t, "billing", opener.reqs[0].TicketType)
	require.Equal(t, custom.Snowflakes{"finance"}, opener.reqs[0].Type.SupportRoles)

	_, err = svc.Open(context.Background(), p.MessageID, "unknown", "u1")
	require.ErrorIs(t, err, entities.ErrNotFound)

	_, err = svc.Open(context.Background(), "other-message", "billing", "u1")
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestDelete(t *testing.T) {
	client := platformtest.NewClient()
	client.AddChannel("g1", "c")
	svc := NewService(slog.Default(), dataaccesstest.NewStore(), client, new(recordingOpener))

	p, err := svc.Create(context.Background(), &Request{GuildID: "g1", ChannelID: "c", Title: "T", TicketTypes: types(1)})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), "g2", p.ID), entities.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), "g1", p.ID))

	_, err = svc.Get(context.Background(), "g1", p.ID)
	require.ErrorIs(t, err, entities.ErrNotFound)
	require.Len(t, client.Sent("c"), 1)
	require.Empty(t, client.DeletedMessages)
}
