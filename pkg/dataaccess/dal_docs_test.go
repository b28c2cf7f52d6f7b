package dataaccess

import (
	"testing"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func ptr[T any](v T) *T {
	return &v
}

func TestGuildUpdateDoc(t *testing.T) {
	tests := []struct {
		name   string
		update *entities.GuildUpdate
		want   bson.M
	}{
		{
			name:   "empty",
			update: &entities.GuildUpdate{},
			want:   bson.M{},
		},
		{
			name:   "limit and log channel",
			update: &entities.GuildUpdate{TicketLimit: ptr(2), LogChannelID: ptr("logs")},
			want:   bson.M{"ticket_limit": 2, "log_channel_id": "logs"},
		},
		{
			name:   "clear category",
			update: &entities.GuildUpdate{CategoryID: ptr("")},
			want:   bson.M{"category_id": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, guildUpdateDoc(tt.update))
		})
	}
}

func TestGuildDefaults(t *testing.T) {
	d := guildDefaults()
	require.Equal(t, entities.DefaultTicketLimit, d["ticket_limit"])
	require.Equal(t, 0, d["ticket_counter"])

	d = guildDefaults("ticket_counter", "support_roles")
	require.NotContains(t, d, "ticket_counter")
	require.NotContains(t, d, "support_roles")
	require.Contains(t, d, "auto_roles")
}

func TestTicketUpdateDoc(t *testing.T) {
	at := custom.Now()
	got := ticketUpdateDoc(&entities.TicketUpdate{
		Priority:       ptr(entities.PriorityHigh),
		Rating:         ptr(4),
		LastActivityAt: &at,
	})

	require.Equal(t, bson.M{
		"priority":         entities.PriorityHigh,
		"rating":           4,
		"last_activity_at": at,
	}, got)
}

func TestApplicationTypeUpdateDoc(t *testing.T) {
	got := applicationTypeUpdateDoc(&entities.ApplicationTypeUpdate{
		Active:        ptr(false),
		CooldownHours: ptr(12),
		AcceptedRoles: ptr(custom.Snowflakes{"r1"}),
	})

	require.Equal(t, bson.M{
		"active":         false,
		"cooldown_hours": 12,
		"accepted_roles": custom.Snowflakes{"r1"},
	}, got)
}

func TestFilterDocs(t *testing.T) {
	require.Equal(t, bson.M{"guild_id": "g"}, ticketFilterDoc(entities.TicketFilter{GuildID: "g"}))
	require.Equal(t, bson.M{"guild_id": "g", "status": entities.TicketStatusOpen, "user_id": "u"},
		ticketFilterDoc(entities.TicketFilter{GuildID: "g", Status: entities.TicketStatusOpen, UserID: "u"}))

	require.Equal(t, bson.M{"guild_id": "g", "status": entities.ApplicationPending},
		applicationFilterDoc(entities.ApplicationFilter{GuildID: "g", Status: entities.ApplicationPending}))
}

func TestRoundRating(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{4.25, 4.3},
		{4.24, 4.2},
		{3, 3},
		{0, 0},
	}

	for _, tt := range tests {
		require.InDelta(t, tt.want, RoundRating(tt.in), 1e-9)
	}
}
