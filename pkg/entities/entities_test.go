package entities

import (
	"strings"
	"testing"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestGuildUpdate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		update  GuildUpdate
		wantErr bool
	}{
		{"empty", GuildUpdate{}, false},
		{"limit ok", GuildUpdate{TicketLimit: ptr(10)}, false},
		{"limit zero", GuildUpdate{TicketLimit: ptr(0)}, true},
		{"limit high", GuildUpdate{TicketLimit: ptr(11)}, true},
		{"auto close off", GuildUpdate{AutoCloseHours: ptr(0)}, false},
		{"auto close high", GuildUpdate{AutoCloseHours: ptr(721)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGuild_Apply(t *testing.T) {
	g := NewGuild("g1")
	require.Equal(t, DefaultTicketLimit, g.TicketLimit)

	g.Apply(&GuildUpdate{TicketLimit: ptr(5), LogChannelID: ptr("log")})
	require.Equal(t, 5, g.TicketLimit)
	require.Equal(t, "log", g.LogChannelID)
	require.Equal(t, 0, g.AutoCloseHours)
}

func TestApplicationTypeUpdate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		update  ApplicationTypeUpdate
		wantErr bool
	}{
		{"empty", ApplicationTypeUpdate{}, false},
		{"blank name", ApplicationTypeUpdate{Name: ptr("  ")}, true},
		{"cooldown negative", ApplicationTypeUpdate{CooldownHours: ptr(-1)}, true},
		{"two roles", ApplicationTypeUpdate{AcceptedRoles: ptr(custom.Snowflakes{"1", "2"})}, false},
		{"three roles", ApplicationTypeUpdate{DeniedRoles: ptr(custom.Snowflakes{"1", "2", "3"})}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestApplicationType_SortedQuestions(t *testing.T) {
	at := &ApplicationType{Questions: []Question{
		{ID: "c", Order: 3},
		{ID: "a", Order: 1},
		{ID: "b", Order: 2},
	}}

	got := at.SortedQuestions()
	require.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	require.Equal(t, "c", at.Questions[0].ID, "original order is untouched")
}

func TestPanel_Validate(t *testing.T) {
	valid := func() Panel {
		return Panel{
			ChannelID:   "c1",
			Title:       "Support",
			Style:       PanelStyleButtons,
			TicketTypes: []TicketType{{Name: "general", Label: "General"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *Panel)
		wantErr bool
	}{
		{"valid", func(p *Panel) {}, false},
		{"no title", func(p *Panel) { p.Title = "" }, true},
		{"bad style", func(p *Panel) { p.Style = "dropdown" }, true},
		{"no types", func(p *Panel) { p.TicketTypes = nil }, true},
		{"duplicate", func(p *Panel) { p.TicketTypes = append(p.TicketTypes, p.TicketTypes[0]) }, true},
		{"bad colour", func(p *Panel) { p.TicketTypes[0].Color = "pink" }, true},
		{"too many", func(p *Panel) {
			for i := 0; i < MaxPanelSelectOptions; i++ {
				p.TicketTypes = append(p.TicketTypes, TicketType{Name: string(rune('a' + i)), Label: "x"})
			}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestChannelSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Staff Application", "staff-application"},
		{"  billing   help ", "billing-help"},
		{"Émoji ✨ name!", "moji--name"},
		{"UPPER_case-1", "uppercase-1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ChannelSlug(tt.in))
		})
	}

	require.Len(t, ChannelSlug(strings.Repeat("a", 120)), MaxChannelNameLength)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("URGENT")
	require.NoError(t, err)
	require.Equal(t, PriorityUrgent, p)
	require.Equal(t, "\U0001F534", p.Emoji())

	_, err = ParsePriority("meh")
	require.ErrorIs(t, err, ErrValidation)
}

func TestPage(t *testing.T) {
	p := Page{}.Normalise()
	require.Equal(t, 1, p.Number)
	require.Equal(t, DefaultPageSize, p.Size)
	require.Equal(t, int64(0), p.Skip())

	p = Page{Number: 3, Size: 10}.Normalise()
	require.Equal(t, int64(20), p.Skip())
	require.Equal(t, 3, p.TotalPages(21))
	require.Equal(t, 0, p.TotalPages(0))

	require.Equal(t, MaxPageSize, Page{Size: 1000}.Normalise().Size)
}
