package entities

import (
	"strings"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
)

// PanelStyle is how a panel offers its ticket types.
type PanelStyle string

const (
	PanelStyleButtons PanelStyle = "buttons"
	PanelStyleSelect  PanelStyle = "select"
)

// ButtonColor is the colour of a panel button.
type ButtonColor string

const (
	ButtonPrimary   ButtonColor = "primary"
	ButtonSecondary ButtonColor = "secondary"
	ButtonSuccess   ButtonColor = "success"
	ButtonDanger    ButtonColor = "danger"
)

// TicketType is one kind of ticket offered on a panel.
type TicketType struct {
	// Name identifies the type within its panel.
	Name  string      `json:"name" bson:"name"`
	Label string      `json:"label" bson:"label"`
	Emoji string      `json:"emoji,omitempty" bson:"emoji"`
	Color ButtonColor `json:"color,omitempty" bson:"color"`

	// CategoryID overrides the guild's ticket category.
	CategoryID string `json:"category_id,omitempty" bson:"category_id"`

	// SupportRoles overrides the guild's support roles.
	SupportRoles custom.Snowflakes `json:"support_roles,omitempty" bson:"support_roles"`
}

// Panel is a posted message that users open tickets from.
type Panel struct {
	ID          string       `json:"id" bson:"_id"`
	GuildID     string       `json:"guild_id" bson:"guild_id"`
	ChannelID   string       `json:"channel_id" bson:"channel_id"`
	MessageID   string       `json:"message_id" bson:"message_id"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Style       PanelStyle   `json:"style" bson:"style"`
	TicketTypes []TicketType `json:"ticket_types" bson:"ticket_types"`

	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}

// TicketType returns the ticket type with the given name.
func (p *Panel) TicketType(name string) (*TicketType, bool) {
	for i := range p.TicketTypes {
		if p.TicketTypes[i].Name == name {
			return &p.TicketTypes[i], true
		}
	}
	return nil, false
}

// Validate checks the panel can be posted.
func (p *Panel) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return NewValidationError("title", "is required")
	}
	if p.ChannelID == "" {
		return NewValidationError("channel_id", "is required")
	}

	switch p.Style {
	case PanelStyleButtons, PanelStyleSelect:
	default:
		return NewValidationError("style", "must be %q or %q", PanelStyleButtons, PanelStyleSelect)
	}

	if len(p.TicketTypes) == 0 {
		return NewValidationError("ticket_types", "at least one ticket type is required")
	}

	limit := MaxPanelTicketTypes
	if p.Style == PanelStyleSelect {
		limit = MaxPanelSelectOptions
	}
	if len(p.TicketTypes) > limit {
		return NewValidationError("ticket_types", "at most %d ticket types can be shown", limit)
	}

	seen := make(map[string]bool, len(p.TicketTypes))
	for _, tt := range p.TicketTypes {
		if tt.Name == "" || tt.Label == "" {
			return NewValidationError("ticket_types", "every ticket type needs a name and a label")
		}
		if len([]rune(tt.Label)) > MaxPanelLabelLength {
			return NewValidationError("ticket_types", "label %q is longer than %d characters", tt.Label, MaxPanelLabelLength)
		}
		if seen[tt.Name] {
			return NewValidationError("ticket_types", "duplicate ticket type %q", tt.Name)
		}
		seen[tt.Name] = true

		switch tt.Color {
		case "", ButtonPrimary, ButtonSecondary, ButtonSuccess, ButtonDanger:
		default:
			return NewValidationError("ticket_types", "unknown colour %q", tt.Color)
		}
	}
	return nil
}
