package entities

import (
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
)

// Guild is the configuration and state for a guild.
type Guild struct {
	// ID is the ID of the guild.
	ID string `json:"id" bson:"_id"`

	// LogChannelID is the channel that ticket actions are logged to.
	LogChannelID string `json:"log_channel_id" bson:"log_channel_id"`

	// TranscriptChannelID is the channel that transcripts are posted to.
	TranscriptChannelID string `json:"transcript_channel_id" bson:"transcript_channel_id"`

	// CategoryID is the category that new tickets are created under.
	CategoryID string `json:"category_id" bson:"category_id"`

	// TicketCounter is the number of the last ticket created. It only ever increases.
	TicketCounter int `json:"ticket_counter" bson:"ticket_counter"`

	// TicketLimit is the number of open tickets a user can have at once.
	TicketLimit int `json:"ticket_limit" bson:"ticket_limit"`

	// AutoCloseHours is how long a ticket can be inactive before it is closed. Zero disables auto close.
	AutoCloseHours int `json:"auto_close_hours" bson:"auto_close_hours"`

	// SupportRoles are the roles that can handle tickets.
	SupportRoles custom.Snowflakes `json:"support_roles" bson:"support_roles"`

	// AutoRoles are given to members when they join the guild.
	AutoRoles custom.Snowflakes `json:"auto_roles" bson:"auto_roles"`

	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}

// NewGuild returns a guild with the default settings.
func NewGuild(id string) *Guild {
	return &Guild{
		ID:           id,
		TicketLimit:  DefaultTicketLimit,
		SupportRoles: custom.Snowflakes{},
		AutoRoles:    custom.Snowflakes{},
		CreatedAt:    custom.Now(),
	}
}

// GuildRoleSet names one of the role sets held on a guild.
type GuildRoleSet string

const (
	GuildSupportRoles GuildRoleSet = "support_roles"
	GuildAutoRoles    GuildRoleSet = "auto_roles"
)

// Roles returns the role set named by set.
func (g *Guild) Roles(set GuildRoleSet) custom.Snowflakes {
	switch set {
	case GuildSupportRoles:
		return g.SupportRoles
	case GuildAutoRoles:
		return g.AutoRoles
	default:
		return nil
	}
}

// SetRoles replaces the role set named by set.
func (g *Guild) SetRoles(set GuildRoleSet, roles custom.Snowflakes) {
	switch set {
	case GuildSupportRoles:
		g.SupportRoles = roles
	case GuildAutoRoles:
		g.AutoRoles = roles
	}
}

// GuildUpdate is the set of guild settings that can be changed. Nil fields are left untouched.
type GuildUpdate struct {
	LogChannelID        *string `json:"log_channel_id,omitempty"`
	TranscriptChannelID *string `json:"transcript_channel_id,omitempty"`
	CategoryID          *string `json:"category_id,omitempty"`
	TicketLimit         *int    `json:"ticket_limit,omitempty"`
	AutoCloseHours      *int    `json:"auto_close_hours,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *GuildUpdate) IsEmpty() bool {
	return u.LogChannelID == nil &&
		u.TranscriptChannelID == nil &&
		u.CategoryID == nil &&
		u.TicketLimit == nil &&
		u.AutoCloseHours == nil
}

// Validate checks the update is within the allowed ranges.
func (u *GuildUpdate) Validate() error {
	if u.TicketLimit != nil && (*u.TicketLimit < MinTicketLimit || *u.TicketLimit > MaxTicketLimit) {
		return NewValidationError("ticket_limit", "must be between %d and %d", MinTicketLimit, MaxTicketLimit)
	}
	if u.AutoCloseHours != nil && (*u.AutoCloseHours < 0 || *u.AutoCloseHours > MaxAutoCloseHours) {
		return NewValidationError("auto_close_hours", "must be between 0 and %d", MaxAutoCloseHours)
	}
	return nil
}

// Apply copies the set fields of u onto g.
func (g *Guild) Apply(u *GuildUpdate) {
	if u.LogChannelID != nil {
		g.LogChannelID = *u.LogChannelID
	}
	if u.TranscriptChannelID != nil {
		g.TranscriptChannelID = *u.TranscriptChannelID
	}
	if u.CategoryID != nil {
		g.CategoryID = *u.CategoryID
	}
	if u.TicketLimit != nil {
		g.TicketLimit = *u.TicketLimit
	}
	if u.AutoCloseHours != nil {
		g.AutoCloseHours = *u.AutoCloseHours
	}
}
