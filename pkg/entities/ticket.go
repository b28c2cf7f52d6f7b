package entities

import (
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
)

// TicketStatus is the status of a ticket. Open tickets can be closed; closed tickets stay closed.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	return s == TicketStatusOpen || s == TicketStatusClosed
}

// Priority is the priority of a ticket.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority parses a priority name.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", NewValidationError("priority", "unknown priority %q", s)
	}
	return p, nil
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Emoji returns the coloured circle shown next to the priority.
func (p Priority) Emoji() string {
	switch p {
	case PriorityLow:
		return "\U0001F7E2"
	case PriorityHigh:
		return "\U0001F7E1"
	case PriorityUrgent:
		return "\U0001F534"
	default:
		return "\U0001F535"
	}
}

// Ticket is a support conversation held in its own channel.
type Ticket struct {
	// ID is the unique ID of the ticket record.
	ID string `json:"id" bson:"_id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the ID of the channel that the ticket is in. A channel holds at most one ticket.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// UserID is the ID of the user that created the ticket.
	UserID string `json:"user_id" bson:"user_id"`

	// TicketType is the panel ticket type or application the ticket was opened from.
	TicketType string `json:"ticket_type" bson:"ticket_type"`

	// Number is the sequence number of the ticket in its guild.
	Number int `json:"ticket_number" bson:"ticket_number"`

	Status   TicketStatus `json:"status" bson:"status"`
	Priority Priority     `json:"priority" bson:"priority"`

	// ClaimedBy is the ID of the user that claimed the ticket.
	ClaimedBy string `json:"claimed_by" bson:"claimed_by"`

	// ClosedBy is the ID of the user that closed the ticket.
	ClosedBy    string `json:"closed_by" bson:"closed_by"`
	CloseReason string `json:"close_reason" bson:"close_reason"`

	// TranscriptPath is where the transcript generated on close was written.
	TranscriptPath string `json:"transcript_path" bson:"transcript_path"`

	// Rating is the 1-5 satisfaction rating left by the creator.
	Rating   *int   `json:"rating" bson:"rating,omitempty"`
	Feedback string `json:"feedback" bson:"feedback"`

	CreatedAt      custom.Datetime `json:"created_at" bson:"created_at"`
	ClosedAt       custom.Datetime `json:"closed_at" bson:"closed_at"`
	LastActivityAt custom.Datetime `json:"last_activity_at" bson:"last_activity_at"`
}

// IsOpen reports whether the ticket is open.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

// IsClaimed reports whether the ticket is claimed.
func (t *Ticket) IsClaimed() bool {
	return t.ClaimedBy != ""
}

// ChannelName is the default channel name for the ticket.
func (t *Ticket) ChannelName() string {
	return fmt.Sprintf("ticket-%d", t.Number)
}

// ClaimedChannelName is the channel name for the ticket once claimed.
func (t *Ticket) ClaimedChannelName() string {
	return fmt.Sprintf("claimed-%d", t.Number)
}

// TicketClose is the record of a ticket being closed.
type TicketClose struct {
	ClosedBy       string
	Reason         string
	TranscriptPath string
	ClosedAt       custom.Datetime
}

// TicketUpdate is the set of ticket fields that can be changed outside of the claim and close transitions. Nil
// fields are left untouched.
type TicketUpdate struct {
	Priority       *Priority
	Rating         *int
	Feedback       *string
	TranscriptPath *string
	LastActivityAt *custom.Datetime
}

// IsEmpty reports whether the update changes nothing.
func (u *TicketUpdate) IsEmpty() bool {
	return u.Priority == nil &&
		u.Rating == nil &&
		u.Feedback == nil &&
		u.TranscriptPath == nil &&
		u.LastActivityAt == nil
}

// Validate checks the update values.
func (u *TicketUpdate) Validate() error {
	if u.Priority != nil && !u.Priority.Valid() {
		return NewValidationError("priority", "unknown priority %q", *u.Priority)
	}
	if u.Rating != nil && (*u.Rating < MinRating || *u.Rating > MaxRating) {
		return NewValidationError("rating", "must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// Apply copies the set fields of u onto t.
func (t *Ticket) Apply(u *TicketUpdate) {
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Rating != nil {
		r := *u.Rating
		t.Rating = &r
	}
	if u.Feedback != nil {
		t.Feedback = *u.Feedback
	}
	if u.TranscriptPath != nil {
		t.TranscriptPath = *u.TranscriptPath
	}
	if u.LastActivityAt != nil {
		t.LastActivityAt = *u.LastActivityAt
	}
}

// TicketFilter selects tickets when listing.
type TicketFilter struct {
	GuildID string
	Status  TicketStatus
	UserID  string
}

// TicketStats is the summary of a guild's tickets.
type TicketStats struct {
	Open          int64   `json:"open_tickets"`
	Closed        int64   `json:"closed_tickets"`
	Total         int     `json:"total_tickets"`
	AverageRating float64 `json:"average_rating"`
	Rated         int64   `json:"rated_tickets"`
}
