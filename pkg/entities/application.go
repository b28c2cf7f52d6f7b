package entities

import (
	"sort"
	"strings"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
)

// QuestionType is the kind of input shown for a question.
type QuestionType string

const (
	QuestionShort     QuestionType = "short"
	QuestionParagraph QuestionType = "paragraph"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return t == QuestionShort || t == QuestionParagraph
}

// MaxAnswerLength is the longest answer accepted for the question type.
func (t QuestionType) MaxAnswerLength() int {
	if t == QuestionParagraph {
		return ParagraphAnswerMaxLength
	}
	return ShortAnswerMaxLength
}

// Question is a single question on an application form.
type Question struct {
	ID       string       `json:"id" bson:"id"`
	Text     string       `json:"text" bson:"text"`
	Type     QuestionType `json:"type" bson:"type"`
	Required bool         `json:"required" bson:"required"`

	// Order is the 1-based position of the question on the form.
	Order int `json:"order" bson:"order"`
}

// ApplicationType is a configured application workflow.
type ApplicationType struct {
	ID          string `json:"id" bson:"_id"`
	GuildID     string `json:"guild_id" bson:"guild_id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`

	// Questions are ordered by Order and there are never more than MaxQuestions.
	Questions []Question `json:"questions" bson:"questions"`

	// ReviewRoles can accept or deny applications.
	ReviewRoles custom.Snowflakes `json:"review_roles" bson:"review_roles"`

	LogChannelID  string `json:"log_channel_id" bson:"log_channel_id"`
	CooldownHours int    `json:"cooldown_hours" bson:"cooldown_hours"`

	// CreateTicket opens a ticket channel for each submission.
	CreateTicket bool `json:"create_ticket" bson:"create_ticket"`
	Active       bool `json:"active" bson:"active"`

	PendingRoles  custom.Snowflakes `json:"pending_roles" bson:"pending_roles"`
	AcceptedRoles custom.Snowflakes `json:"accepted_roles" bson:"accepted_roles"`
	DeniedRoles   custom.Snowflakes `json:"denied_roles" bson:"denied_roles"`

	PanelChannelID string `json:"panel_channel_id" bson:"panel_channel_id"`
	PanelMessageID string `json:"panel_message_id" bson:"panel_message_id"`

	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}

// SortedQuestions returns a copy of the questions ordered by Order.
func (a *ApplicationType) SortedQuestions() []Question {
	qs := make([]Question, len(a.Questions))
	copy(qs, a.Questions)
	sort.SliceStable(qs, func(i, j int) bool {
		return qs[i].Order < qs[j].Order
	})
	return qs
}

// OutcomeRoles returns the roles applied when an application reaches the status.
func (a *ApplicationType) OutcomeRoles(status ApplicationStatus) custom.Snowflakes {
	switch status {
	case ApplicationPending:
		return a.PendingRoles
	case ApplicationAccepted:
		return a.AcceptedRoles
	case ApplicationDenied:
		return a.DeniedRoles
	default:
		return nil
	}
}

// ApplicationTypeUpdate is the set of application type fields that can be changed. Nil fields are left untouched.
type ApplicationTypeUpdate struct {
	Name           *string            `json:"name,omitempty"`
	Description    *string            `json:"description,omitempty"`
	LogChannelID   *string            `json:"log_channel_id,omitempty"`
	CooldownHours  *int               `json:"cooldown_hours,omitempty"`
	CreateTicket   *bool              `json:"create_ticket,omitempty"`
	Active         *bool              `json:"active,omitempty"`
	ReviewRoles    *custom.Snowflakes `json:"review_roles,omitempty"`
	PendingRoles   *custom.Snowflakes `json:"pending_roles,omitempty"`
	AcceptedRoles  *custom.Snowflakes `json:"accepted_roles,omitempty"`
	DeniedRoles    *custom.Snowflakes `json:"denied_roles,omitempty"`
	PanelChannelID *string            `json:"-"`
	PanelMessageID *string            `json:"-"`
}

// IsEmpty reports whether the update changes nothing.
func (u *ApplicationTypeUpdate) IsEmpty() bool {
	return u.Name == nil &&
		u.Description == nil &&
		u.LogChannelID == nil &&
		u.CooldownHours == nil &&
		u.CreateTicket == nil &&
		u.Active == nil &&
		u.ReviewRoles == nil &&
		u.PendingRoles == nil &&
		u.AcceptedRoles == nil &&
		u.DeniedRoles == nil &&
		u.PanelChannelID == nil &&
		u.PanelMessageID == nil
}

// Validate checks the update values.
func (u *ApplicationTypeUpdate) Validate() error {
	if u.Name != nil {
		if err := ValidateApplicationName(*u.Name); err != nil {
			return err
		}
	}
	if u.CooldownHours != nil && (*u.CooldownHours < 0 || *u.CooldownHours > MaxCooldownHours) {
		return NewValidationError("cooldown_hours", "must be between 0 and %d", MaxCooldownHours)
	}

	outcomes := map[string]*custom.Snowflakes{
		"pending_roles":  u.PendingRoles,
		"accepted_roles": u.AcceptedRoles,
		"denied_roles":   u.DeniedRoles,
	}
	for field, roles := range outcomes {
		if roles != nil && len(*roles) > MaxOutcomeRoles {
			return NewValidationError(field, "at most %d roles can be set", MaxOutcomeRoles)
		}
	}
	return nil
}

// Apply copies the set fields of u onto a.
func (a *ApplicationType) Apply(u *ApplicationTypeUpdate) {
	if u.Name != nil {
		a.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		a.Description = *u.Description
	}
	if u.LogChannelID != nil {
		a.LogChannelID = *u.LogChannelID
	}
	if u.CooldownHours != nil {
		a.CooldownHours = *u.CooldownHours
	}
	if u.CreateTicket != nil {
		a.CreateTicket = *u.CreateTicket
	}
	if u.Active != nil {
		a.Active = *u.Active
	}
	if u.ReviewRoles != nil {
		a.ReviewRoles = *u.ReviewRoles
	}
	if u.PendingRoles != nil {
		a.PendingRoles = *u.PendingRoles
	}
	if u.AcceptedRoles != nil {
		a.AcceptedRoles = *u.AcceptedRoles
	}
	if u.DeniedRoles != nil {
		a.DeniedRoles = *u.DeniedRoles
	}
	if u.PanelChannelID != nil {
		a.PanelChannelID = *u.PanelChannelID
	}
	if u.PanelMessageID != nil {
		a.PanelMessageID = *u.PanelMessageID
	}
}

// ValidateApplicationName checks an application type name.
func ValidateApplicationName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "is required")
	}
	if len([]rune(name)) > MaxApplicationNameLength {
		return NewValidationError("name", "must be at most %d characters", MaxApplicationNameLength)
	}
	return nil
}

// ApplicationStatus is the review status of an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationDenied   ApplicationStatus = "denied"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationDenied:
		return true
	default:
		return false
	}
}

// Application is a user's submission to an application type.
type Application struct {
	ID                string `json:"id" bson:"_id"`
	GuildID           string `json:"guild_id" bson:"guild_id"`
	ApplicationTypeID string `json:"application_type_id" bson:"application_type_id"`
	UserID            string `json:"user_id" bson:"user_id"`

	// Answers are keyed by question ID.
	Answers map[string]string `json:"answers" bson:"answers"`

	Status       ApplicationStatus `json:"status" bson:"status"`
	ReviewedBy   string            `json:"reviewed_by" bson:"reviewed_by"`
	ReviewReason string            `json:"review_reason" bson:"review_reason"`

	// TicketChannelID is the channel of the ticket opened for the submission, if any.
	TicketChannelID string `json:"ticket_channel_id" bson:"ticket_channel_id"`

	CreatedAt  custom.Datetime `json:"created_at" bson:"created_at"`
	ReviewedAt custom.Datetime `json:"reviewed_at" bson:"reviewed_at"`
}

// ApplicationReview is the outcome recorded when an application is reviewed.
type ApplicationReview struct {
	Status     ApplicationStatus
	ReviewedBy string
	Reason     string
	ReviewedAt custom.Datetime
}

// ApplicationFilter selects applications when listing.
type ApplicationFilter struct {
	GuildID           string
	ApplicationTypeID string
	Status            ApplicationStatus
}
