package messages

import (
	"strconv"
	"strings"
)

const (
	// TicketCloseID is the close button on a ticket.
	TicketCloseID = "ticket_close"

	// TicketClaimID is the claim button on a ticket.
	TicketClaimID = "ticket_claim"

	// TicketDeleteID is the delete button shown once a ticket is closed.
	TicketDeleteID = "ticket_delete"

	// TicketSelectID is the select menu on a select style panel.
	TicketSelectID = "ticket_select"

	// The prefixes below are followed by a value in the custom ID.

	FeedbackPrefix          = "feedback_"
	CreateTicketPrefix      = "create_ticket:"
	ApplicationStartPrefix  = "application_start_"
	ApplicationSubmitPrefix = "application_submit_"
	QuestionPrefix          = "q_"
	AcceptPrefix            = "app_accept_"
	DenyPrefix              = "app_deny_"
)

// FeedbackID is the custom ID of the rating button for rating.
func FeedbackID(rating int) string {
	return FeedbackPrefix + strconv.Itoa(rating)
}

// ParseFeedbackID returns the rating held in a feedback custom ID.
func ParseFeedbackID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, FeedbackPrefix)
	if !ok {
		return 0, false
	}
	rating, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return rating, true
}

// CreateTicketID is the custom ID (or select value) that opens a ticket of the named type.
func CreateTicketID(ticketType string) string {
	return CreateTicketPrefix + ticketType
}

func ParseCreateTicketID(id string) (string, bool) {
	return cut(id, CreateTicketPrefix)
}

func ApplicationStartID(typeID string) string {
	return ApplicationStartPrefix + typeID
}

func ParseApplicationStartID(id string) (string, bool) {
	return cut(id, ApplicationStartPrefix)
}

func ApplicationSubmitID(typeID string) string {
	return ApplicationSubmitPrefix + typeID
}

func ParseApplicationSubmitID(id string) (string, bool) {
	return cut(id, ApplicationSubmitPrefix)
}

// QuestionID is the custom ID of the modal input for a question.
func QuestionID(questionID string) string {
	return QuestionPrefix + questionID
}

func ParseQuestionID(id string) (string, bool) {
	return cut(id, QuestionPrefix)
}

func AcceptID(typeID string) string {
	return AcceptPrefix + typeID
}

func ParseAcceptID(id string) (string, bool) {
	return cut(id, AcceptPrefix)
}

func DenyID(typeID string) string {
	return DenyPrefix + typeID
}

func ParseDenyID(id string) (string, bool) {
	return cut(id, DenyPrefix)
}

func cut(id, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}
