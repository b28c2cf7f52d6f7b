// Package messages builds the embeds, components and user facing text sent by the bot.
package messages

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
)

const (
	ColorPrimary = 0x5865F2
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorDanger  = 0xED4245
	ColorInfo    = ColorPrimary
)

const (
	embedFieldNameLimit  = 256
	embedFieldValueLimit = 1024
	noReason             = "No reason provided"
)

// User formats a user mention.
func User(id string) string {
	return fmt.Sprintf("<@%s>", id)
}

// Role formats a role mention.
func Role(id string) string {
	return fmt.Sprintf("<@&%s>", id)
}

// Channel formats a channel mention.
func Channel(id string) string {
	return fmt.Sprintf("<#%s>", id)
}

// Roles formats a list of role mentions, or None.
func Roles(ids []string) string {
	if len(ids) == 0 {
		return "None"
	}
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = Role(id)
	}
	return strings.Join(mentions, " ")
}

func orNone(channelID string) string {
	if channelID == "" {
		return "Not set"
	}
	return Channel(channelID)
}

func reasonOrDefault(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return noReason
	}
	return reason
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func Success(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorSuccess,
		Description: "✅ " + msg,
	}
}

func Error(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorDanger,
		Description: "❌ " + msg,
	}
}

func Warning(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorWarning,
		Description: "⚠️ " + msg,
	}
}

func Info(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorInfo,
		Description: "ℹ️ " + msg,
	}
}

// TicketWelcome is the first message posted in a new ticket.
func TicketWelcome(t *entities.Ticket) *discordgo.MessageEmbed {
	ticketType := t.TicketType
	if ticketType == "" {
		ticketType = "Support"
	}

	return &discordgo.MessageEmbed{
		Color:       ColorPrimary,
		Title:       fmt.Sprintf("Ticket #%d", t.Number),
		Description: fmt.Sprintf("Welcome %s!\n\nPlease describe your issue and our support team will assist you shortly.", User(t.UserID)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Type", Value: ticketType, Inline: true},
			{Name: "Priority", Value: PriorityLabel(t.Priority), Inline: true},
			{Name: "Status", Value: "Open", Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Use the buttons below to manage this ticket"},
		Timestamp: timestamp(),
	}
}

// PriorityLabel is the emoji and name of a priority.
func PriorityLabel(p entities.Priority) string {
	if p == "" {
		p = entities.PriorityNormal
	}
	name := string(p)
	return p.Emoji() + " " + strings.ToUpper(name[:1]) + name[1:]
}

// TicketClosed is shown in the ticket and sent to the creator when a ticket is closed.
func TicketClosed(closedBy, reason string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorDanger,
		Title:       "Ticket Closed",
		Description: "This ticket has been closed.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Closed By", Value: User(closedBy), Inline: true},
			{Name: "Reason", Value: reasonOrDefault(reason), Inline: true},
		},
		Timestamp: timestamp(),
	}
}

// LogField is an extra field on a log entry.
type LogField struct {
	Name   string
	Value  string
	Inline bool
}

// TicketLog is posted to the guild log channel for every ticket action.
func TicketLog(action string, t *entities.Ticket, actorID string, extra ...LogField) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Color: ColorInfo,
		Title: "Ticket " + action,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Ticket", Value: fmt.Sprintf("#%d", t.Number), Inline: true},
			{Name: "User", Value: User(t.UserID), Inline: true},
			{Name: "Action By", Value: User(actorID), Inline: true},
		},
		Timestamp: timestamp(),
	}
	for _, f := range extra {
		if f.Value == "" {
			continue
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  truncate(f.Value, embedFieldValueLimit),
			Inline: f.Inline,
		})
	}
	return e
}

func FeedbackPrompt(ticketNumber int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       ColorPrimary,
		Title:       "Rate Your Experience",
		Description: fmt.Sprintf("How would you rate the support you received for ticket #%d?", ticketNumber),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Click a button below to rate"},
	}
}

// TicketPanel is the embed posted with a panel's buttons.
func TicketPanel(p *entities.Panel) *discordgo.MessageEmbed {
	footer := "Click a button below to create a ticket"
	if p.Style == entities.PanelStyleSelect {
		footer = "Choose an option below to create a ticket"
	}
	return &discordgo.MessageEmbed{
		Color:       ColorPrimary,
		Title:       p.Title,
		Description: p.Description,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
}

func ApplicationPanel(at *entities.ApplicationType) *discordgo.MessageEmbed {
	desc := at.Description
	if desc == "" {
		desc = "Click the button below to apply."
	}
	return &discordgo.MessageEmbed{
		Color:       ColorPrimary,
		Title:       at.Name,
		Description: desc,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Click the button to start your application"},
	}
}

// ApplicationSubmission lists the answers of an application, in question order.
func ApplicationSubmission(at *entities.ApplicationType, app *entities.Application) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Color:       ColorPrimary,
		Title:       "Application: " + at.Name,
		Description: "Submitted by " + User(app.UserID),
		Timestamp:   timestamp(),
	}
	for _, q := range at.SortedQuestions() {
		answer := app.Answers[q.ID]
		if strings.TrimSpace(answer) == "" {
			answer = "No answer provided"
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  truncate(q.Text, embedFieldNameLimit),
			Value: truncate(answer, embedFieldValueLimit),
		})
	}
	return e
}

// ApplicationResult is sent to the applicant and the log channel when an application is reviewed.
func ApplicationResult(at *entities.ApplicationType, app *entities.Application) *discordgo.MessageEmbed {
	color, title := ColorDanger, "Application Denied"
	if app.Status == entities.ApplicationAccepted {
		color, title = ColorSuccess, "Application Accepted"
	}
	return &discordgo.MessageEmbed{
		Color:       color,
		Title:       title,
		Description: fmt.Sprintf("The application of %s for **%s** has been %s.", User(app.UserID), at.Name, app.Status),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reviewed By", Value: User(app.ReviewedBy), Inline: true},
			{Name: "Reason", Value: reasonOrDefault(app.ReviewReason)},
		},
		Timestamp: timestamp(),
	}
}

// GuildSettings summarises a guild's ticket configuration.
func GuildSettings(g *entities.Guild) *discordgo.MessageEmbed {
	autoClose := "Disabled"
	if g.AutoCloseHours > 0 {
		autoClose = fmt.Sprintf("%d hours", g.AutoCloseHours)
	}
	return &discordgo.MessageEmbed{
		Color: ColorPrimary,
		Title: "Ticket Settings",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Log Channel", Value: orNone(g.LogChannelID), Inline: true},
			{Name: "Transcript Channel", Value: orNone(g.TranscriptChannelID), Inline: true},
			{Name: "Category", Value: orNone(g.CategoryID), Inline: true},
			{Name: "Ticket Limit", Value: strconv.Itoa(g.TicketLimit), Inline: true},
			{Name: "Auto Close", Value: autoClose, Inline: true},
			{Name: "Tickets Created", Value: strconv.Itoa(g.TicketCounter), Inline: true},
			{Name: "Support Roles", Value: Roles(g.SupportRoles)},
			{Name: "Auto Roles", Value: Roles(g.AutoRoles)},
		},
	}
}

// ApplicationTypeInfo shows the configuration of an application type.
func ApplicationTypeInfo(at *entities.ApplicationType) *discordgo.MessageEmbed {
	status := "Active"
	if !at.Active {
		status = "Inactive"
	}
	return &discordgo.MessageEmbed{
		Color:       ColorPrimary,
		Title:       at.Name,
		Description: at.Description,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Questions", Value: fmt.Sprintf("%d/%d", len(at.Questions), entities.MaxQuestions), Inline: true},
			{Name: "Cooldown", Value: fmt.Sprintf("%d hours", at.CooldownHours), Inline: true},
			{Name: "Creates Ticket", Value: yesNo(at.CreateTicket), Inline: true},
			{Name: "Log Channel", Value: orNone(at.LogChannelID), Inline: true},
			{Name: "Review Roles", Value: Roles(at.ReviewRoles)},
			{Name: "Pending Roles", Value: Roles(at.PendingRoles), Inline: true},
			{Name: "Accepted Roles", Value: Roles(at.AcceptedRoles), Inline: true},
			{Name: "Denied Roles", Value: Roles(at.DeniedRoles), Inline: true},
		},
	}
}

// ApplicationTypeList lists the application types of a guild.
func ApplicationTypeList(types []*entities.ApplicationType) *discordgo.MessageEmbed {
	if len(types) == 0 {
		return Info("No applications have been set up. Use `/appsetup` to create one.")
	}

	lines := make([]string, 0, len(types))
	for _, at := range types {
		state := "\U0001F7E2"
		if !at.Active {
			state = "\U0001F534"
		}
		lines = append(lines, fmt.Sprintf("%s **%s** (%d questions)", state, at.Name, len(at.Questions)))
	}
	return &discordgo.MessageEmbed{
		Color:       ColorPrimary,
		Title:       "Applications",
		Description: strings.Join(lines, "\n"),
	}
}

// QuestionList lists the questions of an application type in order.
func QuestionList(at *entities.ApplicationType) *discordgo.MessageEmbed {
	qs := at.SortedQuestions()
	if len(qs) == 0 {
		return Info(fmt.Sprintf("**%s** has no questions. Use `/appquestions add` to add one.", at.Name))
	}

	lines := make([]string, 0, len(qs))
	for _, q := range qs {
		req := ""
		if q.Required {
			req = " *"
		}
		lines = append(lines, fmt.Sprintf("**%d.** %s (%s)%s", q.Order, q.Text, q.Type, req))
	}
	return &discordgo.MessageEmbed{
		Color:       ColorPrimary,
		Title:       "Questions: " + at.Name,
		Description: strings.Join(lines, "\n"),
		Footer:      &discordgo.MessageEmbedFooter{Text: "* required"},
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func truncate(s string, n int) string {
	return entities.Truncate(s, n)
}
