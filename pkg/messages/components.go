package messages

import (
	"strconv"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
)

const (
	closeEmoji  = "\U0001F512"
	claimEmoji  = "\U0001F64B"
	deleteEmoji = "\U0001F5D1️"
	starEmoji   = "⭐"
	ticketEmoji = "\U0001F3AB"
	acceptEmoji = "✅"
	denyEmoji   = "❌"
	applyEmoji  = "\U0001F4DD"
)

// TicketControls are the close and claim buttons posted in a new ticket.
func TicketControls() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Close",
					Style:    discordgo.DangerButton,
					Emoji:    discordgo.ComponentEmoji{Name: closeEmoji},
					CustomID: TicketCloseID,
				},
				discordgo.Button{
					Label:    "Claim",
					Style:    discordgo.PrimaryButton,
					Emoji:    discordgo.ComponentEmoji{Name: claimEmoji},
					CustomID: TicketClaimID,
				},
			},
		},
	}
}

// FeedbackControls are the 1 to 5 rating buttons followed by the delete button.
func FeedbackControls() []discordgo.MessageComponent {
	stars := make([]discordgo.MessageComponent, 0, entities.MaxRating)
	for i := entities.MinRating; i <= entities.MaxRating; i++ {
		stars = append(stars, discordgo.Button{
			Label:    strconv.Itoa(i),
			Style:    discordgo.SecondaryButton,
			Emoji:    discordgo.ComponentEmoji{Name: starEmoji},
			CustomID: FeedbackID(i),
		})
	}

	return append([]discordgo.MessageComponent{
		discordgo.ActionsRow{Components: stars},
	}, DeleteControls()...)
}

// DeleteControls is the single delete button.
func DeleteControls() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Delete Ticket",
					Style:    discordgo.DangerButton,
					Emoji:    discordgo.ComponentEmoji{Name: deleteEmoji},
					CustomID: TicketDeleteID,
				},
			},
		},
	}
}

// ReviewControls are the accept, deny and close buttons on an application ticket.
func ReviewControls(typeID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Accept",
					Style:    discordgo.SuccessButton,
					Emoji:    discordgo.ComponentEmoji{Name: acceptEmoji},
					CustomID: AcceptID(typeID),
				},
				discordgo.Button{
					Label:    "Deny",
					Style:    discordgo.DangerButton,
					Emoji:    discordgo.ComponentEmoji{Name: denyEmoji},
					CustomID: DenyID(typeID),
				},
				discordgo.Button{
					Label:    "Close",
					Style:    discordgo.SecondaryButton,
					Emoji:    discordgo.ComponentEmoji{Name: closeEmoji},
					CustomID: TicketCloseID,
				},
			},
		},
	}
}

// ApplyControls is the apply button on an application panel.
func ApplyControls(typeID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Apply",
					Style:    discordgo.PrimaryButton,
					Emoji:    discordgo.ComponentEmoji{Name: applyEmoji},
					CustomID: ApplicationStartID(typeID),
				},
			},
		},
	}
}

// PanelControls lays out a panel's ticket types, either as rows of buttons or as one select menu.
func PanelControls(p *entities.Panel) []discordgo.MessageComponent {
	if p.Style == entities.PanelStyleSelect {
		options := make([]discordgo.SelectMenuOption, 0, len(p.TicketTypes))
		for _, tt := range p.TicketTypes {
			options = append(options, discordgo.SelectMenuOption{
				Label: tt.Label,
				Value: CreateTicketID(tt.Name),
				Emoji: panelEmoji(tt.Emoji),
			})
		}
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    TicketSelectID,
						Placeholder: "Select a ticket type",
						Options:     options,
					},
				},
			},
		}
	}

	rows := make([]discordgo.MessageComponent, 0)
	var row []discordgo.MessageComponent
	for _, tt := range p.TicketTypes {
		row = append(row, discordgo.Button{
			Label:    tt.Label,
			Style:    ButtonStyle(tt.Color),
			Emoji:    panelEmoji(tt.Emoji),
			CustomID: CreateTicketID(tt.Name),
		})
		if len(row) == entities.MaxPanelButtonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}

func panelEmoji(e string) discordgo.ComponentEmoji {
	if e == "" {
		e = ticketEmoji
	}
	return discordgo.ComponentEmoji{Name: e}
}

// ButtonStyle maps a panel colour onto a button style. Unknown colours are primary.
func ButtonStyle(c entities.ButtonColor) discordgo.ButtonStyle {
	switch c {
	case entities.ButtonSecondary:
		return discordgo.SecondaryButton
	case entities.ButtonSuccess:
		return discordgo.SuccessButton
	case entities.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

// Form is a modal to show to a user.
type Form struct {
	CustomID string
	Title    string
	Fields   []FormField
}

// FormField is one text input on a form.
type FormField struct {
	QuestionID string
	Label      string
	Paragraph  bool
	Required   bool
	MaxLength  int
}

// Modal converts a form into an interaction response.
func (f *Form) Modal() *discordgo.InteractionResponse {
	rows := make([]discordgo.MessageComponent, 0, len(f.Fields))
	for _, field := range f.Fields {
		style := discordgo.TextInputShort
		if field.Paragraph {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  QuestionID(field.QuestionID),
					Label:     field.Label,
					Style:     style,
					Required:  field.Required,
					MaxLength: field.MaxLength,
				},
			},
		})
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   f.CustomID,
			Title:      f.Title,
			Components: rows,
		},
	}
}
