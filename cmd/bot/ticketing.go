package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/panels"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
)

const defaultPanelButtonLabel = "Create Ticket"

func claimCmd(a IApp, i *discordgo.InteractionCreate) error {
	if _, err := a.Tickets().Claim(context.Background(), i.ChannelID, actorOf(i)); err != nil {
		return err
	}
	return respondEmbed(a, i, false, messages.Success(fmt.Sprintf("This ticket has been claimed by %s.", messages.User(i.Member.User.ID))))
}

func unclaimCmd(a IApp, i *discordgo.InteractionCreate) error {
	if _, err := a.Tickets().Unclaim(context.Background(), i.ChannelID, actorOf(i)); err != nil {
		return err
	}
	return respondEmbed(a, i, false, messages.Info("This ticket is no longer claimed."))
}

func closeCmd(a IApp, i *discordgo.InteractionCreate) error {
	_, opts := commandOptions(i)
	return closeTicket(a, i, opts.String(optReason))
}

// closeTicket acknowledges publicly as generating the transcript can outlast the response window. Rejections are
// checked first so that they are shown only to the user.
func closeTicket(a IApp, i *discordgo.InteractionCreate, reason string) error {
	ctx := context.Background()
	if err := a.Tickets().CheckClose(ctx, i.ChannelID, actorOf(i)); err != nil {
		return err
	}
	if err := deferReply(a, i, false); err != nil {
		return err
	}

	res, err := a.Tickets().Close(ctx, i.ChannelID, actorOf(i), reason)
	if err != nil {
		return err
	}
	msg := closedMessage(res, i.Member.User.ID, reason)
	return followup(a, i, &discordgo.WebhookParams{
		Embeds:     msg.Embeds,
		Components: msg.Components,
	})
}

// closedMessage is posted in the channel once a ticket is closed. It carries the rating and delete controls.
func closedMessage(res *tickets.CloseResult, closedBy, reason string) *discordgo.MessageSend {
	embeds := []*discordgo.MessageEmbed{
		messages.TicketClosed(closedBy, reason),
		messages.FeedbackPrompt(res.Ticket.Number),
	}
	if res.TranscriptErr != nil {
		embeds = append(embeds, messages.Warning("A transcript could not be generated for this ticket."))
	}
	return &discordgo.MessageSend{
		Embeds:     embeds,
		Components: messages.FeedbackControls(),
	}
}

func addMemberCmd(a IApp, i *discordgo.InteractionCreate) error {
	_, opts := commandOptions(i)
	userID := opts.String(optUser)
	if err := a.Tickets().AddMember(context.Background(), i.ChannelID, userID, actorOf(i)); err != nil {
		return err
	}
	return respondEmbed(a, i, false, messages.Success(fmt.Sprintf("%s has been added to the ticket.", messages.User(userID))))
}

func removeMemberCmd(a IApp, i *discordgo.InteractionCreate) error {
	_, opts := commandOptions(i)
	userID := opts.String(optUser)
	if err := a.Tickets().RemoveMember(context.Background(), i.ChannelID, userID, actorOf(i)); err != nil {
		return err
	}
	return respondEmbed(a, i, false, messages.Success(fmt.Sprintf("%s has been removed from the ticket.", messages.User(userID))))
}

func priorityCmd(a IApp, i *discordgo.InteractionCreate) error {
	_, opts := commandOptions(i)
	level, err := entities.ParsePriority(opts.String("level"))
	if err != nil {
		return err
	}

	old, err := a.Tickets().SetPriority(context.Background(), i.ChannelID, level, actorOf(i))
	if err != nil {
		return err
	}
	return respondEmbed(a, i, false, messages.Info(fmt.Sprintf("Priority changed from %s to %s.",
		messages.PriorityLabel(old), messages.PriorityLabel(level))))
}

func renameCmd(a IApp, i *discordgo.InteractionCreate) error {
	_, opts := commandOptions(i)
	name, err := a.Tickets().Rename(context.Background(), i.ChannelID, opts.String("name"), actorOf(i))
	if err != nil {
		return err
	}
	return respondEmbed(a, i, false, messages.Success(fmt.Sprintf("Ticket renamed to **%s**.", name)))
}

func transcriptCmd(a IApp, i *discordgo.InteractionCreate) error {
	if err := deferReply(a, i, true); err != nil {
		return err
	}

	file, err := a.Tickets().Transcript(context.Background(), i.ChannelID, actorOf(i))
	if err != nil {
		return err
	}
	return followup(a, i, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{messages.Success(fmt.Sprintf("Transcript generated with %d messages.", file.Messages))},
		Files:  []*discordgo.File{notify.TranscriptAttachment(file)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func panelCmd(a IApp, i *discordgo.InteractionCreate) error {
	if err := requireManageGuild(i); err != nil {
		return err
	}

	_, opts := commandOptions(i)
	label := opts.String("button_label")
	if label == "" {
		label = defaultPanelButtonLabel
	}

	p, err := a.Panels().Create(context.Background(), &panels.Request{
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		Title:       opts.String("title"),
		Description: opts.String("description"),
		Style:       entities.PanelStyleButtons,
		TicketTypes: []entities.TicketType{{
			Name:       strings.ToLower(strings.TrimSpace(opts.String("type"))),
			Label:      label,
			Color:      entities.ButtonColor(opts.String("button_color")),
			CategoryID: opts.String("category"),
		}},
	})
	if err != nil {
		return err
	}
	return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("Ticket panel posted in %s.", messages.Channel(p.ChannelID))))
}

func closeButton(a IApp, i *discordgo.InteractionCreate) error {
	return closeTicket(a, i, "")
}

func claimButton(a IApp, i *discordgo.InteractionCreate) error {
	return claimCmd(a, i)
}

func deleteButton(a IApp, i *discordgo.InteractionCreate) error {
	ctx := context.Background()
	if err := a.Tickets().CheckDelete(ctx, i.ChannelID, actorOf(i)); err != nil {
		return err
	}
	if err := deferReply(a, i, false); err != nil {
		return err
	}
	if _, err := a.Tickets().Delete(ctx, i.ChannelID, actorOf(i)); err != nil {
		return err
	}
	return followupEmbed(a, i, messages.Warning("This ticket will be deleted in a few seconds."))
}

func feedbackButton(a IApp, i *discordgo.InteractionCreate) error {
	rating, ok := messages.ParseFeedbackID(i.MessageComponentData().CustomID)
	if !ok {
		return entities.NewValidationError("rating", "is not a number")
	}
	if _, err := a.Tickets().Rate(context.Background(), i.ChannelID, rating, ""); err != nil {
		return err
	}
	return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("Thank you for rating this ticket %d/%d.", rating, entities.MaxRating)))
}

func ticketButton(a IApp, i *discordgo.InteractionCreate) error {
	typeName, ok := messages.ParseCreateTicketID(i.MessageComponentData().CustomID)
	if !ok {
		return entities.NewNotFoundError("ticket type")
	}
	return openFromPanel(a, i, typeName)
}

func ticketSelect(a IApp, i *discordgo.InteractionCreate) error {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return entities.NewNotFoundError("ticket type")
	}
	typeName, ok := messages.ParseCreateTicketID(values[0])
	if !ok {
		return entities.NewNotFoundError("ticket type")
	}
	return openFromPanel(a, i, typeName)
}

func openFromPanel(a IApp, i *discordgo.InteractionCreate, typeName string) error {
	if err := deferReply(a, i, true); err != nil {
		return err
	}

	t, err := a.Panels().Open(context.Background(), i.Message.ID, typeName, i.Member.User.ID)
	if err != nil {
		return err
	}
	return followup(a, i, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{messages.Success(fmt.Sprintf("Your ticket has been created: %s", messages.Channel(t.ChannelID)))},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// ticketSettingsCmd handles the /ticketsettings sub commands.
func ticketSettingsCmd(a IApp, i *discordgo.InteractionCreate) error {
	if err := requireManageGuild(i); err != nil {
		return err
	}

	ctx := context.Background()
	sub, opts := commandOptions(i)
	guilds := a.Store().Guilds()

	var (
		update = new(entities.GuildUpdate)
		reply  string
	)
	switch sub {
	case "view":
		g, err := guilds.GetOrCreateGuild(ctx, i.GuildID)
		if err != nil {
			return fmt.Errorf("error getting guild: %w", err)
		}
		return respondEmbed(a, i, true, messages.GuildSettings(g))
	case "logs":
		channel := opts.String(optChannel)
		update.LogChannelID = &channel
		reply = fmt.Sprintf("Ticket logs will be sent to %s.", messages.Channel(channel))
	case "transcripts":
		channel := opts.String(optChannel)
		update.TranscriptChannelID = &channel
		reply = fmt.Sprintf("Transcripts will be sent to %s.", messages.Channel(channel))
	case "category":
		category := opts.String("category")
		update.CategoryID = &category
		reply = "New tickets will be created in the selected category."
	case "limit":
		limit, _ := opts.Int("limit")
		update.TicketLimit = &limit
		reply = fmt.Sprintf("Users can now have %d open ticket(s).", limit)
	case "autoclose":
		hours, _ := opts.Int("hours")
		update.AutoCloseHours = &hours
		reply = "Auto close has been disabled."
		if hours > 0 {
			reply = fmt.Sprintf("Tickets will be closed after %d hour(s) of inactivity.", hours)
		}
	case "addrole", "removerole", "autorole", "removeautorole":
		return guildRoleCmd(a, i, sub, opts.String(optRole))
	case "blacklist":
		return blacklistCmd(a, i, opts.String(optUser), opts.String(optReason))
	case "unblacklist":
		return unblacklistCmd(a, i, opts.String(optUser))
	default:
		return fmt.Errorf("unhandled sub command %s", sub)
	}

	if err := update.Validate(); err != nil {
		return err
	}
	if _, err := guilds.UpdateGuild(ctx, i.GuildID, update); err != nil {
		return fmt.Errorf("error updating guild: %w", err)
	}
	return respondEmbed(a, i, true, messages.Success(reply))
}

func guildRoleCmd(a IApp, i *discordgo.InteractionCreate, sub, roleID string) error {
	ctx := context.Background()
	guilds := a.Store().Guilds()

	set := entities.GuildSupportRoles
	if sub == "autorole" || sub == "removeautorole" {
		set = entities.GuildAutoRoles
	}

	var (
		changed bool
		err     error
		reply   string
	)
	switch sub {
	case "addrole", "autorole":
		if set == entities.GuildAutoRoles {
			h, err := a.Platform().RolePositions(ctx, i.GuildID)
			if err != nil {
				return fmt.Errorf("error getting role positions: %w", err)
			}
			if allowed, _ := h.Manageable([]string{roleID}); len(allowed) == 0 {
				return entities.NewValidationError("role", "is above the bot's highest role")
			}
		}
		changed, err = guilds.AddGuildRole(ctx, i.GuildID, set, roleID)
		reply = fmt.Sprintf("%s has been added.", messages.Role(roleID))
		if !changed {
			reply = fmt.Sprintf("%s was already added.", messages.Role(roleID))
		}
	default:
		changed, err = guilds.RemoveGuildRole(ctx, i.GuildID, set, roleID)
		reply = fmt.Sprintf("%s has been removed.", messages.Role(roleID))
		if !changed {
			reply = fmt.Sprintf("%s was not set.", messages.Role(roleID))
		}
	}
	if err != nil {
		return fmt.Errorf("error changing %s: %w", set, err)
	}
	return respondEmbed(a, i, true, messages.Success(reply))
}

func blacklistCmd(a IApp, i *discordgo.InteractionCreate, userID, reason string) error {
	err := a.Store().Blacklist().AddBlacklistEntry(context.Background(), &entities.BlacklistEntry{
		GuildID: i.GuildID,
		UserID:  userID,
		Reason:  reason,
		AddedBy: i.Member.User.ID,
		AddedAt: custom.Now(),
	})
	if err != nil {
		return fmt.Errorf("error adding blacklist entry: %w", err)
	}
	return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("%s can no longer open tickets.", messages.User(userID))))
}

func unblacklistCmd(a IApp, i *discordgo.InteractionCreate, userID string) error {
	err := a.Store().Blacklist().RemoveBlacklistEntry(context.Background(), i.GuildID, userID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return entities.NewNotFoundError("blacklist entry")
	} else if err != nil {
		return fmt.Errorf("error removing blacklist entry: %w", err)
	}
	return respondEmbed(a, i, true, messages.Success(fmt.Sprintf("%s can open tickets again.", messages.User(userID))))
}
