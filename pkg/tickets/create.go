package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/google/uuid"
)

// CreateRequest describes a ticket to open.
type CreateRequest struct {
	GuildID   string
	CreatorID string

	// TicketType is recorded on the ticket. Type, when set, overrides the guild's category and support roles.
	TicketType string
	Type       *entities.TicketType

	// NamePrefix replaces "ticket" in the channel name.
	NamePrefix string

	// ExtraRoles are given access on top of the support roles.
	ExtraRoles []string

	// Welcome replaces the default welcome message.
	Welcome func(t *entities.Ticket) *discordgo.MessageSend
}

// Create opens a new ticket channel for the creator.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*entities.Ticket, error) {
	guild, err := s.store.Guilds().GetOrCreateGuild(ctx, req.GuildID)
	if err != nil {
		return nil, external("getting guild", err)
	}

	entry, err := s.store.Blacklist().GetBlacklistEntry(ctx, req.GuildID, req.CreatorID)
	switch {
	case err == nil:
		return nil, &entities.BlacklistedError{Reason: entry.Reason}
	case !errors.Is(err, dataaccess.ErrNotFound):
		return nil, external("checking blacklist", err)
	}

	open, err := s.store.Tickets().CountOpenTickets(ctx, req.GuildID, req.CreatorID)
	if err != nil {
		return nil, external("counting open tickets", err)
	}
	limit := guild.TicketLimit
	if limit <= 0 {
		limit = entities.DefaultTicketLimit
	}
	if open >= int64(limit) {
		return nil, &entities.LimitError{Limit: limit}
	}

	// A failure after this point leaves a gap in the guild's ticket numbers.
	number, err := s.store.Guilds().IncrementTicketCounter(ctx, req.GuildID)
	if err != nil {
		return nil, external("incrementing ticket counter", err)
	}

	roles, categoryID := guild.SupportRoles, guild.CategoryID
	if req.Type != nil {
		if len(req.Type.SupportRoles) > 0 {
			roles = req.Type.SupportRoles
		}
		if req.Type.CategoryID != "" {
			categoryID = req.Type.CategoryID
		}
	}
	roles = custom.Union(roles, req.ExtraRoles)

	prefix := "ticket"
	if req.NamePrefix != "" {
		prefix = req.NamePrefix
	}
	name := entities.ChannelSlug(fmt.Sprintf("%s-%d", prefix, number))

	channel, err := s.client.CreateChannel(ctx, req.GuildID, name, categoryID, permissions.TicketOverwrites(req.GuildID, req.CreatorID, roles))
	if err != nil {
		return nil, external("creating ticket channel", err)
	}

	now := custom.NewDatetime(s.timestamp())
	ticket := &entities.Ticket{
		ID:             uuid.New().String(),
		GuildID:        req.GuildID,
		ChannelID:      channel.ID,
		UserID:         req.CreatorID,
		TicketType:     req.TicketType,
		Number:         number,
		Status:         entities.TicketStatusOpen,
		Priority:       entities.PriorityNormal,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := s.store.Tickets().CreateTicket(ctx, ticket); err != nil {
		s.bestEffort(ticket, "Error removing channel of unsaved ticket", s.client.DeleteChannel(ctx, channel.ID))
		return nil, external("saving ticket", err)
	}

	welcome := defaultWelcome
	if req.Welcome != nil {
		welcome = req.Welcome
	}
	if _, err := s.client.SendMessage(ctx, channel.ID, welcome(ticket)); err != nil {
		s.bestEffort(ticket, "Error sending welcome message", err)
	}
	s.pingRoles(ctx, ticket, roles)

	TicketsCreated.Inc()
	s.logger(ticket).Info("Ticket created", slog.String(logging.KeyUser, req.CreatorID))
	s.sink.TicketAction(ctx, guild, "Created", ticket, req.CreatorID,
		messages.LogField{Name: "Channel", Value: messages.Channel(channel.ID), Inline: true},
	)

	return ticket, nil
}

func defaultWelcome(t *entities.Ticket) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    messages.User(t.UserID) + " Welcome to your ticket!",
		Embeds:     []*discordgo.MessageEmbed{messages.TicketWelcome(t)},
		Components: messages.TicketControls(),
	}
}

// pingRoles notifies the support roles by mentioning them and removing the mention straight away.
func (s *Service) pingRoles(ctx context.Context, t *entities.Ticket, roles []string) {
	if len(roles) == 0 {
		return
	}

	msg, err := s.client.SendMessage(ctx, t.ChannelID, &discordgo.MessageSend{Content: messages.Roles(roles)})
	if err != nil {
		s.bestEffort(t, "Error pinging support roles", err)
		return
	}
	s.bestEffort(t, "Error removing support ping", s.client.DeleteMessage(ctx, t.ChannelID, msg.ID))
}
