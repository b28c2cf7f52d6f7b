// Package panels posts ticket panels and opens tickets from them.
package panels

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/messages"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
	"github.com/google/uuid"
)

// TicketOpener opens a ticket for a panel's ticket type.
type TicketOpener interface {
	Create(ctx context.Context, req *tickets.CreateRequest) (*entities.Ticket, error)
}

// Request describes a panel to post.
type Request struct {
	GuildID     string                `json:"-"`
	ChannelID   string                `json:"channel_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Style       entities.PanelStyle   `json:"style"`
	TicketTypes []entities.TicketType `json:"ticket_types"`
}

type Service struct {
	l       *slog.Logger
	store   dataaccess.PanelDal
	client  platform.Client
	tickets TicketOpener
	now     func() time.Time
}

func NewService(l *slog.Logger, store dataaccess.Store, client platform.Client, opener TicketOpener) *Service {
	return &Service{
		l:       l,
		store:   store.Panels(),
		client:  client,
		tickets: opener,
		now:     time.Now,
	}
}

// Create validates and posts a panel, then saves it.
func (s *Service) Create(ctx context.Context, req *Request) (*entities.Panel, error) {
	style := req.Style
	if style == "" {
		style = entities.PanelStyleButtons
	}

	p := &entities.Panel{
		ID:          uuid.New().String(),
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Style:       style,
		TicketTypes: req.TicketTypes,
		CreatedAt:   custom.NewDatetime(s.now().UTC()),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := platform.CheckGuildChannel(ctx, s.client, p.GuildID, "channel_id", p.ChannelID); err != nil {
		return nil, err
	}
	for _, tt := range p.TicketTypes {
		if err := platform.CheckGuildChannel(ctx, s.client, p.GuildID, "ticket_types", tt.CategoryID); err != nil {
			return nil, err
		}
	}

	msg, err := s.client.SendMessage(ctx, p.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{messages.TicketPanel(p)},
		Components: messages.PanelControls(p),
	})
	if err != nil {
		return nil, entities.NewExternalError("posting panel", err)
	}
	p.MessageID = msg.ID

	if err := s.store.CreatePanel(ctx, p); err != nil {
		if delErr := s.client.DeleteMessage(ctx, p.ChannelID, msg.ID); delErr != nil {
			s.l.Warn("Error removing unsaved panel", slog.String(logging.KeyError, delErr.Error()))
		}
		return nil, entities.NewExternalError("saving panel", err)
	}

	s.l.Info("Panel created",
		slog.String(logging.KeyGuild, p.GuildID),
		slog.String(logging.KeyChannel, p.ChannelID),
		slog.Int("ticket_types", len(p.TicketTypes)),
	)
	return p, nil
}

func (s *Service) List(ctx context.Context, guildID string) ([]*entities.Panel, error) {
	panels, err := s.store.ListPanels(ctx, guildID)
	if err != nil {
		return nil, entities.NewExternalError("listing panels", err)
	}
	return panels, nil
}

// Get gets a panel of the guild.
func (s *Service) Get(ctx context.Context, guildID, panelID string) (*entities.Panel, error) {
	p, err := s.store.GetPanel(ctx, panelID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.GuildID != guildID {
		return nil, entities.NewNotFoundError("panel")
	}
	return p, nil
}

// GetByMessage gets the panel posted as a message.
func (s *Service) GetByMessage(ctx context.Context, messageID string) (*entities.Panel, error) {
	p, err := s.store.GetPanelByMessage(ctx, messageID)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Delete removes the panel record. The posted message is left in place.
func (s *Service) Delete(ctx context.Context, guildID, panelID string) error {
	if _, err := s.Get(ctx, guildID, panelID); err != nil {
		return err
	}
	if err := s.store.DeletePanel(ctx, panelID); err != nil {
		return notFound(err)
	}
	return nil
}

// Open opens a ticket of the named type from the panel posted as messageID.
func (s *Service) Open(ctx context.Context, messageID, typeName, creatorID string) (*entities.Ticket, error) {
	p, err := s.GetByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	tt, ok := p.TicketType(typeName)
	if !ok {
		return nil, entities.NewNotFoundError("ticket type")
	}

	return s.tickets.Create(ctx, &tickets.CreateRequest{
		GuildID:    p.GuildID,
		CreatorID:  creatorID,
		TicketType: tt.Name,
		Type:       tt,
	})
}

func notFound(err error) error {
	if errors.Is(err, dataaccess.ErrNotFound) {
		return entities.NewNotFoundError("panel")
	}
	return entities.NewExternalError("getting panel", err)
}
