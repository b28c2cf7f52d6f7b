// Package tickets runs the ticket lifecycle: open, claim, close, rate and delete.
package tickets

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/permissions"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/transcript"
)

const (
	// DefaultDeleteDelay is how long a deleted ticket's channel stays before it is removed.
	DefaultDeleteDelay = 5 * time.Second

	// AutoCloseReason is recorded on tickets closed for inactivity.
	AutoCloseReason = "Auto-closed after inactivity"

	// DeleteReason is recorded on open tickets that are deleted.
	DeleteReason = "Ticket deleted"
)

// Transcriber writes the transcript of a ticket.
type Transcriber interface {
	Generate(ctx context.Context, ticket *entities.Ticket, channelName string) (*transcript.File, error)
}

type Service struct {
	l           *slog.Logger
	store       dataaccess.Store
	client      platform.Client
	transcripts Transcriber
	sink        *notify.Sink

	now         func() time.Time
	deleteDelay time.Duration
	afterFunc   func(d time.Duration, f func())
}

// Option configures a Service.
type Option func(s *Service)

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithDeleteDelay sets how long Delete waits before removing the channel.
func WithDeleteDelay(d time.Duration) Option {
	return func(s *Service) {
		s.deleteDelay = d
	}
}

// WithAfterFunc replaces the scheduler used for delayed channel removal.
func WithAfterFunc(f func(d time.Duration, f func())) Option {
	return func(s *Service) {
		s.afterFunc = f
	}
}

func NewService(l *slog.Logger, store dataaccess.Store, client platform.Client, transcripts Transcriber, sink *notify.Sink, opts ...Option) *Service {
	s := &Service{
		l:           l,
		store:       store,
		client:      client,
		transcripts: transcripts,
		sink:        sink,
		now:         time.Now,
		deleteDelay: DefaultDeleteDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// botActor is the bot acting on its own behalf.
func (s *Service) botActor() permissions.Actor {
	return permissions.Actor{
		UserID:      s.client.BotUserID(),
		Permissions: permissions.Administrator,
	}
}

// load gets the ticket in a channel and the guild it belongs to.
func (s *Service) load(ctx context.Context, channelID string) (*entities.Ticket, *entities.Guild, error) {
	ticket, err := s.store.Tickets().GetTicketByChannel(ctx, channelID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, nil, entities.NewNotFoundError("ticket")
	} else if err != nil {
		return nil, nil, entities.NewExternalError("getting ticket", err)
	}

	guild, err := s.store.Guilds().GetOrCreateGuild(ctx, ticket.GuildID)
	if err != nil {
		return nil, nil, entities.NewExternalError("getting guild", err)
	}
	return ticket, guild, nil
}

// Get returns the ticket held in a channel.
func (s *Service) Get(ctx context.Context, channelID string) (*entities.Ticket, error) {
	ticket, _, err := s.load(ctx, channelID)
	return ticket, err
}

func (s *Service) logger(t *entities.Ticket) *slog.Logger {
	return s.l.With(
		slog.String(logging.KeyGuild, t.GuildID),
		slog.String(logging.KeyChannel, t.ChannelID),
		slog.Int(logging.KeyTicket, t.Number),
	)
}

// bestEffort logs a failed side effect that must not fail the operation.
func (s *Service) bestEffort(t *entities.Ticket, msg string, err error) {
	if err == nil {
		return
	}
	s.logger(t).Warn(msg, slog.String(logging.KeyError, err.Error()))
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func external(op string, err error) error {
	return entities.NewExternalError(op, err)
}
