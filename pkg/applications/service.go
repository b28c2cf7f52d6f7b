// Package applications runs application types and the submissions made to them.
package applications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/dataaccess"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"github.com/Jacobbrewer1/rabbit/pkg/notify"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/tickets"
)

// TicketOpener opens the ticket that goes with a submission.
type TicketOpener interface {
	Create(ctx context.Context, req *tickets.CreateRequest) (*entities.Ticket, error)
}

type Service struct {
	l       *slog.Logger
	store   dataaccess.Store
	client  platform.Client
	tickets TicketOpener
	sink    *notify.Sink
	now     func() time.Time
}

// Option configures a Service.
type Option func(s *Service)

// WithClock replaces the clock used for cooldowns and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(l *slog.Logger, store dataaccess.Store, client platform.Client, opener TicketOpener, sink *notify.Sink, opts ...Option) *Service {
	s := &Service{
		l:       l,
		store:   store,
		client:  client,
		tickets: opener,
		sink:    sink,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Service) logger(at *entities.ApplicationType) *slog.Logger {
	return s.l.With(
		slog.String(logging.KeyGuild, at.GuildID),
		slog.String("application_type", at.Name),
	)
}

// GetType gets an application type of the guild.
func (s *Service) GetType(ctx context.Context, guildID, typeID string) (*entities.ApplicationType, error) {
	at, err := s.store.ApplicationTypes().GetApplicationType(ctx, typeID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, entities.NewNotFoundError("application type")
	} else if err != nil {
		return nil, entities.NewExternalError("getting application type", err)
	}

	// IDs are global, so a type from another guild is treated as missing.
	if at.GuildID != guildID {
		return nil, entities.NewNotFoundError("application type")
	}
	return at, nil
}

// GetTypeByName gets an application type of the guild by name.
func (s *Service) GetTypeByName(ctx context.Context, guildID, name string) (*entities.ApplicationType, error) {
	at, err := s.store.ApplicationTypes().GetApplicationTypeByName(ctx, guildID, name)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, entities.NewNotFoundError("application type")
	} else if err != nil {
		return nil, entities.NewExternalError("getting application type", err)
	}
	return at, nil
}

func (s *Service) ListTypes(ctx context.Context, guildID string) ([]*entities.ApplicationType, error) {
	types, err := s.store.ApplicationTypes().ListApplicationTypes(ctx, guildID)
	if err != nil {
		return nil, entities.NewExternalError("listing application types", err)
	}
	return types, nil
}
