package dataaccess

import (
	"context"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/custom"
	"github.com/Jacobbrewer1/rabbit/pkg/entities"
)

type GuildDal interface {
	// GetGuild gets a guild. ErrNotFound is returned if the guild has never been referenced.
	GetGuild(ctx context.Context, guildID string) (*entities.Guild, error)

	// GetOrCreateGuild gets a guild, creating it with the default settings if it does not exist.
	GetOrCreateGuild(ctx context.Context, guildID string) (*entities.Guild, error)

	// UpdateGuild applies the update and returns the updated guild.
	UpdateGuild(ctx context.Context, guildID string, update *entities.GuildUpdate) (*entities.Guild, error)

	// AddGuildRole adds a role to one of the guild's role sets. The bool is false if it was already present.
	AddGuildRole(ctx context.Context, guildID string, set entities.GuildRoleSet, roleID string) (bool, error)

	// RemoveGuildRole removes a role from one of the guild's role sets. The bool is false if it was not present.
	RemoveGuildRole(ctx context.Context, guildID string, set entities.GuildRoleSet, roleID string) (bool, error)

	// IncrementTicketCounter atomically increments the guild's ticket counter and returns the new value.
	IncrementTicketCounter(ctx context.Context, guildID string) (int, error)

	// ListAutoCloseGuilds lists the guilds that have auto close enabled.
	ListAutoCloseGuilds(ctx context.Context) ([]*entities.Guild, error)
}

type TicketDal interface {
	CreateTicket(ctx context.Context, ticket *entities.Ticket) error

	GetTicketByChannel(ctx context.Context, channelID string) (*entities.Ticket, error)

	// CountOpenTickets counts the open tickets the user has in the guild.
	CountOpenTickets(ctx context.Context, guildID, userID string) (int64, error)

	// ClaimTicket sets the claimant of an open, unclaimed ticket. ErrNoMatch is returned otherwise.
	ClaimTicket(ctx context.Context, channelID, userID string) error

	// UnclaimTicket clears the claimant of an open, claimed ticket. ErrNoMatch is returned otherwise.
	UnclaimTicket(ctx context.Context, channelID string) error

	// CloseTicket closes an open ticket. ErrNoMatch is returned if the ticket is already closed.
	CloseTicket(ctx context.Context, channelID string, close *entities.TicketClose) error

	UpdateTicket(ctx context.Context, channelID string, update *entities.TicketUpdate) error

	// ListTickets lists tickets newest first along with the total number matching the filter.
	ListTickets(ctx context.Context, filter entities.TicketFilter, page entities.Page) ([]*entities.Ticket, int64, error)

	// TicketStats summarises the guild's tickets. Total is left for the caller to fill from the guild counter.
	TicketStats(ctx context.Context, guildID string) (*entities.TicketStats, error)

	// ListInactiveTickets lists open tickets with no activity since before.
	ListInactiveTickets(ctx context.Context, guildID string, before time.Time) ([]*entities.Ticket, error)
}

type ApplicationTypeDal interface {
	// CreateApplicationType creates an application type. ErrDuplicate is returned if the name is taken.
	CreateApplicationType(ctx context.Context, appType *entities.ApplicationType) error

	GetApplicationType(ctx context.Context, id string) (*entities.ApplicationType, error)

	GetApplicationTypeByName(ctx context.Context, guildID, name string) (*entities.ApplicationType, error)

	ListApplicationTypes(ctx context.Context, guildID string) ([]*entities.ApplicationType, error)

	// UpdateApplicationType applies the update and returns the updated type.
	UpdateApplicationType(ctx context.Context, id string, update *entities.ApplicationTypeUpdate) (*entities.ApplicationType, error)

	DeleteApplicationType(ctx context.Context, id string) error

	// AddQuestion appends a question if the type still has expectedCount questions. ErrNoMatch is returned otherwise.
	AddQuestion(ctx context.Context, id string, question entities.Question, expectedCount int) error

	// ReplaceQuestions replaces the questions if the type still has expectedCount questions. ErrNoMatch is returned
	// otherwise.
	ReplaceQuestions(ctx context.Context, id string, questions []entities.Question, expectedCount int) error
}

type ApplicationDal interface {
	CreateApplication(ctx context.Context, app *entities.Application) error

	GetApplication(ctx context.Context, id string) (*entities.Application, error)

	// GetLatestApplication gets the user's most recent application for the type.
	GetLatestApplication(ctx context.Context, guildID, userID, appTypeID string) (*entities.Application, error)

	// GetApplicationByChannel gets the application linked to a ticket channel.
	GetApplicationByChannel(ctx context.Context, channelID string) (*entities.Application, error)

	// ReviewApplication records the review of a pending application. ErrNoMatch is returned if it is not pending.
	ReviewApplication(ctx context.Context, id string, review *entities.ApplicationReview) error

	ListApplications(ctx context.Context, filter entities.ApplicationFilter, page entities.Page) ([]*entities.Application, int64, error)

	CountApplications(ctx context.Context, filter entities.ApplicationFilter) (int64, error)
}

type PanelDal interface {
	CreatePanel(ctx context.Context, panel *entities.Panel) error
	GetPanel(ctx context.Context, id string) (*entities.Panel, error)
	GetPanelByMessage(ctx context.Context, messageID string) (*entities.Panel, error)
	ListPanels(ctx context.Context, guildID string) ([]*entities.Panel, error)
	DeletePanel(ctx context.Context, id string) error
}

type BlacklistDal interface {
	GetBlacklistEntry(ctx context.Context, guildID, userID string) (*entities.BlacklistEntry, error)

	// AddBlacklistEntry adds or replaces the entry for the user.
	AddBlacklistEntry(ctx context.Context, entry *entities.BlacklistEntry) error

	RemoveBlacklistEntry(ctx context.Context, guildID, userID string) error

	ListBlacklist(ctx context.Context, guildID string) ([]*entities.BlacklistEntry, error)
}

// Store gives access to every data access layer.
type Store interface {
	Guilds() GuildDal
	Tickets() TicketDal
	ApplicationTypes() ApplicationTypeDal
	Applications() ApplicationDal
	Panels() PanelDal
	Blacklist() BlacklistDal
}

// guildDefaults are the fields written when a guild is first referenced. Fields in skip are left out so that they
// can be set by the same write.
func guildDefaults(skip ...string) map[string]any {
	d := map[string]any{
		"log_channel_id":        "",
		"transcript_channel_id": "",
		"category_id":           "",
		"ticket_counter":        0,
		"ticket_limit":          entities.DefaultTicketLimit,
		"auto_close_hours":      0,
		"support_roles":         custom.Snowflakes{},
		"auto_roles":            custom.Snowflakes{},
		"created_at":            custom.Now(),
	}
	for _, s := range skip {
		delete(d, s)
	}
	return d
}
