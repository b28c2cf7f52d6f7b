package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoStore struct {
	guilds           GuildDal
	tickets          TicketDal
	applicationTypes ApplicationTypeDal
	applications     ApplicationDal
	panels           PanelDal
	blacklist        BlacklistDal
}

// NewMongoStore creates a store backed by the given database. When cache is not nil guild reads are served through
// it.
func NewMongoStore(l *slog.Logger, db *mongo.Database, cache Cache) Store {
	guilds := NewGuildDal(l, db)
	if cache != nil {
		guilds = NewCachedGuildDal(l, guilds, cache, DefaultCacheTTL)
	}

	return &mongoStore{
		guilds:           guilds,
		tickets:          NewTicketDal(l, db),
		applicationTypes: NewApplicationTypeDal(l, db),
		applications:     NewApplicationDal(l, db),
		panels:           NewPanelDal(l, db),
		blacklist:        NewBlacklistDal(l, db),
	}
}

func (s *mongoStore) Guilds() GuildDal                     { return s.guilds }
func (s *mongoStore) Tickets() TicketDal                   { return s.tickets }
func (s *mongoStore) ApplicationTypes() ApplicationTypeDal { return s.applicationTypes }
func (s *mongoStore) Applications() ApplicationDal         { return s.applications }
func (s *mongoStore) Panels() PanelDal                     { return s.panels }
func (s *mongoStore) Blacklist() BlacklistDal              { return s.blacklist }

// indexes are the indexes each collection needs. Unique indexes back the one ticket per channel, one sequence
// number per guild, one name per guild and one blacklist entry per user rules.
var indexes = map[string][]mongo.IndexModel{
	collTickets: {
		{Keys: bson.D{{Key: "channel_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "ticket_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "status", Value: 1}, {Key: "last_activity_at", Value: 1}}},
	},
	collApplicationTypes: {
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	collApplications: {
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "application_type_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "ticket_channel_id", Value: 1}}},
	},
	collPanels: {
		{Keys: bson.D{{Key: "message_id", Value: 1}}},
	},
	collBlacklist: {
		{Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
}

// EnsureIndexes creates the indexes the data access layers rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range indexes {
		t := track("indexes", "create_indexes", db.Name(), coll)
		_, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		t.ObserveDuration()
		if err != nil {
			return fmt.Errorf("error creating indexes on %s: %w", coll, err)
		}
	}
	return nil
}
