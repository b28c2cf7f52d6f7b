package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const guildDalName = "guild_dal"

type guildDalImpl struct {
	// l is the logger.
	l *slog.Logger

	// db is the database.
	db *mongo.Database
}

// NewGuildDal creates a new guild data access layer.
func NewGuildDal(l *slog.Logger, db *mongo.Database) GuildDal {
	return &guildDalImpl{
		l:  l.With(slog.String(logging.KeyDal, guildDalName)),
		db: db,
	}
}

func (g *guildDalImpl) collection() *mongo.Collection {
	return g.db.Collection(collGuilds)
}

// GetGuild gets a guild by ID.
func (g *guildDalImpl) GetGuild(ctx context.Context, guildID string) (*entities.Guild, error) {
	defer track(guildDalName, "get_guild", g.db.Name(), collGuilds).ObserveDuration()

	guild := new(entities.Guild)
	err := g.collection().FindOne(ctx, bson.M{"_id": guildID}).Decode(guild)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild: %w", err)
	}
	return guild, nil
}

func (g *guildDalImpl) GetOrCreateGuild(ctx context.Context, guildID string) (*entities.Guild, error) {
	defer track(guildDalName, "get_or_create_guild", g.db.Name(), collGuilds).ObserveDuration()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	guild := new(entities.Guild)
	err := g.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": guildID},
		bson.M{"$setOnInsert": guildDefaults()},
		opts,
	).Decode(guild)
	if err != nil {
		return nil, fmt.Errorf("error getting or creating guild: %w", err)
	}
	return guild, nil
}

func (g *guildDalImpl) UpdateGuild(ctx context.Context, guildID string, update *entities.GuildUpdate) (*entities.Guild, error) {
	if update.IsEmpty() {
		return g.GetOrCreateGuild(ctx, guildID)
	}

	defer track(guildDalName, "update_guild", g.db.Name(), collGuilds).ObserveDuration()

	set := guildUpdateDoc(update)
	skip := make([]string, 0, len(set))
	for k := range set {
		skip = append(skip, k)
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	guild := new(entities.Guild)
	err := g.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": guildID},
		bson.M{"$set": set, "$setOnInsert": guildDefaults(skip...)},
		opts,
	).Decode(guild)
	if err != nil {
		return nil, fmt.Errorf("error updating guild: %w", err)
	}
	return guild, nil
}

func (g *guildDalImpl) AddGuildRole(ctx context.Context, guildID string, set entities.GuildRoleSet, roleID string) (bool, error) {
	defer track(guildDalName, "add_guild_role", g.db.Name(), collGuilds).ObserveDuration()

	res, err := g.collection().UpdateOne(ctx,
		bson.M{"_id": guildID},
		bson.M{
			"$addToSet":    bson.M{string(set): roleID},
			"$setOnInsert": guildDefaults(string(set)),
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("error adding guild role: %w", err)
	}
	return res.ModifiedCount > 0 || res.UpsertedCount > 0, nil
}

func (g *guildDalImpl) RemoveGuildRole(ctx context.Context, guildID string, set entities.GuildRoleSet, roleID string) (bool, error) {
	defer track(guildDalName, "remove_guild_role", g.db.Name(), collGuilds).ObserveDuration()

	res, err := g.collection().UpdateOne(ctx,
		bson.M{"_id": guildID},
		bson.M{"$pull": bson.M{string(set): roleID}},
	)
	if err != nil {
		return false, fmt.Errorf("error removing guild role: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (g *guildDalImpl) IncrementTicketCounter(ctx context.Context, guildID string) (int, error) {
	defer track(guildDalName, "increment_ticket_counter", g.db.Name(), collGuilds).ObserveDuration()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	guild := new(entities.Guild)
	err := g.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": guildID},
		bson.M{
			"$inc":         bson.M{"ticket_counter": 1},
			"$setOnInsert": guildDefaults("ticket_counter"),
		},
		opts,
	).Decode(guild)
	if err != nil {
		return 0, fmt.Errorf("error incrementing ticket counter: %w", err)
	}
	return guild.TicketCounter, nil
}

func (g *guildDalImpl) ListAutoCloseGuilds(ctx context.Context) ([]*entities.Guild, error) {
	defer track(guildDalName, "list_auto_close_guilds", g.db.Name(), collGuilds).ObserveDuration()

	cur, err := g.collection().Find(ctx, bson.M{"auto_close_hours": bson.M{"$gt": 0}})
	if err != nil {
		return nil, fmt.Errorf("error listing auto close guilds: %w", err)
	}

	guilds := make([]*entities.Guild, 0)
	if err := cur.All(ctx, &guilds); err != nil {
		return nil, fmt.Errorf("error decoding guilds: %w", err)
	}
	return guilds, nil
}

// guildUpdateDoc builds the $set document for the fields present in the update.
func guildUpdateDoc(u *entities.GuildUpdate) bson.M {
	set := bson.M{}
	if u.LogChannelID != nil {
		set["log_channel_id"] = *u.LogChannelID
	}
	if u.TranscriptChannelID != nil {
		set["transcript_channel_id"] = *u.TranscriptChannelID
	}
	if u.CategoryID != nil {
		set["category_id"] = *u.CategoryID
	}
	if u.TicketLimit != nil {
		set["ticket_limit"] = *u.TicketLimit
	}
	if u.AutoCloseHours != nil {
		set["auto_close_hours"] = *u.AutoCloseHours
	}
	return set
}
