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

const blacklistDalName = "blacklist_dal"

type blacklistDal struct {
	l  *slog.Logger
	db *mongo.Database
}

// NewBlacklistDal creates a new blacklist data access layer.
func NewBlacklistDal(l *slog.Logger, db *mongo.Database) BlacklistDal {
	return &blacklistDal{
		l:  l.With(slog.String(logging.KeyDal, blacklistDalName)),
		db: db,
	}
}

func (d *blacklistDal) collection() *mongo.Collection {
	return d.db.Collection(collBlacklist)
}

func (d *blacklistDal) GetBlacklistEntry(ctx context.Context, guildID, userID string) (*entities.BlacklistEntry, error) {
	defer track(blacklistDalName, "get_blacklist_entry", d.db.Name(), collBlacklist).ObserveDuration()

	entry := new(entities.BlacklistEntry)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID, "user_id": userID}).Decode(entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting blacklist entry: %w", err)
	}
	return entry, nil
}

func (d *blacklistDal) AddBlacklistEntry(ctx context.Context, entry *entities.BlacklistEntry) error {
	defer track(blacklistDalName, "add_blacklist_entry", d.db.Name(), collBlacklist).ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx,
		bson.M{"guild_id": entry.GuildID, "user_id": entry.UserID},
		bson.M{"$set": entry},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error adding blacklist entry: %w", err)
	}
	return nil
}

func (d *blacklistDal) RemoveBlacklistEntry(ctx context.Context, guildID, userID string) error {
	defer track(blacklistDalName, "remove_blacklist_entry", d.db.Name(), collBlacklist).ObserveDuration()

	res, err := d.collection().DeleteOne(ctx, bson.M{"guild_id": guildID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("error removing blacklist entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *blacklistDal) ListBlacklist(ctx context.Context, guildID string) ([]*entities.BlacklistEntry, error) {
	defer track(blacklistDalName, "list_blacklist", d.db.Name(), collBlacklist).ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: -1}})
	cur, err := d.collection().Find(ctx, bson.M{"guild_id": guildID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing blacklist: %w", err)
	}

	entries := make([]*entities.BlacklistEntry, 0)
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding blacklist: %w", err)
	}
	return entries, nil
}
