package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketDalName = "ticket_dal"

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// db is the database.
	db *mongo.Database
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(l *slog.Logger, db *mongo.Database) TicketDal {
	return &ticketDal{
		l:  l.With(slog.String(logging.KeyDal, ticketDalName)),
		db: db,
	}
}

func (d *ticketDal) collection() *mongo.Collection {
	return d.db.Collection(collTickets)
}

func (d *ticketDal) CreateTicket(ctx context.Context, ticket *entities.Ticket) error {
	defer track(ticketDalName, "create_ticket", d.db.Name(), collTickets).ObserveDuration()

	if _, err := d.collection().InsertOne(ctx, ticket); mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	} else if err != nil {
		return fmt.Errorf("error creating ticket: %w", err)
	}
	return nil
}

func (d *ticketDal) GetTicketByChannel(ctx context.Context, channelID string) (*entities.Ticket, error) {
	defer track(ticketDalName, "get_ticket_by_channel", d.db.Name(), collTickets).ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{"channel_id": channelID}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDal) CountOpenTickets(ctx context.Context, guildID, userID string) (int64, error) {
	defer track(ticketDalName, "count_open_tickets", d.db.Name(), collTickets).ObserveDuration()

	n, err := d.collection().CountDocuments(ctx, bson.M{
		"guild_id": guildID,
		"user_id":  userID,
		"status":   entities.TicketStatusOpen,
	})
	if err != nil {
		return 0, fmt.Errorf("error counting open tickets: %w", err)
	}
	return n, nil
}

func (d *ticketDal) ClaimTicket(ctx context.Context, channelID, userID string) error {
	defer track(ticketDalName, "claim_ticket", d.db.Name(), collTickets).ObserveDuration()

	return d.conditionalSet(ctx, bson.M{
		"channel_id": channelID,
		"status":     entities.TicketStatusOpen,
		"claimed_by": "",
	}, bson.M{"claimed_by": userID})
}

func (d *ticketDal) UnclaimTicket(ctx context.Context, channelID string) error {
	defer track(ticketDalName, "unclaim_ticket", d.db.Name(), collTickets).ObserveDuration()

	return d.conditionalSet(ctx, bson.M{
		"channel_id": channelID,
		"status":     entities.TicketStatusOpen,
		"claimed_by": bson.M{"$ne": ""},
	}, bson.M{"claimed_by": ""})
}

func (d *ticketDal) CloseTicket(ctx context.Context, channelID string, close *entities.TicketClose) error {
	defer track(ticketDalName, "close_ticket", d.db.Name(), collTickets).ObserveDuration()

	return d.conditionalSet(ctx, bson.M{
		"channel_id": channelID,
		"status":     entities.TicketStatusOpen,
	}, bson.M{
		"status":          entities.TicketStatusClosed,
		"closed_by":       close.ClosedBy,
		"close_reason":    close.Reason,
		"transcript_path": close.TranscriptPath,
		"closed_at":       close.ClosedAt,
	})
}

// conditionalSet applies set to the ticket matching filter, returning ErrNoMatch if nothing matched.
func (d *ticketDal) conditionalSet(ctx context.Context, filter, set bson.M) error {
	res, err := d.collection().UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating ticket: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (d *ticketDal) UpdateTicket(ctx context.Context, channelID string, update *entities.TicketUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	defer track(ticketDalName, "update_ticket", d.db.Name(), collTickets).ObserveDuration()

	res, err := d.collection().UpdateOne(ctx, bson.M{"channel_id": channelID}, bson.M{"$set": ticketUpdateDoc(update)})
	if err != nil {
		return fmt.Errorf("error updating ticket: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *ticketDal) ListTickets(ctx context.Context, filter entities.TicketFilter, page entities.Page) ([]*entities.Ticket, int64, error) {
	defer track(ticketDalName, "list_tickets", d.db.Name(), collTickets).ObserveDuration()

	page = page.Normalise()
	query := ticketFilterDoc(filter)

	total, err := d.collection().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting tickets: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))

	cur, err := d.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing tickets: %w", err)
	}

	tickets := make([]*entities.Ticket, 0)
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, 0, fmt.Errorf("error decoding tickets: %w", err)
	}
	return tickets, total, nil
}

func (d *ticketDal) TicketStats(ctx context.Context, guildID string) (*entities.TicketStats, error) {
	defer track(ticketDalName, "ticket_stats", d.db.Name(), collTickets).ObserveDuration()

	stats := new(entities.TicketStats)

	var err error
	stats.Open, err = d.collection().CountDocuments(ctx, bson.M{"guild_id": guildID, "status": entities.TicketStatusOpen})
	if err != nil {
		return nil, fmt.Errorf("error counting open tickets: %w", err)
	}

	stats.Closed, err = d.collection().CountDocuments(ctx, bson.M{"guild_id": guildID, "status": entities.TicketStatusClosed})
	if err != nil {
		return nil, fmt.Errorf("error counting closed tickets: %w", err)
	}

	cur, err := d.collection().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"guild_id": guildID, "rating": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("error aggregating ratings: %w", err)
	}

	var rows []struct {
		Avg   float64 `bson:"avg"`
		Count int64   `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding ratings: %w", err)
	}
	if len(rows) > 0 {
		stats.AverageRating = RoundRating(rows[0].Avg)
		stats.Rated = rows[0].Count
	}
	return stats, nil
}

func (d *ticketDal) ListInactiveTickets(ctx context.Context, guildID string, before time.Time) ([]*entities.Ticket, error) {
	defer track(ticketDalName, "list_inactive_tickets", d.db.Name(), collTickets).ObserveDuration()

	cur, err := d.collection().Find(ctx, bson.M{
		"guild_id":         guildID,
		"status":           entities.TicketStatusOpen,
		"last_activity_at": bson.M{"$lt": before.UTC()},
	})
	if err != nil {
		return nil, fmt.Errorf("error listing inactive tickets: %w", err)
	}

	tickets := make([]*entities.Ticket, 0)
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	return tickets, nil
}

func ticketFilterDoc(f entities.TicketFilter) bson.M {
	q := bson.M{"guild_id": f.GuildID}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	return q
}

func ticketUpdateDoc(u *entities.TicketUpdate) bson.M {
	set := bson.M{}
	if u.Priority != nil {
		set["priority"] = *u.Priority
	}
	if u.Rating != nil {
		set["rating"] = *u.Rating
	}
	if u.Feedback != nil {
		set["feedback"] = *u.Feedback
	}
	if u.TranscriptPath != nil {
		set["transcript_path"] = *u.TranscriptPath
	}
	if u.LastActivityAt != nil {
		set["last_activity_at"] = *u.LastActivityAt
	}
	return set
}

// RoundRating rounds an average rating to one decimal place.
func RoundRating(avg float64) float64 {
	return float64(int64(avg*10+0.5)) / 10
}
