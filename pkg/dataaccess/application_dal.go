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

const applicationDalName = "application_dal"

type applicationDal struct {
	// l is the logger.
	l *slog.Logger

	// db is the database.
	db *mongo.Database
}

// NewApplicationDal creates a new application data access layer.
func NewApplicationDal(l *slog.Logger, db *mongo.Database) ApplicationDal {
	return &applicationDal{
		l:  l.With(slog.String(logging.KeyDal, applicationDalName)),
		db: db,
	}
}

func (d *applicationDal) collection() *mongo.Collection {
	return d.db.Collection(collApplications)
}

func (d *applicationDal) CreateApplication(ctx context.Context, app *entities.Application) error {
	defer track(applicationDalName, "create_application", d.db.Name(), collApplications).ObserveDuration()

	if _, err := d.collection().InsertOne(ctx, app); err != nil {
		return fmt.Errorf("error creating application: %w", err)
	}
	return nil
}

func (d *applicationDal) GetApplication(ctx context.Context, id string) (*entities.Application, error) {
	defer track(applicationDalName, "get_application", d.db.Name(), collApplications).ObserveDuration()

	return d.findOne(ctx, bson.M{"_id": id})
}

func (d *applicationDal) GetLatestApplication(ctx context.Context, guildID, userID, appTypeID string) (*entities.Application, error) {
	defer track(applicationDalName, "get_latest_application", d.db.Name(), collApplications).ObserveDuration()

	// Set the options to get the latest application.
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	return d.findOne(ctx, bson.M{
		"guild_id":            guildID,
		"user_id":             userID,
		"application_type_id": appTypeID,
	}, opts)
}

func (d *applicationDal) GetApplicationByChannel(ctx context.Context, channelID string) (*entities.Application, error) {
	defer track(applicationDalName, "get_application_by_channel", d.db.Name(), collApplications).ObserveDuration()

	return d.findOne(ctx, bson.M{"ticket_channel_id": channelID})
}

func (d *applicationDal) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*entities.Application, error) {
	app := new(entities.Application)
	err := d.collection().FindOne(ctx, filter, opts...).Decode(app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting application: %w", err)
	}
	return app, nil
}

func (d *applicationDal) ReviewApplication(ctx context.Context, id string, review *entities.ApplicationReview) error {
	defer track(applicationDalName, "review_application", d.db.Name(), collApplications).ObserveDuration()

	res, err := d.collection().UpdateOne(ctx,
		bson.M{"_id": id, "status": entities.ApplicationPending},
		bson.M{"$set": bson.M{
			"status":        review.Status,
			"reviewed_by":   review.ReviewedBy,
			"review_reason": review.Reason,
			"reviewed_at":   review.ReviewedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("error reviewing application: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (d *applicationDal) ListApplications(ctx context.Context, filter entities.ApplicationFilter, page entities.Page) ([]*entities.Application, int64, error) {
	defer track(applicationDalName, "list_applications", d.db.Name(), collApplications).ObserveDuration()

	page = page.Normalise()
	query := applicationFilterDoc(filter)

	total, err := d.collection().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting applications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Size))

	cur, err := d.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing applications: %w", err)
	}

	apps := make([]*entities.Application, 0)
	if err := cur.All(ctx, &apps); err != nil {
		return nil, 0, fmt.Errorf("error decoding applications: %w", err)
	}
	return apps, total, nil
}

func (d *applicationDal) CountApplications(ctx context.Context, filter entities.ApplicationFilter) (int64, error) {
	defer track(applicationDalName, "count_applications", d.db.Name(), collApplications).ObserveDuration()

	n, err := d.collection().CountDocuments(ctx, applicationFilterDoc(filter))
	if err != nil {
		return 0, fmt.Errorf("error counting applications: %w", err)
	}
	return n, nil
}

func applicationFilterDoc(f entities.ApplicationFilter) bson.M {
	q := bson.M{"guild_id": f.GuildID}
	if f.ApplicationTypeID != "" {
		q["application_type_id"] = f.ApplicationTypeID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}
