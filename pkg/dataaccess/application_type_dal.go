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

const applicationTypeDalName = "application_type_dal"

type applicationTypeDal struct {
	// l is the logger.
	l *slog.Logger

	// db is the database.
	db *mongo.Database
}

// NewApplicationTypeDal creates a new application type data access layer.
func NewApplicationTypeDal(l *slog.Logger, db *mongo.Database) ApplicationTypeDal {
	return &applicationTypeDal{
		l:  l.With(slog.String(logging.KeyDal, applicationTypeDalName)),
		db: db,
	}
}

func (d *applicationTypeDal) collection() *mongo.Collection {
	return d.db.Collection(collApplicationTypes)
}

func (d *applicationTypeDal) CreateApplicationType(ctx context.Context, appType *entities.ApplicationType) error {
	defer track(applicationTypeDalName, "create_application_type", d.db.Name(), collApplicationTypes).ObserveDuration()

	if appType.Questions == nil {
		// $size queries do not match a missing array.
		appType.Questions = []entities.Question{}
	}

	if _, err := d.collection().InsertOne(ctx, appType); mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	} else if err != nil {
		return fmt.Errorf("error creating application type: %w", err)
	}
	return nil
}

func (d *applicationTypeDal) GetApplicationType(ctx context.Context, id string) (*entities.ApplicationType, error) {
	defer track(applicationTypeDalName, "get_application_type", d.db.Name(), collApplicationTypes).ObserveDuration()

	return d.findOne(ctx, bson.M{"_id": id})
}

func (d *applicationTypeDal) GetApplicationTypeByName(ctx context.Context, guildID, name string) (*entities.ApplicationType, error) {
	defer track(applicationTypeDalName, "get_application_type_by_name", d.db.Name(), collApplicationTypes).ObserveDuration()

	return d.findOne(ctx, bson.M{"guild_id": guildID, "name": name})
}

func (d *applicationTypeDal) findOne(ctx context.Context, filter bson.M) (*entities.ApplicationType, error) {
	appType := new(entities.ApplicationType)
	err := d.collection().FindOne(ctx, filter).Decode(appType)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting application type: %w", err)
	}
	return appType, nil
}

func (d *applicationTypeDal) ListApplicationTypes(ctx context.Context, guildID string) ([]*entities.ApplicationType, error) {
	defer track(applicationTypeDalName, "list_application_types", d.db.Name(), collApplicationTypes).ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := d.collection().Find(ctx, bson.M{"guild_id": guildID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing application types: %w", err)
	}

	types := make([]*entities.ApplicationType, 0)
	if err := cur.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("error decoding application types: %w", err)
	}
	return types, nil
}

func (d *applicationTypeDal) UpdateApplicationType(ctx context.Context, id string, update *entities.ApplicationTypeUpdate) (*entities.ApplicationType, error) {
	if update.IsEmpty() {
		return d.GetApplicationType(ctx, id)
	}

	defer track(applicationTypeDalName, "update_application_type", d.db.Name(), collApplicationTypes).ObserveDuration()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	appType := new(entities.ApplicationType)
	err := d.collection().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": applicationTypeUpdateDoc(update)}, opts).Decode(appType)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicate
	case err != nil:
		return nil, fmt.Errorf("error updating application type: %w", err)
	}
	return appType, nil
}

func (d *applicationTypeDal) DeleteApplicationType(ctx context.Context, id string) error {
	defer track(applicationTypeDalName, "delete_application_type", d.db.Name(), collApplicationTypes).ObserveDuration()

	res, err := d.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting application type: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *applicationTypeDal) AddQuestion(ctx context.Context, id string, question entities.Question, expectedCount int) error {
	defer track(applicationTypeDalName, "add_question", d.db.Name(), collApplicationTypes).ObserveDuration()

	res, err := d.collection().UpdateOne(ctx,
		bson.M{"_id": id, "questions": bson.M{"$size": expectedCount}},
		bson.M{"$push": bson.M{"questions": question}},
	)
	if err != nil {
		return fmt.Errorf("error adding question: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (d *applicationTypeDal) ReplaceQuestions(ctx context.Context, id string, questions []entities.Question, expectedCount int) error {
	defer track(applicationTypeDalName, "replace_questions", d.db.Name(), collApplicationTypes).ObserveDuration()

	if questions == nil {
		questions = []entities.Question{}
	}

	res, err := d.collection().UpdateOne(ctx,
		bson.M{"_id": id, "questions": bson.M{"$size": expectedCount}},
		bson.M{"$set": bson.M{"questions": questions}},
	)
	if err != nil {
		return fmt.Errorf("error replacing questions: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func applicationTypeUpdateDoc(u *entities.ApplicationTypeUpdate) bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.LogChannelID != nil {
		set["log_channel_id"] = *u.LogChannelID
	}
	if u.CooldownHours != nil {
		set["cooldown_hours"] = *u.CooldownHours
	}
	if u.CreateTicket != nil {
		set["create_ticket"] = *u.CreateTicket
	}
	if u.Active != nil {
		set["active"] = *u.Active
	}
	if u.ReviewRoles != nil {
		set["review_roles"] = *u.ReviewRoles
	}
	if u.PendingRoles != nil {
		set["pending_roles"] = *u.PendingRoles
	}
	if u.AcceptedRoles != nil {
		set["accepted_roles"] = *u.AcceptedRoles
	}
	if u.DeniedRoles != nil {
		set["denied_roles"] = *u.DeniedRoles
	}
	if u.PanelChannelID != nil {
		set["panel_channel_id"] = *u.PanelChannelID
	}
	if u.PanelMessageID != nil {
		set["panel_message_id"] = *u.PanelMessageID
	}
	return set
}
