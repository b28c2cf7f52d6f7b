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

const panelDalName = "panel_dal"

type panelDal struct {
	l  *slog.Logger
	db *mongo.Database
}

// NewPanelDal creates a new panel data access layer.
func NewPanelDal(l *slog.Logger, db *mongo.Database) PanelDal {
	return &panelDal{
		l:  l.With(slog.String(logging.KeyDal, panelDalName)),
		db: db,
	}
}

func (d *panelDal) collection() *mongo.Collection {
	return d.db.Collection(collPanels)
}

func (d *panelDal) CreatePanel(ctx context.Context, panel *entities.Panel) error {
	defer track(panelDalName, "create_panel", d.db.Name(), collPanels).ObserveDuration()

	if _, err := d.collection().InsertOne(ctx, panel); err != nil {
		return fmt.Errorf("error creating panel: %w", err)
	}
	return nil
}

func (d *panelDal) GetPanel(ctx context.Context, id string) (*entities.Panel, error) {
	defer track(panelDalName, "get_panel", d.db.Name(), collPanels).ObserveDuration()

	return d.findOne(ctx, bson.M{"_id": id})
}

func (d *panelDal) GetPanelByMessage(ctx context.Context, messageID string) (*entities.Panel, error) {
	defer track(panelDalName, "get_panel_by_message", d.db.Name(), collPanels).ObserveDuration()

	return d.findOne(ctx, bson.M{"message_id": messageID})
}

func (d *panelDal) findOne(ctx context.Context, filter bson.M) (*entities.Panel, error) {
	panel := new(entities.Panel)
	err := d.collection().FindOne(ctx, filter).Decode(panel)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting panel: %w", err)
	}
	return panel, nil
}

func (d *panelDal) ListPanels(ctx context.Context, guildID string) ([]*entities.Panel, error) {
	defer track(panelDalName, "list_panels", d.db.Name(), collPanels).ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := d.collection().Find(ctx, bson.M{"guild_id": guildID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing panels: %w", err)
	}

	panels := make([]*entities.Panel, 0)
	if err := cur.All(ctx, &panels); err != nil {
		return nil, fmt.Errorf("error decoding panels: %w", err)
	}
	return panels, nil
}

func (d *panelDal) DeletePanel(ctx context.Context, id string) error {
	defer track(panelDalName, "delete_panel", d.db.Name(), collPanels).ObserveDuration()

	res, err := d.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting panel: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
