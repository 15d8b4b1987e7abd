package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/mongodb"
)

type DB struct {
	Coll   *mongo.Collection
	Logger *logger.Logger
}

func New(store *mongodb.Store, log *logger.Logger) *DB {
	return &DB{Coll: store.Collection(mongodb.Notifications), Logger: log}
}

func (d *DB) Insert(ctx context.Context, n *models.Notification) error {
	res, err := d.Coll.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.ID = res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", mongodb.Notifications, n.ID.Hex())
	return nil
}

// Recent returns the newest notifications. Documents without an audience
// predate the field and count as public.
func (d *DB) Recent(ctx context.Context, limit int64, includeStaff bool) ([]models.Notification, error) {
	filter := bson.M{}
	if !includeStaff {
		filter["audience"] = bson.M{"$ne": models.AudienceStaff}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := d.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return out, nil
}

func (d *DB) Count(ctx context.Context) (int64, error) {
	return d.Coll.CountDocuments(ctx, bson.M{})
}
