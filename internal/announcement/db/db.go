package db

import (
	"context"
	"fmt"
	"time"

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
	return &DB{Coll: store.Collection(mongodb.Announcements), Logger: log}
}

func (d *DB) Insert(ctx context.Context, a *models.Announcement) error {
	res, err := d.Coll.InsertOne(ctx, a)
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	a.ID = res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", mongodb.Announcements, a.ID.Hex())
	return nil
}

func (d *DB) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error) {
	var a models.Announcement
	if err := d.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mongodb.NotFound(err, "announcement "+id.Hex())
	}
	return &a, nil
}

// List returns pinned posts first, then newest published.
func (d *DB) List(ctx context.Context, category string, publishedBefore *time.Time, skip, limit int64) ([]models.Announcement, int64, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	if publishedBefore != nil {
		filter["published_at"] = bson.M{"$lte": *publishedBefore}
	}
	total, err := d.Coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "pinned", Value: -1}, {Key: "published_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := d.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find announcements: %w", err)
	}
	items := []models.Announcement{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode announcements: %w", err)
	}
	return items, total, nil
}

func (d *DB) Update(ctx context.Context, a *models.Announcement) error {
	res, err := d.Coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return fmt.Errorf("replace announcement: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("announcement %s: %w", a.ID.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("UPDATE", mongodb.Announcements, a.ID.Hex())
	return nil
}

func (d *DB) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("announcement %s: %w", id.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("DELETE", mongodb.Announcements, id.Hex())
	return nil
}

func (d *DB) Count(ctx context.Context) (int64, error) {
	return d.Coll.CountDocuments(ctx, bson.M{})
}
