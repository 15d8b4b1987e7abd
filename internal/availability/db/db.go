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
	return &DB{Coll: store.Collection(mongodb.Availability), Logger: log}
}

func (d *DB) Insert(ctx context.Context, s *models.AvailabilitySlot) error {
	res, err := d.Coll.InsertOne(ctx, s)
	if err != nil {
		return fmt.Errorf("insert availability: %w", err)
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", mongodb.Availability, s.ID.Hex())
	return nil
}

// overlapFilter matches slots with start < to and end > from.
func overlapFilter(from, to time.Time) bson.M {
	return bson.M{
		"start": bson.M{"$lt": to},
		"end":   bson.M{"$gt": from},
	}
}

func (d *DB) CountOverlapping(ctx context.Context, officerID primitive.ObjectID, start, end time.Time) (int64, error) {
	filter := overlapFilter(start, end)
	filter["officer_id"] = officerID
	return d.Coll.CountDocuments(ctx, filter)
}

func (d *DB) List(ctx context.Context, officerIDs []primitive.ObjectID, from, to time.Time) ([]models.AvailabilitySlot, error) {
	filter := overlapFilter(from, to)
	if len(officerIDs) > 0 {
		filter["officer_id"] = bson.M{"$in": officerIDs}
	}
	opts := options.Find().SetSort(bson.D{{Key: "officer_id", Value: 1}, {Key: "start", Value: 1}})
	cur, err := d.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find availability: %w", err)
	}
	out := []models.AvailabilitySlot{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode availability: %w", err)
	}
	return out, nil
}

func (d *DB) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("availability slot %s: %w", id.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("DELETE", mongodb.Availability, id.Hex())
	return nil
}
