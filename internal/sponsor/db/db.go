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
	return &DB{Coll: store.Collection(mongodb.Sponsors), Logger: log}
}

func (d *DB) Insert(ctx context.Context, s *models.Sponsor) error {
	res, err := d.Coll.InsertOne(ctx, s)
	if err != nil {
		return fmt.Errorf("insert sponsor: %w", err)
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", mongodb.Sponsors, s.ID.Hex())
	return nil
}

func (d *DB) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sponsor, error) {
	var s models.Sponsor
	if err := d.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, mongodb.NotFound(err, "sponsor "+id.Hex())
	}
	return &s, nil
}

func (d *DB) List(ctx context.Context, activeOnly bool) ([]models.Sponsor, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	cur, err := d.Coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find sponsors: %w", err)
	}
	out := []models.Sponsor{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode sponsors: %w", err)
	}
	return out, nil
}

func (d *DB) Update(ctx context.Context, s *models.Sponsor) error {
	res, err := d.Coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return fmt.Errorf("update sponsor: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("sponsor %s: %w", s.ID.Hex(), models.ErrNotFound)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete sponsor: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("sponsor %s: %w", id.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("DELETE", mongodb.Sponsors, id.Hex())
	return nil
}

func (d *DB) CountActive(ctx context.Context) (int64, error) {
	return d.Coll.CountDocuments(ctx, bson.M{"active": true})
}
