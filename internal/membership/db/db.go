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
	return &DB{Coll: store.Collection(mongodb.Memberships), Logger: log}
}

func (d *DB) Insert(ctx context.Context, m *models.Membership) error {
	res, err := d.Coll.InsertOne(ctx, m)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: student id or e-mail already registered", models.ErrConflict)
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", mongodb.Memberships, m.ID.Hex())
	return nil
}

func (d *DB) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Membership, error) {
	var m models.Membership
	if err := d.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, mongodb.NotFound(err, "membership "+id.Hex())
	}
	return &m, nil
}

func (d *DB) List(ctx context.Context, status models.MembershipStatus) ([]models.Membership, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := d.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find memberships: %w", err)
	}
	out := []models.Membership{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode memberships: %w", err)
	}
	return out, nil
}

func (d *DB) Update(ctx context.Context, m *models.Membership) error {
	res, err := d.Coll.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("replace membership: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("membership %s: %w", m.ID.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("UPDATE", mongodb.Memberships, fmt.Sprintf("%s -> %s", m.ID.Hex(), m.Status))
	return nil
}

func (d *DB) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("membership %s: %w", id.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("DELETE", mongodb.Memberships, id.Hex())
	return nil
}

func (d *DB) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := d.Coll.UpdateMany(ctx,
		bson.M{"status": models.MembershipApproved, "expires_at": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.MembershipExpired, "updated_at": now}},
	)
	if err != nil {
		return 0, err
	}
	if res.ModifiedCount > 0 {
		d.Logger.LogDatabase("UPDATE", mongodb.Memberships, fmt.Sprintf("expired %d", res.ModifiedCount))
	}
	return res.ModifiedCount, nil
}

// CountByStatus returns a count for every status present.
func (d *DB) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cur, err := d.Coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate memberships: %w", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode membership counts: %w", err)
	}
	out := map[string]int64{}
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
