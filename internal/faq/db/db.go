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
	return &DB{Coll: store.Collection(mongodb.FAQs), Logger: log}
}

func (d *DB) Insert(ctx context.Context, f *models.FAQ) error {
	res, err := d.Coll.InsertOne(ctx, f)
	if err != nil {
		return fmt.Errorf("insert faq: %w", err)
	}
	f.ID = res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", mongodb.FAQs, f.ID.Hex())
	return nil
}

func (d *DB) FindByID(ctx context.Context, id primitive.ObjectID) (*models.FAQ, error) {
	var f models.FAQ
	if err := d.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, mongodb.NotFound(err, "faq "+id.Hex())
	}
	return &f, nil
}

func (d *DB) List(ctx context.Context, publishedOnly bool) ([]models.FAQ, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "rank", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := d.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find faqs: %w", err)
	}
	out := []models.FAQ{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode faqs: %w", err)
	}
	return out, nil
}

func (d *DB) Update(ctx context.Context, f *models.FAQ) error {
	res, err := d.Coll.ReplaceOne(ctx, bson.M{"_id": f.ID}, f)
	if err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("faq %s: %w", f.ID.Hex(), models.ErrNotFound)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("faq %s: %w", id.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("DELETE", mongodb.FAQs, id.Hex())
	return nil
}
