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
	Officers *mongo.Collection
	Faculty  *mongo.Collection
	Logger   *logger.Logger
}

func New(store *mongodb.Store, log *logger.Logger) *DB {
	return &DB{
		Officers: store.Collection(mongodb.Officers),
		Faculty:  store.Collection(mongodb.Faculty),
		Logger:   log,
	}
}

func (d *DB) insert(ctx context.Context, coll *mongo.Collection, doc interface{}) (primitive.ObjectID, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	id := res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", coll.Name(), id.Hex())
	return id, nil
}

func (d *DB) replace(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("replace in %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", coll.Name(), id.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("UPDATE", coll.Name(), id.Hex())
	return nil
}

func (d *DB) remove(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", coll.Name(), id.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("DELETE", coll.Name(), id.Hex())
	return nil
}

func (d *DB) InsertOfficer(ctx context.Context, o *models.Officer) error {
	id, err := d.insert(ctx, d.Officers, o)
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

func (d *DB) FindOfficer(ctx context.Context, id primitive.ObjectID) (*models.Officer, error) {
	var o models.Officer
	if err := d.Officers.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mongodb.NotFound(err, "officer "+id.Hex())
	}
	return &o, nil
}

func (d *DB) ListOfficers(ctx context.Context, term string, activeOnly bool) ([]models.Officer, error) {
	filter := bson.M{}
	if term != "" {
		filter["term"] = term
	}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "rank", Value: 1}, {Key: "name", Value: 1}})
	cur, err := d.Officers.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find officers: %w", err)
	}
	out := []models.Officer{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode officers: %w", err)
	}
	return out, nil
}

func (d *DB) UpdateOfficer(ctx context.Context, o *models.Officer) error {
	return d.replace(ctx, d.Officers, o.ID, o)
}

func (d *DB) DeleteOfficer(ctx context.Context, id primitive.ObjectID) error {
	return d.remove(ctx, d.Officers, id)
}

func (d *DB) InsertFaculty(ctx context.Context, f *models.FacultyProfile) error {
	id, err := d.insert(ctx, d.Faculty, f)
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

func (d *DB) FindFaculty(ctx context.Context, id primitive.ObjectID) (*models.FacultyProfile, error) {
	var f models.FacultyProfile
	if err := d.Faculty.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, mongodb.NotFound(err, "faculty "+id.Hex())
	}
	return &f, nil
}

func (d *DB) ListFaculty(ctx context.Context) ([]models.FacultyProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := d.Faculty.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find faculty: %w", err)
	}
	out := []models.FacultyProfile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode faculty: %w", err)
	}
	return out, nil
}

func (d *DB) UpdateFaculty(ctx context.Context, f *models.FacultyProfile) error {
	return d.replace(ctx, d.Faculty, f.ID, f)
}

func (d *DB) DeleteFaculty(ctx context.Context, id primitive.ObjectID) error {
	return d.remove(ctx, d.Faculty, id)
}
