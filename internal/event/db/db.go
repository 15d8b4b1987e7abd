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
	Events *mongo.Collection
	RSVPs  *mongo.Collection
	Logger *logger.Logger
}

func New(store *mongodb.Store, log *logger.Logger) *DB {
	return &DB{
		Events: store.Collection(mongodb.Events),
		RSVPs:  store.Collection(mongodb.RSVPs),
		Logger: log,
	}
}

// StatusFilter translates a derived status into a date range query.
func StatusFilter(status models.EventStatus, now time.Time) bson.M {
	switch status {
	case models.EventUpcoming:
		return bson.M{"start_date": bson.M{"$gt": now}}
	case models.EventOngoing:
		return bson.M{"start_date": bson.M{"$lte": now}, "end_date": bson.M{"$gte": now}}
	case models.EventEnded:
		return bson.M{"end_date": bson.M{"$lt": now}}
	default:
		return bson.M{}
	}
}

func (d *DB) InsertEvent(ctx context.Context, e *models.Event) error {
	res, err := d.Events.InsertOne(ctx, e)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	e.ID = res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", mongodb.Events, e.ID.Hex())
	return nil
}

func (d *DB) FindEvent(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := d.Events.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, mongodb.NotFound(err, "event "+id.Hex())
	}
	return &e, nil
}

func (d *DB) ListEvents(ctx context.Context, status models.EventStatus, now time.Time) ([]models.Event, error) {
	sort := bson.D{{Key: "start_date", Value: 1}}
	if status == models.EventEnded {
		sort = bson.D{{Key: "start_date", Value: -1}}
	}
	cur, err := d.Events.Find(ctx, StatusFilter(status, now), options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

func (d *DB) CountEvents(ctx context.Context, status models.EventStatus, now time.Time) (int64, error) {
	return d.Events.CountDocuments(ctx, StatusFilter(status, now))
}

func (d *DB) UpdateEvent(ctx context.Context, e *models.Event) error {
	res, err := d.Events.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return fmt.Errorf("replace event: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s: %w", e.ID.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("UPDATE", mongodb.Events, e.ID.Hex())
	return nil
}

// DeleteEvent removes the event and every RSVP attached to it.
func (d *DB) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.Events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("event %s: %w", id.Hex(), models.ErrNotFound)
	}
	rsvps, err := d.RSVPs.DeleteMany(ctx, bson.M{"event_id": id})
	if err != nil {
		return fmt.Errorf("delete rsvps for event %s: %w", id.Hex(), err)
	}
	d.Logger.LogDatabase("DELETE", mongodb.Events, fmt.Sprintf("%s (%d rsvps)", id.Hex(), rsvps.DeletedCount))
	return nil
}

func (d *DB) AdjustRSVPCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := d.Events.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"rsvp_count": delta}})
	if err != nil {
		return fmt.Errorf("adjust rsvp count: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}

func (d *DB) InsertRSVP(ctx context.Context, r *models.RSVP) error {
	res, err := d.RSVPs.InsertOne(ctx, r)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s already has an RSVP for this event", models.ErrConflict, r.Email)
		}
		return fmt.Errorf("insert rsvp: %w", err)
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	d.Logger.LogDatabase("INSERT", mongodb.RSVPs, r.ID.Hex())
	return nil
}

func (d *DB) FindRSVP(ctx context.Context, id primitive.ObjectID) (*models.RSVP, error) {
	var r models.RSVP
	if err := d.RSVPs.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, mongodb.NotFound(err, "rsvp "+id.Hex())
	}
	return &r, nil
}

func (d *DB) FindRSVPByEmail(ctx context.Context, eventID primitive.ObjectID, email string) (*models.RSVP, error) {
	var r models.RSVP
	if err := d.RSVPs.FindOne(ctx, bson.M{"event_id": eventID, "email": email}).Decode(&r); err != nil {
		return nil, mongodb.NotFound(err, "rsvp for "+email)
	}
	return &r, nil
}

func (d *DB) UpdateRSVP(ctx context.Context, r *models.RSVP) error {
	res, err := d.RSVPs.ReplaceOne(ctx, bson.M{"_id": r.ID}, r)
	if err != nil {
		return fmt.Errorf("replace rsvp: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("rsvp %s: %w", r.ID.Hex(), models.ErrNotFound)
	}
	return nil
}

func (d *DB) DeleteRSVP(ctx context.Context, id primitive.ObjectID) error {
	res, err := d.RSVPs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete rsvp: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("rsvp %s: %w", id.Hex(), models.ErrNotFound)
	}
	d.Logger.LogDatabase("DELETE", mongodb.RSVPs, id.Hex())
	return nil
}

func (d *DB) ListRSVPs(ctx context.Context, eventID primitive.ObjectID) ([]models.RSVP, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := d.RSVPs.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find rsvps: %w", err)
	}
	out := []models.RSVP{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode rsvps: %w", err)
	}
	return out, nil
}

func (d *DB) CountActiveRSVPs(ctx context.Context) (int64, error) {
	return d.RSVPs.CountDocuments(ctx, bson.M{"status": models.RSVPGoing})
}
