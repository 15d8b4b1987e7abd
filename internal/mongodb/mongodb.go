package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
)

const (
	Announcements = "announcements"
	Events        = "events"
	RSVPs         = "rsvps"
	Memberships   = "memberships"
	Officers      = "officers"
	Faculty       = "faculty"
	Sponsors      = "sponsors"
	FAQs          = "faqs"
	Notifications = "notifications"
	Availability  = "availability"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect dials MongoDB and pings it, retrying a few times while the server comes up.
func Connect(ctx context.Context, uri, database string, log *logger.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	var pingErr error
	for i := 0; i < 5; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		pingErr = client.Ping(pingCtx, nil)
		cancel()
		if pingErr == nil {
			break
		}
		log.Warn("DATABASE", fmt.Sprintf("MongoDB ping failed (attempt %d/5): %v", i+1, pingErr))
		select {
		case <-ctx.Done():
			_ = client.Disconnect(context.Background())
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if pingErr != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", pingErr)
	}

	log.Info("DATABASE", "Connected to MongoDB database "+database)
	return &Store{Client: client, DB: client.Database(database)}, nil
}

func (s *Store) Collection(name string) *mongo.Collection {
	return s.DB.Collection(name)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

// EnsureIndexes is idempotent; CreateMany is a no-op for indexes that already exist.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		Memberships: {
			{Keys: bson.D{{Key: "student_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		},
		RSVPs: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		Events: {
			{Keys: bson.D{{Key: "start_date", Value: 1}}},
		},
		Announcements: {
			{Keys: bson.D{{Key: "pinned", Value: -1}, {Key: "published_at", Value: -1}}},
		},
		Availability: {
			{Keys: bson.D{{Key: "officer_id", Value: 1}, {Key: "start", Value: 1}}},
		},
		Notifications: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
	for coll, idx := range specs {
		if _, err := s.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", models.ErrInvalidInput, hex)
	}
	return id, nil
}

func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// NotFound translates mongo.ErrNoDocuments into models.ErrNotFound.
func NotFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return err
}

// Paginate normalises page/limit and returns skip and limit for a find.
func Paginate(page, limit int) (int, int, int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit, int64((page - 1) * limit), int64(limit)
}
