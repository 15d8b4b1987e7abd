package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	KindAnnouncementPublished = "announcement.published"
	KindEventCreated          = "event.created"
	KindMembershipRegistered  = "membership.registered"
	KindMembershipApproved    = "membership.approved"
	KindBroadcast             = "broadcast"
)

const (
	AudiencePublic = "public"
	AudienceStaff  = "staff"
)

// AudienceFor keeps membership activity, which names applicants, off the
// public feed and stream.
func AudienceFor(kind string) string {
	if strings.HasPrefix(kind, "membership.") {
		return AudienceStaff
	}
	return AudiencePublic
}

// DomainEvent travels over Kafka and becomes a Notification on delivery.
type DomainEvent struct {
	Kind       string    `json:"kind"`
	RefID      string    `json:"refId,omitempty"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind      string             `bson:"kind" json:"kind"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	RefID     string             `bson:"ref_id,omitempty" json:"refId,omitempty"`
	Audience  string             `bson:"audience" json:"audience"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type BroadcastRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=1000"`
}
