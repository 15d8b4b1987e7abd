package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AvailabilitySlot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OfficerID primitive.ObjectID `bson:"officer_id" json:"officerId"`
	Start     time.Time          `bson:"start" json:"start"`
	End       time.Time          `bson:"end" json:"end"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
}

type AvailabilityRequest struct {
	OfficerID string    `json:"officerId" validate:"required"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required"`
	Note      string    `json:"note" validate:"max=200"`
}

type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
