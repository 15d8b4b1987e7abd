package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	EventUpcoming EventStatus = "Upcoming"
	EventOngoing  EventStatus = "Ongoing"
	EventEnded    EventStatus = "Ended"
)

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location" json:"location"`
	StartDate   time.Time          `bson:"start_date" json:"startDate"`
	EndDate     time.Time          `bson:"end_date" json:"endDate"`
	Capacity    int                `bson:"capacity" json:"capacity"` // 0 means unlimited
	ImageURL    string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	RSVPCount   int                `bson:"rsvp_count" json:"rsvpCount"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// StatusAt derives the event status at now. Not persisted.
func (e Event) StatusAt(now time.Time) EventStatus {
	switch {
	case now.Before(e.StartDate):
		return EventUpcoming
	case now.After(e.EndDate):
		return EventEnded
	default:
		return EventOngoing
	}
}

// SeatsLeft returns -1 for unlimited events.
func (e Event) SeatsLeft() int {
	if e.Capacity == 0 {
		return -1
	}
	if left := e.Capacity - e.RSVPCount; left > 0 {
		return left
	}
	return 0
}

type EventView struct {
	Event
	Status    EventStatus `json:"status"`
	SeatsLeft int         `json:"seatsLeft"`
}

func NewEventView(e Event, now time.Time) EventView {
	return EventView{Event: e, Status: e.StatusAt(now), SeatsLeft: e.SeatsLeft()}
}

type EventRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Location    string    `json:"location" validate:"required,max=200"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url"`
	Tags        []string  `json:"tags" validate:"max=10,dive,max=30"`
}

type RSVPStatus string

const (
	RSVPGoing     RSVPStatus = "going"
	RSVPCancelled RSVPStatus = "cancelled"
)

type RSVP struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID     primitive.ObjectID `bson:"event_id" json:"eventId"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	StudentID   string             `bson:"student_id,omitempty" json:"studentId,omitempty"`
	Status      RSVPStatus         `bson:"status" json:"status"`
	CheckedIn   bool               `bson:"checked_in" json:"checkedIn"`
	CheckedInAt *time.Time         `bson:"checked_in_at,omitempty" json:"checkedInAt,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

type RSVPRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=120"`
	Email     string `json:"email" validate:"required,email"`
	StudentID string `json:"studentId" validate:"omitempty,studentid"`
}

// RSVPPass is the payload sealed inside an RSVP QR code.
type RSVPPass struct {
	RSVPID  string `json:"rid"`
	EventID string `json:"eid"`
	Email   string `json:"em"`
}

type RSVPResponse struct {
	RSVP RSVP   `json:"rsvp"`
	Pass string `json:"pass"`   // sealed token, also encoded in the QR image
	QR   string `json:"qrCode"` // base64 PNG
}
