package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Announcement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Body        string             `bson:"body" json:"body"`
	Category    string             `bson:"category" json:"category"`
	Author      string             `bson:"author" json:"author"`
	ImageURL    string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	Pinned      bool               `bson:"pinned" json:"pinned"`
	PublishedAt time.Time          `bson:"published_at" json:"publishedAt"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

type AnnouncementRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Body        string     `json:"body" validate:"required"`
	Category    string     `json:"category" validate:"required,oneof=general academic event opportunity"`
	Author      string     `json:"author" validate:"max=120"`
	ImageURL    string     `json:"imageUrl" validate:"omitempty,url"`
	Pinned      bool       `json:"pinned"`
	PublishedAt *time.Time `json:"publishedAt"`
}

type AnnouncementFilter struct {
	Category         string
	Page             int
	Limit            int
	IncludeScheduled bool
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
