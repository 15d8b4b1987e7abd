package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Officer struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Position string             `bson:"position" json:"position"`
	Term     string             `bson:"term" json:"term"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
	PhotoURL string             `bson:"photo_url,omitempty" json:"photoUrl,omitempty"`
	Rank     int                `bson:"rank" json:"rank"`
	Active   bool               `bson:"active" json:"active"`
}

type OfficerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Position string `json:"position" validate:"required,max=120"`
	Term     string `json:"term" validate:"required,term"`
	Email    string `json:"email" validate:"omitempty,email"`
	PhotoURL string `json:"photoUrl" validate:"omitempty,url"`
	Rank     int    `json:"rank" validate:"gte=0"`
	Active   *bool  `json:"active"`
}

type FacultyProfile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Title      string             `bson:"title" json:"title"`
	Department string             `bson:"department" json:"department"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	PhotoURL   string             `bson:"photo_url,omitempty" json:"photoUrl,omitempty"`
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Role       string             `bson:"role" json:"role"`
}

type FacultyRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Title      string `json:"title" validate:"max=120"`
	Department string `json:"department" validate:"required,max=120"`
	Email      string `json:"email" validate:"omitempty,email"`
	PhotoURL   string `json:"photoUrl" validate:"omitempty,url"`
	Bio        string `json:"bio" validate:"max=2000"`
	Role       string `json:"role" validate:"required,oneof=adviser co-adviser faculty"`
}
