package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SponsorTiers is the display order.
var SponsorTiers = []string{"platinum", "gold", "silver", "bronze", "partner"}

type Sponsor struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	Tier    string             `bson:"tier" json:"tier"`
	LogoURL string             `bson:"logo_url" json:"logoUrl"`
	Website string             `bson:"website,omitempty" json:"website,omitempty"`
	Active  bool               `bson:"active" json:"active"`
}

type SponsorRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Tier    string `json:"tier" validate:"required,oneof=platinum gold silver bronze partner"`
	LogoURL string `json:"logoUrl" validate:"required,url"`
	Website string `json:"website" validate:"omitempty,url"`
	Active  *bool  `json:"active"`
}

type SponsorGroup struct {
	Tier     string    `json:"tier"`
	Sponsors []Sponsor `json:"sponsors"`
}
