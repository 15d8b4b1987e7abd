package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type FAQ struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Question  string             `bson:"question" json:"question"`
	Answer    string             `bson:"answer" json:"answer"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"`
	Rank      int                `bson:"rank" json:"rank"`
	Published bool               `bson:"published" json:"published"`
}

type FAQRequest struct {
	Question  string `json:"question" validate:"required,max=300"`
	Answer    string `json:"answer" validate:"required,max=5000"`
	Category  string `json:"category" validate:"max=60"`
	Rank      int    `json:"rank" validate:"gte=0"`
	Published bool   `json:"published"`
}
