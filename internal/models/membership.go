package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipApproved MembershipStatus = "approved"
	MembershipRejected MembershipStatus = "rejected"
	MembershipExpired  MembershipStatus = "expired"
)

type Membership struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName  string             `bson:"first_name" json:"firstName"`
	LastName   string             `bson:"last_name" json:"lastName"`
	Email      string             `bson:"email" json:"email"`
	StudentID  string             `bson:"student_id" json:"studentId"`
	Program    string             `bson:"program" json:"program"`
	YearLevel  int                `bson:"year_level" json:"yearLevel"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Type       string             `bson:"type" json:"type"`
	Status     MembershipStatus   `bson:"status" json:"status"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
	ApprovedAt *time.Time         `bson:"approved_at,omitempty" json:"approvedAt,omitempty"`
	ExpiresAt  *time.Time         `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (m Membership) FullName() string {
	return m.FirstName + " " + m.LastName
}

type MembershipRequest struct {
	FirstName string `json:"firstName" validate:"required,max=80"`
	LastName  string `json:"lastName" validate:"required,max=80"`
	Email     string `json:"email" validate:"required,email"`
	StudentID string `json:"studentId" validate:"required,studentid"`
	Program   string `json:"program" validate:"required,max=120"`
	YearLevel int    `json:"yearLevel" validate:"required,min=1,max=5"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	Type      string `json:"type" validate:"required,oneof=local regional"`
}

type ReviewRequest struct {
	Note string `json:"note" validate:"max=500"`
}
