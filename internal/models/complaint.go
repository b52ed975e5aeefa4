package models

import "time"

// Complaint is raised by any account of a school.
type Complaint struct {
	ID        string    `bson:"_id" json:"id"`
	User      Ref       `bson:"user" json:"user"`
	Date      time.Time `bson:"date" json:"date"`
	Complaint string    `bson:"complaint" json:"complaint"`
	School    string    `bson:"school" json:"school"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// ComplaintRequest files a complaint.
type ComplaintRequest struct {
	Date      time.Time `json:"date" validate:"required"`
	Complaint string    `json:"complaint" validate:"required"`
}
