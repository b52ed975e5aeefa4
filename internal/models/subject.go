package models

import "time"

// Subject is taught in exactly one class and may be linked to one teacher.
type Subject struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Code      string    `bson:"code" json:"code"`
	Sessions  int       `bson:"sessions" json:"sessions"`
	Class     string    `bson:"class" json:"class"`
	School    string    `bson:"school" json:"school"`
	Teacher   string    `bson:"teacher,omitempty" json:"teacher,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SubjectInput describes one subject in a bulk create.
type SubjectInput struct {
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Sessions int    `json:"sessions" validate:"required,min=1"`
}

// CreateSubjectsRequest adds several subjects to a class at once.
type CreateSubjectsRequest struct {
	Class    string         `json:"class" validate:"required"`
	Subjects []SubjectInput `json:"subjects" validate:"required,min=1,dive"`
}
