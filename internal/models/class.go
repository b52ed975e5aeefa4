package models

import "time"

// Class groups students, subjects and teachers within a school.
type Class struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	School    string    `bson:"school" json:"school"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CreateClassRequest payload for creating a class.
type CreateClassRequest struct {
	Name string `json:"name" validate:"required"`
}
