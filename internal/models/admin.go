package models

import "time"

// Admin owns a school. Its ID is the tenant key stored on every other entity.
type Admin struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"`
	SchoolName   string    `bson:"schoolName" json:"schoolName"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// RegisterAdminRequest creates a school together with its owner account.
type RegisterAdminRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	SchoolName string `json:"schoolName" validate:"required"`
}
