package models

import "time"

// Parent can be linked to several students of the same school.
type Parent struct {
	ID            string         `bson:"_id" json:"id"`
	Name          string         `bson:"name" json:"name"`
	Email         string         `bson:"email" json:"email"`
	PasswordHash  string         `bson:"password" json:"-"`
	Phone         string         `bson:"phone" json:"phone"`
	Address       string         `bson:"address,omitempty" json:"address,omitempty"`
	School        string         `bson:"school" json:"school"`
	Children      []string       `bson:"children" json:"children"`
	Notifications []Notification `bson:"notifications" json:"notifications,omitempty"`
	Preferences   Preferences    `bson:"preferences" json:"preferences"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// RegisterParentRequest creates a parent account.
type RegisterParentRequest struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Phone    string   `json:"phone" validate:"required"`
	Address  string   `json:"address"`
	Children []string `json:"children"`
}

// UpdateParentRequest carries editable fields.
type UpdateParentRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// LinkChildRequest attaches a student to a parent.
type LinkChildRequest struct {
	Student string `json:"studentId" validate:"required"`
}
