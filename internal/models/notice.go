package models

import "time"

// Notice is a school-wide announcement.
type Notice struct {
	ID        string    `bson:"_id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Details   string    `bson:"details" json:"details"`
	Date      time.Time `bson:"date" json:"date"`
	School    string    `bson:"school" json:"school"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NoticeRequest creates or replaces a notice.
type NoticeRequest struct {
	Title   string    `json:"title" validate:"required"`
	Details string    `json:"details" validate:"required"`
	Date    time.Time `json:"date" validate:"required"`
}
