package models

import "time"

// Event statuses.
const (
	EventScheduled = "Scheduled"
	EventOngoing   = "Ongoing"
	EventCompleted = "Completed"
	EventCancelled = "Cancelled"
)

// AudienceAll targets every role.
const AudienceAll = "All"

// Event is a calendar entry for a school.
type Event struct {
	ID               string    `bson:"_id" json:"id"`
	Title            string    `bson:"title" json:"title"`
	Description      string    `bson:"description,omitempty" json:"description,omitempty"`
	Type             string    `bson:"type" json:"type"`
	StartDate        time.Time `bson:"startDate" json:"startDate"`
	EndDate          time.Time `bson:"endDate" json:"endDate"`
	StartTime        string    `bson:"startTime,omitempty" json:"startTime,omitempty"`
	EndTime          string    `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Location         string    `bson:"location,omitempty" json:"location,omitempty"`
	School           string    `bson:"school" json:"school"`
	Audience         []string  `bson:"targetAudience" json:"targetAudience"`
	Classes          []string  `bson:"classes" json:"classes"`
	Organizer        Ref       `bson:"organizer" json:"organizer"`
	IsRecurring      bool      `bson:"isRecurring" json:"isRecurring"`
	RecurringPattern string    `bson:"recurringPattern,omitempty" json:"recurringPattern,omitempty"`
	Status           string    `bson:"status" json:"status"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AudienceFor maps a role to its audience label.
func AudienceFor(role UserRole) string {
	switch role {
	case RoleStudent:
		return "Students"
	case RoleTeacher:
		return "Teachers"
	case RoleParent:
		return "Parents"
	}
	return "Admin"
}

// CreateEventRequest schedules an event.
type CreateEventRequest struct {
	Title            string    `json:"title" validate:"required"`
	Description      string    `json:"description"`
	Type             string    `json:"type" validate:"required,oneof=Holiday Exam Meeting Sports Cultural PTA Other"`
	StartDate        time.Time `json:"startDate" validate:"required"`
	EndDate          time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	StartTime        string    `json:"startTime"`
	EndTime          string    `json:"endTime"`
	Location         string    `json:"location"`
	Audience         []string  `json:"targetAudience" validate:"dive,oneof=All Students Teachers Parents Admin"`
	Classes          []string  `json:"classes"`
	IsRecurring      bool      `json:"isRecurring"`
	RecurringPattern string    `json:"recurringPattern" validate:"omitempty,oneof=Daily Weekly Monthly Yearly"`
}

// UpdateEventRequest edits an event.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Location    *string    `json:"location"`
	Audience    []string   `json:"targetAudience" validate:"omitempty,dive,oneof=All Students Teachers Parents Admin"`
	Status      *string    `json:"status" validate:"omitempty,oneof=Scheduled Ongoing Completed Cancelled"`
}

// EventFilter narrows an event listing.
type EventFilter struct {
	Type   string `form:"type"`
	Status string `form:"status"`
}
