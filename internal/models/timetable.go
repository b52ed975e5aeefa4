package models

import "time"

// Period is one slot in a school day.
type Period struct {
	Number    int    `bson:"periodNumber" json:"periodNumber" validate:"required,min=1"`
	StartTime string `bson:"startTime" json:"startTime" validate:"required"`
	EndTime   string `bson:"endTime" json:"endTime" validate:"required"`
	Subject   string `bson:"subject,omitempty" json:"subject,omitempty"`
	Teacher   string `bson:"teacher,omitempty" json:"teacher,omitempty"`
	Room      string `bson:"room,omitempty" json:"room,omitempty"`
	Type      string `bson:"type" json:"type" validate:"omitempty,oneof=Class Break Lunch Assembly"`
}

// DaySchedule lists the periods of one weekday.
type DaySchedule struct {
	Day     string   `bson:"day" json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday"`
	Periods []Period `bson:"periods" json:"periods" validate:"dive"`
}

// Timetable is unique per class, academic year and term.
type Timetable struct {
	ID           string        `bson:"_id" json:"id"`
	Class        string        `bson:"class" json:"class"`
	School       string        `bson:"school" json:"school"`
	Schedule     []DaySchedule `bson:"schedule" json:"schedule"`
	AcademicYear string        `bson:"academicYear" json:"academicYear"`
	Term         string        `bson:"term,omitempty" json:"term,omitempty"`
	IsActive     bool          `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// TeacherPeriod is a period flattened out of a class timetable.
type TeacherPeriod struct {
	Day       string `json:"day"`
	Class     string `json:"class"`
	Number    int    `json:"periodNumber"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subject   string `json:"subject,omitempty"`
	Room      string `json:"room,omitempty"`
	Type      string `json:"type"`
}

// TimetableRequest creates or replaces a timetable.
type TimetableRequest struct {
	Class        string        `json:"class" validate:"required"`
	Schedule     []DaySchedule `json:"schedule" validate:"required,dive"`
	AcademicYear string        `json:"academicYear" validate:"required"`
	Term         string        `json:"term" validate:"omitempty,oneof='First Term' 'Second Term' 'Third Term'"`
	IsActive     *bool         `json:"isActive"`
}
