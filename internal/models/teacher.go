package models

import "time"

// Teacher attendance statuses.
const (
	TeacherPresent = "Present"
	TeacherAbsent  = "Absent"
	TeacherLeave   = "Leave"
	TeacherHalfDay = "Half-Day"
)

// TeacherAttendance is one day in a teacher's attendance log.
type TeacherAttendance struct {
	Date   time.Time `bson:"date" json:"date"`
	Status string    `bson:"status" json:"status"`
}

// Qualification summarises a teacher's academic background.
type Qualification struct {
	Degree         string `bson:"degree,omitempty" json:"degree,omitempty"`
	Specialization string `bson:"specialization,omitempty" json:"specialization,omitempty"`
	University     string `bson:"university,omitempty" json:"university,omitempty"`
	Year           int    `bson:"year,omitempty" json:"year,omitempty"`
}

// Teacher belongs to a class and teaches at most one subject.
type Teacher struct {
	ID            string              `bson:"_id" json:"id"`
	Name          string              `bson:"name" json:"name"`
	Email         string              `bson:"email" json:"email"`
	PasswordHash  string              `bson:"password" json:"-"`
	Phone         string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Qualification *Qualification      `bson:"qualification,omitempty" json:"qualification,omitempty"`
	Experience    int                 `bson:"experience" json:"experience"`
	School        string              `bson:"school" json:"school"`
	Class         string              `bson:"class" json:"class"`
	TeachSubject  string              `bson:"teachSubject,omitempty" json:"teachSubject,omitempty"`
	Attendance    []TeacherAttendance `bson:"attendance" json:"attendance"`
	Notifications []Notification      `bson:"notifications" json:"notifications,omitempty"`
	Preferences   Preferences         `bson:"preferences" json:"preferences"`
	IsActive      bool                `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// RegisterTeacherRequest creates a teacher and optionally links a subject.
type RegisterTeacherRequest struct {
	Name          string         `json:"name" validate:"required"`
	Email         string         `json:"email" validate:"required,email"`
	Password      string         `json:"password" validate:"required,min=6"`
	Phone         string         `json:"phone"`
	Class         string         `json:"class" validate:"required"`
	Subject       string         `json:"teachSubject"`
	Qualification *Qualification `json:"qualification"`
	Experience    int            `json:"experience" validate:"min=0"`
}

// UpdateTeacherRequest carries editable profile fields.
type UpdateTeacherRequest struct {
	Name          *string        `json:"name"`
	Phone         *string        `json:"phone"`
	Qualification *Qualification `json:"qualification"`
	Experience    *int           `json:"experience" validate:"omitempty,min=0"`
}

// ChangeTeacherSubjectRequest relinks a teacher to another subject.
type ChangeTeacherSubjectRequest struct {
	Subject string `json:"teachSubject" validate:"required"`
}

// TeacherAttendanceRequest marks a teacher for a date.
type TeacherAttendanceRequest struct {
	Date   time.Time `json:"date" validate:"required"`
	Status string    `json:"status" validate:"required,oneof=Present Absent Leave Half-Day"`
}
