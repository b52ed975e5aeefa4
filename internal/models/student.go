package models

import "time"

// Student attendance statuses. Only Present counts towards the attendance percentage.
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceLate    = "Late"
	AttendanceExcused = "Excused"
)

// ExamResult is a mark for one subject embedded in the student.
type ExamResult struct {
	Subject       string     `bson:"subName" json:"subject"`
	MarksObtained float64    `bson:"marksObtained" json:"marksObtained"`
	TotalMarks    float64    `bson:"totalMarks" json:"totalMarks"`
	ExamDate      *time.Time `bson:"examDate,omitempty" json:"examDate,omitempty"`
	ExamType      string     `bson:"examType,omitempty" json:"examType,omitempty"`
}

// AttendanceRecord is one session for one subject embedded in the student.
type AttendanceRecord struct {
	Date    time.Time `bson:"date" json:"date"`
	Status  string    `bson:"status" json:"status"`
	Subject string    `bson:"subName" json:"subject"`
}

// Student is identified within its class by roll number.
type Student struct {
	ID            string             `bson:"_id" json:"id"`
	Name          string             `bson:"name" json:"name"`
	RollNum       int                `bson:"rollNum" json:"rollNum"`
	PasswordHash  string             `bson:"password" json:"-"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender        string             `bson:"gender,omitempty" json:"gender,omitempty"`
	DateOfBirth   *time.Time         `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Class         string             `bson:"class" json:"class"`
	School        string             `bson:"school" json:"school"`
	Parent        string             `bson:"parent,omitempty" json:"parent,omitempty"`
	ExamResults   []ExamResult       `bson:"examResult" json:"examResult"`
	Attendance    []AttendanceRecord `bson:"attendance" json:"attendance"`
	Notifications []Notification     `bson:"notifications" json:"notifications,omitempty"`
	Preferences   Preferences        `bson:"preferences" json:"preferences"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RegisterStudentRequest creates a student in a class.
type RegisterStudentRequest struct {
	Name        string     `json:"name" validate:"required"`
	RollNum     int        `json:"rollNum" validate:"required,min=1"`
	Password    string     `json:"password" validate:"required,min=6"`
	Class       string     `json:"class" validate:"required"`
	Parent      string     `json:"parent"`
	Email       string     `json:"email" validate:"omitempty,email"`
	Phone       string     `json:"phone"`
	Gender      string     `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// UpdateStudentRequest carries editable fields. A new password is re-hashed.
type UpdateStudentRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Gender   *string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
}

// ExamResultRequest upserts the mark for a subject.
type ExamResultRequest struct {
	Subject       string     `json:"subName" validate:"required"`
	MarksObtained float64    `json:"marksObtained" validate:"min=0"`
	TotalMarks    float64    `json:"totalMarks" validate:"omitempty,gt=0"`
	ExamType      string     `json:"examType" validate:"omitempty,oneof=Quiz Mid-Term Final Assignment Project"`
	ExamDate      *time.Time `json:"examDate"`
}

// StudentAttendanceRequest marks a student for a subject on a date.
type StudentAttendanceRequest struct {
	Subject string    `json:"subName" validate:"required"`
	Status  string    `json:"status" validate:"required,oneof=Present Absent Late Excused"`
	Date    time.Time `json:"date" validate:"required"`
}
