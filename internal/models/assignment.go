package models

import "time"

// Assignment and submission statuses.
const (
	AssignmentActive = "Active"
	AssignmentClosed = "Closed"
	AssignmentDraft  = "Draft"

	SubmissionSubmitted = "Submitted"
	SubmissionLate      = "Late"
	SubmissionMissing   = "Not Submitted"
)

// Attachment points at an uploaded file.
type Attachment struct {
	FileName string `bson:"fileName" json:"fileName" validate:"required"`
	FileURL  string `bson:"fileUrl" json:"fileUrl" validate:"required,url"`
}

// Submission is a student's answer embedded in the assignment.
type Submission struct {
	Student       string       `bson:"student" json:"student"`
	SubmittedAt   time.Time    `bson:"submittedAt" json:"submittedAt"`
	Status        string       `bson:"status" json:"status"`
	Attachments   []Attachment `bson:"attachments" json:"attachments"`
	MarksObtained *float64     `bson:"marksObtained,omitempty" json:"marksObtained,omitempty"`
	Feedback      string       `bson:"feedback,omitempty" json:"feedback,omitempty"`
	GradedAt      *time.Time   `bson:"gradedAt,omitempty" json:"gradedAt,omitempty"`
	GradedBy      string       `bson:"gradedBy,omitempty" json:"gradedBy,omitempty"`
}

// Assignment is homework set for a class and subject.
type Assignment struct {
	ID          string       `bson:"_id" json:"id"`
	Title       string       `bson:"title" json:"title"`
	Description string       `bson:"description" json:"description"`
	Subject     string       `bson:"subject" json:"subject"`
	Class       string       `bson:"class" json:"class"`
	Teacher     string       `bson:"teacher" json:"teacher"`
	School      string       `bson:"school" json:"school"`
	DueDate     time.Time    `bson:"dueDate" json:"dueDate"`
	MaxMarks    float64      `bson:"maxMarks" json:"maxMarks"`
	Attachments []Attachment `bson:"attachments" json:"attachments"`
	Submissions []Submission `bson:"submissions" json:"submissions"`
	Status      string       `bson:"status" json:"status"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// SubmissionOf returns the student's submission, if any.
func (a *Assignment) SubmissionOf(studentID string) (int, *Submission) {
	for i := range a.Submissions {
		if a.Submissions[i].Student == studentID {
			return i, &a.Submissions[i]
		}
	}
	return -1, nil
}

// StudentAssignment is an assignment as seen by one student.
type StudentAssignment struct {
	Assignment
	SubmissionStatus string      `json:"submissionStatus"`
	MySubmission     *Submission `json:"mySubmission,omitempty"`
}

// CreateAssignmentRequest sets homework. Teacher defaults to the caller.
type CreateAssignmentRequest struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description" validate:"required"`
	Subject     string       `json:"subject" validate:"required"`
	Class       string       `json:"class" validate:"required"`
	Teacher     string       `json:"teacher"`
	DueDate     time.Time    `json:"dueDate" validate:"required"`
	MaxMarks    float64      `json:"maxMarks" validate:"omitempty,gt=0"`
	Attachments []Attachment `json:"attachments" validate:"dive"`
	Status      string       `json:"status" validate:"omitempty,oneof=Active Closed Draft"`
}

// UpdateAssignmentRequest edits an assignment.
type UpdateAssignmentRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	MaxMarks    *float64   `json:"maxMarks" validate:"omitempty,gt=0"`
	Status      *string    `json:"status" validate:"omitempty,oneof=Active Closed Draft"`
}

// SubmitAssignmentRequest hands in work.
type SubmitAssignmentRequest struct {
	Attachments []Attachment `json:"attachments" validate:"dive"`
}

// GradeSubmissionRequest grades one submission.
type GradeSubmissionRequest struct {
	MarksObtained float64 `json:"marksObtained" validate:"min=0"`
	Feedback      string  `json:"feedback"`
}
