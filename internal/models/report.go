package models

import "time"

// SubjectGrade is the per subject line of a report card.
type SubjectGrade struct {
	Subject       string  `json:"subject"`
	SubjectName   string  `json:"subjectName"`
	SubCode       string  `json:"subCode,omitempty"`
	MarksObtained float64 `json:"marksObtained"`
	MaxMarks      float64 `json:"maxMarks"`
	Percentage    string  `json:"percentage"`
	Grade         string  `json:"grade"`
}

// SubjectAttendance is the per subject attendance line of a report card.
type SubjectAttendance struct {
	Subject     string `json:"subject"`
	SubjectName string `json:"subjectName"`
	Present     int    `json:"present"`
	Total       int    `json:"total"`
	Percentage  string `json:"percentage"`
}

// OverallGrade aggregates marks across subjects.
type OverallGrade struct {
	TotalMarks    float64 `json:"totalMarks"`
	MaxTotalMarks float64 `json:"maxTotalMarks"`
	Percentage    string  `json:"percentage"`
	Grade         string  `json:"grade"`
}

// ReportStudent identifies the student on a report card.
type ReportStudent struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNum    int    `json:"rollNum"`
	Class      string `json:"class"`
	ClassName  string `json:"className"`
	School     string `json:"school"`
	SchoolName string `json:"schoolName"`
}

// ReportCard is the computed result sheet of one student.
type ReportCard struct {
	Student      ReportStudent       `json:"student"`
	AcademicYear string              `json:"academicYear"`
	Term         string              `json:"term"`
	Subjects     []SubjectGrade      `json:"subjects"`
	Attendance   []SubjectAttendance `json:"attendance"`
	Overall      OverallGrade        `json:"overall"`
	Remarks      string              `json:"remarks"`
	GeneratedAt  time.Time           `json:"generatedAt"`
}

// ClassReportCard is one row of a class ranking.
type ClassReportCard struct {
	StudentID     string  `json:"studentId"`
	Name          string  `json:"name"`
	RollNum       int     `json:"rollNum"`
	TotalMarks    float64 `json:"totalMarks"`
	MaxTotalMarks float64 `json:"maxTotalMarks"`
	Percentage    string  `json:"percentage"`
	Grade         string  `json:"grade"`
	Score         float64 `json:"-"`
}

// ReportQuery carries optional labels printed on the card.
type ReportQuery struct {
	AcademicYear string `form:"academicYear"`
	Term         string `form:"term"`
}

// ExportRequest selects the export file format.
type ExportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=csv xlsx"`
}

// ExportResult points at a rendered export file.
type ExportResult struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Rows      int       `json:"rows"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
