package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Student, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error)
	SetExamResults(ctx context.Context, id string, results []models.ExamResult) error
	SetAttendance(ctx context.Context, id string, records []models.AttendanceRecord) error
	RemoveSubjectAttendance(ctx context.Context, studentID, subjectID string) error
	ClearSubjectAttendance(ctx context.Context, subjectID string) (int64, error)
	ClearAttendance(ctx context.Context, studentID string) error
	ClearSchoolAttendance(ctx context.Context, schoolID string) (int64, error)
}

type studentParentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Parent, error)
}

type studentCascade interface {
	LinkStudentParent(ctx context.Context, studentID, parentID string) error
	DeleteStudent(ctx context.Context, studentID string) error
	DeleteStudentsByClass(ctx context.Context, classID string) (*models.BulkDeleteResult, error)
	DeleteStudentsBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error)
}

// reportInvalidator drops cached report cards after marks or attendance change.
type reportInvalidator interface {
	InvalidateStudent(ctx context.Context, classID, studentID string)
	InvalidateClass(ctx context.Context, classID string)
	InvalidateAll(ctx context.Context)
}

// StudentService manages students, their marks and their attendance.
type StudentService struct {
	repo      studentRepository
	classes   classLookup
	subjects  subjectLookup
	parents   studentParentRepository
	cascade   studentCascade
	reports   reportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// StudentDeps groups the collaborators of a StudentService.
type StudentDeps struct {
	Classes  classLookup
	Subjects subjectLookup
	Parents  studentParentRepository
	Cascade  studentCascade
	Reports  reportInvalidator
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, deps StudentDeps, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:      repo,
		classes:   deps.Classes,
		subjects:  deps.Subjects,
		parents:   deps.Parents,
		cascade:   deps.Cascade,
		reports:   deps.Reports,
		validator: validate,
		logger:    logger,
	}
}

// Register creates a student. Roll numbers are unique within a class.
func (s *StudentService) Register(ctx context.Context, schoolID string, req models.RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	if err := ensureClassInSchool(ctx, s.classes, req.Class, schoolID); err != nil {
		return nil, err
	}
	if req.Parent != "" {
		parent, err := s.parents.FindByID(ctx, req.Parent)
		if err != nil {
			return nil, storeError(err, "parent", "load parent")
		}
		if parent.School != schoolID {
			return nil, invalid("parent belongs to another school")
		}
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	student := &models.Student{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		RollNum:       req.RollNum,
		PasswordHash:  hash,
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         req.Phone,
		Gender:        req.Gender,
		DateOfBirth:   req.DateOfBirth,
		Class:         req.Class,
		School:        schoolID,
		Parent:        req.Parent,
		ExamResults:   []models.ExamResult{},
		Attendance:    []models.AttendanceRecord{},
		Notifications: []models.Notification{},
		Preferences:   models.DefaultPreferences(),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, storeError(err, "roll number in this class", "register student")
	}
	if req.Parent != "" {
		if err := s.cascade.LinkStudentParent(ctx, student.ID, req.Parent); err != nil {
			return nil, err
		}
	}
	return student, nil
}

// List returns the students of a school.
func (s *StudentService) List(ctx context.Context, schoolID string) ([]models.Student, error) {
	students, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "student", "list students")
	}
	return students, nil
}

// Get returns the student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "student", "load student")
	}
	return student, nil
}

// owned loads a student of the caller's school.
func (s *StudentService) owned(ctx context.Context, schoolID, id string) (*models.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(student.School, schoolID, "student"); err != nil {
		return nil, err
	}
	return student, nil
}

// Update edits the student. A new password is hashed before it is stored.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Gender != nil {
		fields["gender"] = *req.Gender
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hash
	}
	student, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError(err, "student", "update student")
	}
	return student, nil
}

// Delete removes the student and detaches it from its parents.
func (s *StudentService) Delete(ctx context.Context, schoolID, id string) error {
	if _, err := s.owned(ctx, schoolID, id); err != nil {
		return err
	}
	return s.cascade.DeleteStudent(ctx, id)
}

// DeleteByClass removes every student of a class.
func (s *StudentService) DeleteByClass(ctx context.Context, schoolID, classID string) (*models.BulkDeleteResult, error) {
	if err := classOwnedBy(ctx, s.classes, classID, schoolID); err != nil {
		return nil, err
	}
	return s.cascade.DeleteStudentsByClass(ctx, classID)
}

// DeleteBySchool removes every student of a school.
func (s *StudentService) DeleteBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	return s.cascade.DeleteStudentsBySchool(ctx, schoolID)
}

// UpsertExamResult stores the mark for one subject, replacing an earlier mark.
func (s *StudentService) UpsertExamResult(ctx context.Context, id string, req models.ExamResultRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid exam result payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.classSubject(ctx, student, req.Subject); err != nil {
		return nil, err
	}
	total := req.TotalMarks
	if total == 0 {
		total = defaultTotalMarks
	}
	if req.MarksObtained > total {
		return nil, invalid("marks obtained exceed total marks")
	}
	student.ExamResults = upsertExamResult(student.ExamResults, models.ExamResult{
		Subject:       req.Subject,
		MarksObtained: req.MarksObtained,
		TotalMarks:    total,
		ExamType:      req.ExamType,
		ExamDate:      req.ExamDate,
	})
	if err := s.repo.SetExamResults(ctx, id, student.ExamResults); err != nil {
		return nil, storeError(err, "student", "save exam result")
	}
	s.invalidate(ctx, student)
	return student, nil
}

// MarkAttendance records a session for a subject. A date already marked for the subject
// is updated in place; a new date is refused once the subject's sessions are used up.
func (s *StudentService) MarkAttendance(ctx context.Context, id string, req models.StudentAttendanceRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject, err := s.classSubject(ctx, student, req.Subject)
	if err != nil {
		return nil, err
	}
	records, err := markAttendance(student.Attendance, models.AttendanceRecord{
		Date:    req.Date.UTC(),
		Status:  req.Status,
		Subject: req.Subject,
	}, subject.Sessions)
	if err != nil {
		return nil, err
	}
	student.Attendance = records
	if err := s.repo.SetAttendance(ctx, id, records); err != nil {
		return nil, storeError(err, "student", "save attendance")
	}
	s.invalidate(ctx, student)
	return student, nil
}

// RemoveSubjectAttendance drops one student's attendance for a subject.
func (s *StudentService) RemoveSubjectAttendance(ctx context.Context, schoolID, id, subjectID string) error {
	student, err := s.owned(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveSubjectAttendance(ctx, id, subjectID); err != nil {
		return storeError(err, "student", "remove attendance")
	}
	s.invalidate(ctx, student)
	return nil
}

// ClearAttendance drops every attendance record of one student.
func (s *StudentService) ClearAttendance(ctx context.Context, schoolID, id string) error {
	student, err := s.owned(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if err := s.repo.ClearAttendance(ctx, id); err != nil {
		return storeError(err, "student", "clear attendance")
	}
	s.invalidate(ctx, student)
	return nil
}

// ClearSubjectAttendance drops a subject's attendance across all students.
func (s *StudentService) ClearSubjectAttendance(ctx context.Context, schoolID, subjectID string) (int64, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return 0, storeError(err, "subject", "load subject")
	}
	if err := ownedBy(subject.School, schoolID, "subject"); err != nil {
		return 0, err
	}
	n, err := s.repo.ClearSubjectAttendance(ctx, subject.ID)
	if err != nil {
		return 0, storeError(err, "student", "clear subject attendance")
	}
	if s.reports != nil {
		s.reports.InvalidateClass(ctx, subject.Class)
	}
	return n, nil
}

// ClearSchoolAttendance drops every attendance record in a school.
func (s *StudentService) ClearSchoolAttendance(ctx context.Context, schoolID string) (int64, error) {
	n, err := s.repo.ClearSchoolAttendance(ctx, schoolID)
	if err != nil {
		return 0, storeError(err, "student", "clear school attendance")
	}
	if s.reports != nil {
		s.reports.InvalidateAll(ctx)
	}
	return n, nil
}

// classSubject loads a subject and checks that the student's class teaches it.
func (s *StudentService) classSubject(ctx context.Context, student *models.Student, subjectID string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, storeError(err, "subject", "load subject")
	}
	if subject.Class != student.Class {
		return nil, invalid("subject is not taught in the student's class")
	}
	return subject, nil
}

func (s *StudentService) invalidate(ctx context.Context, student *models.Student) {
	if s.reports != nil {
		s.reports.InvalidateStudent(ctx, student.Class, student.ID)
	}
}

func upsertExamResult(results []models.ExamResult, result models.ExamResult) []models.ExamResult {
	for i := range results {
		if results[i].Subject == result.Subject {
			results[i] = result
			return results
		}
	}
	return append(results, result)
}

// markAttendance updates the record for (date, subject) or appends a new one when the
// subject still has sessions left.
func markAttendance(records []models.AttendanceRecord, record models.AttendanceRecord, sessions int) ([]models.AttendanceRecord, error) {
	used := 0
	for i := range records {
		if records[i].Subject != record.Subject {
			continue
		}
		if sameDay(records[i].Date, record.Date) {
			records[i].Status = record.Status
			return records, nil
		}
		used++
	}
	if used >= sessions {
		return records, conflict("maximum attendance limit reached for this subject")
	}
	return append(records, record), nil
}
