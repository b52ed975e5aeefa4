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

type assignmentRepository interface {
	Create(ctx context.Context, a *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByClass(ctx context.Context, classID string, publishedOnly bool) ([]models.Assignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Assignment, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.Assignment, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Assignment, error)
	AddSubmission(ctx context.Context, id string, sub models.Submission) (bool, error)
	GradeSubmission(ctx context.Context, id, studentID string, marks float64, feedback, gradedBy string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// AssignmentService manages homework and submissions.
type AssignmentService struct {
	repo      assignmentRepository
	classes   classLookup
	subjects  subjectLookup
	students  studentLookup
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, classes classLookup, subjects subjectLookup, students studentLookup, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, classes: classes, subjects: subjects, students: students, validator: validate, logger: logger, now: time.Now}
}

// Create sets homework for a class. The teacher defaults to the caller when the caller is a teacher.
func (s *AssignmentService) Create(ctx context.Context, schoolID string, caller models.Ref, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	if err := ensureClassInSchool(ctx, s.classes, req.Class, schoolID); err != nil {
		return nil, err
	}
	subject, err := s.subjects.FindByID(ctx, req.Subject)
	if err != nil {
		return nil, storeError(err, "subject", "load subject")
	}
	if subject.Class != req.Class {
		return nil, invalid("subject is not taught in this class")
	}
	teacher := req.Teacher
	if teacher == "" && caller.Type == models.RefTeacher {
		teacher = caller.ID
	}
	if teacher == "" {
		return nil, invalid("teacher is required")
	}
	maxMarks := req.MaxMarks
	if maxMarks == 0 {
		maxMarks = defaultTotalMarks
	}
	status := req.Status
	if status == "" {
		status = models.AssignmentActive
	}
	attachments := req.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	now := s.now().UTC()
	a := &models.Assignment{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Subject:     req.Subject,
		Class:       req.Class,
		Teacher:     teacher,
		School:      schoolID,
		DueDate:     req.DueDate.UTC(),
		MaxMarks:    maxMarks,
		Attachments: attachments,
		Submissions: []models.Submission{},
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, storeError(err, "assignment", "create assignment")
	}
	return a, nil
}

// Get returns an assignment with its submissions.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "assignment", "load assignment")
	}
	return a, nil
}

// ListByClass returns every assignment of a class.
func (s *AssignmentService) ListByClass(ctx context.Context, classID string) ([]models.Assignment, error) {
	out, err := s.repo.ListByClass(ctx, classID, false)
	if err != nil {
		return nil, storeError(err, "assignment", "list assignments")
	}
	return out, nil
}

// ListByTeacher returns the assignments a teacher set.
func (s *AssignmentService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Assignment, error) {
	out, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, storeError(err, "assignment", "list assignments")
	}
	return out, nil
}

// ListBySubject returns the assignments of a subject.
func (s *AssignmentService) ListBySubject(ctx context.Context, subjectID string) ([]models.Assignment, error) {
	out, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, storeError(err, "assignment", "list assignments")
	}
	return out, nil
}

// ListForStudent returns the published assignments of the student's class, each carrying
// the student's own submission status. Other students' submissions are not exposed.
func (s *AssignmentService) ListForStudent(ctx context.Context, studentID string) ([]models.StudentAssignment, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "student", "load student")
	}
	assignments, err := s.repo.ListByClass(ctx, student.Class, true)
	if err != nil {
		return nil, storeError(err, "assignment", "list assignments")
	}
	out := make([]models.StudentAssignment, 0, len(assignments))
	for i := range assignments {
		a := assignments[i]
		view := models.StudentAssignment{SubmissionStatus: models.SubmissionMissing}
		if _, sub := a.SubmissionOf(studentID); sub != nil {
			cp := *sub
			view.MySubmission = &cp
			view.SubmissionStatus = sub.Status
		}
		a.Submissions = nil
		view.Assignment = a
		out = append(out, view)
	}
	return out, nil
}

// Submit hands in a student's work. Submissions after the due date are marked Late.
func (s *AssignmentService) Submit(ctx context.Context, id, studentID string, req models.SubmitAssignmentRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid submission payload")
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == models.AssignmentClosed {
		return nil, conflict("assignment is closed")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "student", "load student")
	}
	if student.Class != a.Class {
		return nil, forbidden("assignment is not set for your class")
	}

	now := s.now().UTC()
	status := models.SubmissionSubmitted
	if now.After(a.DueDate) {
		status = models.SubmissionLate
	}
	attachments := req.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	sub := models.Submission{Student: studentID, SubmittedAt: now, Status: status, Attachments: attachments}
	stored, err := s.repo.AddSubmission(ctx, id, sub)
	if err != nil {
		return nil, storeError(err, "assignment", "submit assignment")
	}
	if !stored {
		return nil, conflict("assignment already submitted")
	}
	return &sub, nil
}

// Grade records marks on a submission.
func (s *AssignmentService) Grade(ctx context.Context, id, studentID, gradedBy string, req models.GradeSubmissionRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.MarksObtained > a.MaxMarks {
		return nil, invalid("marks obtained exceed maximum marks")
	}
	found, err := s.repo.GradeSubmission(ctx, id, studentID, req.MarksObtained, req.Feedback, gradedBy, s.now().UTC())
	if err != nil {
		return nil, storeError(err, "assignment", "grade submission")
	}
	if !found {
		return nil, notFound("submission")
	}
	return s.Get(ctx, id)
}

// Update edits an assignment.
func (s *AssignmentService) Update(ctx context.Context, id string, req models.UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.DueDate != nil {
		fields["dueDate"] = req.DueDate.UTC()
	}
	if req.MaxMarks != nil {
		fields["maxMarks"] = *req.MaxMarks
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	a, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError(err, "assignment", "update assignment")
	}
	return a, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, schoolID, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "assignment", "load assignment")
	}
	if err := ownedBy(existing.School, schoolID, "assignment"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "assignment", "delete assignment")
	}
	return nil
}
