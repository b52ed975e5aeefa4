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

type teacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Teacher, error)
	SetAttendance(ctx context.Context, id string, attendance []models.TeacherAttendance) error
}

type subjectLookup interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type teacherCascade interface {
	LinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error
	DeleteTeacher(ctx context.Context, teacherID string) error
	DeleteTeachersByClass(ctx context.Context, classID string) (*models.BulkDeleteResult, error)
	DeleteTeachersBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error)
}

// TeacherService manages teacher accounts and their subject links.
type TeacherService struct {
	repo      teacherRepository
	classes   classLookup
	subjects  subjectLookup
	cascade   teacherCascade
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, classes classLookup, subjects subjectLookup, cascade teacherCascade, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, classes: classes, subjects: subjects, cascade: cascade, validator: validate, logger: logger}
}

// Register creates a teacher and links the requested subject on both sides.
func (s *TeacherService) Register(ctx context.Context, schoolID string, req models.RegisterTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	if err := ensureClassInSchool(ctx, s.classes, req.Class, schoolID); err != nil {
		return nil, err
	}
	if req.Subject != "" {
		subject, err := s.subjects.FindByID(ctx, req.Subject)
		if err != nil {
			return nil, storeError(err, "subject", "load subject")
		}
		if subject.School != schoolID {
			return nil, invalid("subject belongs to another school")
		}
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	teacher := &models.Teacher{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:  hash,
		Phone:         req.Phone,
		Qualification: req.Qualification,
		Experience:    req.Experience,
		School:        schoolID,
		Class:         req.Class,
		Attendance:    []models.TeacherAttendance{},
		Notifications: []models.Notification{},
		Preferences:   models.DefaultPreferences(),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, storeError(err, "teacher with this email", "register teacher")
	}
	if req.Subject == "" {
		return teacher, nil
	}
	if err := s.cascade.LinkTeacherSubject(ctx, teacher.ID, req.Subject); err != nil {
		return nil, err
	}
	teacher.TeachSubject = req.Subject
	return teacher, nil
}

// List returns the teachers of a school.
func (s *TeacherService) List(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	teachers, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "teacher", "list teachers")
	}
	return teachers, nil
}

// Get returns the teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "teacher", "load teacher")
	}
	return teacher, nil
}

// Update edits profile fields. Subject changes go through ChangeSubject.
func (s *TeacherService) Update(ctx context.Context, id string, req models.UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Qualification != nil {
		fields["qualification"] = req.Qualification
	}
	if req.Experience != nil {
		fields["experience"] = *req.Experience
	}
	teacher, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError(err, "teacher", "update teacher")
	}
	return teacher, nil
}

// ChangeSubject relinks the teacher to another subject of its school.
func (s *TeacherService) ChangeSubject(ctx context.Context, id string, req models.ChangeTeacherSubjectRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	if err := s.cascade.LinkTeacherSubject(ctx, id, req.Subject); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// MarkAttendance records the teacher's status for a day, replacing an earlier mark for
// the same day.
func (s *TeacherService) MarkAttendance(ctx context.Context, id string, req models.TeacherAttendanceRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	teacher.Attendance = upsertTeacherAttendance(teacher.Attendance, models.TeacherAttendance{Date: req.Date.UTC(), Status: req.Status})
	if err := s.repo.SetAttendance(ctx, id, teacher.Attendance); err != nil {
		return nil, storeError(err, "teacher", "record teacher attendance")
	}
	return teacher, nil
}

// Delete removes the teacher and unlinks its subject.
func (s *TeacherService) Delete(ctx context.Context, schoolID, id string) error {
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ownedBy(teacher.School, schoolID, "teacher"); err != nil {
		return err
	}
	return s.cascade.DeleteTeacher(ctx, id)
}

// DeleteByClass removes every teacher of a class.
func (s *TeacherService) DeleteByClass(ctx context.Context, schoolID, classID string) (*models.BulkDeleteResult, error) {
	if err := classOwnedBy(ctx, s.classes, classID, schoolID); err != nil {
		return nil, err
	}
	return s.cascade.DeleteTeachersByClass(ctx, classID)
}

// DeleteBySchool removes every teacher of a school.
func (s *TeacherService) DeleteBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	return s.cascade.DeleteTeachersBySchool(ctx, schoolID)
}

func upsertTeacherAttendance(log []models.TeacherAttendance, mark models.TeacherAttendance) []models.TeacherAttendance {
	for i := range log {
		if sameDay(log[i].Date, mark.Date) {
			log[i].Status = mark.Status
			return log
		}
	}
	return append(log, mark)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
