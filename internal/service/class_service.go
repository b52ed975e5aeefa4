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

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Class, error)
}

type classSubjectReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
	ListFreeByClass(ctx context.Context, classID string) ([]models.Subject, error)
}

type classStudentReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type classCascade interface {
	DeleteClass(ctx context.Context, classID string) error
	DeleteClassesBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error)
}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	subjects  classSubjectReader
	students  classStudentReader
	cascade   classCascade
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, subjects classSubjectReader, students classStudentReader, cascade classCascade, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, subjects: subjects, students: students, cascade: cascade, validator: validate, logger: logger}
}

// Create adds a class to the school. Names are unique per school.
func (s *ClassService) Create(ctx context.Context, schoolID string, req models.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	now := time.Now().UTC()
	class := &models.Class{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		School:    schoolID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, storeError(err, "class", "create class")
	}
	return class, nil
}

// List returns the classes of a school.
func (s *ClassService) List(ctx context.Context, schoolID string) ([]models.Class, error) {
	classes, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "class", "list classes")
	}
	return classes, nil
}

// Get returns the class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	return class, nil
}

// Students lists the students of a class.
func (s *ClassService) Students(ctx context.Context, id string) ([]models.Student, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	students, err := s.students.ListByClass(ctx, id)
	if err != nil {
		return nil, storeError(err, "student", "list class students")
	}
	return students, nil
}

// Subjects lists the subjects taught in a class.
func (s *ClassService) Subjects(ctx context.Context, id string) ([]models.Subject, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListByClass(ctx, id)
	if err != nil {
		return nil, storeError(err, "subject", "list class subjects")
	}
	return subjects, nil
}

// FreeSubjects lists the subjects of a class that no teacher is linked to.
func (s *ClassService) FreeSubjects(ctx context.Context, id string) ([]models.Subject, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListFreeByClass(ctx, id)
	if err != nil {
		return nil, storeError(err, "subject", "list free subjects")
	}
	return subjects, nil
}

// Delete removes the class and everything that belongs to it.
func (s *ClassService) Delete(ctx context.Context, schoolID, id string) error {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "class", "load class")
	}
	if err := ownedBy(class.School, schoolID, "class"); err != nil {
		return err
	}
	return s.cascade.DeleteClass(ctx, id)
}

// DeleteBySchool removes every class of a school.
func (s *ClassService) DeleteBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	return s.cascade.DeleteClassesBySchool(ctx, schoolID)
}
