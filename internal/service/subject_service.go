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

type subjectRepository interface {
	CreateMany(ctx context.Context, subjects []models.Subject) error
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Subject, error)
}

type classLookup interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type subjectCascade interface {
	DeleteSubject(ctx context.Context, subjectID string) error
	DeleteSubjectsByClass(ctx context.Context, classID string) (*models.BulkDeleteResult, error)
	DeleteSubjectsBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error)
}

// SubjectService manages the subjects taught in classes.
type SubjectService struct {
	repo      subjectRepository
	classes   classLookup
	cascade   subjectCascade
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, classes classLookup, cascade subjectCascade, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, classes: classes, cascade: cascade, validator: validate, logger: logger}
}

// Create adds several subjects to one class. Codes are unique within a school.
func (s *SubjectService) Create(ctx context.Context, schoolID string, req models.CreateSubjectsRequest) ([]models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	if err := ensureClassInSchool(ctx, s.classes, req.Class, schoolID); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Subjects))
	now := time.Now().UTC()
	subjects := make([]models.Subject, 0, len(req.Subjects))
	for _, in := range req.Subjects {
		code := strings.TrimSpace(in.Code)
		if _, dup := seen[code]; dup {
			return nil, invalid("subject code "+code+" appears more than once")
		}
		seen[code] = struct{}{}
		subjects = append(subjects, models.Subject{
			ID:        uuid.NewString(),
			Name:      strings.TrimSpace(in.Name),
			Code:      code,
			Sessions:  in.Sessions,
			Class:     req.Class,
			School:    schoolID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := s.repo.CreateMany(ctx, subjects); err != nil {
		return nil, storeError(err, "subject code", "create subjects")
	}
	return subjects, nil
}

// List returns the subjects of a school.
func (s *SubjectService) List(ctx context.Context, schoolID string) ([]models.Subject, error) {
	subjects, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "subject", "list subjects")
	}
	return subjects, nil
}

// Get returns the subject.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "subject", "load subject")
	}
	return subject, nil
}

// Delete removes the subject and strips it from teachers and students.
func (s *SubjectService) Delete(ctx context.Context, schoolID, id string) error {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "subject", "load subject")
	}
	if err := ownedBy(subject.School, schoolID, "subject"); err != nil {
		return err
	}
	return s.cascade.DeleteSubject(ctx, id)
}

// DeleteByClass removes every subject of a class.
func (s *SubjectService) DeleteByClass(ctx context.Context, schoolID, classID string) (*models.BulkDeleteResult, error) {
	if err := classOwnedBy(ctx, s.classes, classID, schoolID); err != nil {
		return nil, err
	}
	return s.cascade.DeleteSubjectsByClass(ctx, classID)
}

// DeleteBySchool removes every subject of a school.
func (s *SubjectService) DeleteBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	return s.cascade.DeleteSubjectsBySchool(ctx, schoolID)
}

// ensureClassInSchool reports NotFound for a missing class and Validation for a class of
// another school.
func ensureClassInSchool(ctx context.Context, classes classLookup, classID, schoolID string) error {
	class, err := classes.FindByID(ctx, classID)
	if err != nil {
		return storeError(err, "class", "load class")
	}
	if class.School != schoolID {
		return invalid("class belongs to another school")
	}
	return nil
}

// classOwnedBy loads a class and reports Forbidden when it belongs to another school.
func classOwnedBy(ctx context.Context, classes classLookup, classID, schoolID string) error {
	class, err := classes.FindByID(ctx, classID)
	if err != nil {
		return storeError(err, "class", "load class")
	}
	return ownedBy(class.School, schoolID, "class")
}
