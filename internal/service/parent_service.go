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

type parentRepository interface {
	Create(ctx context.Context, parent *models.Parent) error
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Parent, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Parent, error)
	AddChild(ctx context.Context, parentID, studentID string) (*models.Parent, error)
	DetachFromOthers(ctx context.Context, parentID string, studentIDs []string) (int64, error)
}

type parentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	SetParent(ctx context.Context, studentID, parentID string) error
}

type parentCascade interface {
	DeleteParent(ctx context.Context, parentID string) error
}

// ParentService manages parent accounts and the children linked to them.
type ParentService struct {
	repo      parentRepository
	students  parentStudentRepository
	cascade   parentCascade
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParentService constructs a ParentService.
func NewParentService(repo parentRepository, students parentStudentRepository, cascade parentCascade, validate *validator.Validate, logger *zap.Logger) *ParentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentService{repo: repo, students: students, cascade: cascade, validator: validate, logger: logger}
}

// Register creates a parent and links the given children to it.
func (s *ParentService) Register(ctx context.Context, schoolID string, req models.RegisterParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid parent payload")
	}
	children := dedupe(req.Children)
	for _, id := range children {
		if _, err := s.schoolStudent(ctx, id, schoolID); err != nil {
			return nil, err
		}
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	parent := &models.Parent{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:  hash,
		Phone:         req.Phone,
		Address:       req.Address,
		School:        schoolID,
		Children:      children,
		Notifications: []models.Notification{},
		Preferences:   models.DefaultPreferences(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, storeError(err, "parent with this email", "register parent")
	}
	// Previous parents lose the children only once the new parent exists.
	if _, err := s.repo.DetachFromOthers(ctx, parent.ID, children); err != nil {
		return nil, storeError(err, "parent", "detach children from previous parents")
	}
	for _, id := range children {
		if err := s.students.SetParent(ctx, id, parent.ID); err != nil {
			return nil, storeError(err, "student", "link child")
		}
	}
	return parent, nil
}

// List returns the parents of a school.
func (s *ParentService) List(ctx context.Context, schoolID string) ([]models.Parent, error) {
	parents, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "parent", "list parents")
	}
	return parents, nil
}

// Get returns the parent.
func (s *ParentService) Get(ctx context.Context, id string) (*models.Parent, error) {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "parent", "load parent")
	}
	return parent, nil
}

// Update edits the parent's contact details.
func (s *ParentService) Update(ctx context.Context, id string, req models.UpdateParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid parent payload")
	}
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	parent, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError(err, "parent", "update parent")
	}
	return parent, nil
}

// LinkChild attaches a student of the same school. A student has at most one parent, so
// it is then removed from any other parent.
func (s *ParentService) LinkChild(ctx context.Context, id string, req models.LinkChildRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid child payload")
	}
	parent, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, child := range parent.Children {
		if child == req.Student {
			return nil, conflict("student is already linked to this parent")
		}
	}
	if _, err := s.schoolStudent(ctx, req.Student, parent.School); err != nil {
		return nil, err
	}
	updated, err := s.repo.AddChild(ctx, id, req.Student)
	if err != nil {
		return nil, storeError(err, "parent", "link child")
	}
	if _, err := s.repo.DetachFromOthers(ctx, id, []string{req.Student}); err != nil {
		return nil, storeError(err, "parent", "detach child")
	}
	if err := s.students.SetParent(ctx, req.Student, id); err != nil {
		return nil, storeError(err, "student", "link child")
	}
	return updated, nil
}

// Delete removes the parent and detaches its children.
func (s *ParentService) Delete(ctx context.Context, schoolID, id string) error {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "parent", "load parent")
	}
	if err := ownedBy(parent.School, schoolID, "parent"); err != nil {
		return err
	}
	return s.cascade.DeleteParent(ctx, id)
}

func (s *ParentService) schoolStudent(ctx context.Context, studentID, schoolID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "student", "load student")
	}
	if student.School != schoolID {
		return nil, invalid("student belongs to another school")
	}
	return student, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
