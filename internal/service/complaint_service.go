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

type complaintRepository interface {
	Create(ctx context.Context, c *models.Complaint) error
	ListBySchool(ctx context.Context, schoolID string) ([]models.Complaint, error)
}

// ComplaintService records complaints raised by members of a school.
type ComplaintService struct {
	repo      complaintRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(repo complaintRepository, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{repo: repo, validator: validate, logger: logger}
}

// Create files a complaint on behalf of the caller.
func (s *ComplaintService) Create(ctx context.Context, schoolID string, user models.Ref, req models.ComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid complaint payload")
	}
	c := &models.Complaint{
		ID:        uuid.NewString(),
		User:      user,
		Date:      req.Date.UTC(),
		Complaint: strings.TrimSpace(req.Complaint),
		School:    schoolID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, storeError(err, "complaint", "create complaint")
	}
	s.logger.Info("complaint filed", zap.String("complaint_id", c.ID), zap.String("school_id", schoolID))
	return c, nil
}

// List returns the complaints of a school.
func (s *ComplaintService) List(ctx context.Context, schoolID string) ([]models.Complaint, error) {
	out, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "complaint", "list complaints")
	}
	return out, nil
}
