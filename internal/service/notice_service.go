package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/notify"
)

type noticeRepository interface {
	Create(ctx context.Context, n *models.Notice) error
	FindByID(ctx context.Context, id string) (*models.Notice, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Notice, error)
	Save(ctx context.Context, n *models.Notice) error
	Delete(ctx context.Context, id string) error
	DeleteBySchool(ctx context.Context, schoolID string) (int64, error)
}

// NoticeService manages school notices.
type NoticeService struct {
	repo      noticeRepository
	publisher notify.Publisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService constructs a NoticeService.
func NewNoticeService(repo noticeRepository, publisher notify.Publisher, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &NoticeService{repo: repo, publisher: publisher, validator: validate, logger: logger}
}

// Create posts a notice and announces it on the bus.
func (s *NoticeService) Create(ctx context.Context, schoolID string, req models.NoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid notice payload")
	}
	now := time.Now().UTC()
	n := &models.Notice{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Details:   req.Details,
		Date:      req.Date.UTC(),
		School:    schoolID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, storeError(err, "notice", "create notice")
	}
	if err := s.publisher.Publish(ctx, notify.SubjectNoticeCreated, n); err != nil {
		s.logger.Warn("failed to publish notice", zap.String("notice_id", n.ID), zap.Error(err))
	}
	return n, nil
}

// List returns the notices of a school, newest first.
func (s *NoticeService) List(ctx context.Context, schoolID string) ([]models.Notice, error) {
	out, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "notice", "list notices")
	}
	return out, nil
}

// Update replaces the content of a notice.
func (s *NoticeService) Update(ctx context.Context, id string, req models.NoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid notice payload")
	}
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "notice", "load notice")
	}
	n.Title = strings.TrimSpace(req.Title)
	n.Details = req.Details
	n.Date = req.Date.UTC()
	n.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, storeError(err, "notice", "update notice")
	}
	return n, nil
}

// Delete removes a notice.
func (s *NoticeService) Delete(ctx context.Context, schoolID, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "notice", "load notice")
	}
	if err := ownedBy(existing.School, schoolID, "notice"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "notice", "delete notice")
	}
	return nil
}

// DeleteBySchool removes every notice of a school.
func (s *NoticeService) DeleteBySchool(ctx context.Context, schoolID string) (int64, error) {
	n, err := s.repo.DeleteBySchool(ctx, schoolID)
	if err != nil {
		return 0, storeError(err, "notice", "delete notices")
	}
	return n, nil
}
