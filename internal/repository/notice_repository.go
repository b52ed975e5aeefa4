package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// NoticeRepository manages persistence for notices.
type NoticeRepository struct {
	notices *collection[models.Notice]
}

// NewNoticeRepository constructs a NoticeRepository.
func NewNoticeRepository(s *Store) *NoticeRepository {
	return &NoticeRepository{notices: newCollection[models.Notice](s, collNotices)}
}

// Create inserts a notice.
func (r *NoticeRepository) Create(ctx context.Context, n *models.Notice) error {
	return r.notices.insert(ctx, n)
}

// FindByID returns the notice.
func (r *NoticeRepository) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	return r.notices.findByID(ctx, id)
}

// ListBySchool returns notices of a school, newest first.
func (r *NoticeRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Notice, error) {
	return r.notices.find(ctx, bson.M{"school": schoolID}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

// Save replaces the stored notice.
func (r *NoticeRepository) Save(ctx context.Context, n *models.Notice) error {
	return r.notices.replace(ctx, n.ID, n)
}

// Delete removes the notice.
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	return r.notices.deleteByID(ctx, id)
}

// DeleteBySchool removes every notice of a school.
func (r *NoticeRepository) DeleteBySchool(ctx context.Context, schoolID string) (int64, error) {
	return r.notices.deleteMany(ctx, bson.M{"school": schoolID})
}
