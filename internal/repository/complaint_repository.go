package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// ComplaintRepository manages persistence for complaints.
type ComplaintRepository struct {
	complaints *collection[models.Complaint]
}

// NewComplaintRepository constructs a ComplaintRepository.
func NewComplaintRepository(s *Store) *ComplaintRepository {
	return &ComplaintRepository{complaints: newCollection[models.Complaint](s, collComplaints)}
}

// Create inserts a complaint.
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	return r.complaints.insert(ctx, c)
}

// ListBySchool returns complaints of a school, newest first.
func (r *ComplaintRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Complaint, error) {
	return r.complaints.find(ctx, bson.M{"school": schoolID}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}
