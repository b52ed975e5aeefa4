package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// FeeRepository manages persistence for fee records.
type FeeRepository struct {
	fees *collection[models.Fee]
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(s *Store) *FeeRepository {
	return &FeeRepository{fees: newCollection[models.Fee](s, collFees)}
}

// Create inserts a fee.
func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	return r.fees.insert(ctx, fee)
}

// FindByID returns the fee.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	return r.fees.findByID(ctx, id)
}

// Save replaces the stored fee with the given document.
func (r *FeeRepository) Save(ctx context.Context, fee *models.Fee) error {
	return r.fees.replace(ctx, fee.ID, fee)
}

// ListByStudent returns the student's fees, newest academic year first.
func (r *FeeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Fee, error) {
	return r.fees.find(ctx, bson.M{"student": studentID},
		options.Find().SetSort(bson.D{{Key: "academicYear", Value: -1}, {Key: "createdAt", Value: -1}}))
}

// ListByClass returns fees of a class.
func (r *FeeRepository) ListByClass(ctx context.Context, classID string) ([]models.Fee, error) {
	return r.fees.find(ctx, bson.M{"class": classID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// ListBySchool returns fees of a school narrowed by filter.
func (r *FeeRepository) ListBySchool(ctx context.Context, schoolID string, filter models.FeeReportFilter) ([]models.Fee, error) {
	query := bson.M{"school": schoolID}
	if filter.AcademicYear != "" {
		query["academicYear"] = filter.AcademicYear
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return r.fees.find(ctx, query, options.Find().SetSort(bson.D{{Key: "class", Value: 1}, {Key: "createdAt", Value: 1}}))
}

// Delete removes the fee.
func (r *FeeRepository) Delete(ctx context.Context, id string) error {
	return r.fees.deleteByID(ctx, id)
}
