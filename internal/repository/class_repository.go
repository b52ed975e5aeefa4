package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	classes *collection[models.Class]
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(s *Store) *ClassRepository {
	return &ClassRepository{classes: newCollection[models.Class](s, collClasses)}
}

// Create inserts a class. Names are unique per school.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	return r.classes.insert(ctx, class)
}

// FindByID returns the class.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	return r.classes.findByID(ctx, id)
}

// ListBySchool returns classes ordered by name.
func (r *ClassRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Class, error) {
	return r.classes.find(ctx, bson.M{"school": schoolID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// IDsBySchool returns the IDs of every class in the school.
func (r *ClassRepository) IDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	return r.classes.ids(ctx, bson.M{"school": schoolID})
}

// Delete removes the class.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	return r.classes.deleteByID(ctx, id)
}
