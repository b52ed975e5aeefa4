package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// ParentRepository manages persistence for parents.
type ParentRepository struct {
	parents *collection[models.Parent]
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(s *Store) *ParentRepository {
	return &ParentRepository{parents: newCollection[models.Parent](s, collParents)}
}

// Create inserts a parent. Emails are unique.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	return r.parents.insert(ctx, parent)
}

// FindByID returns the parent.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	return r.parents.findByID(ctx, id)
}

// ListBySchool returns parents ordered by name.
func (r *ParentRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Parent, error) {
	return r.parents.find(ctx, bson.M{"school": schoolID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// Update sets the given fields and returns the updated parent.
func (r *ParentRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Parent, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	return r.parents.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// AddChild appends studentID to the parent's children.
func (r *ParentRepository) AddChild(ctx context.Context, parentID, studentID string) (*models.Parent, error) {
	return r.parents.findOneAndUpdate(ctx, bson.M{"_id": parentID}, bson.M{
		"$addToSet": bson.M{"children": studentID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
}

// PullChildren removes studentIDs from every parent's children.
func (r *ParentRepository) PullChildren(ctx context.Context, studentIDs []string) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	return r.parents.updateMany(ctx,
		bson.M{"children": bson.M{"$in": studentIDs}},
		bson.M{"$pull": bson.M{"children": bson.M{"$in": studentIDs}}},
	)
}

// DetachFromOthers removes studentIDs from the children of every parent except parentID.
func (r *ParentRepository) DetachFromOthers(ctx context.Context, parentID string, studentIDs []string) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	return r.parents.updateMany(ctx,
		bson.M{"_id": bson.M{"$ne": parentID}, "children": bson.M{"$in": studentIDs}},
		bson.M{"$pull": bson.M{"children": bson.M{"$in": studentIDs}}},
	)
}

// IDsBySchool returns parent IDs of a school.
func (r *ParentRepository) IDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	return r.parents.ids(ctx, bson.M{"school": schoolID})
}

// Delete removes the parent.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	return r.parents.deleteByID(ctx, id)
}
