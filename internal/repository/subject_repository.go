package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// SubjectRepository manages persistence for subjects.
type SubjectRepository struct {
	subjects *collection[models.Subject]
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(s *Store) *SubjectRepository {
	return &SubjectRepository{subjects: newCollection[models.Subject](s, collSubjects)}
}

var bySubjectName = options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

// CreateMany inserts subjects. Codes are unique per school.
func (r *SubjectRepository) CreateMany(ctx context.Context, subjects []models.Subject) error {
	return r.subjects.insertMany(ctx, subjects)
}

// FindByID returns the subject.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	return r.subjects.findByID(ctx, id)
}

// FindByIDs returns the subjects with the given IDs.
func (r *SubjectRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	if len(ids) == 0 {
		return []models.Subject{}, nil
	}
	return r.subjects.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListBySchool returns subjects of a school.
func (r *SubjectRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Subject, error) {
	return r.subjects.find(ctx, bson.M{"school": schoolID}, bySubjectName)
}

// ListByClass returns subjects of a class.
func (r *SubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	return r.subjects.find(ctx, bson.M{"class": classID}, bySubjectName)
}

// ListFreeByClass returns subjects of a class that no teacher teaches.
func (r *SubjectRepository) ListFreeByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	filter := bson.M{"class": classID, "$or": bson.A{
		bson.M{"teacher": bson.M{"$exists": false}},
		bson.M{"teacher": ""},
	}}
	return r.subjects.find(ctx, filter, bySubjectName)
}

// ListLinked returns every subject that points at a teacher.
func (r *SubjectRepository) ListLinked(ctx context.Context) ([]models.Subject, error) {
	return r.subjects.find(ctx, bson.M{"teacher": bson.M{"$exists": true, "$ne": ""}})
}

// IDsByClass returns subject IDs of a class.
func (r *SubjectRepository) IDsByClass(ctx context.Context, classID string) ([]string, error) {
	return r.subjects.ids(ctx, bson.M{"class": classID})
}

// IDsBySchool returns subject IDs of a school.
func (r *SubjectRepository) IDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	return r.subjects.ids(ctx, bson.M{"school": schoolID})
}

// Delete removes the subject.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return r.subjects.deleteByID(ctx, id)
}

// DeleteByClass removes every subject of a class.
func (r *SubjectRepository) DeleteByClass(ctx context.Context, classID string) (int64, error) {
	return r.subjects.deleteMany(ctx, bson.M{"class": classID})
}

// ClearTeacher unsets the teacher on subjects pointing at any of teacherIDs.
func (r *SubjectRepository) ClearTeacher(ctx context.Context, teacherIDs []string) (int64, error) {
	if len(teacherIDs) == 0 {
		return 0, nil
	}
	return r.subjects.updateMany(ctx, bson.M{"teacher": bson.M{"$in": teacherIDs}}, bson.M{"$unset": bson.M{"teacher": ""}})
}

// SetTeacher points the subject at teacherID.
func (r *SubjectRepository) SetTeacher(ctx context.Context, subjectID, teacherID string) (int64, error) {
	return r.subjects.updateOne(ctx, bson.M{"_id": subjectID}, bson.M{"$set": bson.M{"teacher": teacherID}})
}

// UnsetTeacher clears the teacher of one subject.
func (r *SubjectRepository) UnsetTeacher(ctx context.Context, subjectID string) (int64, error) {
	return r.subjects.updateOne(ctx, bson.M{"_id": subjectID}, bson.M{"$unset": bson.M{"teacher": ""}})
}
