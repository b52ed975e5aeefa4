package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	teachers *collection[models.Teacher]
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(s *Store) *TeacherRepository {
	return &TeacherRepository{teachers: newCollection[models.Teacher](s, collTeachers)}
}

// Create inserts a teacher. Emails are unique.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	return r.teachers.insert(ctx, teacher)
}

// FindByID returns the teacher.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	return r.teachers.findByID(ctx, id)
}

// ListBySchool returns teachers ordered by name.
func (r *TeacherRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	return r.teachers.find(ctx, bson.M{"school": schoolID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// ListLinked returns every teacher with a subject.
func (r *TeacherRepository) ListLinked(ctx context.Context) ([]models.Teacher, error) {
	return r.teachers.find(ctx, bson.M{"teachSubject": bson.M{"$exists": true, "$ne": ""}})
}

// Update sets the given fields and returns the updated teacher.
func (r *TeacherRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Teacher, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	return r.teachers.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// SetAttendance replaces the attendance log.
func (r *TeacherRepository) SetAttendance(ctx context.Context, id string, attendance []models.TeacherAttendance) error {
	return r.teachers.updateByID(ctx, id, bson.M{"$set": bson.M{"attendance": attendance, "updatedAt": time.Now().UTC()}})
}

// SetTeachSubject points the teacher at subjectID.
func (r *TeacherRepository) SetTeachSubject(ctx context.Context, id, subjectID string) error {
	return r.teachers.updateByID(ctx, id, bson.M{"$set": bson.M{"teachSubject": subjectID, "updatedAt": time.Now().UTC()}})
}

// ClearSubjects unsets teachSubject on teachers pointing at any of subjectIDs.
func (r *TeacherRepository) ClearSubjects(ctx context.Context, subjectIDs []string) (int64, error) {
	if len(subjectIDs) == 0 {
		return 0, nil
	}
	return r.teachers.updateMany(ctx,
		bson.M{"teachSubject": bson.M{"$in": subjectIDs}},
		bson.M{"$unset": bson.M{"teachSubject": ""}},
	)
}

// ReleaseSubject unsets teachSubject=subjectID on every teacher except keepID.
func (r *TeacherRepository) ReleaseSubject(ctx context.Context, subjectID, keepID string) (int64, error) {
	return r.teachers.updateMany(ctx,
		bson.M{"teachSubject": subjectID, "_id": bson.M{"$ne": keepID}},
		bson.M{"$unset": bson.M{"teachSubject": ""}},
	)
}

// IDsByClass returns teacher IDs of a class.
func (r *TeacherRepository) IDsByClass(ctx context.Context, classID string) ([]string, error) {
	return r.teachers.ids(ctx, bson.M{"class": classID})
}

// IDsBySchool returns teacher IDs of a school.
func (r *TeacherRepository) IDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	return r.teachers.ids(ctx, bson.M{"school": schoolID})
}

// Delete removes the teacher.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	return r.teachers.deleteByID(ctx, id)
}

// DeleteByClass removes every teacher of a class.
func (r *TeacherRepository) DeleteByClass(ctx context.Context, classID string) (int64, error) {
	return r.teachers.deleteMany(ctx, bson.M{"class": classID})
}
