package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// StudentRepository manages persistence for students and their embedded records.
type StudentRepository struct {
	students *collection[models.Student]
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(s *Store) *StudentRepository {
	return &StudentRepository{students: newCollection[models.Student](s, collStudents)}
}

var byRollNum = options.Find().SetSort(bson.D{{Key: "rollNum", Value: 1}})

// Create inserts a student. Roll numbers are unique per school and class.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.students.insert(ctx, student)
}

// FindByID returns the student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.students.findByID(ctx, id)
}

// FindByIDs returns the students with the given IDs.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}
	return r.students.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, byRollNum)
}

// ListBySchool returns students of a school.
func (r *StudentRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Student, error) {
	return r.students.find(ctx, bson.M{"school": schoolID}, byRollNum)
}

// ListByClass returns students of a class.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return r.students.find(ctx, bson.M{"class": classID}, byRollNum)
}

// Update sets the given fields and returns the updated student.
func (r *StudentRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	return r.students.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// SetExamResults replaces the exam result array.
func (r *StudentRepository) SetExamResults(ctx context.Context, id string, results []models.ExamResult) error {
	return r.students.updateByID(ctx, id, bson.M{"$set": bson.M{"examResult": results, "updatedAt": time.Now().UTC()}})
}

// SetAttendance replaces the attendance array.
func (r *StudentRepository) SetAttendance(ctx context.Context, id string, records []models.AttendanceRecord) error {
	return r.students.updateByID(ctx, id, bson.M{"$set": bson.M{"attendance": records, "updatedAt": time.Now().UTC()}})
}

// StripSubject pulls every exam result and attendance entry of subjectID from all students.
func (r *StudentRepository) StripSubject(ctx context.Context, subjectID string) (int64, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"examResult.subName": subjectID},
		bson.M{"attendance.subName": subjectID},
	}}
	update := bson.M{"$pull": bson.M{
		"examResult": bson.M{"subName": subjectID},
		"attendance": bson.M{"subName": subjectID},
	}}
	return r.students.updateMany(ctx, filter, update)
}

// RemoveSubjectAttendance pulls one subject's attendance from one student.
func (r *StudentRepository) RemoveSubjectAttendance(ctx context.Context, studentID, subjectID string) error {
	return r.students.updateByID(ctx, studentID, bson.M{"$pull": bson.M{"attendance": bson.M{"subName": subjectID}}})
}

// ClearSubjectAttendance pulls one subject's attendance from every student.
func (r *StudentRepository) ClearSubjectAttendance(ctx context.Context, subjectID string) (int64, error) {
	return r.students.updateMany(ctx,
		bson.M{"attendance.subName": subjectID},
		bson.M{"$pull": bson.M{"attendance": bson.M{"subName": subjectID}}},
	)
}

// ClearAttendance empties one student's attendance.
func (r *StudentRepository) ClearAttendance(ctx context.Context, studentID string) error {
	return r.students.updateByID(ctx, studentID, bson.M{"$set": bson.M{"attendance": bson.A{}}})
}

// ClearSchoolAttendance empties the attendance of every student in a school.
func (r *StudentRepository) ClearSchoolAttendance(ctx context.Context, schoolID string) (int64, error) {
	return r.students.updateMany(ctx, bson.M{"school": schoolID}, bson.M{"$set": bson.M{"attendance": bson.A{}}})
}

// SetParent links the student to a parent.
func (r *StudentRepository) SetParent(ctx context.Context, studentID, parentID string) error {
	return r.students.updateByID(ctx, studentID, bson.M{"$set": bson.M{"parent": parentID}})
}

// ClearParent unsets parent on students pointing at parentID.
func (r *StudentRepository) ClearParent(ctx context.Context, parentID string) (int64, error) {
	return r.students.updateMany(ctx, bson.M{"parent": parentID}, bson.M{"$unset": bson.M{"parent": ""}})
}

// IDsByClass returns student IDs of a class.
func (r *StudentRepository) IDsByClass(ctx context.Context, classID string) ([]string, error) {
	return r.students.ids(ctx, bson.M{"class": classID})
}

// IDsBySchool returns student IDs of a school.
func (r *StudentRepository) IDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	return r.students.ids(ctx, bson.M{"school": schoolID})
}

// Delete removes the student.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	return r.students.deleteByID(ctx, id)
}

// DeleteByClass removes every student of a class.
func (r *StudentRepository) DeleteByClass(ctx context.Context, classID string) (int64, error) {
	return r.students.deleteMany(ctx, bson.M{"class": classID})
}
