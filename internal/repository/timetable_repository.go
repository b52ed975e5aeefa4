package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// TimetableRepository manages persistence for class timetables.
type TimetableRepository struct {
	timetables *collection[models.Timetable]
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(s *Store) *TimetableRepository {
	return &TimetableRepository{timetables: newCollection[models.Timetable](s, collTimetables)}
}

// Create inserts a timetable. (class, academicYear, term) is unique.
func (r *TimetableRepository) Create(ctx context.Context, t *models.Timetable) error {
	return r.timetables.insert(ctx, t)
}

// FindByID returns the timetable.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	return r.timetables.findByID(ctx, id)
}

// ActiveForClass returns the most recent active timetable of a class.
func (r *TimetableRepository) ActiveForClass(ctx context.Context, classID string) (*models.Timetable, error) {
	return r.timetables.findOne(ctx, bson.M{"class": classID, "isActive": true},
		options.FindOne().SetSort(bson.D{{Key: "academicYear", Value: -1}, {Key: "createdAt", Value: -1}}))
}

// ActiveWithTeacher returns active timetables with at least one period taught by teacherID.
func (r *TimetableRepository) ActiveWithTeacher(ctx context.Context, teacherID string) ([]models.Timetable, error) {
	return r.timetables.find(ctx, bson.M{"isActive": true, "schedule.periods.teacher": teacherID})
}

// ListBySchool returns timetables of a school.
func (r *TimetableRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Timetable, error) {
	return r.timetables.find(ctx, bson.M{"school": schoolID},
		options.Find().SetSort(bson.D{{Key: "academicYear", Value: -1}, {Key: "class", Value: 1}}))
}

// Save replaces the stored timetable.
func (r *TimetableRepository) Save(ctx context.Context, t *models.Timetable) error {
	return r.timetables.replace(ctx, t.ID, t)
}

// Delete removes the timetable.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	return r.timetables.deleteByID(ctx, id)
}
