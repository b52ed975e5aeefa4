package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// AssignmentRepository manages persistence for homework and its embedded submissions.
type AssignmentRepository struct {
	assignments *collection[models.Assignment]
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(s *Store) *AssignmentRepository {
	return &AssignmentRepository{assignments: newCollection[models.Assignment](s, collAssignments)}
}

var latestDueFirst = options.Find().SetSort(bson.D{{Key: "dueDate", Value: -1}})

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	return r.assignments.insert(ctx, a)
}

// FindByID returns the assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	return r.assignments.findByID(ctx, id)
}

// ListByClass returns assignments of a class, optionally excluding drafts.
func (r *AssignmentRepository) ListByClass(ctx context.Context, classID string, publishedOnly bool) ([]models.Assignment, error) {
	query := bson.M{"class": classID}
	if publishedOnly {
		query["status"] = bson.M{"$ne": models.AssignmentDraft}
	}
	return r.assignments.find(ctx, query, latestDueFirst)
}

// ListByTeacher returns assignments set by a teacher.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Assignment, error) {
	return r.assignments.find(ctx, bson.M{"teacher": teacherID}, latestDueFirst)
}

// ListBySubject returns assignments for a subject.
func (r *AssignmentRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Assignment, error) {
	return r.assignments.find(ctx, bson.M{"subject": subjectID}, latestDueFirst)
}

// Update sets the given fields and returns the updated assignment.
func (r *AssignmentRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Assignment, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	return r.assignments.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// AddSubmission appends a submission unless the student already submitted. It reports
// whether the submission was stored.
func (r *AssignmentRepository) AddSubmission(ctx context.Context, id string, sub models.Submission) (bool, error) {
	matched, err := r.assignments.updateOne(ctx,
		bson.M{"_id": id, "submissions.student": bson.M{"$ne": sub.Student}},
		bson.M{
			"$push": bson.M{"submissions": sub},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	return matched > 0, err
}

// GradeSubmission records marks on a student's submission. It reports whether the submission exists.
func (r *AssignmentRepository) GradeSubmission(ctx context.Context, id, studentID string, marks float64, feedback, gradedBy string, at time.Time) (bool, error) {
	matched, err := r.assignments.updateOne(ctx,
		bson.M{"_id": id, "submissions.student": studentID},
		bson.M{"$set": bson.M{
			"submissions.$.marksObtained": marks,
			"submissions.$.feedback":      feedback,
			"submissions.$.gradedBy":      gradedBy,
			"submissions.$.gradedAt":      at,
			"updatedAt":                   time.Now().UTC(),
		}},
	)
	return matched > 0, err
}

// Delete removes the assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	return r.assignments.deleteByID(ctx, id)
}
