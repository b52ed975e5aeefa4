package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// EventRepository manages persistence for the school calendar.
type EventRepository struct {
	events *collection[models.Event]
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(s *Store) *EventRepository {
	return &EventRepository{events: newCollection[models.Event](s, collEvents)}
}

var byStartDate = options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}})

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	return r.events.insert(ctx, e)
}

// FindByID returns the event.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	return r.events.findByID(ctx, id)
}

// ListBySchool returns events of a school narrowed by filter.
func (r *EventRepository) ListBySchool(ctx context.Context, schoolID string, filter models.EventFilter) ([]models.Event, error) {
	query := bson.M{"school": schoolID}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return r.events.find(ctx, query, byStartDate)
}

// ListForAudience returns events whose audience intersects audiences.
func (r *EventRepository) ListForAudience(ctx context.Context, schoolID string, audiences []string) ([]models.Event, error) {
	return r.events.find(ctx, bson.M{"school": schoolID, "targetAudience": bson.M{"$in": audiences}}, byStartDate)
}

// Upcoming returns at most limit events starting on or after from that are not cancelled.
func (r *EventRepository) Upcoming(ctx context.Context, schoolID string, from time.Time, limit int64) ([]models.Event, error) {
	return r.events.find(ctx, bson.M{
		"school":    schoolID,
		"startDate": bson.M{"$gte": from},
		"status":    bson.M{"$ne": models.EventCancelled},
	}, options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}}).SetLimit(limit))
}

// Update sets the given fields and returns the updated event.
func (r *EventRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Event, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	return r.events.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// Delete removes the event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return r.events.deleteByID(ctx, id)
}
