package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/notify"
)

const upcomingEventsLimit = 10

type eventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	ListBySchool(ctx context.Context, schoolID string, filter models.EventFilter) ([]models.Event, error)
	ListForAudience(ctx context.Context, schoolID string, audiences []string) ([]models.Event, error)
	Upcoming(ctx context.Context, schoolID string, from time.Time, limit int64) ([]models.Event, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService manages the school calendar.
type EventService struct {
	repo      eventRepository
	publisher notify.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, publisher notify.Publisher, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &EventService{repo: repo, publisher: publisher, validator: validate, logger: logger, now: time.Now}
}

// Create schedules an event organised by the caller. The audience defaults to everyone.
func (s *EventService) Create(ctx context.Context, schoolID string, organizer models.Ref, req models.CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid event payload")
	}
	audience := dedupe(req.Audience)
	if len(audience) == 0 {
		audience = []string{models.AudienceAll}
	}
	classes := dedupe(req.Classes)
	now := s.now().UTC()
	e := &models.Event{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Type:             req.Type,
		StartDate:        req.StartDate.UTC(),
		EndDate:          req.EndDate.UTC(),
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Location:         req.Location,
		School:           schoolID,
		Audience:         audience,
		Classes:          classes,
		Organizer:        organizer,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern,
		Status:           models.EventScheduled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, storeError(err, "event", "create event")
	}
	if err := s.publisher.Publish(ctx, notify.SubjectEventCreated, e); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event_id", e.ID), zap.Error(err))
	}
	return e, nil
}

// List returns the events of a school.
func (s *EventService) List(ctx context.Context, schoolID string, filter models.EventFilter) ([]models.Event, error) {
	out, err := s.repo.ListBySchool(ctx, schoolID, filter)
	if err != nil {
		return nil, storeError(err, "event", "list events")
	}
	return out, nil
}

// Get returns the event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "event", "load event")
	}
	return e, nil
}

// MyEvents returns events aimed at the caller's role or at everyone.
func (s *EventService) MyEvents(ctx context.Context, schoolID string, role models.UserRole) ([]models.Event, error) {
	out, err := s.repo.ListForAudience(ctx, schoolID, []string{models.AudienceFor(role), models.AudienceAll})
	if err != nil {
		return nil, storeError(err, "event", "list events")
	}
	return out, nil
}

// Upcoming returns the next events starting today or later that are not cancelled.
func (s *EventService) Upcoming(ctx context.Context, schoolID string) ([]models.Event, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out, err := s.repo.Upcoming(ctx, schoolID, today, upcomingEventsLimit)
	if err != nil {
		return nil, storeError(err, "event", "list upcoming events")
	}
	return out, nil
}

// Update edits an event. The end date may not precede the start date.
func (s *EventService) Update(ctx context.Context, id string, req models.UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid event payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	start, end := current.StartDate, current.EndDate
	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.StartDate != nil {
		start = req.StartDate.UTC()
		fields["startDate"] = start
	}
	if req.EndDate != nil {
		end = req.EndDate.UTC()
		fields["endDate"] = end
	}
	if end.Before(start) {
		return nil, invalid("end date must not be before start date")
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Audience != nil {
		fields["targetAudience"] = dedupe(req.Audience)
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	e, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError(err, "event", "update event")
	}
	return e, nil
}

// Cancel marks an event as cancelled.
func (s *EventService) Cancel(ctx context.Context, id string) (*models.Event, error) {
	e, err := s.repo.Update(ctx, id, map[string]interface{}{"status": models.EventCancelled})
	if err != nil {
		return nil, storeError(err, "event", "cancel event")
	}
	return e, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, schoolID, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "event", "load event")
	}
	if err := ownedBy(existing.School, schoolID, "event"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "event", "delete event")
	}
	return nil
}
