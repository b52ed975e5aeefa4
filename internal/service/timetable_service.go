package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

type timetableRepository interface {
	Create(ctx context.Context, t *models.Timetable) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ActiveForClass(ctx context.Context, classID string) (*models.Timetable, error)
	ActiveWithTeacher(ctx context.Context, teacherID string) ([]models.Timetable, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Timetable, error)
	Save(ctx context.Context, t *models.Timetable) error
	Delete(ctx context.Context, id string) error
}

var weekdayOrder = map[string]int{
	"Monday": 1, "Tuesday": 2, "Wednesday": 3, "Thursday": 4, "Friday": 5, "Saturday": 6,
}

// TimetableService manages class timetables.
type TimetableService struct {
	repo      timetableRepository
	classes   classLookup
	subjects  subjectLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(repo timetableRepository, classes classLookup, subjects subjectLookup, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, classes: classes, subjects: subjects, validator: validate, logger: logger}
}

// Create stores a timetable. A class has one timetable per academic year and term.
func (s *TimetableService) Create(ctx context.Context, schoolID string, req models.TimetableRequest) (*models.Timetable, error) {
	if err := s.check(ctx, schoolID, req); err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	now := time.Now().UTC()
	t := &models.Timetable{
		ID:           uuid.NewString(),
		Class:        req.Class,
		School:       schoolID,
		Schedule:     normaliseSchedule(req.Schedule),
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, storeError(err, "timetable for this class, year and term", "create timetable")
	}
	return t, nil
}

// ForClass returns the active timetable of a class.
func (s *TimetableService) ForClass(ctx context.Context, classID string) (*models.Timetable, error) {
	t, err := s.repo.ActiveForClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "timetable", "load timetable")
	}
	return t, nil
}

// ForTeacher flattens every active period taught by the teacher, ordered by weekday and period.
func (s *TimetableService) ForTeacher(ctx context.Context, teacherID string) ([]models.TeacherPeriod, error) {
	timetables, err := s.repo.ActiveWithTeacher(ctx, teacherID)
	if err != nil {
		return nil, storeError(err, "timetable", "load timetables")
	}
	return teacherPeriods(timetables, teacherID), nil
}

// List returns the timetables of a school.
func (s *TimetableService) List(ctx context.Context, schoolID string) ([]models.Timetable, error) {
	out, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "timetable", "list timetables")
	}
	return out, nil
}

// Get returns the timetable.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "timetable", "load timetable")
	}
	return t, nil
}

// Update replaces the schedule and labels of a timetable.
func (s *TimetableService) Update(ctx context.Context, id string, req models.TimetableRequest) (*models.Timetable, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Class != t.Class {
		return nil, invalid("a timetable cannot move to another class")
	}
	if err := s.check(ctx, t.School, req); err != nil {
		return nil, err
	}
	t.Schedule = normaliseSchedule(req.Schedule)
	t.AcademicYear = req.AcademicYear
	t.Term = req.Term
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, storeError(err, "timetable for this class, year and term", "update timetable")
	}
	return t, nil
}

// Delete removes a timetable.
func (s *TimetableService) Delete(ctx context.Context, schoolID, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "timetable", "load timetable")
	}
	if err := ownedBy(existing.School, schoolID, "timetable"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "timetable", "delete timetable")
	}
	return nil
}

// check validates the payload, the class and that every scheduled subject is taught in it.
func (s *TimetableService) check(ctx context.Context, schoolID string, req models.TimetableRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid timetable payload")
	}
	if err := ensureClassInSchool(ctx, s.classes, req.Class, schoolID); err != nil {
		return err
	}
	if err := validateSchedule(req.Schedule); err != nil {
		return err
	}
	checked := make(map[string]bool)
	for _, day := range req.Schedule {
		for _, p := range day.Periods {
			if p.Subject == "" || checked[p.Subject] {
				continue
			}
			checked[p.Subject] = true
			subject, err := s.subjects.FindByID(ctx, p.Subject)
			if err != nil {
				return storeError(err, "subject", "load subject")
			}
			if subject.Class != req.Class {
				return invalid("subject " + subject.Name + " is not taught in this class")
			}
		}
	}
	return nil
}

// validateSchedule rejects repeated days, repeated period numbers within a day and periods
// that do not end after they start.
func validateSchedule(schedule []models.DaySchedule) error {
	days := make(map[string]bool, len(schedule))
	for _, day := range schedule {
		if days[day.Day] {
			return invalid(day.Day + " is scheduled twice")
		}
		days[day.Day] = true
		numbers := make(map[int]bool, len(day.Periods))
		for _, p := range day.Periods {
			if numbers[p.Number] {
				return invalid("period numbers must be unique within " + day.Day)
			}
			numbers[p.Number] = true
			start, err := time.Parse("15:04", p.StartTime)
			if err != nil {
				return invalid("period start time must be HH:MM")
			}
			end, err := time.Parse("15:04", p.EndTime)
			if err != nil {
				return invalid("period end time must be HH:MM")
			}
			if !end.After(start) {
				return invalid("period must end after it starts")
			}
		}
	}
	return nil
}

// normaliseSchedule orders days Monday first and periods by number; untyped periods are classes.
func normaliseSchedule(schedule []models.DaySchedule) []models.DaySchedule {
	out := make([]models.DaySchedule, len(schedule))
	for i, day := range schedule {
		periods := append([]models.Period(nil), day.Periods...)
		for j := range periods {
			if periods[j].Type == "" {
				periods[j].Type = "Class"
			}
		}
		sort.Slice(periods, func(a, b int) bool { return periods[a].Number < periods[b].Number })
		out[i] = models.DaySchedule{Day: day.Day, Periods: periods}
	}
	sort.SliceStable(out, func(a, b int) bool { return weekdayOrder[out[a].Day] < weekdayOrder[out[b].Day] })
	return out
}

func teacherPeriods(timetables []models.Timetable, teacherID string) []models.TeacherPeriod {
	out := make([]models.TeacherPeriod, 0)
	for _, t := range timetables {
		for _, day := range t.Schedule {
			for _, p := range day.Periods {
				if p.Teacher != teacherID {
					continue
				}
				out = append(out, models.TeacherPeriod{
					Day:       day.Day,
					Class:     t.Class,
					Number:    p.Number,
					StartTime: p.StartTime,
					EndTime:   p.EndTime,
					Subject:   p.Subject,
					Room:      p.Room,
					Type:      p.Type,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if weekdayOrder[out[i].Day] != weekdayOrder[out[j].Day] {
			return weekdayOrder[out[i].Day] < weekdayOrder[out[j].Day]
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}
