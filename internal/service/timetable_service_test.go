package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

type mockTimetableRepo struct {
	items map[string]*models.Timetable
}

func (m *mockTimetableRepo) Create(ctx context.Context, t *models.Timetable) error {
	for _, existing := range m.items {
		if existing.Class == t.Class && existing.AcademicYear == t.AcademicYear && existing.Term == t.Term {
			return appErrors.ErrDuplicateRecord
		}
	}
	cp := *t
	m.items[t.ID] = &cp
	return nil
}

func (m *mockTimetableRepo) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *t
	return &cp, nil
}

func (m *mockTimetableRepo) ActiveForClass(ctx context.Context, classID string) (*models.Timetable, error) {
	for _, t := range m.items {
		if t.Class == classID && t.IsActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, appErrors.ErrNoRecord
}

func (m *mockTimetableRepo) ActiveWithTeacher(ctx context.Context, teacherID string) ([]models.Timetable, error) {
	var out []models.Timetable
	for _, t := range m.items {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTimetableRepo) ListBySchool(ctx context.Context, schoolID string) ([]models.Timetable, error) {
	return nil, nil
}

func (m *mockTimetableRepo) Save(ctx context.Context, t *models.Timetable) error {
	cp := *t
	m.items[t.ID] = &cp
	return nil
}

func (m *mockTimetableRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(m.items, id)
	return nil
}

func newTimetableFixture() (*TimetableService, *mockTimetableRepo) {
	repo := &mockTimetableRepo{items: map[string]*models.Timetable{}}
	return NewTimetableService(repo, assignmentLookups{}, assignmentSubjects{}, nil, nil), repo
}

func sampleTimetable() models.TimetableRequest {
	return models.TimetableRequest{
		Class:        "c1",
		AcademicYear: "2024",
		Term:         "First Term",
		Schedule: []models.DaySchedule{
			{Day: "Tuesday", Periods: []models.Period{
				{Number: 2, StartTime: "09:00", EndTime: "09:45", Subject: "math", Teacher: "t1"},
				{Number: 1, StartTime: "08:00", EndTime: "08:45", Type: "Assembly"},
			}},
			{Day: "Monday", Periods: []models.Period{
				{Number: 1, StartTime: "08:00", EndTime: "08:45", Subject: "math", Teacher: "t1"},
			}},
		},
	}
}

func TestTimetableServiceCreateNormalises(t *testing.T) {
	svc, _ := newTimetableFixture()
	tt, err := svc.Create(context.Background(), "school-1", sampleTimetable())
	require.NoError(t, err)
	assert.True(t, tt.IsActive)
	assert.Equal(t, "Monday", tt.Schedule[0].Day)
	assert.Equal(t, 1, tt.Schedule[1].Periods[0].Number)
	assert.Equal(t, "Class", tt.Schedule[1].Periods[1].Type)

	_, err = svc.Create(context.Background(), "school-1", sampleTimetable())
	assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)
}

func TestTimetableServiceDeleteStaysInCallerSchool(t *testing.T) {
	svc, repo := newTimetableFixture()
	tt, err := svc.Create(context.Background(), "school-1", sampleTimetable())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), "school-2", tt.ID), appErrors.ErrForbidden)
	assert.Contains(t, repo.items, tt.ID)
	require.NoError(t, svc.Delete(context.Background(), "school-1", tt.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), "school-1", tt.ID), appErrors.ErrNotFound)
}

func TestTimetableServiceRejectsBadSchedule(t *testing.T) {
	svc, _ := newTimetableFixture()

	req := sampleTimetable()
	req.Schedule[0].Periods[0].EndTime = "08:30"
	_, err := svc.Create(context.Background(), "school-1", req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = sampleTimetable()
	req.Schedule[1].Day = "Tuesday"
	_, err = svc.Create(context.Background(), "school-1", req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = sampleTimetable()
	req.Schedule[0].Periods[0].Subject = "ghost"
	_, err = svc.Create(context.Background(), "school-1", req)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(context.Background(), "school-2", sampleTimetable())
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTimetableServiceTeacherPeriods(t *testing.T) {
	svc, _ := newTimetableFixture()
	_, err := svc.Create(context.Background(), "school-1", sampleTimetable())
	require.NoError(t, err)

	periods, err := svc.ForTeacher(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "Monday", periods[0].Day)
	assert.Equal(t, "Tuesday", periods[1].Day)
	assert.Equal(t, "c1", periods[1].Class)

	active, err := svc.ForClass(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "2024", active.AcademicYear)

	_, err = svc.ForClass(context.Background(), "c9")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
