package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

type mockTeacherRepo struct {
	items      map[string]*models.Teacher
	attendance int
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{items: map[string]*models.Teacher{}}
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	for _, t := range m.items {
		if t.Email == teacher.Email {
			return appErrors.ErrDuplicateRecord
		}
	}
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *t
	cp.Attendance = append([]models.TeacherAttendance(nil), t.Attendance...)
	return &cp, nil
}

func (m *mockTeacherRepo) ListBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	var out []models.Teacher
	for _, t := range m.items {
		if t.School == schoolID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Teacher, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	if v, ok := fields["name"].(string); ok {
		t.Name = v
	}
	if v, ok := fields["phone"].(string); ok {
		t.Phone = v
	}
	if v, ok := fields["experience"].(int); ok {
		t.Experience = v
	}
	return m.FindByID(ctx, id)
}

func (m *mockTeacherRepo) SetAttendance(ctx context.Context, id string, attendance []models.TeacherAttendance) error {
	t, ok := m.items[id]
	if !ok {
		return appErrors.ErrNoRecord
	}
	m.attendance++
	t.Attendance = append([]models.TeacherAttendance(nil), attendance...)
	return nil
}

type teacherSubjects map[string]string

func (s teacherSubjects) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	school, ok := s[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	return &models.Subject{ID: id, School: school}, nil
}

type recordingTeacherCascade struct {
	repo    *mockTeacherRepo
	links   map[string]string
	deleted []string
	linkErr error
}

func (c *recordingTeacherCascade) LinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	if c.linkErr != nil {
		return c.linkErr
	}
	if c.links == nil {
		c.links = map[string]string{}
	}
	c.links[teacherID] = subjectID
	if t, ok := c.repo.items[teacherID]; ok {
		t.TeachSubject = subjectID
	}
	return nil
}

func (c *recordingTeacherCascade) DeleteTeacher(ctx context.Context, teacherID string) error {
	c.deleted = append(c.deleted, teacherID)
	return nil
}

func (c *recordingTeacherCascade) DeleteTeachersByClass(ctx context.Context, classID string) (*models.BulkDeleteResult, error) {
	return &models.BulkDeleteResult{}, nil
}

func (c *recordingTeacherCascade) DeleteTeachersBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	return &models.BulkDeleteResult{}, nil
}

func newTeacherFixture() (*TeacherService, *mockTeacherRepo, *recordingTeacherCascade) {
	repo := newMockTeacherRepo()
	cascade := &recordingTeacherCascade{repo: repo}
	subjects := teacherSubjects{"math": "school-1", "chem": "school-2"}
	return NewTeacherService(repo, assignmentLookups{}, subjects, cascade, nil, nil), repo, cascade
}

func validTeacherRequest() models.RegisterTeacherRequest {
	return models.RegisterTeacherRequest{
		Name:     " Ana Putri ",
		Email:    "Ana@School.test",
		Password: "secret123",
		Class:    "c1",
		Subject:  "math",
	}
}

func TestTeacherServiceRegisterLinksSubject(t *testing.T) {
	svc, repo, cascade := newTeacherFixture()

	teacher, err := svc.Register(context.Background(), "school-1", validTeacherRequest())
	require.NoError(t, err)
	assert.Equal(t, "Ana Putri", teacher.Name)
	assert.Equal(t, "ana@school.test", teacher.Email)
	assert.Equal(t, "math", teacher.TeachSubject)
	assert.True(t, teacher.IsActive)
	assert.Equal(t, "light", teacher.Preferences.Theme)
	assert.Equal(t, "math", cascade.links[teacher.ID])
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.items[teacher.ID].PasswordHash), []byte("secret123")))

	_, err = svc.Register(context.Background(), "school-1", validTeacherRequest())
	assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)
}

func TestTeacherServiceRegisterWithoutSubject(t *testing.T) {
	svc, _, cascade := newTeacherFixture()
	req := validTeacherRequest()
	req.Subject = ""

	teacher, err := svc.Register(context.Background(), "school-1", req)
	require.NoError(t, err)
	assert.Empty(t, teacher.TeachSubject)
	assert.Empty(t, cascade.links)
}

func TestTeacherServiceRegisterRejectsForeignReferences(t *testing.T) {
	svc, repo, _ := newTeacherFixture()

	req := validTeacherRequest()
	req.Class = "c2"
	_, err := svc.Register(context.Background(), "school-1", req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = validTeacherRequest()
	req.Subject = "chem"
	_, err = svc.Register(context.Background(), "school-1", req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = validTeacherRequest()
	req.Subject = "ghost"
	_, err = svc.Register(context.Background(), "school-1", req)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	req = validTeacherRequest()
	req.Password = "123"
	_, err = svc.Register(context.Background(), "school-1", req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Empty(t, repo.items)
}

func TestTeacherServiceRegisterSurfacesPartialLink(t *testing.T) {
	svc, _, cascade := newTeacherFixture()
	cascade.linkErr = appErrors.Clone(appErrors.ErrPartialCascade, "subject link incomplete")

	_, err := svc.Register(context.Background(), "school-1", validTeacherRequest())
	assert.ErrorIs(t, err, appErrors.ErrPartialCascade)
}

func TestTeacherServiceMarkAttendanceUpsertsByDay(t *testing.T) {
	svc, repo, _ := newTeacherFixture()
	teacher, err := svc.Register(context.Background(), "school-1", validTeacherRequest())
	require.NoError(t, err)

	morning := time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC)
	_, err = svc.MarkAttendance(context.Background(), teacher.ID, models.TeacherAttendanceRequest{Date: morning, Status: models.TeacherPresent})
	require.NoError(t, err)

	updated, err := svc.MarkAttendance(context.Background(), teacher.ID, models.TeacherAttendanceRequest{Date: morning.Add(6 * time.Hour), Status: models.TeacherHalfDay})
	require.NoError(t, err)
	require.Len(t, updated.Attendance, 1)
	assert.Equal(t, models.TeacherHalfDay, updated.Attendance[0].Status)

	updated, err = svc.MarkAttendance(context.Background(), teacher.ID, models.TeacherAttendanceRequest{Date: morning.AddDate(0, 0, 1), Status: models.TeacherLeave})
	require.NoError(t, err)
	assert.Len(t, updated.Attendance, 2)
	assert.Equal(t, 3, repo.attendance)

	_, err = svc.MarkAttendance(context.Background(), teacher.ID, models.TeacherAttendanceRequest{Date: morning, Status: "Sick"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.MarkAttendance(context.Background(), "missing", models.TeacherAttendanceRequest{Date: morning, Status: models.TeacherPresent})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTeacherServiceChangeSubjectAndDelete(t *testing.T) {
	svc, _, cascade := newTeacherFixture()
	teacher, err := svc.Register(context.Background(), "school-1", validTeacherRequest())
	require.NoError(t, err)

	updated, err := svc.ChangeSubject(context.Background(), teacher.ID, models.ChangeTeacherSubjectRequest{Subject: "physics"})
	require.NoError(t, err)
	assert.Equal(t, "physics", updated.TeachSubject)

	_, err = svc.ChangeSubject(context.Background(), teacher.ID, models.ChangeTeacherSubjectRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	name := "Ana P."
	updated, err = svc.Update(context.Background(), teacher.ID, models.UpdateTeacherRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana P.", updated.Name)

	assert.ErrorIs(t, svc.Delete(context.Background(), "school-2", teacher.ID), appErrors.ErrForbidden)
	_, err = svc.DeleteByClass(context.Background(), "school-1", "c2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, cascade.deleted)
	require.NoError(t, svc.Delete(context.Background(), "school-1", teacher.ID))
	assert.Equal(t, []string{teacher.ID}, cascade.deleted)
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)
	assert.True(t, sameDay(a, a.Add(-20*time.Hour)))
	assert.False(t, sameDay(a, a.Add(2*time.Hour)))
}
