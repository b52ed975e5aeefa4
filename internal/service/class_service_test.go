package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

type memClasses struct {
	items map[string]*models.Class
}

func (m *memClasses) Create(ctx context.Context, class *models.Class) error {
	for _, c := range m.items {
		if c.School == class.School && c.Name == class.Name {
			return appErrors.ErrDuplicateRecord
		}
	}
	cp := *class
	m.items[class.ID] = &cp
	return nil
}

func (m *memClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *c
	return &cp, nil
}

func (m *memClasses) ListBySchool(ctx context.Context, schoolID string) ([]models.Class, error) {
	var out []models.Class
	for _, c := range m.items {
		if c.School == schoolID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type memSubjectList struct {
	items []models.Subject
}

func (m *memSubjectList) CreateMany(ctx context.Context, subjects []models.Subject) error {
	for _, in := range subjects {
		for _, s := range m.items {
			if s.School == in.School && s.Code == in.Code {
				return appErrors.ErrDuplicateRecord
			}
		}
	}
	m.items = append(m.items, subjects...)
	return nil
}

func (m *memSubjectList) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	for _, s := range m.items {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, appErrors.ErrNoRecord
}

func (m *memSubjectList) ListBySchool(ctx context.Context, schoolID string) ([]models.Subject, error) {
	return m.filter(func(s models.Subject) bool { return s.School == schoolID }), nil
}

func (m *memSubjectList) ListByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	return m.filter(func(s models.Subject) bool { return s.Class == classID }), nil
}

func (m *memSubjectList) ListFreeByClass(ctx context.Context, classID string) ([]models.Subject, error) {
	return m.filter(func(s models.Subject) bool { return s.Class == classID && s.Teacher == "" }), nil
}

func (m *memSubjectList) filter(keep func(models.Subject) bool) []models.Subject {
	var out []models.Subject
	for _, s := range m.items {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

type classRoster map[string][]models.Student

func (r classRoster) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return r[classID], nil
}

type recordingClassCascade struct {
	calls []string
}

func (c *recordingClassCascade) DeleteClass(ctx context.Context, id string) error {
	c.calls = append(c.calls, "class:"+id)
	return nil
}

func (c *recordingClassCascade) DeleteClassesBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	c.calls = append(c.calls, "classes-of:"+schoolID)
	return &models.BulkDeleteResult{}, nil
}

func (c *recordingClassCascade) DeleteSubject(ctx context.Context, id string) error {
	c.calls = append(c.calls, "subject:"+id)
	return nil
}

func (c *recordingClassCascade) DeleteSubjectsByClass(ctx context.Context, classID string) (*models.BulkDeleteResult, error) {
	c.calls = append(c.calls, "subjects-of-class:"+classID)
	return &models.BulkDeleteResult{}, nil
}

func (c *recordingClassCascade) DeleteSubjectsBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	c.calls = append(c.calls, "subjects-of-school:"+schoolID)
	return &models.BulkDeleteResult{}, nil
}

type classFixture struct {
	classes  *memClasses
	subjects *memSubjectList
	cascade  *recordingClassCascade
	class    *ClassService
	subject  *SubjectService
}

func newClassFixture() *classFixture {
	f := &classFixture{
		classes:  &memClasses{items: map[string]*models.Class{}},
		subjects: &memSubjectList{},
		cascade:  &recordingClassCascade{},
	}
	roster := classRoster{"c-fixed": {{ID: "st1", Class: "c-fixed"}}}
	f.class = NewClassService(f.classes, f.subjects, roster, f.cascade, nil, nil)
	f.subject = NewSubjectService(f.subjects, f.classes, f.cascade, nil, nil)
	return f
}

func TestClassServiceCreateIsUniquePerSchool(t *testing.T) {
	f := newClassFixture()
	ctx := context.Background()

	class, err := f.class.Create(ctx, "school-1", models.CreateClassRequest{Name: " 10-A "})
	require.NoError(t, err)
	assert.Equal(t, "10-A", class.Name)
	assert.Equal(t, "school-1", class.School)

	_, err = f.class.Create(ctx, "school-1", models.CreateClassRequest{Name: "10-A"})
	assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)

	_, err = f.class.Create(ctx, "school-2", models.CreateClassRequest{Name: "10-A"})
	require.NoError(t, err)

	_, err = f.class.Create(ctx, "school-1", models.CreateClassRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	list, err := f.class.List(ctx, "school-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestClassServiceChildListsRequireClass(t *testing.T) {
	f := newClassFixture()
	ctx := context.Background()
	f.classes.items["c-fixed"] = &models.Class{ID: "c-fixed", School: "school-1"}
	f.subjects.items = []models.Subject{
		{ID: "math", Class: "c-fixed", School: "school-1", Teacher: "t1"},
		{ID: "art", Class: "c-fixed", School: "school-1"},
	}

	students, err := f.class.Students(ctx, "c-fixed")
	require.NoError(t, err)
	assert.Len(t, students, 1)

	subjects, err := f.class.Subjects(ctx, "c-fixed")
	require.NoError(t, err)
	assert.Len(t, subjects, 2)

	free, err := f.class.FreeSubjects(ctx, "c-fixed")
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, "art", free[0].ID)

	_, err = f.class.Students(ctx, "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSubjectServiceCreate(t *testing.T) {
	f := newClassFixture()
	ctx := context.Background()
	f.classes.items["c1"] = &models.Class{ID: "c1", School: "school-1"}
	f.classes.items["c9"] = &models.Class{ID: "c9", School: "school-2"}

	subjects, err := f.subject.Create(ctx, "school-1", models.CreateSubjectsRequest{
		Class: "c1",
		Subjects: []models.SubjectInput{
			{Name: " Mathematics ", Code: "MTH", Sessions: 40},
			{Name: "Physics", Code: "PHY", Sessions: 30},
		},
	})
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Mathematics", subjects[0].Name)
	assert.Equal(t, "c1", subjects[1].Class)

	_, err = f.subject.Create(ctx, "school-1", models.CreateSubjectsRequest{
		Class:    "c1",
		Subjects: []models.SubjectInput{{Name: "Chem", Code: "CHM", Sessions: 1}, {Name: "Chem 2", Code: "CHM", Sessions: 1}},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.subject.Create(ctx, "school-1", models.CreateSubjectsRequest{
		Class:    "c1",
		Subjects: []models.SubjectInput{{Name: "Maths again", Code: "MTH", Sessions: 1}},
	})
	assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)

	_, err = f.subject.Create(ctx, "school-1", models.CreateSubjectsRequest{
		Class:    "c9",
		Subjects: []models.SubjectInput{{Name: "Bio", Code: "BIO", Sessions: 1}},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.subject.Create(ctx, "school-1", models.CreateSubjectsRequest{
		Class:    "ghost",
		Subjects: []models.SubjectInput{{Name: "Bio", Code: "BIO", Sessions: 1}},
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Len(t, f.subjects.items, 2)
}

func TestClassAndSubjectDeletesGoThroughCascade(t *testing.T) {
	f := newClassFixture()
	ctx := context.Background()
	f.classes.items["c1"] = &models.Class{ID: "c1", School: "school-1"}
	f.subjects.items = append(f.subjects.items, models.Subject{ID: "math", Class: "c1", School: "school-1"})

	require.NoError(t, f.class.Delete(ctx, "school-1", "c1"))
	_, err := f.class.DeleteBySchool(ctx, "school-1")
	require.NoError(t, err)
	require.NoError(t, f.subject.Delete(ctx, "school-1", "math"))
	_, err = f.subject.DeleteByClass(ctx, "school-1", "c1")
	require.NoError(t, err)
	_, err = f.subject.DeleteBySchool(ctx, "school-1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"class:c1", "classes-of:school-1", "subject:math", "subjects-of-class:c1", "subjects-of-school:school-1",
	}, f.cascade.calls)
}

func TestClassAndSubjectDeletesStayInCallerSchool(t *testing.T) {
	f := newClassFixture()
	ctx := context.Background()
	f.classes.items["c2"] = &models.Class{ID: "c2", School: "school-2"}
	f.subjects.items = append(f.subjects.items, models.Subject{ID: "art", Class: "c2", School: "school-2"})

	assert.ErrorIs(t, f.class.Delete(ctx, "school-1", "c2"), appErrors.ErrForbidden)
	assert.ErrorIs(t, f.class.Delete(ctx, "school-1", "ghost"), appErrors.ErrNotFound)
	assert.ErrorIs(t, f.subject.Delete(ctx, "school-1", "art"), appErrors.ErrForbidden)
	_, err := f.subject.DeleteByClass(ctx, "school-1", "c2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	assert.Empty(t, f.cascade.calls)
	assert.Contains(t, f.classes.items, "c2")
}
