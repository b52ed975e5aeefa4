package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

// world is an in-memory entity store shared by the fake repositories below.
type world struct {
	mu       sync.Mutex
	classes  map[string]*models.Class
	subjects map[string]*models.Subject
	teachers map[string]*models.Teacher
	students map[string]*models.Student
	parents  map[string]*models.Parent
	fail     map[string]error
}

func newWorld() *world {
	return &world{
		classes:  map[string]*models.Class{},
		subjects: map[string]*models.Subject{},
		teachers: map[string]*models.Teacher{},
		students: map[string]*models.Student{},
		parents:  map[string]*models.Parent{},
		fail:     map[string]error{},
	}
}

func (w *world) failing(op string) error {
	return w.fail[op]
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeClasses struct{ w *world }

func (f fakeClasses) FindByID(_ context.Context, id string) (*models.Class, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	c, ok := f.w.classes[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *c
	return &cp, nil
}

func (f fakeClasses) Delete(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.classes[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(f.w.classes, id)
	return nil
}

func (f fakeClasses) IDsBySchool(_ context.Context, schoolID string) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var ids []string
	for id, c := range f.w.classes {
		if c.School == schoolID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeSubjects struct{ w *world }

func (f fakeSubjects) FindByID(_ context.Context, id string) (*models.Subject, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.subjects[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *s
	return &cp, nil
}

func (f fakeSubjects) FindByIDs(_ context.Context, ids []string) ([]models.Subject, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Subject
	for _, id := range ids {
		if s, ok := f.w.subjects[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f fakeSubjects) ListLinked(_ context.Context) ([]models.Subject, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Subject
	for _, s := range f.w.subjects {
		if s.Teacher != "" {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeSubjects) Delete(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.subjects[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(f.w.subjects, id)
	return nil
}

func (f fakeSubjects) DeleteByClass(_ context.Context, classID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.failing("subjects.DeleteByClass"); err != nil {
		return 0, err
	}
	var n int64
	for id, s := range f.w.subjects {
		if s.Class == classID {
			delete(f.w.subjects, id)
			n++
		}
	}
	return n, nil
}

func (f fakeSubjects) IDsByClass(_ context.Context, classID string) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var ids []string
	for id, s := range f.w.subjects {
		if s.Class == classID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f fakeSubjects) IDsBySchool(_ context.Context, schoolID string) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var ids []string
	for id, s := range f.w.subjects {
		if s.School == schoolID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f fakeSubjects) ClearTeacher(_ context.Context, teacherIDs []string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.failing("subjects.ClearTeacher"); err != nil {
		return 0, err
	}
	var n int64
	for _, s := range f.w.subjects {
		if s.Teacher != "" && contains(teacherIDs, s.Teacher) {
			s.Teacher = ""
			n++
		}
	}
	return n, nil
}

func (f fakeSubjects) SetTeacher(_ context.Context, subjectID, teacherID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.subjects[subjectID]
	if !ok {
		return 0, nil
	}
	s.Teacher = teacherID
	return 1, nil
}

func (f fakeSubjects) UnsetTeacher(_ context.Context, subjectID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.subjects[subjectID]
	if !ok || s.Teacher == "" {
		return 0, nil
	}
	s.Teacher = ""
	return 1, nil
}

type fakeTeachers struct{ w *world }

func (f fakeTeachers) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	t, ok := f.w.teachers[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *t
	return &cp, nil
}

func (f fakeTeachers) ListLinked(_ context.Context) ([]models.Teacher, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Teacher
	for _, t := range f.w.teachers {
		if t.TeachSubject != "" {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeTeachers) Delete(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.teachers[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(f.w.teachers, id)
	return nil
}

func (f fakeTeachers) DeleteByClass(_ context.Context, classID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for id, t := range f.w.teachers {
		if t.Class == classID {
			delete(f.w.teachers, id)
			n++
		}
	}
	return n, nil
}

func (f fakeTeachers) IDsByClass(_ context.Context, classID string) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var ids []string
	for id, t := range f.w.teachers {
		if t.Class == classID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f fakeTeachers) IDsBySchool(_ context.Context, schoolID string) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var ids []string
	for id, t := range f.w.teachers {
		if t.School == schoolID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f fakeTeachers) SetTeachSubject(_ context.Context, id, subjectID string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	t, ok := f.w.teachers[id]
	if !ok {
		return appErrors.ErrNoRecord
	}
	t.TeachSubject = subjectID
	return nil
}

func (f fakeTeachers) ClearSubjects(_ context.Context, subjectIDs []string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.failing("teachers.ClearSubjects"); err != nil {
		return 0, err
	}
	var n int64
	for _, t := range f.w.teachers {
		if t.TeachSubject != "" && contains(subjectIDs, t.TeachSubject) {
			t.TeachSubject = ""
			n++
		}
	}
	return n, nil
}

func (f fakeTeachers) ReleaseSubject(_ context.Context, subjectID, keepID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for id, t := range f.w.teachers {
		if id != keepID && t.TeachSubject == subjectID {
			t.TeachSubject = ""
			n++
		}
	}
	return n, nil
}

type fakeStudents struct{ w *world }

func (f fakeStudents) Delete(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.students[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(f.w.students, id)
	return nil
}

func (f fakeStudents) DeleteByClass(_ context.Context, classID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for id, s := range f.w.students {
		if s.Class == classID {
			delete(f.w.students, id)
			n++
		}
	}
	return n, nil
}

func (f fakeStudents) IDsByClass(_ context.Context, classID string) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var ids []string
	for id, s := range f.w.students {
		if s.Class == classID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f fakeStudents) IDsBySchool(_ context.Context, schoolID string) ([]string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var ids []string
	for id, s := range f.w.students {
		if s.School == schoolID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f fakeStudents) StripSubject(_ context.Context, subjectID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.failing("students.StripSubject"); err != nil {
		return 0, err
	}
	var n int64
	for _, s := range f.w.students {
		results := s.ExamResults[:0]
		for _, r := range s.ExamResults {
			if r.Subject != subjectID {
				results = append(results, r)
			}
		}
		records := s.Attendance[:0]
		for _, r := range s.Attendance {
			if r.Subject != subjectID {
				records = append(records, r)
			}
		}
		if len(results) != len(s.ExamResults) || len(records) != len(s.Attendance) {
			n++
		}
		s.ExamResults, s.Attendance = results, records
	}
	return n, nil
}

func (f fakeStudents) ClearParent(_ context.Context, parentID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for _, s := range f.w.students {
		if s.Parent == parentID {
			s.Parent = ""
			n++
		}
	}
	return n, nil
}

type fakeParents struct{ w *world }

func (f fakeParents) Delete(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.parents[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(f.w.parents, id)
	return nil
}

func (f fakeParents) PullChildren(_ context.Context, studentIDs []string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for _, p := range f.w.parents {
		kept := p.Children[:0]
		for _, c := range p.Children {
			if !contains(studentIDs, c) {
				kept = append(kept, c)
			}
		}
		if len(kept) != len(p.Children) {
			n++
		}
		p.Children = kept
	}
	return n, nil
}

func (f fakeParents) AddChild(_ context.Context, parentID, studentID string) (*models.Parent, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.failing("parents.AddChild"); err != nil {
		return nil, err
	}
	p, ok := f.w.parents[parentID]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	if !contains(p.Children, studentID) {
		p.Children = append(p.Children, studentID)
	}
	cp := *p
	return &cp, nil
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []*models.CascadeJournalEntry
}

func (f *fakeJournal) Create(_ context.Context, entry *models.CascadeJournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = fmt.Sprintf("journal-%d", len(f.entries)+1)
	cp := *entry
	cp.Steps = append(models.CascadeSteps{}, entry.Steps...)
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeJournal) Update(_ context.Context, entry *models.CascadeJournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.ID == entry.ID {
			cp := *entry
			cp.Steps = append(models.CascadeSteps{}, entry.Steps...)
			f.entries[i] = &cp
			return nil
		}
	}
	return appErrors.ErrNoRecord
}

func (f *fakeJournal) ListPartial(_ context.Context, limit int) ([]models.CascadeJournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CascadeJournalEntry
	for _, e := range f.entries {
		if e.Status == models.CascadePartial && len(out) < limit {
			cp := *e
			cp.Steps = append(models.CascadeSteps{}, e.Steps...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (f *fakeJournal) List(_ context.Context, filter models.CascadeJournalFilter) ([]models.CascadeJournalEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CascadeJournalEntry
	for _, e := range f.entries {
		if filter.Status == "" || e.Status == filter.Status {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

type fakeCascadeMetrics struct {
	mu   sync.Mutex
	runs []string
}

func (f *fakeCascadeMetrics) RecordCascade(operation, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, operation+":"+status)
}

type fakePublisher struct {
	mu     sync.Mutex
	events map[string][]interface{}
}

func (f *fakePublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = map[string][]interface{}{}
	}
	f.events[subject] = append(f.events[subject], payload)
	return nil
}

type cascadeFixture struct {
	world     *world
	journal   *fakeJournal
	metrics   *fakeCascadeMetrics
	publisher *fakePublisher
	svc       *CascadeService
}

func newCascadeFixture() *cascadeFixture {
	w := newWorld()
	f := &cascadeFixture{world: w, journal: &fakeJournal{}, metrics: &fakeCascadeMetrics{}, publisher: &fakePublisher{}}
	f.svc = NewCascadeService(CascadeRepositories{
		Classes:  fakeClasses{w},
		Subjects: fakeSubjects{w},
		Teachers: fakeTeachers{w},
		Students: fakeStudents{w},
		Parents:  fakeParents{w},
		Journal:  f.journal,
	}, f.publisher, f.metrics, zap.NewNop(), CascadeConfig{Concurrency: 2})
	return f
}

// seedSchool builds two classes of school-1. Class c1 holds subject s1 (taught by t1), a
// student with a parent, and teacher t1. Teacher t2 of class c2 also points at s1 and
// subject s2 of class c2 points back at t1.
func seedSchool(w *world) {
	w.classes["c1"] = &models.Class{ID: "c1", Name: "10A", School: "school-1"}
	w.classes["c2"] = &models.Class{ID: "c2", Name: "10B", School: "school-1"}
	w.subjects["s1"] = &models.Subject{ID: "s1", Name: "Math", Class: "c1", School: "school-1", Sessions: 2, Teacher: "t1"}
	w.subjects["s2"] = &models.Subject{ID: "s2", Name: "Physics", Class: "c2", School: "school-1", Sessions: 2, Teacher: "t1"}
	w.subjects["s3"] = &models.Subject{ID: "s3", Name: "Art", Class: "c2", School: "school-1", Sessions: 2}
	w.teachers["t1"] = &models.Teacher{ID: "t1", Class: "c1", School: "school-1", TeachSubject: "s1"}
	w.teachers["t2"] = &models.Teacher{ID: "t2", Class: "c2", School: "school-1", TeachSubject: "s1"}
	w.students["st1"] = &models.Student{ID: "st1", Class: "c1", School: "school-1", Parent: "p1",
		ExamResults: []models.ExamResult{{Subject: "s1", MarksObtained: 80, TotalMarks: 100}},
		Attendance:  []models.AttendanceRecord{{Subject: "s1", Status: models.AttendancePresent}},
	}
	w.students["st2"] = &models.Student{ID: "st2", Class: "c2", School: "school-1", Parent: "p1",
		ExamResults: []models.ExamResult{{Subject: "s1", MarksObtained: 50, TotalMarks: 100}, {Subject: "s3", MarksObtained: 70, TotalMarks: 100}},
		Attendance:  []models.AttendanceRecord{{Subject: "s1", Status: models.AttendanceAbsent}, {Subject: "s3", Status: models.AttendancePresent}},
	}
	w.parents["p1"] = &models.Parent{ID: "p1", School: "school-1", Children: []string{"st1", "st2"}}
}

func TestCascadeDeleteClassLeavesNoDependents(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)

	require.NoError(t, f.svc.DeleteClass(context.Background(), "c1"))

	w := f.world
	assert.NotContains(t, w.classes, "c1")
	for _, s := range w.subjects {
		assert.NotEqual(t, "c1", s.Class)
		assert.NotEqual(t, "t1", s.Teacher, "subject %s still points at deleted teacher", s.ID)
	}
	for _, tc := range w.teachers {
		assert.NotEqual(t, "c1", tc.Class)
		assert.NotEqual(t, "s1", tc.TeachSubject, "teacher %s still points at deleted subject", tc.ID)
	}
	for _, st := range w.students {
		assert.NotEqual(t, "c1", st.Class)
	}
	assert.Equal(t, []string{"st2"}, w.parents["p1"].Children)

	require.Len(t, f.journal.entries, 1)
	entry := f.journal.entries[0]
	assert.Equal(t, models.OpDeleteClass, entry.Operation)
	assert.Equal(t, models.CascadeCompleted, entry.Status)
	assert.Len(t, entry.Steps, 6)
	assert.Equal(t, []string{models.OpDeleteClass + ":" + models.CascadeCompleted}, f.metrics.runs)
}

func TestCascadeDeleteSubjectStripsReferences(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)

	require.NoError(t, f.svc.DeleteSubject(context.Background(), "s1"))

	w := f.world
	assert.NotContains(t, w.subjects, "s1")
	assert.Empty(t, w.teachers["t1"].TeachSubject)
	assert.Empty(t, w.teachers["t2"].TeachSubject)
	for _, st := range w.students {
		for _, r := range st.ExamResults {
			assert.NotEqual(t, "s1", r.Subject)
		}
		for _, r := range st.Attendance {
			assert.NotEqual(t, "s1", r.Subject)
		}
	}
	require.Len(t, w.students["st2"].ExamResults, 1)
	assert.Equal(t, "s3", w.students["st2"].ExamResults[0].Subject)
}

func TestCascadeDeleteTwiceIsNotFound(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteTeacher(ctx, "t1"))
	for i := 0; i < 2; i++ {
		err := f.svc.DeleteTeacher(ctx, "t1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	}
	assert.Len(t, f.journal.entries, 1)
}

func TestCascadeDeleteParentDetachesChildren(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)

	require.NoError(t, f.svc.DeleteParent(context.Background(), "p1"))
	assert.Empty(t, f.world.students["st1"].Parent)
	assert.Empty(t, f.world.students["st2"].Parent)
}

func TestCascadePartialFailureIsJournaled(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)
	f.world.fail["students.StripSubject"] = appErrors.ErrStoreDown

	err := f.svc.DeleteSubject(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPartialCascade))

	assert.NotContains(t, f.world.subjects, "s1", "root delete is the commit point")
	assert.Empty(t, f.world.teachers["t1"].TeachSubject, "later steps still run")

	require.Len(t, f.journal.entries, 1)
	entry := f.journal.entries[0]
	assert.Equal(t, models.CascadePartial, entry.Status)
	failed := entry.Steps.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, stepStudentsStripSubject, failed[0].Name)
	assert.Equal(t, []string{"s1"}, failed[0].Args)

	assert.Equal(t, []string{models.OpDeleteSubject + ":" + models.CascadePartial}, f.metrics.runs)
	require.Len(t, f.publisher.events["cascade.partial"], 1)
	event := f.publisher.events["cascade.partial"][0].(CascadePartialEvent)
	assert.Equal(t, entry.ID, event.JournalID)
}

func TestCascadeDeleteMissingClassCommitsNothing(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)

	err := f.svc.DeleteClass(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, f.journal.entries)
	assert.Len(t, f.world.subjects, 3)
}

func TestCascadeLinkStudentParentJournalsFailedLink(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)
	f.world.students["st3"] = &models.Student{ID: "st3", Class: "c1", School: "school-1", Parent: "p1"}
	f.world.fail["parents.AddChild"] = appErrors.ErrStoreDown

	err := f.svc.LinkStudentParent(context.Background(), "st3", "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPartialCascade))
	assert.NotContains(t, f.world.parents["p1"].Children, "st3")

	require.Len(t, f.journal.entries, 1)
	entry := f.journal.entries[0]
	assert.Equal(t, models.OpLinkParent, entry.Operation)
	assert.Equal(t, "st3", entry.RootID)
	failed := entry.Steps.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, stepParentsAddChild, failed[0].Name)
	assert.Equal(t, []string{"p1", "st3"}, failed[0].Args)

	delete(f.world.fail, "parents.AddChild")
	require.NoError(t, f.svc.LinkStudentParent(context.Background(), "st3", "p1"))
	require.NoError(t, f.svc.LinkStudentParent(context.Background(), "st3", "p1"))
	assert.Equal(t, []string{"st1", "st2", "st3"}, f.world.parents["p1"].Children)
}

func TestCascadeLinkTeacherSubjectKeepsBothSidesInSync(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)

	require.NoError(t, f.svc.LinkTeacherSubject(context.Background(), "t2", "s3"))

	w := f.world
	assert.Equal(t, "s3", w.teachers["t2"].TeachSubject)
	assert.Equal(t, "t2", w.subjects["s3"].Teacher)
	assert.Equal(t, "t1", w.subjects["s1"].Teacher)

	require.NoError(t, f.svc.LinkTeacherSubject(context.Background(), "t1", "s3"))
	assert.Equal(t, "s3", w.teachers["t1"].TeachSubject)
	assert.Empty(t, w.teachers["t2"].TeachSubject, "subject released from previous teacher")
	assert.Equal(t, "t1", w.subjects["s3"].Teacher)
	assert.Empty(t, w.subjects["s1"].Teacher, "old subjects of t1 cleared")
	assert.Empty(t, w.subjects["s2"].Teacher)
}

func TestCascadeLinkRejectsOtherSchool(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)
	f.world.subjects["x1"] = &models.Subject{ID: "x1", Class: "cx", School: "school-2"}

	err := f.svc.LinkTeacherSubject(context.Background(), "t1", "x1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "s1", f.world.teachers["t1"].TeachSubject)
}

func TestCascadeBulkDeleteStudentsBySchool(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)

	result, err := f.svc.DeleteStudentsBySchool(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 2, result.Deleted)
	assert.Empty(t, f.world.students)
	assert.Empty(t, f.world.parents["p1"].Children)
}

func TestCascadeBulkWithNoMatchesSucceeds(t *testing.T) {
	f := newCascadeFixture()

	result, err := f.svc.DeleteClassesBySchool(context.Background(), "empty-school")
	require.NoError(t, err)
	assert.Equal(t, &models.BulkDeleteResult{}, result)
}

func TestCascadeBulkReportsPartialDeletes(t *testing.T) {
	f := newCascadeFixture()
	seedSchool(f.world)
	f.world.fail["students.StripSubject"] = appErrors.ErrStoreDown

	result, err := f.svc.DeleteSubjectsByClass(context.Background(), "c2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPartialCascade))
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 2, result.Partial)
	assert.Len(t, f.journal.entries, 2)
}
