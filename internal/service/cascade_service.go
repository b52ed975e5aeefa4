package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
	"github.com/noah-isme/school-mgmt-api/pkg/notify"
)

// Dependent update steps. Each one is an idempotent filter update so it can be replayed.
const (
	stepStudentsDeleteByClass = "students.delete_by_class"
	stepSubjectsDeleteByClass = "subjects.delete_by_class"
	stepTeachersDeleteByClass = "teachers.delete_by_class"
	stepTeachersClearSubject  = "teachers.clear_subject"
	stepStudentsStripSubject  = "students.strip_subject"
	stepSubjectsClearTeacher  = "subjects.clear_teacher"
	stepStudentsClearParent   = "students.clear_parent"
	stepParentsPullChildren   = "parents.pull_children"
	stepParentsAddChild       = "parents.add_child"
	stepTeachersReleaseSubj   = "teachers.release_subject"
	stepSubjectsSetTeacher    = "subjects.set_teacher"
)

type cascadeClassRepository interface {
	Delete(ctx context.Context, id string) error
	IDsBySchool(ctx context.Context, schoolID string) ([]string, error)
}

type cascadeSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Delete(ctx context.Context, id string) error
	DeleteByClass(ctx context.Context, classID string) (int64, error)
	IDsByClass(ctx context.Context, classID string) ([]string, error)
	IDsBySchool(ctx context.Context, schoolID string) ([]string, error)
	ClearTeacher(ctx context.Context, teacherIDs []string) (int64, error)
	SetTeacher(ctx context.Context, subjectID, teacherID string) (int64, error)
}

type cascadeTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Delete(ctx context.Context, id string) error
	DeleteByClass(ctx context.Context, classID string) (int64, error)
	IDsByClass(ctx context.Context, classID string) ([]string, error)
	IDsBySchool(ctx context.Context, schoolID string) ([]string, error)
	SetTeachSubject(ctx context.Context, id, subjectID string) error
	ClearSubjects(ctx context.Context, subjectIDs []string) (int64, error)
	ReleaseSubject(ctx context.Context, subjectID, keepID string) (int64, error)
}

type cascadeStudentRepository interface {
	Delete(ctx context.Context, id string) error
	DeleteByClass(ctx context.Context, classID string) (int64, error)
	IDsByClass(ctx context.Context, classID string) ([]string, error)
	IDsBySchool(ctx context.Context, schoolID string) ([]string, error)
	StripSubject(ctx context.Context, subjectID string) (int64, error)
	ClearParent(ctx context.Context, parentID string) (int64, error)
}

type cascadeParentRepository interface {
	Delete(ctx context.Context, id string) error
	PullChildren(ctx context.Context, studentIDs []string) (int64, error)
	AddChild(ctx context.Context, parentID, studentID string) (*models.Parent, error)
}

type cascadeJournalRepository interface {
	Create(ctx context.Context, entry *models.CascadeJournalEntry) error
	Update(ctx context.Context, entry *models.CascadeJournalEntry) error
	ListPartial(ctx context.Context, limit int) ([]models.CascadeJournalEntry, error)
	List(ctx context.Context, filter models.CascadeJournalFilter) ([]models.CascadeJournalEntry, int, error)
}

type cascadeMetrics interface {
	RecordCascade(operation, status string)
}

// CascadeRepositories groups the stores a cascade touches.
type CascadeRepositories struct {
	Classes  cascadeClassRepository
	Subjects cascadeSubjectRepository
	Teachers cascadeTeacherRepository
	Students cascadeStudentRepository
	Parents  cascadeParentRepository
	Journal  cascadeJournalRepository
}

// CascadeConfig tunes bulk deletes.
type CascadeConfig struct {
	Concurrency int64
}

type stepFunc func(ctx context.Context, args []string) (int64, error)

func stepArity(name string) int {
	switch name {
	case stepTeachersReleaseSubj, stepSubjectsSetTeacher, stepParentsAddChild:
		return 2
	}
	return 1
}

type plannedStep struct {
	name string
	args []string
}

// CascadePartialEvent is published when a cascade leaves dependents behind.
type CascadePartialEvent struct {
	JournalID   string   `json:"journalId"`
	Operation   string   `json:"operation"`
	RootID      string   `json:"rootId"`
	FailedSteps []string `json:"failedSteps"`
}

// CascadeService keeps cross-entity references consistent when entities are deleted or relinked.
// The root write is the commit point; dependent steps always run to the end and their outcome
// is journaled so failed ones can be replayed.
type CascadeService struct {
	repos     CascadeRepositories
	steps     map[string]stepFunc
	publisher notify.Publisher
	metrics   cascadeMetrics
	logger    *zap.Logger
	cfg       CascadeConfig
}

// NewCascadeService constructs a CascadeService.
func NewCascadeService(repos CascadeRepositories, publisher notify.Publisher, metrics cascadeMetrics, logger *zap.Logger, cfg CascadeConfig) *CascadeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	s := &CascadeService{repos: repos, publisher: publisher, metrics: metrics, logger: logger, cfg: cfg}
	s.steps = map[string]stepFunc{
		stepStudentsDeleteByClass: func(ctx context.Context, a []string) (int64, error) {
			return repos.Students.DeleteByClass(ctx, a[0])
		},
		stepSubjectsDeleteByClass: func(ctx context.Context, a []string) (int64, error) {
			return repos.Subjects.DeleteByClass(ctx, a[0])
		},
		stepTeachersDeleteByClass: func(ctx context.Context, a []string) (int64, error) {
			return repos.Teachers.DeleteByClass(ctx, a[0])
		},
		stepTeachersClearSubject: func(ctx context.Context, a []string) (int64, error) {
			return repos.Teachers.ClearSubjects(ctx, a)
		},
		stepStudentsStripSubject: func(ctx context.Context, a []string) (int64, error) {
			return repos.Students.StripSubject(ctx, a[0])
		},
		stepSubjectsClearTeacher: func(ctx context.Context, a []string) (int64, error) {
			return repos.Subjects.ClearTeacher(ctx, a)
		},
		stepStudentsClearParent: func(ctx context.Context, a []string) (int64, error) {
			return repos.Students.ClearParent(ctx, a[0])
		},
		stepParentsPullChildren: func(ctx context.Context, a []string) (int64, error) {
			return repos.Parents.PullChildren(ctx, a)
		},
		stepParentsAddChild: func(ctx context.Context, a []string) (int64, error) {
			if _, err := repos.Parents.AddChild(ctx, a[0], a[1]); err != nil {
				return 0, err
			}
			return 1, nil
		},
		stepTeachersReleaseSubj: func(ctx context.Context, a []string) (int64, error) {
			return repos.Teachers.ReleaseSubject(ctx, a[0], a[1])
		},
		stepSubjectsSetTeacher: func(ctx context.Context, a []string) (int64, error) {
			return repos.Subjects.SetTeacher(ctx, a[0], a[1])
		},
	}
	return s
}

// DeleteClass deletes a class together with its students, subjects and teachers.
func (s *CascadeService) DeleteClass(ctx context.Context, classID string) error {
	subjectIDs, err := s.repos.Subjects.IDsByClass(ctx, classID)
	if err != nil {
		return storeError(err, "class", "load class subjects")
	}
	studentIDs, err := s.repos.Students.IDsByClass(ctx, classID)
	if err != nil {
		return storeError(err, "class", "load class students")
	}
	teacherIDs, err := s.repos.Teachers.IDsByClass(ctx, classID)
	if err != nil {
		return storeError(err, "class", "load class teachers")
	}

	if err := s.repos.Classes.Delete(ctx, classID); err != nil {
		return storeError(err, "class", "delete class")
	}

	plan := []plannedStep{{name: stepStudentsDeleteByClass, args: []string{classID}}}
	if len(studentIDs) > 0 {
		plan = append(plan, plannedStep{name: stepParentsPullChildren, args: studentIDs})
	}
	plan = append(plan, plannedStep{name: stepSubjectsDeleteByClass, args: []string{classID}})
	if len(subjectIDs) > 0 {
		plan = append(plan, plannedStep{name: stepTeachersClearSubject, args: subjectIDs})
	}
	plan = append(plan, plannedStep{name: stepTeachersDeleteByClass, args: []string{classID}})
	if len(teacherIDs) > 0 {
		plan = append(plan, plannedStep{name: stepSubjectsClearTeacher, args: teacherIDs})
	}
	return s.apply(ctx, models.OpDeleteClass, classID, plan)
}

// DeleteSubject deletes a subject and strips every reference to it.
func (s *CascadeService) DeleteSubject(ctx context.Context, subjectID string) error {
	if err := s.repos.Subjects.Delete(ctx, subjectID); err != nil {
		return storeError(err, "subject", "delete subject")
	}
	return s.apply(ctx, models.OpDeleteSubject, subjectID, []plannedStep{
		{name: stepTeachersClearSubject, args: []string{subjectID}},
		{name: stepStudentsStripSubject, args: []string{subjectID}},
	})
}

// DeleteTeacher deletes a teacher and unlinks the subjects it taught.
func (s *CascadeService) DeleteTeacher(ctx context.Context, teacherID string) error {
	if err := s.repos.Teachers.Delete(ctx, teacherID); err != nil {
		return storeError(err, "teacher", "delete teacher")
	}
	return s.apply(ctx, models.OpDeleteTeacher, teacherID, []plannedStep{
		{name: stepSubjectsClearTeacher, args: []string{teacherID}},
	})
}

// DeleteParent deletes a parent and detaches its children.
func (s *CascadeService) DeleteParent(ctx context.Context, parentID string) error {
	if err := s.repos.Parents.Delete(ctx, parentID); err != nil {
		return storeError(err, "parent", "delete parent")
	}
	return s.apply(ctx, models.OpDeleteParent, parentID, []plannedStep{
		{name: stepStudentsClearParent, args: []string{parentID}},
	})
}

// DeleteStudent deletes a student and removes it from its parents.
func (s *CascadeService) DeleteStudent(ctx context.Context, studentID string) error {
	if err := s.repos.Students.Delete(ctx, studentID); err != nil {
		return storeError(err, "student", "delete student")
	}
	return s.apply(ctx, models.OpDeleteStudent, studentID, []plannedStep{
		{name: stepParentsPullChildren, args: []string{studentID}},
	})
}

// LinkTeacherSubject makes subjectID the subject taught by teacherID on both sides. The
// subject is released from any other teacher and subjects that pointed at the teacher are cleared.
func (s *CascadeService) LinkTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	teacher, err := s.repos.Teachers.FindByID(ctx, teacherID)
	if err != nil {
		return storeError(err, "teacher", "load teacher")
	}
	subject, err := s.repos.Subjects.FindByID(ctx, subjectID)
	if err != nil {
		return storeError(err, "subject", "load subject")
	}
	if subject.School != teacher.School {
		return appErrors.Clone(appErrors.ErrValidation, "subject belongs to another school")
	}

	if err := s.repos.Teachers.SetTeachSubject(ctx, teacherID, subjectID); err != nil {
		return storeError(err, "teacher", "link teacher subject")
	}
	return s.apply(ctx, models.OpLinkSubject, teacherID, []plannedStep{
		{name: stepSubjectsClearTeacher, args: []string{teacherID}},
		{name: stepTeachersReleaseSubj, args: []string{subjectID, teacherID}},
		{name: stepSubjectsSetTeacher, args: []string{subjectID, teacherID}},
	})
}

// LinkStudentParent adds a freshly stored student to its parent's children. The student
// document already names the parent, so a failed step is journaled for replay.
func (s *CascadeService) LinkStudentParent(ctx context.Context, studentID, parentID string) error {
	return s.apply(ctx, models.OpLinkParent, studentID, []plannedStep{
		{name: stepParentsAddChild, args: []string{parentID, studentID}},
	})
}

// DeleteClassesBySchool applies the class cascade to every class of a school.
func (s *CascadeService) DeleteClassesBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	ids, err := s.repos.Classes.IDsBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "class", "list classes")
	}
	return s.bulk(ctx, ids, s.DeleteClass)
}

// DeleteSubjectsByClass applies the subject cascade to every subject of a class.
func (s *CascadeService) DeleteSubjectsByClass(ctx context.Context, classID string) (*models.BulkDeleteResult, error) {
	ids, err := s.repos.Subjects.IDsByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "subject", "list subjects")
	}
	return s.bulk(ctx, ids, s.DeleteSubject)
}

// DeleteSubjectsBySchool applies the subject cascade to every subject of a school.
func (s *CascadeService) DeleteSubjectsBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	ids, err := s.repos.Subjects.IDsBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "subject", "list subjects")
	}
	return s.bulk(ctx, ids, s.DeleteSubject)
}

// DeleteTeachersByClass applies the teacher cascade to every teacher of a class.
func (s *CascadeService) DeleteTeachersByClass(ctx context.Context, classID string) (*models.BulkDeleteResult, error) {
	ids, err := s.repos.Teachers.IDsByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "teacher", "list teachers")
	}
	return s.bulk(ctx, ids, s.DeleteTeacher)
}

// DeleteTeachersBySchool applies the teacher cascade to every teacher of a school.
func (s *CascadeService) DeleteTeachersBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	ids, err := s.repos.Teachers.IDsBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "teacher", "list teachers")
	}
	return s.bulk(ctx, ids, s.DeleteTeacher)
}

// DeleteStudentsByClass applies the student cascade to every student of a class.
func (s *CascadeService) DeleteStudentsByClass(ctx context.Context, classID string) (*models.BulkDeleteResult, error) {
	ids, err := s.repos.Students.IDsByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "student", "list students")
	}
	return s.bulk(ctx, ids, s.DeleteStudent)
}

// DeleteStudentsBySchool applies the student cascade to every student of a school.
func (s *CascadeService) DeleteStudentsBySchool(ctx context.Context, schoolID string) (*models.BulkDeleteResult, error) {
	ids, err := s.repos.Students.IDsBySchool(ctx, schoolID)
	if err != nil {
		return nil, storeError(err, "student", "list students")
	}
	return s.bulk(ctx, ids, s.DeleteStudent)
}

// Journal lists recorded cascades.
func (s *CascadeService) Journal(ctx context.Context, filter models.CascadeJournalFilter) ([]models.CascadeJournalEntry, *models.Pagination, error) {
	if s.repos.Journal == nil {
		return []models.CascadeJournalEntry{}, &models.Pagination{Page: 1, PageSize: 20}, nil
	}
	entries, total, err := s.repos.Journal.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cascades")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// bulk runs del for every ID with bounded concurrency. IDs that vanished in the meantime
// count as matched but not deleted.
func (s *CascadeService) bulk(ctx context.Context, ids []string, del func(context.Context, string) error) (*models.BulkDeleteResult, error) {
	result := &models.BulkDeleteResult{Matched: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}
	ctx = context.WithoutCancel(ctx)
	sem := semaphore.NewWeighted(s.cfg.Concurrency)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule delete")
		}
		wg.Add(1)
		go func(id string) {
			defer sem.Release(1)
			defer wg.Done()
			err := del(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Deleted++
			case errors.Is(err, appErrors.ErrPartialCascade):
				result.Deleted++
				result.Partial++
			case isNotFound(err):
			default:
				if firstErr == nil {
					firstErr = err
				}
			}
		}(id)
	}
	wg.Wait()

	if firstErr != nil {
		return result, firstErr
	}
	if result.Partial > 0 {
		return result, appErrors.Clone(appErrors.ErrPartialCascade, fmt.Sprintf("%d of %d deletes left dependents behind", result.Partial, result.Deleted))
	}
	return result, nil
}

// apply runs every planned step after the root write and journals the outcome. Steps are
// detached from request cancellation so a client disconnect cannot stop a cascade halfway.
func (s *CascadeService) apply(ctx context.Context, operation, rootID string, plan []plannedStep) error {
	ctx = context.WithoutCancel(ctx)
	entry := &models.CascadeJournalEntry{
		Operation: operation,
		RootID:    rootID,
		Status:    models.CascadeCompleted,
		Steps:     make(models.CascadeSteps, 0, len(plan)),
	}

	var failed []string
	for _, p := range plan {
		step := s.runStep(ctx, p.name, p.args)
		if step.Status == models.StepFailed {
			failed = append(failed, step.Name)
			s.logger.Warn("cascade step failed",
				zap.String("operation", operation),
				zap.String("root_id", rootID),
				zap.String("step", step.Name),
				zap.String("error", step.Error),
			)
		}
		entry.Steps = append(entry.Steps, step)
	}
	if len(failed) > 0 {
		entry.Status = models.CascadePartial
		entry.Error = "failed steps: " + strings.Join(failed, ", ")
	}

	if s.repos.Journal != nil {
		if err := s.repos.Journal.Create(ctx, entry); err != nil {
			s.logger.Error("failed to journal cascade", zap.String("operation", operation), zap.String("root_id", rootID), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordCascade(operation, entry.Status)
	}

	if len(failed) == 0 {
		s.logger.Debug("cascade applied", zap.String("operation", operation), zap.String("root_id", rootID), zap.Int("steps", len(entry.Steps)))
		return nil
	}

	s.logger.Error("cascade partially applied",
		zap.String("operation", operation),
		zap.String("root_id", rootID),
		zap.String("journal_id", entry.ID),
		zap.Strings("failed_steps", failed),
	)
	event := CascadePartialEvent{JournalID: entry.ID, Operation: operation, RootID: rootID, FailedSteps: failed}
	if err := s.publisher.Publish(ctx, notify.SubjectCascadePartial, event); err != nil {
		s.logger.Warn("failed to publish partial cascade", zap.String("journal_id", entry.ID), zap.Error(err))
	}
	return appErrors.Wrap(errors.New(entry.Error), appErrors.ErrPartialCascade.Code, appErrors.ErrPartialCascade.Status, appErrors.ErrPartialCascade.Message)
}

func (s *CascadeService) runStep(ctx context.Context, name string, args []string) models.CascadeStep {
	step := models.CascadeStep{Name: name, Args: args, Status: models.StepOK}
	fn, ok := s.steps[name]
	if !ok {
		step.Status = models.StepFailed
		step.Error = "unknown step"
		return step
	}
	if len(args) < stepArity(name) {
		step.Status = models.StepFailed
		step.Error = "missing arguments"
		return step
	}
	affected, err := fn(ctx, args)
	if err != nil {
		step.Status = models.StepFailed
		step.Error = err.Error()
		return step
	}
	step.Affected = affected
	return step
}
