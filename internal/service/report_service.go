package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/export"
)

const (
	defaultTerm       = "Not Specified"
	reportCachePrefix = "report"
)

type reportStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type reportSubjectRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
}

type schoolLookup interface {
	FindByID(ctx context.Context, id string) (*models.Admin, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, patterns ...string) error
}

// ReportDeps groups the collaborators of ReportService.
type ReportDeps struct {
	Students reportStudentRepository
	Subjects reportSubjectRepository
	Classes  classLookup
	Schools  schoolLookup
	Cache    reportCache
	Exporter datasetExporter
}

// ReportService computes report cards from the exam results and attendance embedded in
// students. Results are cached until an exam or attendance change invalidates them.
type ReportService struct {
	students reportStudentRepository
	subjects reportSubjectRepository
	classes  classLookup
	schools  schoolLookup
	cache    reportCache
	exporter datasetExporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs a ReportService. Cache may be nil.
func NewReportService(deps ReportDeps, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		students: deps.Students,
		subjects: deps.Subjects,
		classes:  deps.Classes,
		schools:  deps.Schools,
		cache:    deps.Cache,
		exporter: deps.Exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// StudentReport builds the report card of one student.
func (s *ReportService) StudentReport(ctx context.Context, studentID string, query models.ReportQuery) (*models.ReportCard, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, storeError(err, "student", "load student")
	}
	year, term := s.labels(query)
	key := studentReportKey(student.Class, student.ID, year, term)

	var cached models.ReportCard
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	subjects, err := s.subjectsOf(ctx, student)
	if err != nil {
		return nil, err
	}
	card := &models.ReportCard{
		Student: models.ReportStudent{
			ID:      student.ID,
			Name:    student.Name,
			RollNum: student.RollNum,
			Class:   student.Class,
			School:  student.School,
		},
		AcademicYear: year,
		Term:         term,
		GeneratedAt:  s.now().UTC(),
	}
	if class, err := s.classes.FindByID(ctx, student.Class); err == nil {
		card.Student.ClassName = class.Name
	} else if !isNotFound(err) {
		return nil, storeError(err, "class", "load class")
	}
	if s.schools != nil {
		if school, err := s.schools.FindByID(ctx, student.School); err == nil {
			card.Student.SchoolName = school.SchoolName
		} else if !isNotFound(err) {
			return nil, storeError(err, "school", "load school")
		}
	}

	card.Subjects, card.Overall = gradeExamResults(student.ExamResults, subjects)
	card.Attendance = summariseAttendance(student.Attendance, subjects)
	overall, _ := strconv.ParseFloat(card.Overall.Percentage, 64)
	card.Remarks = Remarks(overall)

	s.cacheSet(ctx, key, card)
	return card, nil
}

// ClassReports ranks the students of a class by overall percentage.
func (s *ReportService) ClassReports(ctx context.Context, classID string) ([]models.ClassReportCard, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return nil, storeError(err, "class", "load class")
	}
	key := classReportKey(classID)
	var cached []models.ClassReportCard
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, storeError(err, "student", "list students")
	}
	rows := rankStudents(students)
	s.cacheSet(ctx, key, rows)
	return rows, nil
}

// ExportClassReports renders the class ranking to a downloadable file.
func (s *ReportService) ExportClassReports(ctx context.Context, schoolID, classID, format string) (*models.ExportResult, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class", "load class")
	}
	if class.School != schoolID {
		return nil, forbidden("class belongs to another school")
	}
	rows, err := s.ClassReports(ctx, classID)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   "Report Cards " + class.Name,
		Headers: []string{"Rank", "Roll Number", "Name", "Total Marks", "Max Marks", "Percentage", "Grade"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for i, r := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Rank":        strconv.Itoa(i + 1),
			"Roll Number": strconv.Itoa(r.RollNum),
			"Name":        r.Name,
			"Total Marks": money(r.TotalMarks),
			"Max Marks":   money(r.MaxTotalMarks),
			"Percentage":  r.Percentage,
			"Grade":       r.Grade,
		})
	}
	return s.exporter.Export(ctx, schoolID, format, data)
}

// InvalidateStudent drops the cached card of a student and the ranking of its class.
func (s *ReportService) InvalidateStudent(ctx context.Context, classID, studentID string) {
	s.invalidate(ctx,
		fmt.Sprintf("%s:%s:student:%s:*", reportCachePrefix, classID, studentID),
		classReportKey(classID),
	)
}

// InvalidateClass drops every cached report of a class.
func (s *ReportService) InvalidateClass(ctx context.Context, classID string) {
	s.invalidate(ctx, fmt.Sprintf("%s:%s:*", reportCachePrefix, classID))
}

// InvalidateAll drops every cached report.
func (s *ReportService) InvalidateAll(ctx context.Context) {
	s.invalidate(ctx, reportCachePrefix+":*")
}

func (s *ReportService) invalidate(ctx context.Context, patterns ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, patterns...); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Strings("patterns", patterns), zap.Error(err))
	}
}

func (s *ReportService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *ReportService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, 0)
}

func (s *ReportService) labels(query models.ReportQuery) (string, string) {
	year, term := query.AcademicYear, query.Term
	if year == "" {
		year = strconv.Itoa(s.now().Year())
	}
	if term == "" {
		term = defaultTerm
	}
	return year, term
}

// subjectsOf loads every subject the student has marks or attendance for.
func (s *ReportService) subjectsOf(ctx context.Context, student *models.Student) (map[string]models.Subject, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, r := range student.ExamResults {
		if !seen[r.Subject] {
			seen[r.Subject] = true
			ids = append(ids, r.Subject)
		}
	}
	for _, a := range student.Attendance {
		if !seen[a.Subject] {
			seen[a.Subject] = true
			ids = append(ids, a.Subject)
		}
	}
	out := make(map[string]models.Subject, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	subjects, err := s.subjects.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err, "subject", "load subjects")
	}
	for _, sub := range subjects {
		out[sub.ID] = sub
	}
	return out, nil
}

func studentReportKey(classID, studentID, year, term string) string {
	return fmt.Sprintf("%s:%s:student:%s:%s:%s", reportCachePrefix, classID, studentID, year, term)
}

func classReportKey(classID string) string {
	return fmt.Sprintf("%s:%s:class", reportCachePrefix, classID)
}
