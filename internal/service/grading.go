package service

import (
	"math"
	"sort"
	"strconv"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

const defaultTotalMarks = 100

type gradeBand struct {
	min     float64
	grade   string
	remarks string
}

// gradeBands are ordered by descending lower bound; the bound is inclusive.
var gradeBands = []gradeBand{
	{90, "A+", "Outstanding performance! Keep up the excellent work."},
	{80, "A", "Excellent work! Continue to strive for excellence."},
	{70, "B+", "Good performance. Keep working hard."},
	{60, "B", "Satisfactory performance. There is room for improvement."},
	{50, "C", "Average performance. Please focus more on studies."},
	{40, "D", "Below average performance. Extra attention required."},
	{math.Inf(-1), "F", "Poor performance. Immediate intervention needed."},
}

func bandFor(percentage float64) gradeBand {
	for _, b := range gradeBands {
		if percentage >= b.min {
			return b
		}
	}
	return gradeBands[len(gradeBands)-1]
}

// percentage returns part/whole*100 rounded to two decimals, or 0 when whole is 0.
func percentage(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(part/whole*100*100) / 100
}

func formatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// Grade returns the letter grade of a percentage.
func Grade(percentage float64) string {
	return bandFor(percentage).grade
}

// Remarks returns the report card comment for an overall percentage.
func Remarks(percentage float64) string {
	return bandFor(percentage).remarks
}

type subjectTotals struct {
	marks float64
	max   float64
}

// gradeExamResults groups exam results by subject in first-seen order and returns the
// per subject lines plus the overall totals.
func gradeExamResults(results []models.ExamResult, subjects map[string]models.Subject) ([]models.SubjectGrade, models.OverallGrade) {
	order := make([]string, 0)
	totals := make(map[string]*subjectTotals)
	var overall subjectTotals
	for _, r := range results {
		max := r.TotalMarks
		if max <= 0 {
			max = defaultTotalMarks
		}
		t, ok := totals[r.Subject]
		if !ok {
			t = &subjectTotals{}
			totals[r.Subject] = t
			order = append(order, r.Subject)
		}
		t.marks += r.MarksObtained
		t.max += max
		overall.marks += r.MarksObtained
		overall.max += max
	}

	lines := make([]models.SubjectGrade, 0, len(order))
	for _, id := range order {
		t := totals[id]
		p := percentage(t.marks, t.max)
		line := models.SubjectGrade{
			Subject:       id,
			MarksObtained: t.marks,
			MaxMarks:      t.max,
			Percentage:    formatPercentage(p),
			Grade:         Grade(p),
		}
		if sub, ok := subjects[id]; ok {
			line.SubjectName = sub.Name
			line.SubCode = sub.Code
		}
		lines = append(lines, line)
	}

	p := percentage(overall.marks, overall.max)
	return lines, models.OverallGrade{
		TotalMarks:    overall.marks,
		MaxTotalMarks: overall.max,
		Percentage:    formatPercentage(p),
		Grade:         Grade(p),
	}
}

// summariseAttendance counts sessions per subject; only Present counts as present.
func summariseAttendance(records []models.AttendanceRecord, subjects map[string]models.Subject) []models.SubjectAttendance {
	order := make([]string, 0)
	counts := make(map[string]*models.SubjectAttendance)
	for _, r := range records {
		c, ok := counts[r.Subject]
		if !ok {
			c = &models.SubjectAttendance{Subject: r.Subject}
			if sub, found := subjects[r.Subject]; found {
				c.SubjectName = sub.Name
			}
			counts[r.Subject] = c
			order = append(order, r.Subject)
		}
		c.Total++
		if r.Status == models.AttendancePresent {
			c.Present++
		}
	}
	out := make([]models.SubjectAttendance, 0, len(order))
	for _, id := range order {
		c := counts[id]
		c.Percentage = formatPercentage(percentage(float64(c.Present), float64(c.Total)))
		out = append(out, *c)
	}
	return out
}

// rankStudents builds class report rows ordered by percentage, highest first. Ties keep
// roll number order.
func rankStudents(students []models.Student) []models.ClassReportCard {
	rows := make([]models.ClassReportCard, 0, len(students))
	for _, st := range students {
		_, overall := gradeExamResults(st.ExamResults, nil)
		rows = append(rows, models.ClassReportCard{
			StudentID:     st.ID,
			Name:          st.Name,
			RollNum:       st.RollNum,
			TotalMarks:    overall.TotalMarks,
			MaxTotalMarks: overall.MaxTotalMarks,
			Percentage:    overall.Percentage,
			Grade:         overall.Grade,
			Score:         percentage(overall.TotalMarks, overall.MaxTotalMarks),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].RollNum < rows[j].RollNum
	})
	return rows
}
