package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

// StudentHandler exposes student endpoints including marks and attendance.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// Register godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.RegisterStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Register(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.RegisterStudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.students.Register(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// List godoc
// @Summary List students of a school
// @Tags Students
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req models.UpdateStudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// UpsertExamResult godoc
// @Summary Record the mark of a subject
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.ExamResultRequest true "Exam result payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/exam-results [put]
func (h *StudentHandler) UpsertExamResult(c *gin.Context) {
	var req models.ExamResultRequest
	if !bindJSON(c, &req, "invalid exam result payload") {
		return
	}
	student, err := h.students.UpsertExamResult(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// MarkAttendance godoc
// @Summary Mark subject attendance
// @Description Re-marking an existing date updates it; a new date beyond the subject's sessions is rejected
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.StudentAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/attendance [put]
func (h *StudentHandler) MarkAttendance(c *gin.Context) {
	var req models.StudentAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	student, err := h.students.MarkAttendance(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// ClearAttendance godoc
// @Summary Clear all attendance of a student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [delete]
func (h *StudentHandler) ClearAttendance(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.students.ClearAttendance(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "attendance cleared")
}

// RemoveSubjectAttendance godoc
// @Summary Remove one subject's attendance of a student
// @Tags Students
// @Param id path string true "Student ID"
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance/{subjectId} [delete]
func (h *StudentHandler) RemoveSubjectAttendance(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.students.RemoveSubjectAttendance(c.Request.Context(), claims.SchoolID, c.Param("id"), c.Param("subjectId")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "attendance removed")
}

// ClearSubjectAttendance godoc
// @Summary Clear a subject's attendance across all students
// @Tags Students
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/attendance [delete]
func (h *StudentHandler) ClearSubjectAttendance(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	n, err := h.students.ClearSubjectAttendance(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "attendance cleared", gin.H{"modified": n})
}

// ClearSchoolAttendance godoc
// @Summary Clear all attendance in a school
// @Tags Students
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/attendance [delete]
func (h *StudentHandler) ClearSchoolAttendance(c *gin.Context) {
	n, err := h.students.ClearSchoolAttendance(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "attendance cleared", gin.H{"modified": n})
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "student deleted")
}

// DeleteByClass godoc
// @Summary Delete every student of a class
// @Tags Students
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/students [delete]
func (h *StudentHandler) DeleteByClass(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	result, err := h.students.DeleteByClass(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "students deleted", result)
}

// DeleteBySchool godoc
// @Summary Delete every student of a school
// @Tags Students
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/students [delete]
func (h *StudentHandler) DeleteBySchool(c *gin.Context) {
	result, err := h.students.DeleteBySchool(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "students deleted", result)
}
