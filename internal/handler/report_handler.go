package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/middleware"
	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

type reportService interface {
	StudentReport(ctx context.Context, studentID string, query models.ReportQuery) (*models.ReportCard, error)
	ClassReports(ctx context.Context, classID string) ([]models.ClassReportCard, error)
	ExportClassReports(ctx context.Context, schoolID, classID, format string) (*models.ExportResult, error)
}

// ReportHandler exposes report card endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// StudentReport godoc
// @Summary Student report card
// @Tags Reports
// @Produce json
// @Param id path string true "Student ID"
// @Param academicYear query string false "Academic year, defaults to the current year"
// @Param term query string false "Term label"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/report-card [get]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	var query models.ReportQuery
	if !bindQuery(c, &query, "invalid report query") {
		return
	}
	report, err := h.reports.StudentReport(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// ClassReports godoc
// @Summary Ranked report cards of a class
// @Tags Reports
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/report-cards [get]
func (h *ReportHandler) ClassReports(c *gin.Context) {
	reports, err := h.reports.ClassReports(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil, middleware.ExtractMeta(c))
}

// ExportClassReports godoc
// @Summary Export ranked report cards of a class
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body models.ExportRequest false "Format (csv or xlsx)"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{id}/report-cards/export [post]
func (h *ReportHandler) ExportClassReports(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.ExportRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid export payload") {
		return
	}
	result, err := h.reports.ExportClassReports(c.Request.Context(), claims.SchoolID, c.Param("id"), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
