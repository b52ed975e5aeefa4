package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

// FeeHandler exposes fee, payment and fee report endpoints.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs a FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// Create godoc
// @Summary Create fee record
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body models.CreateFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.CreateFeeRequest
	if !bindJSON(c, &req, "invalid fee payload") {
		return
	}
	fee, err := h.fees.Create(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// ListByStudent godoc
// @Summary Fees of a student
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees [get]
func (h *FeeHandler) ListByStudent(c *gin.Context) {
	fees, err := h.fees.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// ListByClass godoc
// @Summary Fees of a class
// @Tags Fees
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/fees [get]
func (h *FeeHandler) ListByClass(c *gin.Context) {
	fees, err := h.fees.ListByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// Summary godoc
// @Summary Fee totals of a school
// @Tags Fees
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/fees/summary [get]
func (h *FeeHandler) Summary(c *gin.Context) {
	summary, err := h.fees.Summary(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Report godoc
// @Summary Fee report
// @Tags Fees
// @Produce json
// @Param schoolId path string true "School ID"
// @Param academicYear query string false "Academic year"
// @Param status query string false "Paid, Partial, Pending or Overdue"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/fees/report [get]
func (h *FeeHandler) Report(c *gin.Context) {
	var filter models.FeeReportFilter
	if !bindQuery(c, &filter, "invalid report filter") {
		return
	}
	fees, err := h.fees.Report(c.Request.Context(), c.Param("schoolId"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// ExportReport godoc
// @Summary Export fee report
// @Tags Fees
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param academicYear query string false "Academic year"
// @Param status query string false "Fee status"
// @Param payload body models.ExportRequest false "Format"
// @Success 201 {object} response.Envelope
// @Router /schools/{schoolId}/fees/report/export [post]
func (h *FeeHandler) ExportReport(c *gin.Context) {
	var filter models.FeeReportFilter
	if !bindQuery(c, &filter, "invalid report filter") {
		return
	}
	var req models.ExportRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid export payload") {
		return
	}
	result, err := h.fees.ExportReport(c.Request.Context(), c.Param("schoolId"), filter, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// AddPayment godoc
// @Summary Record a payment
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body models.PaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /fees/{id}/payments [post]
func (h *FeeHandler) AddPayment(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.PaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	fee, err := h.fees.AddPayment(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// ApplyDiscount godoc
// @Summary Apply a discount
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body models.DiscountRequest true "Discount payload"
// @Success 200 {object} response.Envelope
// @Router /fees/{id}/discount [post]
func (h *FeeHandler) ApplyDiscount(c *gin.Context) {
	var req models.DiscountRequest
	if !bindJSON(c, &req, "invalid discount payload") {
		return
	}
	fee, err := h.fees.ApplyDiscount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Update godoc
// @Summary Update fee
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body models.UpdateFeeRequest true "Fee payload"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [put]
func (h *FeeHandler) Update(c *gin.Context) {
	var req models.UpdateFeeRequest
	if !bindJSON(c, &req, "invalid fee payload") {
		return
	}
	fee, err := h.fees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Delete godoc
// @Summary Delete fee
// @Tags Fees
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [delete]
func (h *FeeHandler) Delete(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.fees.Delete(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "fee deleted")
}
