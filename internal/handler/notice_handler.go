package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

// NoticeHandler exposes notices and complaints.
type NoticeHandler struct {
	notices    *service.NoticeService
	complaints *service.ComplaintService
}

// NewNoticeHandler constructs a NoticeHandler.
func NewNoticeHandler(notices *service.NoticeService, complaints *service.ComplaintService) *NoticeHandler {
	return &NoticeHandler{notices: notices, complaints: complaints}
}

// Create godoc
// @Summary Publish notice
// @Tags Notices
// @Accept json
// @Produce json
// @Param payload body models.NoticeRequest true "Notice payload"
// @Success 201 {object} response.Envelope
// @Router /notices [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.NoticeRequest
	if !bindJSON(c, &req, "invalid notice payload") {
		return
	}
	notice, err := h.notices.Create(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// List godoc
// @Summary Notices of a school
// @Tags Notices
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	notices, err := h.notices.List(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, nil)
}

// Update godoc
// @Summary Update notice
// @Tags Notices
// @Accept json
// @Produce json
// @Param id path string true "Notice ID"
// @Param payload body models.NoticeRequest true "Notice payload"
// @Success 200 {object} response.Envelope
// @Router /notices/{id} [put]
func (h *NoticeHandler) Update(c *gin.Context) {
	var req models.NoticeRequest
	if !bindJSON(c, &req, "invalid notice payload") {
		return
	}
	notice, err := h.notices.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Delete godoc
// @Summary Delete notice
// @Tags Notices
// @Param id path string true "Notice ID"
// @Success 200 {object} response.Envelope
// @Router /notices/{id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.notices.Delete(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "notice deleted")
}

// DeleteBySchool godoc
// @Summary Delete every notice of a school
// @Tags Notices
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/notices [delete]
func (h *NoticeHandler) DeleteBySchool(c *gin.Context) {
	n, err := h.notices.DeleteBySchool(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "notices deleted", gin.H{"deleted": n})
}

// CreateComplaint godoc
// @Summary File a complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Param payload body models.ComplaintRequest true "Complaint payload"
// @Success 201 {object} response.Envelope
// @Router /complaints [post]
func (h *NoticeHandler) CreateComplaint(c *gin.Context) {
	claims, ref, ok := caller(c)
	if !ok {
		return
	}
	var req models.ComplaintRequest
	if !bindJSON(c, &req, "invalid complaint payload") {
		return
	}
	complaint, err := h.complaints.Create(c.Request.Context(), claims.SchoolID, ref, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, complaint)
}

// ListComplaints godoc
// @Summary Complaints of a school
// @Tags Complaints
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/complaints [get]
func (h *NoticeHandler) ListComplaints(c *gin.Context) {
	complaints, err := h.complaints.List(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints, nil)
}
