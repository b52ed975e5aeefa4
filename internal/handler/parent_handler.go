package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

// ParentHandler exposes parent endpoints.
type ParentHandler struct {
	parents *service.ParentService
}

// NewParentHandler constructs a ParentHandler.
func NewParentHandler(parents *service.ParentService) *ParentHandler {
	return &ParentHandler{parents: parents}
}

// Register godoc
// @Summary Register parent
// @Tags Parents
// @Accept json
// @Produce json
// @Param payload body models.RegisterParentRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Router /parents [post]
func (h *ParentHandler) Register(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.RegisterParentRequest
	if !bindJSON(c, &req, "invalid parent payload") {
		return
	}
	parent, err := h.parents.Register(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// List godoc
// @Summary List parents of a school
// @Tags Parents
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/parents [get]
func (h *ParentHandler) List(c *gin.Context) {
	parents, err := h.parents.List(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parents, nil)
}

// Get godoc
// @Summary Parent detail
// @Tags Parents
// @Produce json
// @Param id path string true "Parent ID"
// @Success 200 {object} response.Envelope
// @Router /parents/{id} [get]
func (h *ParentHandler) Get(c *gin.Context) {
	parent, err := h.parents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent, nil)
}

// Update godoc
// @Summary Update parent
// @Tags Parents
// @Accept json
// @Produce json
// @Param id path string true "Parent ID"
// @Param payload body models.UpdateParentRequest true "Parent payload"
// @Success 200 {object} response.Envelope
// @Router /parents/{id} [put]
func (h *ParentHandler) Update(c *gin.Context) {
	var req models.UpdateParentRequest
	if !bindJSON(c, &req, "invalid parent payload") {
		return
	}
	parent, err := h.parents.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent, nil)
}

// LinkChild godoc
// @Summary Link a student to a parent
// @Tags Parents
// @Accept json
// @Produce json
// @Param id path string true "Parent ID"
// @Param payload body models.LinkChildRequest true "Child payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /parents/{id}/children [post]
func (h *ParentHandler) LinkChild(c *gin.Context) {
	var req models.LinkChildRequest
	if !bindJSON(c, &req, "invalid child payload") {
		return
	}
	parent, err := h.parents.LinkChild(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent, nil)
}

// Delete godoc
// @Summary Delete parent
// @Tags Parents
// @Param id path string true "Parent ID"
// @Success 200 {object} response.Envelope
// @Router /parents/{id} [delete]
func (h *ParentHandler) Delete(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.parents.Delete(c.Request.Context(), claims.SchoolID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "parent deleted")
}
