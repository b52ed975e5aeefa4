package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

// CascadeHandler exposes the cascade journal and manual reconciliation.
type CascadeHandler struct {
	cascade   *service.CascadeService
	reconcile *service.ReconcileService
}

// NewCascadeHandler constructs a CascadeHandler.
func NewCascadeHandler(cascade *service.CascadeService, reconcile *service.ReconcileService) *CascadeHandler {
	return &CascadeHandler{cascade: cascade, reconcile: reconcile}
}

// Journal godoc
// @Summary Cascade journal
// @Tags Cascades
// @Produce json
// @Param status query string false "completed, partial or resolved"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cascades [get]
func (h *CascadeHandler) Journal(c *gin.Context) {
	var filter models.CascadeJournalFilter
	if !bindQuery(c, &filter, "invalid journal filter") {
		return
	}
	entries, pagination, err := h.cascade.Journal(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Reconcile godoc
// @Summary Replay partial cascades and repair teacher subject links
// @Tags Cascades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cascades/reconcile [post]
func (h *CascadeHandler) Reconcile(c *gin.Context) {
	result, err := h.reconcile.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
