package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

// SettingsHandler exposes the caller's own profile, preferences and notifications.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /me/profile [put]
func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	info, err := h.settings.UpdateProfile(c.Request.Context(), claims.Role, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// UpdatePreferences godoc
// @Summary Update own preferences
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.UpdatePreferencesRequest true "Preferences payload"
// @Success 200 {object} response.Envelope
// @Router /me/preferences [put]
func (h *SettingsHandler) UpdatePreferences(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.UpdatePreferencesRequest
	if !bindJSON(c, &req, "invalid preferences payload") {
		return
	}
	prefs, err := h.settings.UpdatePreferences(c.Request.Context(), claims.Role, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Notifications godoc
// @Summary Own notifications, newest first
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/notifications [get]
func (h *SettingsHandler) Notifications(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	items, err := h.settings.ListNotifications(c.Request.Context(), claims.Role, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// MarkNotificationRead godoc
// @Summary Mark one notification read
// @Tags Settings
// @Param notificationId path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Router /me/notifications/{notificationId}/read [put]
func (h *SettingsHandler) MarkNotificationRead(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.settings.MarkRead(c.Request.Context(), claims.Role, claims.UserID, c.Param("notificationId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "notification marked as read")
}

// ClearNotifications godoc
// @Summary Clear own notifications
// @Tags Settings
// @Success 200 {object} response.Envelope
// @Router /me/notifications [delete]
func (h *SettingsHandler) ClearNotifications(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	if err := h.settings.Clear(c.Request.Context(), claims.Role, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "notifications cleared")
}

// SendNotification godoc
// @Summary Notify an account of the school
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.SendNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Router /notifications [post]
func (h *SettingsHandler) SendNotification(c *gin.Context) {
	claims, _, ok := caller(c)
	if !ok {
		return
	}
	var req models.SendNotificationRequest
	if !bindJSON(c, &req, "invalid notification payload") {
		return
	}
	n, err := h.settings.SendNotification(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, n)
}
