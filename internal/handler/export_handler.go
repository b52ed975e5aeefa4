package handler

import (
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
	"github.com/noah-isme/school-mgmt-api/pkg/storage"
)

type downloadResolver interface {
	Resolve(token string) (string, *storage.DownloadClaims, error)
}

// ExportHandler serves exports kept on local disk behind signed tokens.
type ExportHandler struct {
	downloads downloadResolver
}

// NewExportHandler constructs an ExportHandler. downloads is nil when exports go to S3.
func NewExportHandler(downloads downloadResolver) *ExportHandler {
	return &ExportHandler{downloads: downloads}
}

// Download godoc
// @Summary Download a generated export
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.downloads == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "local exports are not enabled"))
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	path, claims, err := h.downloads.Resolve(token)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.FileAttachment(path, claims.ExportID+filepath.Ext(path))
}
