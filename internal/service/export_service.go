package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/export"
	"github.com/noah-isme/school-mgmt-api/pkg/storage"
)

// ExportService renders datasets and stores them behind a time-limited download URL.
type ExportService struct {
	store  storage.ObjectStore
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(store storage.ObjectStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{store: store, logger: logger}
}

// Export renders data in the requested format (xlsx when empty) and uploads it under the
// school's prefix.
func (s *ExportService) Export(ctx context.Context, schoolID, format string, data export.Dataset) (*models.ExportResult, error) {
	renderer, err := export.RendererFor(export.Format(format))
	if err != nil {
		return nil, validationError(err, "unsupported export format")
	}
	body, err := renderer.Render(data)
	if err != nil {
		return nil, storeError(err, "export", "render export")
	}

	id := uuid.NewString()
	key := fmt.Sprintf("%s/%s.%s", schoolID, id, renderer.Extension())
	if err := s.store.Put(ctx, key, renderer.ContentType(), body); err != nil {
		return nil, storeError(err, "export", "store export")
	}
	url, expires, err := s.store.URL(ctx, id, key)
	if err != nil {
		return nil, storeError(err, "export", "sign export url")
	}
	s.logger.Info("export generated", zap.String("export_id", id), zap.String("title", data.Title), zap.Int("rows", len(data.Rows)))
	return &models.ExportResult{
		ID:        id,
		Format:    renderer.Extension(),
		Rows:      len(data.Rows),
		URL:       url,
		ExpiresAt: expires,
	}, nil
}
