package repository

import (
	"context"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// AdminRepository persists school owners.
type AdminRepository struct {
	admins *collection[models.Admin]
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(s *Store) *AdminRepository {
	return &AdminRepository{admins: newCollection[models.Admin](s, collAdmins)}
}

// Create inserts an admin. Email and school name are unique.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	return r.admins.insert(ctx, admin)
}

// FindByID returns the admin.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	return r.admins.findByID(ctx, id)
}
