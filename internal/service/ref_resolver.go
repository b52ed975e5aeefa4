package service

import (
	"context"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

type refAccountRepository interface {
	FindByID(ctx context.Context, role models.UserRole, id string) (*models.Account, error)
}

// RefResolver turns polymorphic {type, id} references into the accounts they point at.
type RefResolver struct {
	accounts refAccountRepository
}

// NewRefResolver constructs a RefResolver.
func NewRefResolver(accounts refAccountRepository) *RefResolver {
	return &RefResolver{accounts: accounts}
}

// Resolve loads the referenced account.
func (r *RefResolver) Resolve(ctx context.Context, ref models.Ref) (*models.RefSummary, error) {
	account, err := r.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &models.RefSummary{Ref: ref, Name: account.Name, Email: account.Email}, nil
}

// InSchool loads the referenced account and checks it belongs to schoolID.
func (r *RefResolver) InSchool(ctx context.Context, ref models.Ref, schoolID string) (*models.RefSummary, error) {
	account, err := r.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if account.SchoolID() != schoolID {
		return nil, invalid(string(ref.Type) + " belongs to another school")
	}
	return &models.RefSummary{Ref: ref, Name: account.Name, Email: account.Email}, nil
}

func (r *RefResolver) load(ctx context.Context, ref models.Ref) (*models.Account, error) {
	role := ref.Role()
	if role == "" || ref.ID == "" {
		return nil, invalid("invalid reference")
	}
	account, err := r.accounts.FindByID(ctx, role, ref.ID)
	if err != nil {
		return nil, storeError(err, string(ref.Type), "resolve "+string(ref.Type))
	}
	return account, nil
}
