package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

// AccountRepository reads and updates the credential and settings fields that every role
// collection shares.
type AccountRepository struct {
	byRole map[models.UserRole]*collection[models.Account]
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(s *Store) *AccountRepository {
	return &AccountRepository{byRole: map[models.UserRole]*collection[models.Account]{
		models.RoleAdmin:   newCollection[models.Account](s, collAdmins),
		models.RoleTeacher: newCollection[models.Account](s, collTeachers),
		models.RoleStudent: newCollection[models.Account](s, collStudents),
		models.RoleParent:  newCollection[models.Account](s, collParents),
	}}
}

func (r *AccountRepository) accounts(role models.UserRole) (*collection[models.Account], error) {
	c, ok := r.byRole[role]
	if !ok {
		return nil, fmt.Errorf("unknown role %q: %w", role, appErrors.ErrNoRecord)
	}
	return c, nil
}

func (r *AccountRepository) one(ctx context.Context, role models.UserRole, filter bson.M) (*models.Account, error) {
	c, err := r.accounts(role)
	if err != nil {
		return nil, err
	}
	account, err := c.findOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	account.Role = role
	return account, nil
}

// FindByEmail looks an account up by email within one role.
func (r *AccountRepository) FindByEmail(ctx context.Context, role models.UserRole, email string) (*models.Account, error) {
	return r.one(ctx, role, bson.M{"email": email})
}

// FindStudent looks a student up by roll number and name.
func (r *AccountRepository) FindStudent(ctx context.Context, rollNum int, name string) (*models.Account, error) {
	return r.one(ctx, models.RoleStudent, bson.M{"rollNum": rollNum, "name": name})
}

// FindByID loads an account of the given role.
func (r *AccountRepository) FindByID(ctx context.Context, role models.UserRole, id string) (*models.Account, error) {
	return r.one(ctx, role, bson.M{"_id": id})
}

func (r *AccountRepository) update(ctx context.Context, role models.UserRole, id string, update bson.M) error {
	c, err := r.accounts(role)
	if err != nil {
		return err
	}
	return c.updateByID(ctx, id, update)
}

// UpdatePassword stores a new hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, role models.UserRole, id, hash string) error {
	return r.update(ctx, role, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}})
}

// UpdateFields sets arbitrary profile or preference fields.
func (r *AccountRepository) UpdateFields(ctx context.Context, role models.UserRole, id string, fields map[string]interface{}) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	return r.update(ctx, role, id, bson.M{"$set": set})
}

// PushNotification appends a notification.
func (r *AccountRepository) PushNotification(ctx context.Context, role models.UserRole, id string, n models.Notification) error {
	return r.update(ctx, role, id, bson.M{"$push": bson.M{"notifications": n}})
}

// MarkNotificationRead flags one notification as read.
func (r *AccountRepository) MarkNotificationRead(ctx context.Context, role models.UserRole, id, notificationID string) error {
	c, err := r.accounts(role)
	if err != nil {
		return err
	}
	matched, err := c.updateOne(ctx,
		bson.M{"_id": id, "notifications.id": notificationID},
		bson.M{"$set": bson.M{"notifications.$.read": true}},
	)
	if err != nil {
		return err
	}
	if matched == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, appErrors.ErrNoRecord)
	}
	return nil
}

// ClearNotifications removes every notification of the account.
func (r *AccountRepository) ClearNotifications(ctx context.Context, role models.UserRole, id string) error {
	return r.update(ctx, role, id, bson.M{"$set": bson.M{"notifications": bson.A{}}})
}
