package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

type settingsAccountRepository interface {
	FindByID(ctx context.Context, role models.UserRole, id string) (*models.Account, error)
	UpdateFields(ctx context.Context, role models.UserRole, id string, fields map[string]interface{}) error
	PushNotification(ctx context.Context, role models.UserRole, id string, n models.Notification) error
	MarkNotificationRead(ctx context.Context, role models.UserRole, id, notificationID string) error
	ClearNotifications(ctx context.Context, role models.UserRole, id string) error
}

// SettingsService edits the caller's own account and inbox.
type SettingsService struct {
	accounts  settingsAccountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(accounts settingsAccountRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{accounts: accounts, validator: validate, logger: logger}
}

// UpdateProfile edits name and contact fields of the caller.
func (s *SettingsService) UpdateProfile(ctx context.Context, role models.UserRole, id string, req models.UpdateProfileRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil && role != models.RoleAdmin {
		fields["phone"] = *req.Phone
	}
	if req.Address != nil && role == models.RoleParent {
		fields["address"] = *req.Address
	}
	if err := s.accounts.UpdateFields(ctx, role, id, fields); err != nil {
		return nil, storeError(err, "account with this email", "update profile")
	}
	account, err := s.accounts.FindByID(ctx, role, id)
	if err != nil {
		return nil, storeError(err, "account", "load account")
	}
	return &models.UserInfo{ID: account.ID, Name: account.Name, Email: account.Email, Role: role, SchoolID: account.SchoolID()}, nil
}

// UpdatePreferences changes theme and delivery toggles.
func (s *SettingsService) UpdatePreferences(ctx context.Context, role models.UserRole, id string, req models.UpdatePreferencesRequest) (*models.Preferences, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid preferences payload")
	}
	if role == models.RoleAdmin {
		return nil, invalid("admins have no preferences")
	}
	fields := map[string]interface{}{}
	if req.Theme != nil {
		fields["preferences.theme"] = *req.Theme
	}
	if req.EmailNotifications != nil {
		fields["preferences.emailNotifications"] = *req.EmailNotifications
	}
	if req.SMSNotifications != nil {
		fields["preferences.smsNotifications"] = *req.SMSNotifications
	}
	if err := s.accounts.UpdateFields(ctx, role, id, fields); err != nil {
		return nil, storeError(err, "account", "update preferences")
	}
	account, err := s.accounts.FindByID(ctx, role, id)
	if err != nil {
		return nil, storeError(err, "account", "load account")
	}
	if account.Preferences == nil {
		prefs := models.DefaultPreferences()
		return &prefs, nil
	}
	return account.Preferences, nil
}

// SendNotification pushes a notification into another account's inbox.
func (s *SettingsService) SendNotification(ctx context.Context, schoolID string, req models.SendNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid notification payload")
	}
	role := req.Recipient.Role()
	if role == models.RoleAdmin {
		return nil, invalid("admins do not receive notifications")
	}
	recipient, err := s.accounts.FindByID(ctx, role, req.Recipient.ID)
	if err != nil {
		return nil, storeError(err, "recipient", "load recipient")
	}
	if recipient.SchoolID() != schoolID {
		return nil, forbidden("recipient belongs to another school")
	}
	n := models.Notification{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.accounts.PushNotification(ctx, role, req.Recipient.ID, n); err != nil {
		return nil, storeError(err, "recipient", "send notification")
	}
	return &n, nil
}

// ListNotifications returns the caller's notifications, newest first.
func (s *SettingsService) ListNotifications(ctx context.Context, role models.UserRole, id string) ([]models.Notification, error) {
	account, err := s.accounts.FindByID(ctx, role, id)
	if err != nil {
		return nil, storeError(err, "account", "load account")
	}
	out := append([]models.Notification{}, account.Notifications...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *SettingsService) MarkRead(ctx context.Context, role models.UserRole, id, notificationID string) error {
	if err := s.accounts.MarkNotificationRead(ctx, role, id, notificationID); err != nil {
		return storeError(err, "notification", "mark notification read")
	}
	return nil
}

// Clear empties the caller's inbox.
func (s *SettingsService) Clear(ctx context.Context, role models.UserRole, id string) error {
	if err := s.accounts.ClearNotifications(ctx, role, id); err != nil {
		return storeError(err, "account", "clear notifications")
	}
	return nil
}
