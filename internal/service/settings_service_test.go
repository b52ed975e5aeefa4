package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

type memAccounts struct {
	items   map[string]*models.Account
	updates []map[string]interface{}
}

func newMemAccounts(accounts ...models.Account) *memAccounts {
	m := &memAccounts{items: map[string]*models.Account{}}
	for i := range accounts {
		a := accounts[i]
		m.items[string(a.Role)+"/"+a.ID] = &a
	}
	return m
}

func (m *memAccounts) get(role models.UserRole, id string) (*models.Account, error) {
	a, ok := m.items[string(role)+"/"+id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	return a, nil
}

func (m *memAccounts) FindByID(ctx context.Context, role models.UserRole, id string) (*models.Account, error) {
	a, err := m.get(role, id)
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) UpdateFields(ctx context.Context, role models.UserRole, id string, fields map[string]interface{}) error {
	a, err := m.get(role, id)
	if err != nil {
		return err
	}
	m.updates = append(m.updates, fields)
	for k, v := range fields {
		switch k {
		case "name":
			a.Name = v.(string)
		case "email":
			a.Email = v.(string)
		case "phone":
			a.Phone = v.(string)
		case "preferences.theme", "preferences.emailNotifications", "preferences.smsNotifications":
			if a.Preferences == nil {
				prefs := models.DefaultPreferences()
				a.Preferences = &prefs
			}
			switch k {
			case "preferences.theme":
				a.Preferences.Theme = v.(string)
			case "preferences.emailNotifications":
				a.Preferences.EmailNotifications = v.(bool)
			default:
				a.Preferences.SMSNotifications = v.(bool)
			}
		}
	}
	return nil
}

func (m *memAccounts) PushNotification(ctx context.Context, role models.UserRole, id string, n models.Notification) error {
	a, err := m.get(role, id)
	if err != nil {
		return err
	}
	a.Notifications = append(a.Notifications, n)
	return nil
}

func (m *memAccounts) MarkNotificationRead(ctx context.Context, role models.UserRole, id, notificationID string) error {
	a, err := m.get(role, id)
	if err != nil {
		return err
	}
	for i := range a.Notifications {
		if a.Notifications[i].ID == notificationID {
			a.Notifications[i].Read = true
			return nil
		}
	}
	return appErrors.ErrNoRecord
}

func (m *memAccounts) ClearNotifications(ctx context.Context, role models.UserRole, id string) error {
	a, err := m.get(role, id)
	if err != nil {
		return err
	}
	a.Notifications = nil
	return nil
}

func strPtr(v string) *string { return &v }

func settingsFixture() *memAccounts {
	return newMemAccounts(
		models.Account{ID: "school-1", Name: "Green Valley", Email: "admin@gv.test", Role: models.RoleAdmin},
		models.Account{ID: "t1", Name: "Ana", Email: "ana@gv.test", School: "school-1", Role: models.RoleTeacher},
		models.Account{ID: "s1", Name: "Budi", School: "school-1", Role: models.RoleStudent},
		models.Account{ID: "s9", Name: "Other", School: "school-2", Role: models.RoleStudent},
	)
}

func TestSettingsServiceUpdateProfile(t *testing.T) {
	repo := settingsFixture()
	svc := NewSettingsService(repo, nil, nil)

	info, err := svc.UpdateProfile(context.Background(), models.RoleAdmin, "school-1", models.UpdateProfileRequest{
		Name:  strPtr("  Green Valley High "),
		Email: strPtr("Office@GV.test"),
		Phone: strPtr("0800"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Green Valley High", info.Name)
	assert.Equal(t, "office@gv.test", info.Email)
	assert.Equal(t, "school-1", info.SchoolID)
	require.Len(t, repo.updates, 1)
	assert.NotContains(t, repo.updates[0], "phone")

	info, err = svc.UpdateProfile(context.Background(), models.RoleTeacher, "t1", models.UpdateProfileRequest{Phone: strPtr("0811")})
	require.NoError(t, err)
	assert.Equal(t, "school-1", info.SchoolID)
	assert.Equal(t, "0811", repo.items["Teacher/t1"].Phone)

	_, err = svc.UpdateProfile(context.Background(), models.RoleTeacher, "t1", models.UpdateProfileRequest{Email: strPtr("not-an-email")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSettingsServiceUpdatePreferences(t *testing.T) {
	repo := settingsFixture()
	svc := NewSettingsService(repo, nil, nil)

	prefs, err := svc.UpdatePreferences(context.Background(), models.RoleStudent, "s1", models.UpdatePreferencesRequest{Theme: strPtr("dark")})
	require.NoError(t, err)
	assert.Equal(t, "dark", prefs.Theme)
	assert.True(t, prefs.EmailNotifications)

	_, err = svc.UpdatePreferences(context.Background(), models.RoleAdmin, "school-1", models.UpdatePreferencesRequest{Theme: strPtr("dark")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdatePreferences(context.Background(), models.RoleStudent, "s1", models.UpdatePreferencesRequest{Theme: strPtr("neon")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSettingsServiceNotifications(t *testing.T) {
	repo := settingsFixture()
	svc := NewSettingsService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.SendNotification(ctx, "school-1", models.SendNotificationRequest{
		Recipient: models.Ref{Type: models.RefAdmin, ID: "school-1"}, Title: "x", Message: "y",
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.SendNotification(ctx, "school-1", models.SendNotificationRequest{
		Recipient: models.Ref{Type: models.RefStudent, ID: "s9"}, Title: "x", Message: "y",
	})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.SendNotification(ctx, "school-1", models.SendNotificationRequest{
		Recipient: models.Ref{Type: models.RefStudent, ID: "missing"}, Title: "x", Message: "y",
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	older := models.Notification{ID: "old", Title: "Welcome", CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.PushNotification(ctx, models.RoleStudent, "s1", older))
	sent, err := svc.SendNotification(ctx, "school-1", models.SendNotificationRequest{
		Recipient: models.Ref{Type: models.RefStudent, ID: "s1"}, Title: "Exam", Message: "Math on Monday",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.False(t, sent.Read)

	list, err := svc.ListNotifications(ctx, models.RoleStudent, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, sent.ID, list[0].ID)
	assert.Equal(t, "old", list[1].ID)

	require.NoError(t, svc.MarkRead(ctx, models.RoleStudent, "s1", "old"))
	assert.True(t, repo.items["Student/s1"].Notifications[0].Read)

	err = svc.MarkRead(ctx, models.RoleStudent, "s1", "nope")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.Clear(ctx, models.RoleStudent, "s1"))
	list, err = svc.ListNotifications(ctx, models.RoleStudent, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
