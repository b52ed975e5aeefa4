package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
	"github.com/noah-isme/school-mgmt-api/pkg/notify"
)

type mockNoticeRepo struct {
	items map[string]*models.Notice
}

func (m *mockNoticeRepo) Create(ctx context.Context, n *models.Notice) error {
	cp := *n
	m.items[n.ID] = &cp
	return nil
}

func (m *mockNoticeRepo) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	n, ok := m.items[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *n
	return &cp, nil
}

func (m *mockNoticeRepo) ListBySchool(ctx context.Context, schoolID string) ([]models.Notice, error) {
	var out []models.Notice
	for _, n := range m.items {
		if n.School == schoolID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockNoticeRepo) Save(ctx context.Context, n *models.Notice) error {
	if _, ok := m.items[n.ID]; !ok {
		return appErrors.ErrNoRecord
	}
	return m.Create(ctx, n)
}

func (m *mockNoticeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(m.items, id)
	return nil
}

func (m *mockNoticeRepo) DeleteBySchool(ctx context.Context, schoolID string) (int64, error) {
	var n int64
	for id, item := range m.items {
		if item.School == schoolID {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

type mockComplaintRepo struct {
	items []models.Complaint
}

func (m *mockComplaintRepo) Create(ctx context.Context, c *models.Complaint) error {
	m.items = append(m.items, *c)
	return nil
}

func (m *mockComplaintRepo) ListBySchool(ctx context.Context, schoolID string) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range m.items {
		if c.School == schoolID {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestNoticeServiceLifecycle(t *testing.T) {
	repo := &mockNoticeRepo{items: map[string]*models.Notice{}}
	publisher := &fakePublisher{}
	svc := NewNoticeService(repo, publisher, nil, nil)
	ctx := context.Background()
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	n, err := svc.Create(ctx, "school-1", models.NoticeRequest{Title: " Holiday ", Details: "School closed", Date: date})
	require.NoError(t, err)
	assert.Equal(t, "Holiday", n.Title)
	assert.Len(t, publisher.events[notify.SubjectNoticeCreated], 1)

	_, err = svc.Create(ctx, "school-1", models.NoticeRequest{Title: "Empty"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	updated, err := svc.Update(ctx, n.ID, models.NoticeRequest{Title: "Holiday", Details: "Closed Monday", Date: date})
	require.NoError(t, err)
	assert.Equal(t, "Closed Monday", updated.Details)

	_, err = svc.Create(ctx, "school-2", models.NoticeRequest{Title: "Other", Details: "x", Date: date})
	require.NoError(t, err)
	removed, err := svc.DeleteBySchool(ctx, "school-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.ErrorIs(t, svc.Delete(ctx, "school-1", n.ID), appErrors.ErrNotFound)
}

func TestComplaintServiceCreate(t *testing.T) {
	repo := &mockComplaintRepo{}
	svc := NewComplaintService(repo, nil, nil)
	user := models.Ref{Type: models.RefStudent, ID: "st1"}

	c, err := svc.Create(context.Background(), "school-1", user, models.ComplaintRequest{Date: time.Now(), Complaint: "Broken bench"})
	require.NoError(t, err)
	assert.Equal(t, user, c.User)

	_, err = svc.Create(context.Background(), "school-1", user, models.ComplaintRequest{Date: time.Now()})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	list, err := svc.List(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
