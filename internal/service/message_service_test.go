package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
	"github.com/noah-isme/school-mgmt-api/pkg/notify"
)

type mockMessageRepo struct {
	items map[string]*models.Message
	seq   int
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	m.seq++
	msg.CreatedAt = msg.CreatedAt.Add(time.Duration(m.seq) * time.Second)
	cp := *msg
	m.items[msg.ID] = &cp
	return nil
}

func (m *mockMessageRepo) FindByID(ctx context.Context, id string) (*models.Message, error) {
	msg, ok := m.items[id]
	if !ok {
		return nil, appErrors.ErrNoRecord
	}
	cp := *msg
	return &cp, nil
}

func (m *mockMessageRepo) filter(keep func(*models.Message) bool) []models.Message {
	var out []models.Message
	for _, msg := range m.items {
		if keep(msg) {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *mockMessageRepo) Inbox(ctx context.Context, ref models.Ref, unreadOnly bool) ([]models.Message, error) {
	return m.filter(func(msg *models.Message) bool { return msg.Recipient.Equal(ref) && (!unreadOnly || !msg.IsRead) }), nil
}

func (m *mockMessageRepo) Sent(ctx context.Context, ref models.Ref) ([]models.Message, error) {
	return m.filter(func(msg *models.Message) bool { return msg.Sender.Equal(ref) }), nil
}

func (m *mockMessageRepo) Conversation(ctx context.Context, a, b models.Ref) ([]models.Message, error) {
	return m.filter(func(msg *models.Message) bool {
		return (msg.Sender.Equal(a) && msg.Recipient.Equal(b)) || (msg.Sender.Equal(b) && msg.Recipient.Equal(a))
	}), nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id string, at time.Time) (*models.Message, error) {
	msg := m.items[id]
	msg.IsRead = true
	msg.ReadAt = &at
	return m.FindByID(ctx, id)
}

func (m *mockMessageRepo) UnreadCount(ctx context.Context, ref models.Ref) (int64, error) {
	msgs, _ := m.Inbox(ctx, ref, true)
	return int64(len(msgs)), nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return appErrors.ErrNoRecord
	}
	delete(m.items, id)
	return nil
}

func (m *mockMessageRepo) DeleteForParticipant(ctx context.Context, ids []string, ref models.Ref) (int64, error) {
	var n int64
	for _, id := range ids {
		msg, ok := m.items[id]
		if ok && (msg.Sender.Equal(ref) || msg.Recipient.Equal(ref)) {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

// staticRefs resolves accounts from a fixed directory keyed by id.
type staticRefs map[string]models.RefSummary

func (r staticRefs) Resolve(ctx context.Context, ref models.Ref) (*models.RefSummary, error) {
	s, ok := r[ref.ID]
	if !ok || s.Type != ref.Type {
		return nil, notFound(string(ref.Type))
	}
	return &s, nil
}

func (r staticRefs) InSchool(ctx context.Context, ref models.Ref, schoolID string) (*models.RefSummary, error) {
	s, err := r.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if s.Email != schoolID {
		return nil, invalid("belongs to another school")
	}
	return s, nil
}

var (
	teacherRef = models.Ref{Type: models.RefTeacher, ID: "t1"}
	parentRef  = models.Ref{Type: models.RefParent, ID: "p1"}
	otherRef   = models.Ref{Type: models.RefStudent, ID: "st9"}
)

func newMessageFixture() (*MessageService, *mockMessageRepo, *fakePublisher) {
	repo := &mockMessageRepo{items: map[string]*models.Message{}}
	// Email doubles as the school id for the directory below.
	refs := staticRefs{
		"t1":  {Ref: teacherRef, Name: "Mrs. Sari", Email: "school-1"},
		"p1":  {Ref: parentRef, Name: "Pak Budi", Email: "school-1"},
		"st9": {Ref: otherRef, Name: "Dewi", Email: "school-2"},
	}
	publisher := &fakePublisher{}
	svc := NewMessageService(repo, refs, publisher, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC) }
	return svc, repo, publisher
}

func TestMessageServiceSendAndReply(t *testing.T) {
	svc, _, publisher := newMessageFixture()
	ctx := context.Background()

	sent, err := svc.Send(ctx, "school-1", teacherRef, models.SendMessageRequest{
		Recipient: parentRef, Subject: "Homework", Body: "Please check the diary.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Normal", sent.Priority)
	assert.Equal(t, "Pak Budi", sent.RecipientInfo.Name)
	assert.Equal(t, "Mrs. Sari", sent.SenderInfo.Name)
	assert.Len(t, publisher.events[notify.SubjectMessageSent], 1)

	reply, err := svc.Reply(ctx, sent.ID, parentRef, models.ReplyMessageRequest{Body: "Noted, thanks."})
	require.NoError(t, err)
	assert.Equal(t, teacherRef, reply.Recipient)
	assert.Equal(t, "Re: Homework", reply.Subject)
	assert.Equal(t, sent.ID, reply.ReplyTo)

	conv, err := svc.Conversation(ctx, teacherRef, models.ConversationQuery{Type: models.RefParent, ID: "p1"})
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, sent.ID, conv[0].ID)
}

func TestMessageServiceSendRejectsOtherSchool(t *testing.T) {
	svc, _, _ := newMessageFixture()
	_, err := svc.Send(context.Background(), "school-1", teacherRef, models.SendMessageRequest{
		Recipient: otherRef, Subject: "Hi", Body: "Hello",
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestMessageServiceParticipantsOnly(t *testing.T) {
	svc, _, _ := newMessageFixture()
	ctx := context.Background()
	sent, err := svc.Send(ctx, "school-1", teacherRef, models.SendMessageRequest{Recipient: parentRef, Subject: "s", Body: "b"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, sent.ID, otherRef)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.MarkRead(ctx, sent.ID, teacherRef)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	n, err := svc.UnreadCount(ctx, parentRef)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	read, err := svc.MarkRead(ctx, sent.ID, parentRef)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	n, err = svc.UnreadCount(ctx, parentRef)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMessageServiceDelete(t *testing.T) {
	svc, repo, _ := newMessageFixture()
	ctx := context.Background()
	a, err := svc.Send(ctx, "school-1", teacherRef, models.SendMessageRequest{Recipient: parentRef, Subject: "a", Body: "a"})
	require.NoError(t, err)
	b, err := svc.Send(ctx, "school-1", teacherRef, models.SendMessageRequest{Recipient: parentRef, Subject: "b", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID, parentRef))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID, parentRef), appErrors.ErrNotFound)

	n, err := svc.BulkDelete(ctx, otherRef, models.BulkDeleteMessagesRequest{IDs: []string{b.ID}})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.BulkDelete(ctx, teacherRef, models.BulkDeleteMessagesRequest{IDs: []string{b.ID, b.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, repo.items)
}
