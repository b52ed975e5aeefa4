package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/notify"
)

type messageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	FindByID(ctx context.Context, id string) (*models.Message, error)
	Inbox(ctx context.Context, ref models.Ref, unreadOnly bool) ([]models.Message, error)
	Sent(ctx context.Context, ref models.Ref) ([]models.Message, error)
	Conversation(ctx context.Context, a, b models.Ref) ([]models.Message, error)
	MarkRead(ctx context.Context, id string, at time.Time) (*models.Message, error)
	UnreadCount(ctx context.Context, ref models.Ref) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteForParticipant(ctx context.Context, ids []string, ref models.Ref) (int64, error)
}

type refResolver interface {
	Resolve(ctx context.Context, ref models.Ref) (*models.RefSummary, error)
	InSchool(ctx context.Context, ref models.Ref, schoolID string) (*models.RefSummary, error)
}

// MessageSentEvent is published for every stored message.
type MessageSentEvent struct {
	MessageID string     `json:"messageId"`
	School    string     `json:"school"`
	Sender    models.Ref `json:"sender"`
	Recipient models.Ref `json:"recipient"`
	Subject   string     `json:"subject"`
	Priority  string     `json:"priority"`
}

// MessageService delivers direct messages between accounts of one school.
type MessageService struct {
	repo      messageRepository
	refs      refResolver
	publisher notify.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMessageService constructs a MessageService.
func NewMessageService(repo messageRepository, refs refResolver, publisher notify.Publisher, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &MessageService{repo: repo, refs: refs, publisher: publisher, validator: validate, logger: logger, now: time.Now}
}

// Send delivers a message from sender to a recipient in the same school.
func (s *MessageService) Send(ctx context.Context, schoolID string, sender models.Ref, req models.SendMessageRequest) (*models.MessageView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid message payload")
	}
	if sender.Equal(req.Recipient) {
		return nil, invalid("cannot send a message to yourself")
	}
	recipient, err := s.refs.InSchool(ctx, req.Recipient, schoolID)
	if err != nil {
		return nil, err
	}
	msg := s.compose(schoolID, sender, req.Recipient, strings.TrimSpace(req.Subject), req.Body, req.Attachments)
	if req.Priority != "" {
		msg.Priority = req.Priority
	}
	if req.Category != "" {
		msg.Category = req.Category
	}
	return s.store(ctx, msg, recipient)
}

// Reply answers a message. The reply goes to the other participant of the original.
func (s *MessageService) Reply(ctx context.Context, id string, caller models.Ref, req models.ReplyMessageRequest) (*models.MessageView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reply payload")
	}
	original, err := s.participantMessage(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	to := original.Sender
	if caller.Equal(original.Sender) {
		to = original.Recipient
	}
	recipient, err := s.refs.Resolve(ctx, to)
	if err != nil {
		return nil, err
	}
	subject := original.Subject
	if !strings.HasPrefix(subject, "Re: ") {
		subject = "Re: " + subject
	}
	msg := s.compose(original.School, caller, to, subject, req.Body, req.Attachments)
	msg.Priority = original.Priority
	msg.Category = original.Category
	msg.ReplyTo = original.ID
	return s.store(ctx, msg, recipient)
}

// Inbox lists messages addressed to the caller, newest first.
func (s *MessageService) Inbox(ctx context.Context, caller models.Ref, unreadOnly bool) ([]models.MessageView, error) {
	msgs, err := s.repo.Inbox(ctx, caller, unreadOnly)
	if err != nil {
		return nil, storeError(err, "message", "list inbox")
	}
	return s.views(ctx, msgs), nil
}

// Sent lists messages the caller sent, newest first.
func (s *MessageService) Sent(ctx context.Context, caller models.Ref) ([]models.MessageView, error) {
	msgs, err := s.repo.Sent(ctx, caller)
	if err != nil {
		return nil, storeError(err, "message", "list sent messages")
	}
	return s.views(ctx, msgs), nil
}

// Conversation lists the messages exchanged between the caller and other, oldest first.
func (s *MessageService) Conversation(ctx context.Context, caller models.Ref, query models.ConversationQuery) ([]models.MessageView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid conversation query")
	}
	msgs, err := s.repo.Conversation(ctx, caller, models.Ref{Type: query.Type, ID: query.ID})
	if err != nil {
		return nil, storeError(err, "message", "load conversation")
	}
	return s.views(ctx, msgs), nil
}

// Get returns a message to one of its participants.
func (s *MessageService) Get(ctx context.Context, id string, caller models.Ref) (*models.MessageView, error) {
	msg, err := s.participantMessage(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	views := s.views(ctx, []models.Message{*msg})
	return &views[0], nil
}

// MarkRead flags a message as read. Only the recipient may do so.
func (s *MessageService) MarkRead(ctx context.Context, id string, caller models.Ref) (*models.Message, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "message", "load message")
	}
	if !msg.Recipient.Equal(caller) {
		return nil, forbidden("only the recipient can mark a message as read")
	}
	if msg.IsRead {
		return msg, nil
	}
	updated, err := s.repo.MarkRead(ctx, id, s.now().UTC())
	if err != nil {
		return nil, storeError(err, "message", "mark message read")
	}
	return updated, nil
}

// UnreadCount counts the caller's unread messages.
func (s *MessageService) UnreadCount(ctx context.Context, caller models.Ref) (int64, error) {
	n, err := s.repo.UnreadCount(ctx, caller)
	if err != nil {
		return 0, storeError(err, "message", "count unread messages")
	}
	return n, nil
}

// Delete removes a message the caller sent or received.
func (s *MessageService) Delete(ctx context.Context, id string, caller models.Ref) error {
	if _, err := s.participantMessage(ctx, id, caller); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "message", "delete message")
	}
	return nil
}

// BulkDelete removes the listed messages the caller took part in and reports how many went.
func (s *MessageService) BulkDelete(ctx context.Context, caller models.Ref, req models.BulkDeleteMessagesRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid bulk delete payload")
	}
	n, err := s.repo.DeleteForParticipant(ctx, dedupe(req.IDs), caller)
	if err != nil {
		return 0, storeError(err, "message", "delete messages")
	}
	return n, nil
}

func (s *MessageService) compose(schoolID string, from, to models.Ref, subject, body string, attachments []models.Attachment) *models.Message {
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	now := s.now().UTC()
	return &models.Message{
		ID:          uuid.NewString(),
		Sender:      from,
		Recipient:   to,
		School:      schoolID,
		Subject:     subject,
		Body:        body,
		Attachments: attachments,
		Priority:    "Normal",
		Category:    "General",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *MessageService) store(ctx context.Context, msg *models.Message, recipient *models.RefSummary) (*models.MessageView, error) {
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, storeError(err, "message", "send message")
	}
	event := MessageSentEvent{
		MessageID: msg.ID,
		School:    msg.School,
		Sender:    msg.Sender,
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Priority:  msg.Priority,
	}
	if err := s.publisher.Publish(ctx, notify.SubjectMessageSent, event); err != nil {
		s.logger.Warn("failed to publish message event", zap.String("message_id", msg.ID), zap.Error(err))
	}
	view := &models.MessageView{Message: *msg, RecipientInfo: recipient}
	if sender, err := s.refs.Resolve(ctx, msg.Sender); err == nil {
		view.SenderInfo = sender
	}
	return view, nil
}

func (s *MessageService) participantMessage(ctx context.Context, id string, caller models.Ref) (*models.Message, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "message", "load message")
	}
	if !msg.Sender.Equal(caller) && !msg.Recipient.Equal(caller) {
		return nil, forbidden("not a participant of this message")
	}
	return msg, nil
}

// views resolves participants once per distinct reference. Accounts that no longer exist are
// left unresolved.
func (s *MessageService) views(ctx context.Context, msgs []models.Message) []models.MessageView {
	resolved := make(map[models.Ref]*models.RefSummary)
	lookup := func(ref models.Ref) *models.RefSummary {
		if summary, ok := resolved[ref]; ok {
			return summary
		}
		summary, err := s.refs.Resolve(ctx, ref)
		if err != nil {
			if !isNotFound(err) {
				s.logger.Warn("failed to resolve message participant", zap.String("type", string(ref.Type)), zap.String("id", ref.ID), zap.Error(err))
			}
			summary = nil
		}
		resolved[ref] = summary
		return summary
	}
	out := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.MessageView{Message: m, SenderInfo: lookup(m.Sender), RecipientInfo: lookup(m.Recipient)})
	}
	return out
}
