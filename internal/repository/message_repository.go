package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/school-mgmt-api/internal/models"
)

// MessageRepository manages persistence for direct messages.
type MessageRepository struct {
	messages *collection[models.Message]
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(s *Store) *MessageRepository {
	return &MessageRepository{messages: newCollection[models.Message](s, collMessages)}
}

var newestMessageFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

func refFilter(field string, ref models.Ref) bson.M {
	return bson.M{field + ".type": ref.Type, field + ".id": ref.ID}
}

func participantFilter(ref models.Ref) bson.M {
	return bson.M{"$or": bson.A{refFilter("sender", ref), refFilter("recipient", ref)}}
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	return r.messages.insert(ctx, m)
}

// FindByID returns the message.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	return r.messages.findByID(ctx, id)
}

// Inbox returns messages addressed to ref, newest first.
func (r *MessageRepository) Inbox(ctx context.Context, ref models.Ref, unreadOnly bool) ([]models.Message, error) {
	query := refFilter("recipient", ref)
	if unreadOnly {
		query["isRead"] = false
	}
	return r.messages.find(ctx, query, newestMessageFirst)
}

// Sent returns messages sent by ref, newest first.
func (r *MessageRepository) Sent(ctx context.Context, ref models.Ref) ([]models.Message, error) {
	return r.messages.find(ctx, refFilter("sender", ref), newestMessageFirst)
}

// Conversation returns messages exchanged between a and b in chronological order.
func (r *MessageRepository) Conversation(ctx context.Context, a, b models.Ref) ([]models.Message, error) {
	ab := refFilter("sender", a)
	for k, v := range refFilter("recipient", b) {
		ab[k] = v
	}
	ba := refFilter("sender", b)
	for k, v := range refFilter("recipient", a) {
		ba[k] = v
	}
	return r.messages.find(ctx, bson.M{"$or": bson.A{ab, ba}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// MarkRead flags the message as read by its recipient.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, at time.Time) (*models.Message, error) {
	return r.messages.findOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"isRead": true, "readAt": at, "updatedAt": at}})
}

// UnreadCount counts unread messages addressed to ref.
func (r *MessageRepository) UnreadCount(ctx context.Context, ref models.Ref) (int64, error) {
	query := refFilter("recipient", ref)
	query["isRead"] = false
	return r.messages.count(ctx, query)
}

// Delete removes the message.
func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	return r.messages.deleteByID(ctx, id)
}

// DeleteForParticipant removes the listed messages that ref sent or received.
func (r *MessageRepository) DeleteForParticipant(ctx context.Context, ids []string, ref models.Ref) (int64, error) {
	query := participantFilter(ref)
	query["_id"] = bson.M{"$in": ids}
	return r.messages.deleteMany(ctx, query)
}
