package models

import "time"

// Message is a direct message between two accounts of the same school.
type Message struct {
	ID          string       `bson:"_id" json:"id"`
	Sender      Ref          `bson:"sender" json:"sender"`
	Recipient   Ref          `bson:"recipient" json:"recipient"`
	School      string       `bson:"school" json:"school"`
	Subject     string       `bson:"subject" json:"subject"`
	Body        string       `bson:"message" json:"message"`
	Attachments []Attachment `bson:"attachments" json:"attachments"`
	IsRead      bool         `bson:"isRead" json:"isRead"`
	ReadAt      *time.Time   `bson:"readAt,omitempty" json:"readAt,omitempty"`
	Priority    string       `bson:"priority" json:"priority"`
	Category    string       `bson:"category" json:"category"`
	ReplyTo     string       `bson:"replyTo,omitempty" json:"replyTo,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// MessageView is a message with both participants resolved.
type MessageView struct {
	Message
	SenderInfo    *RefSummary `json:"senderInfo,omitempty"`
	RecipientInfo *RefSummary `json:"recipientInfo,omitempty"`
}

// SendMessageRequest composes a new message.
type SendMessageRequest struct {
	Recipient   Ref          `json:"recipient" validate:"required"`
	Subject     string       `json:"subject" validate:"required"`
	Body        string       `json:"message" validate:"required"`
	Attachments []Attachment `json:"attachments" validate:"dive"`
	Priority    string       `json:"priority" validate:"omitempty,oneof=Low Normal High Urgent"`
	Category    string       `json:"category" validate:"omitempty,oneof=Academic Attendance Fees Discipline General Event"`
}

// ReplyMessageRequest answers a message.
type ReplyMessageRequest struct {
	Body        string       `json:"message" validate:"required"`
	Attachments []Attachment `json:"attachments" validate:"dive"`
}

// BulkDeleteMessagesRequest removes several messages.
type BulkDeleteMessagesRequest struct {
	IDs []string `json:"messageIds" validate:"required,min=1"`
}

// ConversationQuery selects the other participant.
type ConversationQuery struct {
	Type RefType `form:"type" validate:"required,oneof=admin teacher student parent"`
	ID   string  `form:"id" validate:"required"`
}
