package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-mgmt-api/internal/models"
	"github.com/noah-isme/school-mgmt-api/pkg/response"
)

type messageService interface {
	Send(ctx context.Context, schoolID string, sender models.Ref, req models.SendMessageRequest) (*models.MessageView, error)
	Reply(ctx context.Context, id string, caller models.Ref, req models.ReplyMessageRequest) (*models.MessageView, error)
	Inbox(ctx context.Context, caller models.Ref, unreadOnly bool) ([]models.MessageView, error)
	Sent(ctx context.Context, caller models.Ref) ([]models.MessageView, error)
	Conversation(ctx context.Context, caller models.Ref, query models.ConversationQuery) ([]models.MessageView, error)
	Get(ctx context.Context, id string, caller models.Ref) (*models.MessageView, error)
	MarkRead(ctx context.Context, id string, caller models.Ref) (*models.Message, error)
	UnreadCount(ctx context.Context, caller models.Ref) (int64, error)
	Delete(ctx context.Context, id string, caller models.Ref) error
	BulkDelete(ctx context.Context, caller models.Ref, req models.BulkDeleteMessagesRequest) (int64, error)
}

// MessageHandler exposes direct messaging between accounts of a school.
type MessageHandler struct {
	messages messageService
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messages messageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Send godoc
// @Summary Send a message
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body models.SendMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	claims, ref, ok := caller(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), claims.SchoolID, ref, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Reply godoc
// @Summary Reply to a message
// @Tags Messages
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param payload body models.ReplyMessageRequest true "Reply payload"
// @Success 201 {object} response.Envelope
// @Router /messages/{id}/reply [post]
func (h *MessageHandler) Reply(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	var req models.ReplyMessageRequest
	if !bindJSON(c, &req, "invalid reply payload") {
		return
	}
	msg, err := h.messages.Reply(c.Request.Context(), c.Param("id"), ref, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Inbox godoc
// @Summary Received messages
// @Tags Messages
// @Produce json
// @Param unread query bool false "Only unread"
// @Success 200 {object} response.Envelope
// @Router /messages/inbox [get]
func (h *MessageHandler) Inbox(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	msgs, err := h.messages.Inbox(c.Request.Context(), ref, c.Query("unread") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msgs, nil)
}

// Sent godoc
// @Summary Sent messages
// @Tags Messages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /messages/sent [get]
func (h *MessageHandler) Sent(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	msgs, err := h.messages.Sent(c.Request.Context(), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msgs, nil)
}

// UnreadCount godoc
// @Summary Number of unread messages
// @Tags Messages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	n, err := h.messages.UnreadCount(c.Request.Context(), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unreadCount": n}, nil)
}

// Conversation godoc
// @Summary Messages exchanged with one account
// @Tags Messages
// @Produce json
// @Param type query string true "admin, teacher, student or parent"
// @Param id query string true "Account ID"
// @Success 200 {object} response.Envelope
// @Router /messages/conversation [get]
func (h *MessageHandler) Conversation(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	var query models.ConversationQuery
	if !bindQuery(c, &query, "invalid conversation query") {
		return
	}
	msgs, err := h.messages.Conversation(c.Request.Context(), ref, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msgs, nil)
}

// Get godoc
// @Summary Message detail
// @Tags Messages
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	msg, err := h.messages.Get(c.Request.Context(), c.Param("id"), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msg, nil)
}

// MarkRead godoc
// @Summary Mark a message read
// @Tags Messages
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Router /messages/{id}/read [put]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	msg, err := h.messages.MarkRead(c.Request.Context(), c.Param("id"), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msg, nil)
}

// Delete godoc
// @Summary Delete a message
// @Tags Messages
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Router /messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), c.Param("id"), ref); err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "message deleted")
}

// BulkDelete godoc
// @Summary Delete several messages
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteMessagesRequest true "Message IDs"
// @Success 200 {object} response.Envelope
// @Router /messages/bulk-delete [post]
func (h *MessageHandler) BulkDelete(c *gin.Context) {
	_, ref, ok := caller(c)
	if !ok {
		return
	}
	var req models.BulkDeleteMessagesRequest
	if !bindJSON(c, &req, "invalid bulk delete payload") {
		return
	}
	n, err := h.messages.BulkDelete(c.Request.Context(), ref, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, "messages deleted", gin.H{"deleted": n})
}
