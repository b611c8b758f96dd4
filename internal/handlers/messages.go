package handlers

import (
	"medivault-server/internal/services"
	"medivault-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageHandler handles chat related requests. The authenticated user is
// always one side of the conversation being read or written.
type MessageHandler struct {
	Service *services.ChatService
	log     *zap.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service *services.ChatService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{Service: service, log: log}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Body       string `json:"body" binding:"required" validate:"max=5000"`
}

// SendMessage handles sending a new message.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	message, err := h.Service.SendMessage(c.Request.Context(), actor.ID, req.ReceiverID, req.Body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Created(c, "Message sent successfully", message)
}

// GetHistory handles fetching the conversation between the logged-in user and a peer.
func (h *MessageHandler) GetHistory(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	messages, err := h.Service.GetHistory(c.Request.Context(), actor.ID, c.Param("peerId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Messages fetched successfully", messages)
}

// MarkRead handles marking every message from a sender to the logged-in user as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.Service.MarkRead(c.Request.Context(), c.Param("senderId"), actor.ID); err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Messages marked as read", nil)
}

// GetUnreadCount handles counting the logged-in user's unread messages.
func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	count, err := h.Service.GetUnreadCount(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Unread count fetched successfully", gin.H{"count": count})
}

// GetConversations handles listing the logged-in user's conversation partners.
func (h *MessageHandler) GetConversations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	previews, err := h.Service.ListPartners(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	utils.Success(c, "Conversations fetched successfully", previews)
}
