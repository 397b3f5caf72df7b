package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"connext-backend/internal/middleware"
	"connext-backend/internal/models"
	"connext-backend/internal/telemetry"
)

// MessageHandler serves direct messaging endpoints.
type MessageHandler struct {
	messages messageService
	users    userService
	audit    *telemetry.AuditEmitter
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messages messageService, users userService, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{messages: messages, users: users, audit: audit}
}

// Contacts handles GET /api/messages/users.
func (h *MessageHandler) Contacts(c *gin.Context) {
	users, err := h.messages.Contacts(c.Request.Context(), c.GetInt(middleware.UserIDKey))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UsersWithLastMessage handles GET /api/messages/users-with-last-message.
func (h *MessageHandler) UsersWithLastMessage(c *gin.Context) {
	summaries, err := h.messages.UsersWithLastMessage(c.Request.Context(), c.GetInt(middleware.UserIDKey))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// Conversation handles GET /api/messages/:id.
func (h *MessageHandler) Conversation(c *gin.Context) {
	otherID, ok := paramID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.messages.Conversation(c.Request.Context(), c.GetInt(middleware.UserIDKey), otherID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// Send handles POST /api/messages/send/:id. Sends are refused while either side blocks the other.
func (h *MessageHandler) Send(c *gin.Context) {
	receiverID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var content models.Content
	if err := c.ShouldBindJSON(&content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	senderID := c.GetInt(middleware.UserIDKey)
	blocked, err := h.users.BlockedBetween(c.Request.Context(), senderID, receiverID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	if blocked {
		emitAudit(c, h.audit, "ERROR", "message to blocked user refused")
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot send messages to this user"})
		return
	}

	msg, err := h.messages.SendDirect(c.Request.Context(), senderID, receiverID, content)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
