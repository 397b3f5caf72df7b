package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"connext-backend/internal/middleware"
	"connext-backend/internal/telemetry"
)

// UserHandler serves search and block endpoints.
type UserHandler struct {
	users userService
	audit *telemetry.AuditEmitter
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users userService, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

// Search handles GET /api/users/search?q=.
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.users.Search(c.Request.Context(), c.GetInt(middleware.UserIDKey), c.Query("q"))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Block handles POST /api/users/block/:userId.
func (h *UserHandler) Block(c *gin.Context) {
	targetID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	if err := h.users.Block(c.Request.Context(), c.GetInt(middleware.UserIDKey), targetID); err != nil {
		writeError(c, h.audit, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "user blocked")
	c.JSON(http.StatusOK, gin.H{"message": "user blocked", "blockedUserId": targetID})
}

// Unblock handles POST /api/users/unblock/:userId.
func (h *UserHandler) Unblock(c *gin.Context) {
	targetID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	if err := h.users.Unblock(c.Request.Context(), c.GetInt(middleware.UserIDKey), targetID); err != nil {
		writeError(c, h.audit, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "user unblocked")
	c.JSON(http.StatusOK, gin.H{"message": "user unblocked", "unblockedUserId": targetID})
}

// Blocked handles GET /api/users/blocked.
func (h *UserHandler) Blocked(c *gin.Context) {
	users, err := h.users.ListBlocked(c.Request.Context(), c.GetInt(middleware.UserIDKey))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
