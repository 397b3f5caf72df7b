package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"connext-backend/internal/middleware"
	"connext-backend/internal/models"
	"connext-backend/internal/telemetry"
)

// GroupHandler manages group-related endpoints.
type GroupHandler struct {
	groups   groupService
	messages messageService
	audit    *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups groupService, messages messageService, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{groups: groups, messages: messages, audit: audit}
}

type memberRequest struct {
	MemberID int `json:"memberId" binding:"required"`
}

// CreateGroup handles POST /api/groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		Members    []int  `json:"members"`
		GroupImage string `json:"groupImage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), c.GetInt(middleware.UserIDKey), req.Name, req.Members, req.GroupImage)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "group created")
	c.JSON(http.StatusCreated, group)
}

// ListGroups handles GET /api/groups.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListGroups(c.Request.Context(), c.GetInt(middleware.UserIDKey))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetGroup handles GET /api/groups/:groupId.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	group, err := h.groups.GetGroup(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// AddMember handles PUT /api/groups/:groupId/add-member.
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memberId is required"})
		return
	}

	group, err := h.groups.AddMember(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID, req.MemberID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "group member added")
	c.JSON(http.StatusOK, group)
}

// AddMembers handles POST /api/groups/:groupId/add-members.
func (h *GroupHandler) AddMembers(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	var req struct {
		MemberIDs []int `json:"memberIds" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memberIds is required"})
		return
	}

	group, added, err := h.groups.AddMembers(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID, req.MemberIDs)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "group members added")
	c.JSON(http.StatusOK, gin.H{"group": group, "added": added})
}

// RemoveMember handles PUT /api/groups/:groupId/remove-member.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memberId is required"})
		return
	}

	group, err := h.groups.RemoveMember(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID, req.MemberID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "group member removed")
	c.JSON(http.StatusOK, group)
}

// Exit handles DELETE /api/groups/:groupId/exit.
func (h *GroupHandler) Exit(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	result, err := h.groups.Exit(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "group exited")
	c.JSON(http.StatusOK, result)
}

// EligibleUsers handles GET /api/groups/:groupId/eligible-users.
func (h *GroupHandler) EligibleUsers(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	users, err := h.groups.EligibleUsers(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ChangeImage handles PUT /api/groups/:groupId/change-image.
func (h *GroupHandler) ChangeImage(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	var req struct {
		GroupImage string `json:"groupImage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "groupImage is required"})
		return
	}

	group, err := h.groups.ChangeImage(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID, req.GroupImage)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// RemoveImage handles PUT /api/groups/:groupId/remove-image.
func (h *GroupHandler) RemoveImage(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	group, err := h.groups.RemoveImage(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// Messages handles GET /api/groups/:groupId/messages.
func (h *GroupHandler) Messages(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	msgs, err := h.groups.GroupMessages(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage handles POST /api/groups/:groupId/messages.
func (h *GroupHandler) SendMessage(c *gin.Context) {
	groupID, ok := paramID(c, "groupId")
	if !ok {
		return
	}
	var content models.Content
	if err := c.ShouldBindJSON(&content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.SendGroup(c.Request.Context(), c.GetInt(middleware.UserIDKey), groupID, content)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
