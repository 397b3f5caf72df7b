package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"connext-backend/internal/middleware"
	"connext-backend/internal/telemetry"
)

// AuthHandler serves signup, login and profile endpoints.
type AuthHandler struct {
	users        userService
	audit        *telemetry.AuditEmitter
	cookieTTL    time.Duration
	secureCookie bool
}

// NewAuthHandler constructs an AuthHandler. Tokens are also set as an http-only jwt cookie.
func NewAuthHandler(users userService, audit *telemetry.AuditEmitter, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, audit: audit, cookieTTL: cookieTTL, secureCookie: secureCookie}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		FullName string `json:"fullName" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.users.Signup(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	h.setCookie(c, token)
	c.Set(middleware.UserIDKey, user.ID)
	emitAudit(c, h.audit, "INFO", "user signed up")
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	h.setCookie(c, token)
	c.Set(middleware.UserIDKey, user.ID)
	emitAudit(c, h.audit, "INFO", "user logged in")
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("jwt", "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Check handles GET /api/auth/check.
func (h *AuthHandler) Check(c *gin.Context) {
	user, err := h.users.Check(c.Request.Context(), c.GetInt(middleware.UserIDKey))
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /api/auth/update-profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		ProfilePic string `json:"profilePic" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile picture is required"})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), c.GetInt(middleware.UserIDKey), req.ProfilePic)
	if err != nil {
		writeError(c, h.audit, err)
		return
	}
	emitAudit(c, h.audit, "INFO", "profile picture updated")
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) setCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("jwt", token, int(h.cookieTTL.Seconds()), "/", "", h.secureCookie, true)
}
