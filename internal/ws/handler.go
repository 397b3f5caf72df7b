package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"connext-backend/internal/observability"
	"connext-backend/internal/telemetry"
)

// TokenVerifier resolves an access token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (int, error)
}

// Handler upgrades authenticated requests and binds the connection to the hub.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	upgrader websocket.Upgrader
}

// NewHandler builds the /ws endpoint. allowedOrigin "" or "*" accepts any origin.
func NewHandler(hub *Hub, verifier TokenVerifier, allowedOrigin string) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Handle serves GET /ws?token=...
func (h *Handler) Handle(c *gin.Context) {
	token := tokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.verifier.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Int("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	client := NewClient(conn, ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		UserAgent:   observability.UserAgentFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     telemetry.TraceID(c.Request.Context()),
		ConnectedAt: time.Now(),
	})

	go client.writePump()
	h.hub.Register(userID, client)
	log.Info().Int("user_id", userID).Str("conn_id", client.ID()).Msg("user connected")

	err = client.readPump()
	client.Close(websocket.CloseNormalClosure, "")
	h.hub.Unregister(userID, client)
	log.Info().Err(err).Int("user_id", userID).Str("conn_id", client.ID()).Msg("user disconnected")
}

func tokenFromRequest(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	if cookie, err := c.Cookie("jwt"); err == nil {
		return cookie
	}
	return ""
}
