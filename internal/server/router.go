package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"connext-backend/internal/config"
	"connext-backend/internal/handlers"
	"connext-backend/internal/middleware"
	"connext-backend/internal/observability"
	"connext-backend/internal/telemetry"
	"connext-backend/internal/ws"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Auth     *handlers.AuthHandler
	Messages *handlers.MessageHandler
	Groups   *handlers.GroupHandler
	Users    *handlers.UserHandler
	WS       *ws.Handler
	Verifier middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
	Audit    *telemetry.AuditEmitter
	// UploadDir is served under /uploads when images are stored locally.
	UploadDir string
}

// SetupRouter wires middleware, the REST API and the websocket endpoint.
func SetupRouter(cfg config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(handlers.RequestID())
	r.Use(middleware.CORS(cfg.Env, cfg.CORSOrigin))
	r.Use(observability.HTTPMetricsMiddleware())
	if deps.Limiter != nil {
		r.Use(deps.Limiter.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	api := r.Group("/api")
	authed := middleware.AuthMiddleware(deps.Verifier)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/signup", deps.Auth.Signup)
	authRoutes.POST("/login", deps.Auth.Login)
	authRoutes.POST("/logout", deps.Auth.Logout)
	authRoutes.GET("/check", authed, deps.Auth.Check)
	authRoutes.PUT("/update-profile", authed, deps.Auth.UpdateProfile)

	messages := api.Group("/messages", authed)
	messages.GET("/users", deps.Messages.Contacts)
	messages.GET("/users-with-last-message", deps.Messages.UsersWithLastMessage)
	messages.GET("/:id", deps.Messages.Conversation)
	messages.POST("/send/:id", deps.Messages.Send)

	groups := api.Group("/groups", authed)
	groups.POST("", deps.Groups.CreateGroup)
	groups.GET("", deps.Groups.ListGroups)
	groups.GET("/:groupId", deps.Groups.GetGroup)
	groups.PUT("/:groupId/add-member", deps.Groups.AddMember)
	groups.POST("/:groupId/add-members", deps.Groups.AddMembers)
	groups.PUT("/:groupId/remove-member", deps.Groups.RemoveMember)
	groups.GET("/:groupId/eligible-users", deps.Groups.EligibleUsers)
	groups.PUT("/:groupId/change-image", deps.Groups.ChangeImage)
	groups.PUT("/:groupId/remove-image", deps.Groups.RemoveImage)
	groups.GET("/:groupId/messages", deps.Groups.Messages)
	groups.POST("/:groupId/messages", deps.Groups.SendMessage)
	groups.DELETE("/:groupId/exit", deps.Groups.Exit)

	users := api.Group("/users", authed)
	users.GET("/search", deps.Users.Search)
	users.POST("/block/:userId", deps.Users.Block)
	users.POST("/unblock/:userId", deps.Users.Unblock)
	users.GET("/blocked", deps.Users.Blocked)

	r.GET("/ws", deps.WS.Handle)

	handlers.RegisterDebugRoutes(r, deps.Audit, cfg.DebugRoutes)
	return r
}
