package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"connext-backend/internal/auth"
	"connext-backend/internal/config"
	"connext-backend/internal/handlers"
	"connext-backend/internal/mocks"
	"connext-backend/internal/models"
	"connext-backend/internal/ws"
)

type routerFixture struct {
	router   *gin.Engine
	tokens   *auth.Tokens
	users    *mocks.UserServiceMock
	messages *mocks.MessageServiceMock
	groups   *mocks.GroupServiceMock
}

func newRouterFixture(cfg config.Config) *routerFixture {
	gin.SetMode(gin.TestMode)
	f := &routerFixture{
		tokens:   auth.NewTokens("test-secret", time.Hour),
		users:    new(mocks.UserServiceMock),
		messages: new(mocks.MessageServiceMock),
		groups:   new(mocks.GroupServiceMock),
	}
	f.router = SetupRouter(cfg, Deps{
		Auth:     handlers.NewAuthHandler(f.users, nil, time.Hour, false),
		Messages: handlers.NewMessageHandler(f.messages, f.users, nil),
		Groups:   handlers.NewGroupHandler(f.groups, f.messages, nil),
		Users:    handlers.NewUserHandler(f.users, nil),
		WS:       ws.NewHandler(ws.NewHub(), f.tokens, ""),
		Verifier: f.tokens,
	})
	return f
}

func testConfig() config.Config {
	return config.Config{Env: "test", ServiceName: "connext-test", CORSOrigin: "http://localhost:5173"}
}

func (f *routerFixture) do(t *testing.T, method, path string, userID int) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != 0 {
		token, err := f.tokens.Issue(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	f := newRouterFixture(testConfig())

	rec := f.do(t, http.MethodGet, "/healthz", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, "/metrics", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "connext_http_requests_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(testConfig())

	for _, path := range []string{"/api/messages/users", "/api/groups", "/api/users/blocked", "/api/auth/check"} {
		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, path, 0).Code, path)
	}
	f.users.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestAuthenticatedRouteReachesService(t *testing.T) {
	f := newRouterFixture(testConfig())
	f.messages.On("Contacts", mock.Anything, 42).Return([]models.User{{ID: 7}}, nil).Once()
	f.groups.On("ListGroups", mock.Anything, 42).Return([]models.GroupSummary{}, nil).Once()

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/messages/users", 42).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/groups", 42).Code)
	f.messages.AssertExpectations(t)
	f.groups.AssertExpectations(t)
}

func TestWebsocketRejectsMissingToken(t *testing.T) {
	f := newRouterFixture(testConfig())
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/ws", 0).Code)
}

func TestDebugRoutesToggle(t *testing.T) {
	f := newRouterFixture(testConfig())
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/debug/audit-test", 0).Code)

	cfg := testConfig()
	cfg.DebugRoutes = true
	f = newRouterFixture(cfg)
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/debug/audit-test", 0).Code)
}
