package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connext-backend/internal/models"
)

type staticVerifier map[string]int

func (v staticVerifier) VerifyToken(token string) (int, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return 0, errors.New("unknown token")
}

func newWSServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", NewHandler(hub, staticVerifier{"tok-1": 1, "tok-2": 2}, "").Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var fr frame
	require.NoError(t, json.Unmarshal(data, &fr))
	return fr
}

func TestHandlerRegistersAuthenticatedUser(t *testing.T) {
	hub := NewHub()
	srv := newWSServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=tok-1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	fr := readFrame(t, conn)
	assert.Equal(t, models.EventOnlineUsers, fr.Name)
	assert.JSONEq(t, `[1]`, string(fr.Payload))
	assert.Equal(t, []int{1}, hub.OnlineUsers())
}

func TestHandlerRejectsMissingOrInvalidToken(t *testing.T) {
	srv := newWSServer(t, NewHub())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, "?token=bogus"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := newWSServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=tok-2"), nil)
	require.NoError(t, err)
	readFrame(t, conn)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return len(hub.OnlineUsers()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
