package ws

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"connext-backend/internal/models"
	"connext-backend/internal/observability"
)

// Hub is the presence registry: at most one live connection per user, last connect wins.
type Hub struct {
	mu    sync.RWMutex
	conns map[int]Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[int]Conn)}
}

// Register installs conn for userID, closing any connection it supersedes,
// and pushes the new online list to every live connection.
func (h *Hub) Register(userID int, conn Conn) {
	h.mu.Lock()
	previous, had := h.conns[userID]
	h.conns[userID] = conn
	evicted := h.broadcastOnlineLocked()
	observability.SetOnlineUsers(len(h.conns))
	h.mu.Unlock()

	// close frames can block for writeWait, so they go out after the lock is released
	if had && previous != conn {
		previous.Close(CloseSessionReplaced, "session replaced")
	}
	closeEvicted(evicted)

	observability.IncWSEvent("connected")
	publishLifecycle(conn, "ws_connected", "")
	if had && previous != conn {
		observability.IncWSEvent("replaced")
		publishLifecycle(previous, "ws_replaced", "session replaced")
	}
	for _, c := range evicted {
		publishLifecycle(c, "ws_evicted", "slow consumer")
	}
}

// Unregister removes userID only while conn is still its current connection.
// It reports whether an entry was removed.
func (h *Hub) Unregister(userID int, conn Conn) bool {
	h.mu.Lock()
	current, ok := h.conns[userID]
	if !ok || current != conn {
		h.mu.Unlock()
		return false
	}
	delete(h.conns, userID)
	evicted := h.broadcastOnlineLocked()
	observability.SetOnlineUsers(len(h.conns))
	h.mu.Unlock()
	closeEvicted(evicted)

	observability.IncWSEvent("disconnected")
	publishLifecycle(conn, "ws_disconnected", "")
	for _, c := range evicted {
		publishLifecycle(c, "ws_evicted", "slow consumer")
	}
	return true
}

// Resolve returns the live connection of userID.
func (h *Hub) Resolve(userID int) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[userID]
	return conn, ok
}

// OnlineUsers returns the ids of reachable users in ascending order.
func (h *Hub) OnlineUsers() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineLocked()
}

// CloseAll disconnects every client; used at shutdown.
func (h *Hub) CloseAll(code int, reason string) {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[int]Conn)
	observability.SetOnlineUsers(0)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(code, reason)
	}
}

func (h *Hub) onlineLocked() []int {
	ids := make([]int, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// broadcastOnlineLocked enqueues the online list on every connection while h.mu is held,
// so snapshots reach clients in mutation order. Connections that cannot keep up are removed
// and the list is resent without them; the caller closes the returned connections.
func (h *Hub) broadcastOnlineLocked() []Conn {
	var evicted []Conn
	for {
		payload, err := json.Marshal(models.Event{Name: models.EventOnlineUsers, Payload: h.onlineLocked()})
		if err != nil {
			log.Error().Err(err).Msg("marshal online users")
			return evicted
		}

		var failed []int
		for userID, conn := range h.conns {
			if err := conn.Send(payload); err != nil {
				failed = append(failed, userID)
			}
		}
		if len(failed) == 0 {
			return evicted
		}
		for _, userID := range failed {
			conn := h.conns[userID]
			delete(h.conns, userID)
			evicted = append(evicted, conn)
			observability.IncWSEvent("evicted")
			log.Warn().Int("user_id", userID).Str("conn_id", conn.ID()).Msg("evicted websocket client")
		}
	}
}

func closeEvicted(conns []Conn) {
	for _, c := range conns {
		c.Close(CloseSlowConsumer, "slow consumer")
	}
}

type infoProvider interface {
	Info() ConnInfo
}

func publishLifecycle(conn Conn, event, reason string) {
	provider, ok := conn.(infoProvider)
	if !ok {
		return
	}
	info := provider.Info()
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	if err := observability.PublishEvent(context.Background(), observability.WSRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   info.eventPayload(event, reason),
	}, headers); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("publish websocket event failed")
	}
}
