package ws

import "time"

// ConnInfo identifies a live connection in lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      int
	UserAgent   string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) eventPayload(event, reason string) map[string]interface{} {
	wsPayload := map[string]interface{}{
		"event":       event,
		"conn_id":     i.ConnID,
		"duration_ms": time.Since(i.ConnectedAt).Milliseconds(),
	}
	if reason != "" {
		wsPayload["reason"] = reason
	}
	return map[string]interface{}{
		"ws": wsPayload,
		"identity": map[string]interface{}{
			"user_id":    i.UserID,
			"user_agent": i.UserAgent,
			"ip":         i.IP,
		},
	}
}
