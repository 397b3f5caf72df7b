package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"connext-backend/internal/models"
	"connext-backend/internal/observability"
	"connext-backend/internal/telemetry"
)

// Audience is the ordered, duplicate-free set of users an event targets.
type Audience struct {
	userIDs []int
}

// ToUser targets a single user.
func ToUser(userID int) Audience {
	return ToMembers([]int{userID})
}

// ToPair targets two users.
func ToPair(a, b int) Audience {
	return ToMembers([]int{a, b})
}

// ToMembers targets every id once, in first-seen order.
func ToMembers(userIDs []int) Audience {
	seen := make(map[int]struct{}, len(userIDs))
	ids := make([]int, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return Audience{userIDs: ids}
}

// UserIDs returns the targets.
func (a Audience) UserIDs() []int {
	out := make([]int, len(a.userIDs))
	copy(out, a.userIDs)
	return out
}

// Report counts the outcome of one Deliver call.
type Report struct {
	Delivered int
	Dropped   int
}

// Registry is the part of the presence registry fanout needs.
type Registry interface {
	Resolve(userID int) (Conn, bool)
	Unregister(userID int, conn Conn) bool
}

// Fanout pushes events to whichever targets are reachable. Offline targets are skipped;
// nothing is queued or retried.
type Fanout struct {
	registry Registry
}

// NewFanout builds a Fanout over registry.
func NewFanout(registry Registry) *Fanout {
	return &Fanout{registry: registry}
}

// Deliver sends event to each reachable target in the audience exactly once.
func (f *Fanout) Deliver(ctx context.Context, event models.Event, audience Audience) Report {
	_, span := telemetry.StartSpan(ctx, "fanout.deliver")
	defer span.End()
	span.SetAttributes(attribute.String("event", event.Name), attribute.Int("audience", len(audience.userIDs)))

	var report Report
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", event.Name).Msg("marshal event")
		report.Dropped = len(audience.userIDs)
		return report
	}

	var evicted []Conn
	for _, userID := range audience.userIDs {
		conn, ok := f.registry.Resolve(userID)
		if !ok {
			report.Dropped++
			observability.IncFanoutDropped(event.Name, "offline")
			continue
		}
		if err := conn.Send(payload); err != nil {
			report.Dropped++
			reason := "closed"
			if errors.Is(err, ErrSendBufferFull) {
				reason = "slow_consumer"
				f.registry.Unregister(userID, conn)
				evicted = append(evicted, conn)
				log.Warn().Int("user_id", userID).Str("event", event.Name).Msg("disconnected slow websocket client")
			}
			observability.IncFanoutDropped(event.Name, reason)
			continue
		}
		report.Delivered++
		observability.IncFanoutDelivered(event.Name)
	}
	// a stuck peer can hold a close frame for writeWait; the sender does not wait on it
	if len(evicted) > 0 {
		go closeEvicted(evicted)
	}
	span.SetAttributes(attribute.Int("delivered", report.Delivered), attribute.Int("dropped", report.Dropped))
	return report
}
