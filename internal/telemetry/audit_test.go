package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	routingKey string
	events     []any
}

func (p *capturePublisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.routingKey = routingKey
	p.events = append(p.events, event)
	return nil
}

func TestAuditEmitterPublishesEnvelope(t *testing.T) {
	pub := &capturePublisher{}
	emitter := NewAuditEmitter(pub, "audit.connext", "connext-backend", "test")
	userID := 7

	emitter.Emit(context.Background(), "INFO", "group created", "req-1", &userID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "audit.connext", pub.routingKey)
	envelope, ok := pub.events[0].(AuditEnvelope)
	require.True(t, ok)
	assert.Equal(t, "audit_log", envelope.EventType)
	assert.Equal(t, "connext-backend", envelope.Service)
	assert.Equal(t, "req-1", envelope.RequestID)
	assert.Equal(t, 7, *envelope.UserID)
	assert.Equal(t, "group created", envelope.Payload.Text)
}

func TestNilAuditEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "x", "req", nil)
	})
}

func TestTracingDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "connext-backend", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Empty(t, TraceID(context.Background()))
}
