// Package events publishes namespace lifecycle events to NATS JetStream,
// non-blocking and entirely optional: with no NATS_URL configured, a
// Publisher silently no-ops.
package events

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/synapseos/hybridstore/internal/jsonx"
	"go.uber.org/zap"
)

// Event is a single namespace lifecycle notification.
type Event struct {
	Type      string `json:"type"` // "namespace_opened", "namespace_closed", "namespace_compacted"
	Namespace string `json:"namespace"`
	Detail    string `json:"detail,omitempty"`
}

// Publisher emits Events to a NATS subject. A nil conn makes every Publish
// call a no-op.
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// Connect dials url and establishes a JetStream context. An empty url
// returns a no-op Publisher rather than an error, since NATS is optional
// infrastructure for this deployment.
func Connect(url string, logger *zap.Logger) (*Publisher, error) {
	logger = logger.Named("events")
	if url == "" {
		return &Publisher{logger: logger}, nil
	}

	conn, err := nats.Connect(url, nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("events: connect to %s: %w", url, err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: jetstream context: %w", err)
	}

	return &Publisher{conn: conn, js: js, logger: logger}, nil
}

// Publish sends ev to the "synapse.namespace.events" subject. Failures are
// logged, never returned: event delivery is best-effort and must never
// block or fail a caller's namespace operation.
func (p *Publisher) Publish(ev Event) {
	if p.js == nil {
		return
	}

	data, err := jsonx.Marshal(ev)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.Error(err))
		return
	}

	if _, err := p.js.Publish("synapse.namespace.events", data); err != nil {
		p.logger.Warn("failed to publish event", zap.String("type", ev.Type), zap.Error(err))
	}
}

// Close releases the underlying NATS connection, if any.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
