// Package results bridges terminal game outcomes to whatever external system
// persists them. The engine only emits the outcome event; publishing it on a
// message bus keeps durable storage entirely outside this process.
package results

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/matchmind/memory-server/game/match"
)

// DefaultSubject is the NATS subject terminal summaries are published on.
const DefaultSubject = "memory.results"

// NATSPublisher publishes game summaries as JSON messages on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server and returns a publisher on the given
// subject. An empty subject falls back to DefaultSubject.
func Connect(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("memory-server"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	log.Printf("Publishing game results to NATS subject %q at %s", subject, url)
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishResult sends one terminal summary.
func (p *NATSPublisher) PublishResult(sum *match.Summary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	return nil
}

// Close flushes pending messages and drops the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Flush()
		p.conn.Close()
	}
}

// NopPublisher discards summaries. Used when no result consumer is
// configured; the outcome still reaches clients over their connections.
type NopPublisher struct{}

// PublishResult implements the publisher contract and does nothing.
func (NopPublisher) PublishResult(*match.Summary) error { return nil }
