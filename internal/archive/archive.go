// Package archive ships domain events to NATS JetStream for long-term
// retention, off the bidding hot path.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/footixhq/footix-manager/internal/event"
)

const subjectRoot = "footix.events"

// Publisher implements auction.Archiver over a JetStream stream.
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream string
}

// New connects to NATS and ensures the archival stream exists.
func New(ctx context.Context, url, stream string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  []string{subjectRoot + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    90 * 24 * time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensuring stream %s: %w", stream, err)
	}

	return &Publisher{conn: conn, js: js, stream: stream}, nil
}

// Archive publishes one event. The subject encodes the event type, e.g.
// footix.events.auction.bid_placed, so consumers can filter.
func (p *Publisher) Archive(ctx context.Context, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	subject := subjectRoot + "." + strings.ReplaceAll(string(e.Type), " ", "_")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Close drains the NATS connection.
func (p *Publisher) Close() error {
	p.conn.Close()
	return nil
}
