// Package realtime publishes auction change notifications over Redis
// pub/sub. Viewing clients hold a subscription per auction channel; this
// side only publishes already-consistent snapshots.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/footixhq/footix-manager/internal/auction"
)

// ChannelPrefix namespaces auction channels in the shared Redis.
const ChannelPrefix = "footix:auction:"

// Publisher implements auction.Notifier over Redis pub/sub.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher wraps an existing Redis client.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// AuctionChanged publishes the snapshot on the auction's channel.
func (p *Publisher) AuctionChanged(ctx context.Context, snap auction.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshalling auction snapshot: %w", err)
	}
	if err := p.rdb.Publish(ctx, ChannelPrefix+snap.ID, payload).Err(); err != nil {
		return fmt.Errorf("publishing auction change: %w", err)
	}
	return nil
}
