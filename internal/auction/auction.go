// Package auction owns the auction aggregate and its lifecycle. Bids are
// gated by the market rules before they mutate anything; the aggregate holds
// serialized access to one auction's state (the re-architected stand-in for
// the stored procedures the original game delegated to).
package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/event"
	"github.com/footixhq/footix-manager/internal/market"
	"github.com/footixhq/footix-manager/internal/store"
)

// Errors returned by auction operations. Rule violations are not errors:
// they come back as a market.BidCheck alongside ErrBidRejected so callers
// can show which rule failed.
var (
	ErrNotScheduled = errors.New("auction is not scheduled")
	ErrNotActive    = errors.New("auction is not active")
	ErrClosed       = errors.New("auction is already closed")
	ErrBidTooLow    = errors.New("bid does not exceed current bid")
	ErrBidRejected  = errors.New("bid rejected by market rules")
)

// Auction is the aggregate root for a single player sale.
// It is safe for concurrent use.
type Auction struct {
	mu sync.RWMutex

	ID           string
	PlayerID     string
	SellerClubID string
	StartingBid  float64
	Status       string
	StartsAt     time.Time
	Countdown    time.Duration
	ActivatedAt  time.Time
	Bids         []store.Bid
	Version      int

	events []event.Event
	tracer trace.Tracer
	clock  clock.Clock
}

// New creates a scheduled auction and records its scheduled event.
func New(id, playerID, sellerClubID string, startingBid float64, startsAt time.Time, countdown time.Duration, tp trace.TracerProvider, clk clock.Clock) *Auction {
	a := &Auction{
		ID:           id,
		PlayerID:     playerID,
		SellerClubID: sellerClubID,
		StartingBid:  startingBid,
		Status:       store.AuctionScheduled,
		StartsAt:     startsAt,
		Countdown:    countdown,
		tracer:       tp.Tracer("github.com/footixhq/footix-manager/internal/auction"),
		clock:        clk,
	}

	data, _ := json.Marshal(event.AuctionScheduledData{
		PlayerID:     playerID,
		SellerClubID: sellerClubID,
		StartingBid:  startingBid,
		StartsAt:     startsAt,
		CountdownSec: int(countdown.Seconds()),
	})
	a.recordEvent(event.AuctionScheduled, data)
	return a
}

// Activate opens the auction for bidding and starts the countdown.
func (a *Auction) Activate(ctx context.Context) error {
	_, span := a.tracer.Start(ctx, "Auction.Activate",
		trace.WithAttributes(attribute.String("auction.id", a.ID)),
	)
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Status != store.AuctionScheduled {
		return ErrNotScheduled
	}
	a.Status = store.AuctionActive
	a.ActivatedAt = a.clock.Now().UTC()
	a.recordEvent(event.AuctionActivated, json.RawMessage(`{}`))
	return nil
}

// PlaceBid validates and records a bid. The returned BidCheck always carries
// the full per-rule outcome, including the advisory salary-cap projection:
// a cap warning alone never blocks the bid.
func (a *Auction) PlaceBid(ctx context.Context, rules market.Rules, club store.Club, player store.Player, amount float64) (market.BidCheck, error) {
	ctx, span := a.tracer.Start(ctx, "Auction.PlaceBid",
		trace.WithAttributes(
			attribute.String("auction.id", a.ID),
			attribute.String("club.id", club.ID),
			attribute.Float64("bid.amount", amount),
		),
	)
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Status != store.AuctionActive {
		return market.BidCheck{}, ErrNotActive
	}
	if amount < a.StartingBid {
		return market.BidCheck{}, ErrBidTooLow
	}
	if high := a.highestBid(); high != nil && amount <= high.Amount {
		return market.BidCheck{}, ErrBidTooLow
	}

	check := rules.ValidateBid(club, player, amount, a.Bids)
	if !check.Accepted() {
		return check, ErrBidRejected
	}

	now := a.clock.Now().UTC()
	a.Bids = append(a.Bids, store.Bid{
		ID:        uuid.NewString(),
		AuctionID: a.ID,
		ClubID:    club.ID,
		Amount:    amount,
		CreatedAt: now,
	})

	data, _ := json.Marshal(event.BidPlacedData{
		ClubID: club.ID,
		Amount: amount,
	})
	a.recordEvent(event.AuctionBidPlaced, data)

	slog.InfoContext(ctx, "bid placed",
		slog.String("auction_id", a.ID),
		slog.String("club_id", club.ID),
		slog.Float64("amount", amount),
	)
	return check, nil
}

// Complete closes the auction, returning the winning bid or nil when it
// expired without bids.
func (a *Auction) Complete(ctx context.Context) (*store.Bid, error) {
	_, span := a.tracer.Start(ctx, "Auction.Complete",
		trace.WithAttributes(attribute.String("auction.id", a.ID)),
	)
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Status != store.AuctionActive {
		return nil, ErrNotActive
	}
	a.Status = store.AuctionCompleted

	winner := a.highestBid()
	if winner != nil {
		data, _ := json.Marshal(event.AuctionCompletedData{
			WinnerClubID: winner.ClubID,
			Amount:       winner.Amount,
		})
		a.recordEvent(event.AuctionCompleted, data)
		return winner, nil
	}

	a.recordEvent(event.AuctionCompleted, json.RawMessage(`{}`))
	return nil, nil
}

// Cancel cancels a scheduled or active auction.
func (a *Auction) Cancel(ctx context.Context) error {
	_, span := a.tracer.Start(ctx, "Auction.Cancel",
		trace.WithAttributes(attribute.String("auction.id", a.ID)),
	)
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Status != store.AuctionScheduled && a.Status != store.AuctionActive {
		return ErrClosed
	}
	a.Status = store.AuctionCancelled
	a.recordEvent(event.AuctionCancelled, json.RawMessage(`{}`))
	return nil
}

// Expired reports whether an active auction's countdown has run out.
func (a *Auction) Expired(now time.Time) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Status == store.AuctionActive && !now.Before(a.ActivatedAt.Add(a.Countdown))
}

// Due reports whether a scheduled auction has reached its start time.
func (a *Auction) Due(now time.Time) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Status == store.AuctionScheduled && !now.Before(a.StartsAt)
}

// HighestBid returns the current highest bid.
func (a *Auction) HighestBid() *store.Bid {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.highestBid()
}

// Bids are append-only with strictly increasing amounts, so the highest is
// always the last.
func (a *Auction) highestBid() *store.Bid {
	if len(a.Bids) == 0 {
		return nil
	}
	return &a.Bids[len(a.Bids)-1]
}

// History returns a copy of the bid sequence.
func (a *Auction) History() []store.Bid {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]store.Bid, len(a.Bids))
	copy(out, a.Bids)
	return out
}

// Snapshot returns a plain-data view of the auction for display and
// change notifications.
func (a *Auction) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Snapshot{
		ID:           a.ID,
		PlayerID:     a.PlayerID,
		SellerClubID: a.SellerClubID,
		Status:       a.Status,
		StartingBid:  a.StartingBid,
		StartsAt:     a.StartsAt,
		CountdownSec: int(a.Countdown.Seconds()),
		Bids:         make([]store.Bid, len(a.Bids)),
	}
	copy(snap.Bids, a.Bids)
	if high := a.highestBid(); high != nil {
		snap.CurrentBid = high.Amount
		snap.CurrentBidderID = high.ClubID
	}
	return snap
}

// Snapshot is the plain-data auction view sent to clients and the realtime
// channel.
type Snapshot struct {
	ID              string      `json:"id"`
	PlayerID        string      `json:"player_id"`
	SellerClubID    string      `json:"seller_club_id"`
	Status          string      `json:"status"`
	StartingBid     float64     `json:"starting_bid"`
	CurrentBid      float64     `json:"current_bid"`
	CurrentBidderID string      `json:"current_bidder_id,omitempty"`
	StartsAt        time.Time   `json:"starts_at"`
	CountdownSec    int         `json:"countdown_sec"`
	Bids            []store.Bid `json:"bids"`
}

// PendingEvents returns uncommitted events and clears the buffer.
func (a *Auction) PendingEvents() []event.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	events := a.events
	a.events = nil
	return events
}

func (a *Auction) recordEvent(t event.Type, data json.RawMessage) {
	a.Version++
	a.events = append(a.events, event.Event{
		AggregateID: a.ID,
		Type:        t,
		Data:        data,
		Version:     a.Version,
	})
}

// Replay reconstructs an auction from its event history.
func Replay(events []event.Event, tp trace.TracerProvider, clk clock.Clock) (*Auction, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("no events to replay")
	}

	a := &Auction{
		tracer: tp.Tracer("github.com/footixhq/footix-manager/internal/auction"),
		clock:  clk,
	}
	for _, e := range events {
		switch e.Type {
		case event.AuctionScheduled:
			var d event.AuctionScheduledData
			if err := json.Unmarshal(e.Data, &d); err != nil {
				return nil, fmt.Errorf("unmarshalling scheduled event: %w", err)
			}
			a.ID = e.AggregateID
			a.PlayerID = d.PlayerID
			a.SellerClubID = d.SellerClubID
			a.StartingBid = d.StartingBid
			a.StartsAt = d.StartsAt
			a.Countdown = time.Duration(d.CountdownSec) * time.Second
			a.Status = store.AuctionScheduled

		case event.AuctionActivated:
			a.Status = store.AuctionActive
			a.ActivatedAt = e.CreatedAt

		case event.AuctionBidPlaced:
			var d event.BidPlacedData
			if err := json.Unmarshal(e.Data, &d); err != nil {
				return nil, fmt.Errorf("unmarshalling bid event: %w", err)
			}
			a.Bids = append(a.Bids, store.Bid{
				ID:        e.ID,
				AuctionID: a.ID,
				ClubID:    d.ClubID,
				Amount:    d.Amount,
				CreatedAt: e.CreatedAt,
			})

		case event.AuctionCompleted:
			a.Status = store.AuctionCompleted

		case event.AuctionCancelled:
			a.Status = store.AuctionCancelled
		}
		a.Version = e.Version
	}
	return a, nil
}
