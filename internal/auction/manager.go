package auction

import (
	"context"
	"encoding/json"
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

// Notifier pushes auction change notifications to viewing clients. Delivery
// is best effort; a failed publish never fails the operation that caused it.
type Notifier interface {
	AuctionChanged(ctx context.Context, snap Snapshot) error
}

// Archiver ships domain events to long-term storage outside the hot path.
type Archiver interface {
	Archive(ctx context.Context, e event.Event) error
}

// Manager coordinates auction lifecycle, persistence and fan-out.
type Manager struct {
	mu       sync.RWMutex
	auctions map[string]*Auction

	rules     market.Rules
	events    event.Store
	clubs     store.ClubRepository
	players   store.PlayerRepository
	records   store.AuctionRepository
	transfers store.TransferRepository
	notifier  Notifier
	archiver  Archiver
	logger    *slog.Logger
	tracer    trace.Tracer
	tp        trace.TracerProvider
	clock     clock.Clock
}

// Deps bundles the manager's collaborators. Notifier and Archiver may be
// nil; the corresponding fan-out is then skipped.
type Deps struct {
	Rules     market.Rules
	Events    event.Store
	Clubs     store.ClubRepository
	Players   store.PlayerRepository
	Records   store.AuctionRepository
	Transfers store.TransferRepository
	Notifier  Notifier
	Archiver  Archiver
	Logger    *slog.Logger
	TP        trace.TracerProvider
	Clock     clock.Clock
}

// NewManager creates a new auction Manager.
func NewManager(d Deps) *Manager {
	return &Manager{
		auctions:  make(map[string]*Auction),
		rules:     d.Rules,
		events:    d.Events,
		clubs:     d.Clubs,
		players:   d.Players,
		records:   d.Records,
		transfers: d.Transfers,
		notifier:  d.Notifier,
		archiver:  d.Archiver,
		logger:    d.Logger,
		tracer:    d.TP.Tracer("github.com/footixhq/footix-manager/internal/auction"),
		tp:        d.TP,
		clock:     d.Clock,
	}
}

// Schedule creates a new auction for a player owned by the seller club.
func (m *Manager) Schedule(ctx context.Context, playerID, sellerClubID string, startingBid float64, startsAt time.Time, countdown time.Duration) (Snapshot, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Schedule",
		trace.WithAttributes(
			attribute.String("player_id", playerID),
			attribute.String("seller_club_id", sellerClubID),
		),
	)
	defer span.End()

	player, err := m.players.GetByID(ctx, playerID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("looking up player: %w", err)
	}
	if player.ClubID == nil || *player.ClubID != sellerClubID {
		return Snapshot{}, fmt.Errorf("player %s does not belong to club %s", playerID, sellerClubID)
	}

	id := uuid.NewString()
	a := New(id, playerID, sellerClubID, startingBid, startsAt, countdown, m.tp, m.clock)

	record := &store.Auction{
		ID:           id,
		PlayerID:     playerID,
		SellerClubID: sellerClubID,
		Status:       store.AuctionScheduled,
		StartingBid:  startingBid,
		StartsAt:     startsAt,
		CountdownSec: int(countdown.Seconds()),
	}
	if err := m.records.Create(ctx, record); err != nil {
		return Snapshot{}, fmt.Errorf("persisting auction record: %w", err)
	}
	if err := m.events.Append(ctx, a.PendingEvents()...); err != nil {
		return Snapshot{}, fmt.Errorf("persisting scheduled event: %w", err)
	}

	m.mu.Lock()
	m.auctions[id] = a
	m.mu.Unlock()

	snap := a.Snapshot()
	m.notify(ctx, snap)

	m.logger.InfoContext(ctx, "auction scheduled",
		slog.String("auction_id", id),
		slog.String("player_id", playerID),
		slog.Time("starts_at", startsAt),
	)
	return snap, nil
}

// PlaceBid validates and records a bid on an active auction. The BidCheck
// is returned for rejected bids too so handlers can surface the failed and
// advisory rules.
func (m *Manager) PlaceBid(ctx context.Context, auctionID, clubID string, amount float64) (market.BidCheck, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.PlaceBid",
		trace.WithAttributes(
			attribute.String("auction_id", auctionID),
			attribute.String("club_id", clubID),
			attribute.Float64("amount", amount),
		),
	)
	defer span.End()

	a, err := m.get(ctx, auctionID)
	if err != nil {
		return market.BidCheck{}, err
	}

	club, err := m.clubs.GetByID(ctx, clubID)
	if err != nil {
		return market.BidCheck{}, fmt.Errorf("looking up club: %w", err)
	}
	player, err := m.players.GetByID(ctx, a.PlayerID)
	if err != nil {
		return market.BidCheck{}, fmt.Errorf("looking up player: %w", err)
	}

	check, err := a.PlaceBid(ctx, m.rules, *club, *player, amount)
	if err != nil {
		return check, err
	}

	pending := a.PendingEvents()
	if err := m.events.Append(ctx, pending...); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist bid event", slog.Any("error", err))
	}
	if err := m.records.RecordBid(ctx, auctionID, clubID, amount); err != nil {
		m.logger.ErrorContext(ctx, "failed to update auction record", slog.Any("error", err))
	}

	m.notify(ctx, a.Snapshot())
	m.archive(ctx, pending)

	return check, nil
}

// PreviewBid runs the market rules without touching the auction. Handlers
// expose it so the UI can show rule outcomes before a club commits.
func (m *Manager) PreviewBid(ctx context.Context, auctionID, clubID string, amount float64) (market.BidCheck, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.PreviewBid",
		trace.WithAttributes(attribute.String("auction_id", auctionID)),
	)
	defer span.End()

	a, err := m.get(ctx, auctionID)
	if err != nil {
		return market.BidCheck{}, err
	}
	club, err := m.clubs.GetByID(ctx, clubID)
	if err != nil {
		return market.BidCheck{}, fmt.Errorf("looking up club: %w", err)
	}
	player, err := m.players.GetByID(ctx, a.PlayerID)
	if err != nil {
		return market.BidCheck{}, fmt.Errorf("looking up player: %w", err)
	}

	return m.rules.ValidateBid(*club, *player, amount, a.History()), nil
}

// Cancel cancels a scheduled or active auction.
func (m *Manager) Cancel(ctx context.Context, auctionID string) error {
	ctx, span := m.tracer.Start(ctx, "Manager.Cancel",
		trace.WithAttributes(attribute.String("auction_id", auctionID)),
	)
	defer span.End()

	a, err := m.get(ctx, auctionID)
	if err != nil {
		return err
	}
	if err := a.Cancel(ctx); err != nil {
		return err
	}

	now := m.clock.Now().UTC()
	if err := m.events.Append(ctx, a.PendingEvents()...); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist cancel event", slog.Any("error", err))
	}
	if err := m.records.SetStatus(ctx, auctionID, "", store.AuctionCancelled, &now); err != nil {
		m.logger.ErrorContext(ctx, "failed to update auction record", slog.Any("error", err))
	}

	m.notify(ctx, a.Snapshot())

	m.mu.Lock()
	delete(m.auctions, auctionID)
	m.mu.Unlock()
	return nil
}

// Snapshot returns the current view of one auction. Closed auctions are
// served too, rebuilt from their event history.
func (m *Manager) Snapshot(ctx context.Context, auctionID string) (Snapshot, error) {
	a, err := m.get(ctx, auctionID)
	if err != nil {
		return Snapshot{}, err
	}
	return a.Snapshot(), nil
}

// List returns snapshots of all open (scheduled or active) auctions,
// including ones persisted through other replicas.
func (m *Manager) List(ctx context.Context) []Snapshot {
	m.refresh(ctx)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Snapshot, 0, len(m.auctions))
	for _, a := range m.auctions {
		out = append(out, a.Snapshot())
	}
	return out
}

// Stats returns display analytics for one auction's bid sequence.
func (m *Manager) Stats(ctx context.Context, auctionID string) (market.Stats, error) {
	a, err := m.get(ctx, auctionID)
	if err != nil {
		return market.Stats{}, err
	}
	return market.Statistics(a.History()), nil
}

// NextBid returns the suggested next bid amount for the UI.
func (m *Manager) NextBid(ctx context.Context, auctionID string) (float64, error) {
	a, err := m.get(ctx, auctionID)
	if err != nil {
		return 0, err
	}
	snap := a.Snapshot()
	current := snap.CurrentBid
	if current == 0 {
		current = snap.StartingBid
	}
	return m.rules.NextBidAmount(current, len(snap.Bids)), nil
}

// ActivateDue opens every scheduled auction whose start time has passed.
func (m *Manager) ActivateDue(ctx context.Context) int {
	ctx, span := m.tracer.Start(ctx, "Manager.ActivateDue")
	defer span.End()

	now := m.clock.Now().UTC()
	activated := 0
	for _, a := range m.tracked() {
		if !a.Due(now) {
			continue
		}
		if err := a.Activate(ctx); err != nil {
			continue
		}
		if err := m.events.Append(ctx, a.PendingEvents()...); err != nil {
			m.logger.ErrorContext(ctx, "failed to persist activation event", slog.Any("error", err))
		}
		if err := m.records.SetStatus(ctx, a.ID, store.AuctionScheduled, store.AuctionActive, nil); err != nil {
			m.logger.ErrorContext(ctx, "failed to update auction record", slog.Any("error", err))
		}
		m.notify(ctx, a.Snapshot())
		activated++
	}
	return activated
}

// FinalizeExpired completes every active auction whose countdown has run
// out. A winning bid triggers the transactional transfer: player moves to
// the winner, fee moves to the seller, and the new contract salary is the
// bid's projected salary.
func (m *Manager) FinalizeExpired(ctx context.Context) int {
	ctx, span := m.tracer.Start(ctx, "Manager.FinalizeExpired")
	defer span.End()

	now := m.clock.Now().UTC()
	finalized := 0
	for _, a := range m.tracked() {
		if !a.Expired(now) {
			continue
		}
		if err := m.finalize(ctx, a); err != nil {
			m.logger.ErrorContext(ctx, "failed to finalize auction",
				slog.String("auction_id", a.ID),
				slog.Any("error", err),
			)
			continue
		}
		finalized++
	}
	return finalized
}

func (m *Manager) finalize(ctx context.Context, a *Auction) error {
	player, err := m.players.GetByID(ctx, a.PlayerID)
	if err != nil {
		return fmt.Errorf("looking up player: %w", err)
	}

	// Settle the transfer before the auction is marked completed. A failed
	// transaction (the winner's balance may have dropped since bid time)
	// leaves the auction active so the next sweep retries it.
	winner := a.HighestBid()
	var transfer *store.Transfer
	if winner != nil {
		transfer = &store.Transfer{
			PlayerID:   a.PlayerID,
			FromClubID: a.SellerClubID,
			ToClubID:   winner.ClubID,
			Fee:        winner.Amount,
			NewSalary:  market.ProjectedSalary(winner.Amount, player.MarketMultiplier),
		}
		if err := m.transfers.ExecuteTransfer(ctx, *transfer); err != nil {
			return fmt.Errorf("executing transfer: %w", err)
		}
	}

	if _, err := a.Complete(ctx); err != nil {
		return err
	}

	pending := a.PendingEvents()
	if transfer != nil {
		data, _ := json.Marshal(event.TransferCompletedData{
			PlayerID:   transfer.PlayerID,
			FromClubID: transfer.FromClubID,
			ToClubID:   transfer.ToClubID,
			Fee:        transfer.Fee,
			NewSalary:  transfer.NewSalary,
		})
		pending = append(pending, event.Event{
			AggregateID: a.ID,
			Type:        event.TransferCompleted,
			Data:        data,
			Version:     pending[len(pending)-1].Version + 1,
		})
	}
	if err := m.events.Append(ctx, pending...); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist completion event", slog.Any("error", err))
	}

	now := m.clock.Now().UTC()
	if err := m.records.SetStatus(ctx, a.ID, store.AuctionActive, store.AuctionCompleted, &now); err != nil {
		m.logger.ErrorContext(ctx, "failed to update auction record", slog.Any("error", err))
	}

	if winner != nil {
		m.logger.InfoContext(ctx, "auction completed",
			slog.String("auction_id", a.ID),
			slog.String("winner_club_id", winner.ClubID),
			slog.Float64("fee", winner.Amount),
		)
	} else {
		m.logger.InfoContext(ctx, "auction expired without bids", slog.String("auction_id", a.ID))
	}

	m.notify(ctx, a.Snapshot())
	m.archive(ctx, pending)

	m.mu.Lock()
	delete(m.auctions, a.ID)
	m.mu.Unlock()
	return nil
}

// Run drives activation and finalization on a ticker until ctx is done.
// Only the leader replica calls this.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refresh(ctx)
			m.ActivateDue(ctx)
			m.FinalizeExpired(ctx)
		}
	}
}

// RecoverOpen replays all auctions from the event store and loads any that
// are still scheduled or active into the in-memory map. Used on leader
// startup to restore state after a failover.
func (m *Manager) RecoverOpen(ctx context.Context) (int, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.RecoverOpen")
	defer span.End()

	scheduled, err := m.events.LoadByType(ctx, event.AuctionScheduled)
	if err != nil {
		return 0, fmt.Errorf("loading scheduled events: %w", err)
	}

	seen := make(map[string]struct{}, len(scheduled))
	var ids []string
	for _, e := range scheduled {
		if _, ok := seen[e.AggregateID]; !ok {
			seen[e.AggregateID] = struct{}{}
			ids = append(ids, e.AggregateID)
		}
	}

	recovered := 0
	for _, id := range ids {
		history, loadErr := m.events.Load(ctx, id)
		if loadErr != nil {
			m.logger.WarnContext(ctx, "failed to load auction history",
				slog.String("auction_id", id),
				slog.Any("error", loadErr),
			)
			continue
		}
		a, replayErr := Replay(history, m.tp, m.clock)
		if replayErr != nil {
			m.logger.WarnContext(ctx, "failed to replay auction during recovery",
				slog.String("auction_id", id),
				slog.Any("error", replayErr),
			)
			continue
		}
		if a.Status != store.AuctionScheduled && a.Status != store.AuctionActive {
			continue
		}

		m.mu.Lock()
		m.auctions[id] = a
		m.mu.Unlock()
		recovered++

		m.logger.InfoContext(ctx, "recovered open auction",
			slog.String("auction_id", id),
			slog.String("status", a.Status),
			slog.Int("bids", len(a.Bids)),
		)
	}

	m.logger.InfoContext(ctx, "auction recovery complete",
		slog.Int("total_scheduled", len(ids)),
		slog.Int("recovered", recovered),
	)
	return recovered, nil
}

// get returns the tracked aggregate, falling back to an event-store replay
// so any replica can serve auctions that were scheduled through another one.
func (m *Manager) get(ctx context.Context, auctionID string) (*Auction, error) {
	m.mu.RLock()
	a, ok := m.auctions[auctionID]
	m.mu.RUnlock()
	if ok {
		return a, nil
	}
	return m.hydrate(ctx, auctionID)
}

// hydrate rebuilds an auction from its event history. Open auctions are
// added to the tracked map; closed ones are returned without tracking.
func (m *Manager) hydrate(ctx context.Context, auctionID string) (*Auction, error) {
	history, err := m.events.Load(ctx, auctionID)
	if err != nil || len(history) == 0 {
		return nil, fmt.Errorf("auction %s not found", auctionID)
	}
	a, err := Replay(history, m.tp, m.clock)
	if err != nil {
		return nil, fmt.Errorf("replaying auction %s: %w", auctionID, err)
	}
	if a.Status != store.AuctionScheduled && a.Status != store.AuctionActive {
		return a, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.auctions[auctionID]; ok {
		return cur, nil
	}
	m.auctions[auctionID] = a
	return a, nil
}

// refresh pulls open auction records persisted through other replicas into
// the tracked map so the leader's sweeps and List cover them.
func (m *Manager) refresh(ctx context.Context) {
	for _, status := range []string{store.AuctionScheduled, store.AuctionActive} {
		records, err := m.records.ListByStatus(ctx, status)
		if err != nil {
			m.logger.WarnContext(ctx, "failed to list open auctions",
				slog.String("status", status),
				slog.Any("error", err),
			)
			continue
		}
		for _, rec := range records {
			m.mu.RLock()
			_, ok := m.auctions[rec.ID]
			m.mu.RUnlock()
			if ok {
				continue
			}
			if _, err := m.hydrate(ctx, rec.ID); err != nil {
				m.logger.WarnContext(ctx, "failed to hydrate auction",
					slog.String("auction_id", rec.ID),
					slog.Any("error", err),
				)
			}
		}
	}
}

func (m *Manager) tracked() []*Auction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Auction, 0, len(m.auctions))
	for _, a := range m.auctions {
		out = append(out, a)
	}
	return out
}

func (m *Manager) notify(ctx context.Context, snap Snapshot) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.AuctionChanged(ctx, snap); err != nil {
		m.logger.WarnContext(ctx, "auction change notification failed",
			slog.String("auction_id", snap.ID),
			slog.Any("error", err),
		)
	}
}

func (m *Manager) archive(ctx context.Context, events []event.Event) {
	if m.archiver == nil {
		return
	}
	for _, e := range events {
		if err := m.archiver.Archive(ctx, e); err != nil {
			m.logger.WarnContext(ctx, "event archival failed",
				slog.String("aggregate_id", e.AggregateID),
				slog.Any("error", err),
			)
		}
	}
}
