package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/store"
	"github.com/footixhq/footix-manager/internal/store/postgres"
)

func TestAuctionRepo(t *testing.T) {
	db := newTestDB(t)
	clk := clock.NewMock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	repo := postgres.NewAuctionRepo(db, clk)
	ctx := context.Background()

	sellerID := seedClub(t, db, "Seller FC", 1_000_000)
	buyerID := seedClub(t, db, "Buyer FC", 10_000_000)
	playerID := seedPlayer(t, db, sellerID, 50_000)

	t.Run("create and get", func(t *testing.T) {
		a := &store.Auction{
			ID:           uuid.NewString(),
			PlayerID:     playerID,
			SellerClubID: sellerID,
			Status:       store.AuctionScheduled,
			StartingBid:  700_000,
			StartsAt:     clk.Now(),
			CountdownSec: 600,
		}
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := repo.GetByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Status != store.AuctionScheduled || got.StartingBid != 700_000 {
			t.Errorf("got auction %+v", got)
		}
	})

	t.Run("status transitions", func(t *testing.T) {
		id := seedAuction(t, db, playerID, sellerID, store.AuctionScheduled)

		if err := repo.SetStatus(ctx, id, store.AuctionScheduled, store.AuctionActive, nil); err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}

		// Wrong from-state is refused.
		if err := repo.SetStatus(ctx, id, store.AuctionScheduled, store.AuctionCompleted, nil); err == nil {
			t.Error("SetStatus() expected error for wrong from-state")
		}

		now := clk.Now()
		if err := repo.SetStatus(ctx, id, store.AuctionActive, store.AuctionCompleted, &now); err != nil {
			t.Fatalf("SetStatus() to completed error = %v", err)
		}
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Status != store.AuctionCompleted || got.ClosedAt == nil {
			t.Errorf("got auction %+v after completion", got)
		}
	})

	t.Run("any open state transition", func(t *testing.T) {
		id := seedAuction(t, db, playerID, sellerID, store.AuctionScheduled)
		now := clk.Now()
		if err := repo.SetStatus(ctx, id, "", store.AuctionCancelled, &now); err != nil {
			t.Fatalf("SetStatus(any open) error = %v", err)
		}
		// Terminal states are not matched by the open-state guard.
		if err := repo.SetStatus(ctx, id, "", store.AuctionActive, nil); err == nil {
			t.Error("SetStatus() expected error on closed auction")
		}
	})

	t.Run("record bid requires active auction", func(t *testing.T) {
		id := seedAuction(t, db, playerID, sellerID, store.AuctionActive)

		if err := repo.RecordBid(ctx, id, buyerID, 800_000); err != nil {
			t.Fatalf("RecordBid() error = %v", err)
		}
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.CurrentBid != 800_000 || got.CurrentBidderID == nil || *got.CurrentBidderID != buyerID {
			t.Errorf("got auction %+v after bid", got)
		}

		scheduled := seedAuction(t, db, playerID, sellerID, store.AuctionScheduled)
		if err := repo.RecordBid(ctx, scheduled, buyerID, 800_000); err == nil {
			t.Error("RecordBid() expected error for scheduled auction")
		}
	})

	t.Run("list by status", func(t *testing.T) {
		auctions, err := repo.ListByStatus(ctx, store.AuctionActive)
		if err != nil {
			t.Fatalf("ListByStatus() error = %v", err)
		}
		for _, a := range auctions {
			if a.Status != store.AuctionActive {
				t.Errorf("listed auction with status %s", a.Status)
			}
		}
	})
}
