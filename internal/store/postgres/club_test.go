package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/store"
	"github.com/footixhq/footix-manager/internal/store/postgres"
)

func TestClubRepo(t *testing.T) {
	db := newTestDB(t)
	clk := clock.NewMock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	repo := postgres.NewClubRepo(db, clk)
	ctx := context.Background()

	t.Run("create and get with roster", func(t *testing.T) {
		club := &store.Club{
			ServerID:  "s1",
			OwnerID:   "owner-1",
			Name:      "FC Test",
			Balance:   5_000_000,
			SalaryCap: 1_000_000,
		}
		if err := repo.Create(ctx, club); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if club.ID == "" {
			t.Fatal("Create() did not set ID")
		}

		seedPlayer(t, db, club.ID, 40_000)
		seedPlayer(t, db, club.ID, 60_000)

		got, err := repo.GetByID(ctx, club.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Name != "FC Test" || got.Balance != 5_000_000 {
			t.Errorf("got club %+v", got)
		}
		if len(got.Roster) != 2 {
			t.Errorf("roster has %d players, want 2", len(got.Roster))
		}
	})

	t.Run("list by server", func(t *testing.T) {
		seedClub(t, db, "Other FC", 0)
		clubs, err := repo.ListByServer(ctx, "s1")
		if err != nil {
			t.Fatalf("ListByServer() error = %v", err)
		}
		if len(clubs) < 2 {
			t.Errorf("listed %d clubs, want at least 2", len(clubs))
		}
	})

	t.Run("adjust balance", func(t *testing.T) {
		id := seedClub(t, db, "Balance FC", 100_000)

		if err := repo.AdjustBalance(ctx, id, -40_000); err != nil {
			t.Fatalf("AdjustBalance() error = %v", err)
		}
		if got := clubBalance(t, db, id); got != 60_000 {
			t.Errorf("balance = %v, want 60000", got)
		}

		// Driving the balance negative is refused.
		if err := repo.AdjustBalance(ctx, id, -100_000); err == nil {
			t.Error("AdjustBalance() expected error for overdraft")
		}
		if got := clubBalance(t, db, id); got != 60_000 {
			t.Errorf("balance changed after refused adjustment: %v", got)
		}
	})
}
