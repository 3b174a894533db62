package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/store"
)

// AuctionRepo implements store.AuctionRepository with sqlx. The auctions
// table is a read-model projection; the event store holds the full history.
type AuctionRepo struct {
	db  *sqlx.DB
	clk clock.Clock
}

// NewAuctionRepo returns a new AuctionRepo.
func NewAuctionRepo(db *sqlx.DB, clk clock.Clock) *AuctionRepo {
	return &AuctionRepo{db: db, clk: clk}
}

func (r *AuctionRepo) Create(ctx context.Context, a *store.Auction) error {
	query := `INSERT INTO auctions (id, player_id, seller_club_id, status, starting_bid, current_bid,
	                                starts_at, countdown_sec, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	a.CreatedAt = r.clk.Now().UTC()
	a.CurrentBid = 0
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.PlayerID, a.SellerClubID, a.Status, a.StartingBid, a.CurrentBid,
		a.StartsAt, a.CountdownSec, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating auction: %w", err)
	}
	return nil
}

func (r *AuctionRepo) GetByID(ctx context.Context, id string) (*store.Auction, error) {
	var a store.Auction
	if err := r.db.GetContext(ctx, &a, `SELECT * FROM auctions WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("getting auction: %w", err)
	}
	return &a, nil
}

func (r *AuctionRepo) SetStatus(ctx context.Context, id, from, to string, closedAt *time.Time) error {
	var (
		result interface {
			RowsAffected() (int64, error)
		}
		err error
	)
	if from == "" {
		result, err = r.db.ExecContext(ctx,
			`UPDATE auctions SET status = $1, closed_at = $2 WHERE id = $3 AND status IN ('scheduled', 'active')`,
			to, closedAt, id,
		)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE auctions SET status = $1, closed_at = $2 WHERE id = $3 AND status = $4`,
			to, closedAt, id, from,
		)
	}
	if err != nil {
		return fmt.Errorf("updating auction status: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("auction %s not found or not in expected state", id)
	}
	return nil
}

func (r *AuctionRepo) RecordBid(ctx context.Context, id, bidderClubID string, amount float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET current_bid = $1, current_bidder_id = $2 WHERE id = $3 AND status = 'active'`,
		amount, bidderClubID, id,
	)
	if err != nil {
		return fmt.Errorf("recording bid: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("auction %s not found or not active", id)
	}
	return nil
}

func (r *AuctionRepo) ListByStatus(ctx context.Context, status string) ([]store.Auction, error) {
	var auctions []store.Auction
	err := r.db.SelectContext(ctx, &auctions,
		`SELECT * FROM auctions WHERE status = $1 ORDER BY starts_at ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("listing auctions: %w", err)
	}
	return auctions, nil
}
