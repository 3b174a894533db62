package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/store"
)

// ClubRepo implements store.ClubRepository with sqlx.
type ClubRepo struct {
	db  *sqlx.DB
	clk clock.Clock
}

// NewClubRepo returns a new ClubRepo.
func NewClubRepo(db *sqlx.DB, clk clock.Clock) *ClubRepo {
	return &ClubRepo{db: db, clk: clk}
}

func (r *ClubRepo) Create(ctx context.Context, c *store.Club) error {
	query := `INSERT INTO clubs (server_id, owner_id, name, balance, salary_cap, reputation, logo_url, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	           RETURNING id`
	now := r.clk.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return r.db.QueryRowContext(ctx, query,
		c.ServerID, c.OwnerID, c.Name, c.Balance, c.SalaryCap, c.Reputation, c.LogoURL, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *ClubRepo) GetByID(ctx context.Context, id string) (*store.Club, error) {
	var c store.Club
	if err := r.db.GetContext(ctx, &c, `SELECT * FROM clubs WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("getting club: %w", err)
	}
	if err := r.db.SelectContext(ctx, &c.Roster,
		`SELECT * FROM players WHERE club_id = $1 ORDER BY overall DESC`, id); err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	return &c, nil
}

func (r *ClubRepo) ListByServer(ctx context.Context, serverID string) ([]store.Club, error) {
	var clubs []store.Club
	err := r.db.SelectContext(ctx, &clubs,
		`SELECT * FROM clubs WHERE server_id = $1 ORDER BY reputation DESC`, serverID)
	if err != nil {
		return nil, fmt.Errorf("listing clubs: %w", err)
	}
	return clubs, nil
}

func (r *ClubRepo) AdjustBalance(ctx context.Context, id string, delta float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE clubs SET balance = balance + $1, updated_at = $2 WHERE id = $3 AND balance + $1 >= 0`,
		delta, r.clk.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("adjusting balance: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("club %s not found or insufficient balance", id)
	}
	return nil
}
