package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/store"
)

const clubColumns = `id, server_id, owner_id, name, balance, salary_cap, reputation, logo_url, created_at, updated_at`

// ClubRepo implements store.ClubRepository with database/sql.
type ClubRepo struct {
	db  *sql.DB
	clk clock.Clock
}

// NewClubRepo returns a new ClubRepo.
func NewClubRepo(db *sql.DB, clk clock.Clock) *ClubRepo {
	return &ClubRepo{db: db, clk: clk}
}

func scanClub(row interface{ Scan(...any) error }, c *store.Club) error {
	return row.Scan(&c.ID, &c.ServerID, &c.OwnerID, &c.Name, &c.Balance, &c.SalaryCap,
		&c.Reputation, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ClubRepo) Create(ctx context.Context, c *store.Club) error {
	now := r.clk.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return r.db.QueryRowContext(ctx,
		`INSERT INTO clubs (server_id, owner_id, name, balance, salary_cap, reputation, logo_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		c.ServerID, c.OwnerID, c.Name, c.Balance, c.SalaryCap, c.Reputation, c.LogoURL, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *ClubRepo) GetByID(ctx context.Context, id string) (*store.Club, error) {
	var c store.Club
	row := r.db.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = $1`, id)
	if err := scanClub(row, &c); err != nil {
		return nil, fmt.Errorf("getting club: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE club_id = $1 ORDER BY overall DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p store.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, fmt.Errorf("scanning roster player: %w", err)
		}
		c.Roster = append(c.Roster, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roster: %w", err)
	}
	return &c, nil
}

func (r *ClubRepo) ListByServer(ctx context.Context, serverID string) ([]store.Club, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clubColumns+` FROM clubs WHERE server_id = $1 ORDER BY reputation DESC`, serverID)
	if err != nil {
		return nil, fmt.Errorf("listing clubs: %w", err)
	}
	defer rows.Close()

	var clubs []store.Club
	for rows.Next() {
		var c store.Club
		if err := scanClub(rows, &c); err != nil {
			return nil, fmt.Errorf("scanning club: %w", err)
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
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
