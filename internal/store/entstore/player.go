package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/store"
)

const playerColumns = `id, club_id, name, position, overall, potential, nationality, age,
	market_multiplier, salary, clause_value, contract_start, contract_end, created_at, updated_at`

// PlayerRepo implements store.PlayerRepository with database/sql.
type PlayerRepo struct {
	db  *sql.DB
	clk clock.Clock
}

// NewPlayerRepo returns a new PlayerRepo.
func NewPlayerRepo(db *sql.DB, clk clock.Clock) *PlayerRepo {
	return &PlayerRepo{db: db, clk: clk}
}

func scanPlayer(row interface{ Scan(...any) error }, p *store.Player) error {
	return row.Scan(&p.ID, &p.ClubID, &p.Name, &p.Position, &p.Overall, &p.Potential,
		&p.Nationality, &p.Age, &p.MarketMultiplier, &p.Salary, &p.ClauseValue,
		&p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PlayerRepo) Create(ctx context.Context, p *store.Player) error {
	now := r.clk.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return r.db.QueryRowContext(ctx,
		`INSERT INTO players (club_id, name, position, overall, potential, nationality, age,
		                      market_multiplier, salary, clause_value, contract_start, contract_end,
		                      created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`,
		p.ClubID, p.Name, p.Position, p.Overall, p.Potential, p.Nationality, p.Age,
		p.MarketMultiplier, p.Salary, p.ClauseValue, p.StartDate, p.EndDate,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*store.Player, error) {
	var p store.Player
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	if err := scanPlayer(row, &p); err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepo) ListByClub(ctx context.Context, clubID string) ([]store.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE club_id = $1 ORDER BY overall DESC`, clubID)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []store.Player
	for rows.Next() {
		var p store.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
