package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footixhq/footix-manager/internal/standings"
)

// StandingRepo implements store.StandingRepository with sqlx. Counters are
// maintained here; ordering happens in the standings package.
type StandingRepo struct {
	db *sqlx.DB
}

// NewStandingRepo returns a new StandingRepo.
func NewStandingRepo(db *sqlx.DB) *StandingRepo {
	return &StandingRepo{db: db}
}

func (r *StandingRepo) Upsert(ctx context.Context, competitionID string, row standings.Row) error {
	query := `INSERT INTO standings (competition_id, club_id, group_label, points, wins, draws, losses, goals_for, goals_against)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	           ON CONFLICT (competition_id, club_id) DO UPDATE SET
	             group_label = EXCLUDED.group_label,
	             points = EXCLUDED.points,
	             wins = EXCLUDED.wins,
	             draws = EXCLUDED.draws,
	             losses = EXCLUDED.losses,
	             goals_for = EXCLUDED.goals_for,
	             goals_against = EXCLUDED.goals_against`
	_, err := r.db.ExecContext(ctx, query,
		competitionID, row.ClubID, row.Group, row.Points, row.Wins, row.Draws, row.Losses,
		row.GoalsFor, row.GoalsAgainst,
	)
	if err != nil {
		return fmt.Errorf("upserting standing: %w", err)
	}
	return nil
}

func (r *StandingRepo) ListByCompetition(ctx context.Context, competitionID string) ([]standings.Row, error) {
	var rows []standings.Row
	err := r.db.SelectContext(ctx, &rows,
		`SELECT club_id, group_label, points, wins, draws, losses, goals_for, goals_against
		 FROM standings WHERE competition_id = $1 ORDER BY club_id ASC`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("listing standings: %w", err)
	}
	return rows, nil
}

func (r *StandingRepo) ApplyResult(ctx context.Context, competitionID, clubID string, points, goalsFor, goalsAgainst int) error {
	win, draw, loss := 0, 0, 0
	switch points {
	case 3:
		win = 1
	case 1:
		draw = 1
	default:
		loss = 1
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE standings SET
		   points = points + $1,
		   wins = wins + $2,
		   draws = draws + $3,
		   losses = losses + $4,
		   goals_for = goals_for + $5,
		   goals_against = goals_against + $6
		 WHERE competition_id = $7 AND club_id = $8`,
		points, win, draw, loss, goalsFor, goalsAgainst, competitionID, clubID,
	)
	if err != nil {
		return fmt.Errorf("applying result: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("standing row for club %s in competition %s not found", clubID, competitionID)
	}
	return nil
}
