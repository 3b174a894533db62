package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/store"
)

// TransferRepo implements store.TransferRepository. Both operations run as
// single transactions so money and players never move independently.
type TransferRepo struct {
	db  *sqlx.DB
	clk clock.Clock
}

// NewTransferRepo returns a new TransferRepo.
func NewTransferRepo(db *sqlx.DB, clk clock.Clock) *TransferRepo {
	return &TransferRepo{db: db, clk: clk}
}

func (r *TransferRepo) ExecuteTransfer(ctx context.Context, t store.Transfer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clk.Now().UTC()

	result, err := tx.ExecContext(ctx,
		`UPDATE clubs SET balance = balance - $1, updated_at = $2 WHERE id = $3 AND balance >= $1`,
		t.Fee, now, t.ToClubID,
	)
	if err != nil {
		return fmt.Errorf("debiting buyer: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("buyer club %s not found or insufficient balance", t.ToClubID)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE clubs SET balance = balance + $1, updated_at = $2 WHERE id = $3`,
		t.Fee, now, t.FromClubID,
	); err != nil {
		return fmt.Errorf("crediting seller: %w", err)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE players SET club_id = $1, salary = $2, contract_start = $3, updated_at = $3
		 WHERE id = $4 AND club_id = $5`,
		t.ToClubID, t.NewSalary, now, t.PlayerID, t.FromClubID,
	)
	if err != nil {
		return fmt.Errorf("moving player: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("player %s not found at club %s", t.PlayerID, t.FromClubID)
	}

	return tx.Commit()
}

func (r *TransferRepo) DebitSalaries(ctx context.Context) (map[string]float64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	type debitRow struct {
		ClubID string  `db:"club_id"`
		Total  float64 `db:"total"`
	}
	var totals []debitRow
	if err := tx.SelectContext(ctx, &totals,
		`SELECT club_id, COALESCE(SUM(salary), 0) AS total
		 FROM players WHERE club_id IS NOT NULL GROUP BY club_id`); err != nil {
		return nil, fmt.Errorf("summing salaries: %w", err)
	}

	now := r.clk.Now().UTC()
	debits := make(map[string]float64, len(totals))
	for _, row := range totals {
		// Clubs may go negative on payroll; the buffer rule only guards
		// market spending.
		if _, err := tx.ExecContext(ctx,
			`UPDATE clubs SET balance = balance - $1, updated_at = $2 WHERE id = $3`,
			row.Total, now, row.ClubID,
		); err != nil {
			return nil, fmt.Errorf("debiting club %s: %w", row.ClubID, err)
		}
		debits[row.ClubID] = row.Total
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing salary run: %w", err)
	}
	return debits, nil
}
