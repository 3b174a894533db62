package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/store"
)

// TransferRepo implements store.TransferRepository with database/sql.
type TransferRepo struct {
	db  *sql.DB
	clk clock.Clock
}

// NewTransferRepo returns a new TransferRepo.
func NewTransferRepo(db *sql.DB, clk clock.Clock) *TransferRepo {
	return &TransferRepo{db: db, clk: clk}
}

func (r *TransferRepo) ExecuteTransfer(ctx context.Context, t store.Transfer) error {
	tx, err := r.db.BeginTx(ctx, nil)
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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT club_id, COALESCE(SUM(salary), 0)
		 FROM players WHERE club_id IS NOT NULL GROUP BY club_id`)
	if err != nil {
		return nil, fmt.Errorf("summing salaries: %w", err)
	}

	debits := make(map[string]float64)
	for rows.Next() {
		var clubID string
		var total float64
		if err := rows.Scan(&clubID, &total); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning salary total: %w", err)
		}
		debits[clubID] = total
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating salary totals: %w", err)
	}
	rows.Close()

	now := r.clk.Now().UTC()
	for clubID, total := range debits {
		if _, err := tx.ExecContext(ctx,
			`UPDATE clubs SET balance = balance - $1, updated_at = $2 WHERE id = $3`,
			total, now, clubID,
		); err != nil {
			return nil, fmt.Errorf("debiting club %s: %w", clubID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing salary run: %w", err)
	}
	return debits, nil
}
