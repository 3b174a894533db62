// Package finance handles club money flows outside the auction path:
// salary processing and the advisory cap report.
package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/footixhq/footix-manager/internal/event"
	"github.com/footixhq/footix-manager/internal/market"
	"github.com/footixhq/footix-manager/internal/store"
)

// Report is the advisory financial view of one club. CapRoom going negative
// is a warning for the UI, never an enforcement signal.
type Report struct {
	ClubID      string  `json:"club_id"`
	Balance     float64 `json:"balance"`
	SalaryTotal float64 `json:"salary_total"`
	SalaryCap   float64 `json:"salary_cap"`
	CapRoom     float64 `json:"cap_room"`
	CapExceeded bool    `json:"cap_exceeded"`
}

// Manager runs salary processing and builds club finance reports.
type Manager struct {
	clubs     store.ClubRepository
	transfers store.TransferRepository
	events    event.Store
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewManager returns a finance Manager.
func NewManager(clubs store.ClubRepository, transfers store.TransferRepository, events event.Store, logger *slog.Logger, tp trace.TracerProvider) *Manager {
	return &Manager{
		clubs:     clubs,
		transfers: transfers,
		events:    events,
		logger:    logger,
		tracer:    tp.Tracer("github.com/footixhq/footix-manager/internal/finance"),
	}
}

// Report builds the advisory finance view for one club.
func (m *Manager) Report(ctx context.Context, clubID string) (Report, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Report",
		trace.WithAttributes(attribute.String("club_id", clubID)),
	)
	defer span.End()

	club, err := m.clubs.GetByID(ctx, clubID)
	if err != nil {
		return Report{}, fmt.Errorf("looking up club: %w", err)
	}

	total := market.SalaryTotal(*club)
	return Report{
		ClubID:      club.ID,
		Balance:     club.Balance,
		SalaryTotal: total,
		SalaryCap:   club.SalaryCap,
		CapRoom:     club.SalaryCap - total,
		CapExceeded: total > club.SalaryCap,
	}, nil
}

// ProcessSalaries debits every club's roster salary total from its balance
// in one transaction and records a salaries.processed event per club.
func (m *Manager) ProcessSalaries(ctx context.Context) (map[string]float64, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.ProcessSalaries")
	defer span.End()

	debits, err := m.transfers.DebitSalaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("debiting salaries: %w", err)
	}

	for clubID, amount := range debits {
		data, _ := json.Marshal(event.SalariesProcessedData{
			ClubID: clubID,
			Amount: amount,
		})
		evt := event.Event{
			AggregateID: clubID,
			Type:        event.SalariesProcessed,
			Data:        data,
		}
		if err := m.events.Append(ctx, evt); err != nil {
			m.logger.ErrorContext(ctx, "failed to append salary event",
				slog.String("club_id", clubID),
				slog.Any("error", err),
			)
		}
	}

	m.logger.InfoContext(ctx, "salaries processed", slog.Int("clubs", len(debits)))
	return debits, nil
}

// Run processes salaries on a ticker until ctx is done. Only the leader
// replica calls this.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.ProcessSalaries(ctx); err != nil {
				m.logger.ErrorContext(ctx, "salary processing failed", slog.Any("error", err))
			}
		}
	}
}
