package finance_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/footixhq/footix-manager/internal/event"
	"github.com/footixhq/footix-manager/internal/finance"
	"github.com/footixhq/footix-manager/internal/store"
)

var testTP = noop.NewTracerProvider()

// fakeClubRepo implements store.ClubRepository for testing.
type fakeClubRepo struct {
	clubs map[string]*store.Club
}

func (f *fakeClubRepo) Create(_ context.Context, c *store.Club) error {
	f.clubs[c.ID] = c
	return nil
}

func (f *fakeClubRepo) GetByID(_ context.Context, id string) (*store.Club, error) {
	c, ok := f.clubs[id]
	if !ok {
		return nil, fmt.Errorf("club %s not found", id)
	}
	return c, nil
}

func (f *fakeClubRepo) ListByServer(_ context.Context, _ string) ([]store.Club, error) {
	return nil, nil
}

func (f *fakeClubRepo) AdjustBalance(_ context.Context, id string, delta float64) error {
	f.clubs[id].Balance += delta
	return nil
}

// fakeTransferRepo implements store.TransferRepository for testing.
type fakeTransferRepo struct {
	debits map[string]float64
	err    error
}

func (f *fakeTransferRepo) ExecuteTransfer(_ context.Context, _ store.Transfer) error {
	return nil
}

func (f *fakeTransferRepo) DebitSalaries(_ context.Context) (map[string]float64, error) {
	return f.debits, f.err
}

// fakeEventStore implements event.Store for testing.
type fakeEventStore struct {
	events []event.Event
}

func (f *fakeEventStore) Append(_ context.Context, events ...event.Event) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEventStore) Load(_ context.Context, _ string) ([]event.Event, error) {
	return nil, nil
}

func (f *fakeEventStore) LoadByType(_ context.Context, _ event.Type) ([]event.Event, error) {
	return nil, nil
}

func TestReport(t *testing.T) {
	clubs := &fakeClubRepo{clubs: map[string]*store.Club{
		"under-cap": {
			ID:        "under-cap",
			Balance:   2_000_000,
			SalaryCap: 100_000,
			Roster: []store.Player{
				{Contract: store.Contract{Salary: 40_000}},
				{Contract: store.Contract{Salary: 30_000}},
			},
		},
		"over-cap": {
			ID:        "over-cap",
			Balance:   500_000,
			SalaryCap: 50_000,
			Roster: []store.Player{
				{Contract: store.Contract{Salary: 80_000}},
			},
		},
	}}
	mgr := finance.NewManager(clubs, &fakeTransferRepo{}, &fakeEventStore{}, slog.Default(), testTP)

	tests := []struct {
		name            string
		clubID          string
		wantTotal       float64
		wantRoom        float64
		wantCapExceeded bool
		wantErr         bool
	}{
		{
			name:      "under cap",
			clubID:    "under-cap",
			wantTotal: 70_000,
			wantRoom:  30_000,
		},
		{
			name:            "over cap",
			clubID:          "over-cap",
			wantTotal:       80_000,
			wantRoom:        -30_000,
			wantCapExceeded: true,
		},
		{
			name:    "unknown club",
			clubID:  "ghost",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := mgr.Report(context.Background(), tt.clubID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Report() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if report.SalaryTotal != tt.wantTotal {
				t.Errorf("SalaryTotal = %v, want %v", report.SalaryTotal, tt.wantTotal)
			}
			if report.CapRoom != tt.wantRoom {
				t.Errorf("CapRoom = %v, want %v", report.CapRoom, tt.wantRoom)
			}
			if report.CapExceeded != tt.wantCapExceeded {
				t.Errorf("CapExceeded = %v, want %v", report.CapExceeded, tt.wantCapExceeded)
			}
		})
	}
}

func TestProcessSalaries(t *testing.T) {
	transfers := &fakeTransferRepo{debits: map[string]float64{
		"c1": 70_000,
		"c2": 120_000,
	}}
	events := &fakeEventStore{}
	mgr := finance.NewManager(&fakeClubRepo{clubs: map[string]*store.Club{}}, transfers, events, slog.Default(), testTP)

	debits, err := mgr.ProcessSalaries(context.Background())
	if err != nil {
		t.Fatalf("ProcessSalaries() error = %v", err)
	}
	if len(debits) != 2 {
		t.Fatalf("debits = %v, want 2 clubs", debits)
	}
	if len(events.events) != 2 {
		t.Fatalf("events = %d, want 2", len(events.events))
	}
	for _, e := range events.events {
		if e.Type != event.SalariesProcessed {
			t.Errorf("event type = %s, want %s", e.Type, event.SalariesProcessed)
		}
	}
}

func TestProcessSalariesError(t *testing.T) {
	transfers := &fakeTransferRepo{err: fmt.Errorf("deadlock")}
	mgr := finance.NewManager(&fakeClubRepo{clubs: map[string]*store.Club{}}, transfers, &fakeEventStore{}, slog.Default(), testTP)

	if _, err := mgr.ProcessSalaries(context.Background()); err == nil {
		t.Error("ProcessSalaries() expected error")
	}
}
