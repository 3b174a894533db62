package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/footixhq/footix-manager/internal/api"
	"github.com/footixhq/footix-manager/internal/auction"
	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/config"
	"github.com/footixhq/footix-manager/internal/event"
	"github.com/footixhq/footix-manager/internal/finance"
	"github.com/footixhq/footix-manager/internal/health"
	"github.com/footixhq/footix-manager/internal/league"
	"github.com/footixhq/footix-manager/internal/market"
	"github.com/footixhq/footix-manager/internal/standings"
	"github.com/footixhq/footix-manager/internal/store"
)

const testSecret = "test-secret"

var (
	testTP    = noop.NewTracerProvider()
	testStart = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

// In-memory repository fakes shared by the handler tests.

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

type fakePlayerRepo struct {
	players map[string]*store.Player
}

func (f *fakePlayerRepo) Create(_ context.Context, p *store.Player) error {
	f.players[p.ID] = p
	return nil
}

func (f *fakePlayerRepo) GetByID(_ context.Context, id string) (*store.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s not found", id)
	}
	return p, nil
}

func (f *fakePlayerRepo) ListByClub(_ context.Context, _ string) ([]store.Player, error) {
	return nil, nil
}

type fakeAuctionRepo struct {
	records map[string]*store.Auction
}

func (f *fakeAuctionRepo) Create(_ context.Context, a *store.Auction) error {
	f.records[a.ID] = a
	return nil
}

func (f *fakeAuctionRepo) GetByID(_ context.Context, id string) (*store.Auction, error) {
	a, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("auction %s not found", id)
	}
	return a, nil
}

func (f *fakeAuctionRepo) SetStatus(_ context.Context, id, _, to string, closedAt *time.Time) error {
	if a, ok := f.records[id]; ok {
		a.Status = to
		a.ClosedAt = closedAt
	}
	return nil
}

func (f *fakeAuctionRepo) RecordBid(_ context.Context, id, bidderClubID string, amount float64) error {
	if a, ok := f.records[id]; ok {
		a.CurrentBid = amount
		a.CurrentBidderID = &bidderClubID
	}
	return nil
}

func (f *fakeAuctionRepo) ListByStatus(_ context.Context, _ string) ([]store.Auction, error) {
	return nil, nil
}

type fakeTransferRepo struct{}

func (fakeTransferRepo) ExecuteTransfer(_ context.Context, _ store.Transfer) error { return nil }
func (fakeTransferRepo) DebitSalaries(_ context.Context) (map[string]float64, error) {
	return nil, nil
}

type fakeStandingRepo struct {
	rows map[string][]standings.Row
}

func (f *fakeStandingRepo) Upsert(_ context.Context, competitionID string, row standings.Row) error {
	f.rows[competitionID] = append(f.rows[competitionID], row)
	return nil
}

func (f *fakeStandingRepo) ListByCompetition(_ context.Context, competitionID string) ([]standings.Row, error) {
	return f.rows[competitionID], nil
}

func (f *fakeStandingRepo) ApplyResult(_ context.Context, competitionID, clubID string, points, goalsFor, goalsAgainst int) error {
	f.rows[competitionID] = append(f.rows[competitionID], standings.Row{
		ClubID: clubID, Points: points, GoalsFor: goalsFor, GoalsAgainst: goalsAgainst,
	})
	return nil
}

type fakeEventStore struct {
	events []event.Event
}

func (f *fakeEventStore) Append(_ context.Context, events ...event.Event) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEventStore) Load(_ context.Context, aggregateID string) ([]event.Event, error) {
	var out []event.Event
	for _, e := range f.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) LoadByType(_ context.Context, eventType event.Type) ([]event.Event, error) {
	var out []event.Event
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixture struct {
	app      *fiber.App
	auctions *auction.Manager
	clk      *clock.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sellerID := "seller"
	clubs := &fakeClubRepo{clubs: map[string]*store.Club{
		"seller": {ID: "seller", Balance: 1_000_000},
		"buyer":  {ID: "buyer", Balance: 50_000_000, SalaryCap: 10_000_000},
	}}
	players := &fakePlayerRepo{players: map[string]*store.Player{
		"p1": {
			ID:               "p1",
			ClubID:           &sellerID,
			Overall:          70,
			Potential:        70,
			MarketMultiplier: 20,
			Contract:         store.Contract{Salary: 50_000},
		},
	}}

	clk := clock.NewMock(testStart)
	events := &fakeEventStore{}

	auctionMgr := auction.NewManager(auction.Deps{
		Rules:     market.DefaultRules(),
		Events:    events,
		Clubs:     clubs,
		Players:   players,
		Records:   &fakeAuctionRepo{records: map[string]*store.Auction{}},
		Transfers: fakeTransferRepo{},
		Logger:    slog.Default(),
		TP:        testTP,
		Clock:     clk,
	})
	leagueMgr := league.NewManager(&fakeStandingRepo{rows: map[string][]standings.Row{
		"ligue-1": {
			{ClubID: "beta", Points: 4},
			{ClubID: "alpha", Points: 6},
		},
	}}, events, nil, slog.Default(), testTP)
	financeMgr := finance.NewManager(clubs, fakeTransferRepo{}, events, slog.Default(), testTP)

	game := config.GameConfig{TieBreakers: []string{"goal_difference"}}
	handler := api.NewHandler(auctionMgr, leagueMgr, financeMgr, clubs, players, game, slog.Default())

	hc := health.NewHandler(clk)
	app := api.NewServer(handler, hc, nil, config.ServerConfig{}, testSecret)

	return &fixture{app: app, auctions: auctionMgr, clk: clk}
}

func token(t *testing.T, clubID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"club_id": clubID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	return resp
}

func TestGetStandings(t *testing.T) {
	f := newFixture(t)

	resp := doJSON(t, f.app, "GET", "/api/v1/standings/ligue-1", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Table []standings.Row `json:"table"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Table) != 2 || body.Table[0].ClubID != "alpha" {
		t.Errorf("table = %+v, want alpha first", body.Table)
	}
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		bearer string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, f.app, "POST", "/api/v1/auctions", tt.bearer, map[string]any{})
			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body.Error.Code != "UNAUTHORIZED" {
				t.Errorf("error code = %s, want UNAUTHORIZED", body.Error.Code)
			}
		})
	}
}

func TestAuctionFlow(t *testing.T) {
	f := newFixture(t)

	// Seller schedules an auction for their player.
	resp := doJSON(t, f.app, "POST", "/api/v1/auctions", token(t, "seller"), map[string]any{
		"player_id":     "p1",
		"starting_bid":  700_000,
		"starts_at":     testStart,
		"countdown_sec": 600,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("schedule status = %d, want 201", resp.StatusCode)
	}
	var snap auction.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}

	f.auctions.ActivateDue(context.Background())

	// Preview first, then place.
	resp = doJSON(t, f.app, "POST", "/api/v1/auctions/"+snap.ID+"/bids/preview", token(t, "buyer"), map[string]any{
		"amount": 800_000,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("preview status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, f.app, "POST", "/api/v1/auctions/"+snap.ID+"/bids", token(t, "buyer"), map[string]any{
		"amount": 800_000,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("bid status = %d, want 200", resp.StatusCode)
	}
	var bidResp struct {
		Accepted bool            `json:"accepted"`
		Check    market.BidCheck `json:"check"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bidResp); err != nil {
		t.Fatalf("decoding bid response: %v", err)
	}
	if !bidResp.Accepted {
		t.Fatalf("bid rejected: %+v", bidResp.Check)
	}

	// The snapshot now carries the bid.
	resp = doJSON(t, f.app, "GET", "/api/v1/auctions/"+snap.ID, "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	var got auction.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if got.CurrentBid != 800_000 || got.CurrentBidderID != "buyer" {
		t.Errorf("snapshot = %+v", got)
	}

	// Next-bid suggestion builds on the current high bid.
	resp = doJSON(t, f.app, "GET", "/api/v1/auctions/"+snap.ID+"/next-bid", "", nil)
	var next struct {
		NextBid float64 `json:"next_bid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&next); err != nil {
		t.Fatalf("decoding next bid: %v", err)
	}
	if next.NextBid != 910_000 {
		t.Errorf("next bid = %v, want 910000", next.NextBid)
	}
}

func TestRejectedBidReturnsCheck(t *testing.T) {
	f := newFixture(t)

	resp := doJSON(t, f.app, "POST", "/api/v1/auctions", token(t, "seller"), map[string]any{
		"player_id":     "p1",
		"starting_bid":  700_000,
		"starts_at":     testStart,
		"countdown_sec": 600,
	})
	var snap auction.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	f.auctions.ActivateDue(context.Background())

	// Seller's balance cannot cover this bid; the rules reject it but the
	// response is still a 200 carrying the failed check.
	resp = doJSON(t, f.app, "POST", "/api/v1/auctions/"+snap.ID+"/bids", token(t, "seller"), map[string]any{
		"amount": 900_000,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var bidResp struct {
		Accepted bool            `json:"accepted"`
		Check    market.BidCheck `json:"check"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bidResp); err != nil {
		t.Fatalf("decoding bid response: %v", err)
	}
	if bidResp.Accepted {
		t.Fatal("bid unexpectedly accepted")
	}
	if bidResp.Check.BalanceOK {
		t.Errorf("check = %+v, want balance failure", bidResp.Check)
	}
}

func TestCancelForbiddenForOtherClub(t *testing.T) {
	f := newFixture(t)

	resp := doJSON(t, f.app, "POST", "/api/v1/auctions", token(t, "seller"), map[string]any{
		"player_id":     "p1",
		"starting_bid":  700_000,
		"starts_at":     testStart,
		"countdown_sec": 600,
	})
	var snap auction.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}

	resp = doJSON(t, f.app, "POST", "/api/v1/auctions/"+snap.ID+"/cancel", token(t, "buyer"), nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, f.app, "POST", "/api/v1/auctions/"+snap.ID+"/cancel", token(t, "seller"), nil)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestGetClubFinances(t *testing.T) {
	f := newFixture(t)

	resp := doJSON(t, f.app, "GET", "/api/v1/clubs/buyer/finances", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var report finance.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.ClubID != "buyer" || report.Balance != 50_000_000 {
		t.Errorf("report = %+v", report)
	}

	resp = doJSON(t, f.app, "GET", "/api/v1/clubs/nobody/finances", "", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
