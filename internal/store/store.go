package store

import (
	"context"
	"time"

	"github.com/footixhq/footix-manager/internal/standings"
)

// Contract holds a player's current deal. It is embedded in Player so its
// columns live on the players table.
type Contract struct {
	Salary      float64   `db:"salary" json:"salary"`
	ClauseValue float64   `db:"clause_value" json:"clause_value"`
	StartDate   time.Time `db:"contract_start" json:"contract_start"`
	EndDate     time.Time `db:"contract_end" json:"contract_end"`
}

// Player is a squad member snapshot.
type Player struct {
	ID          string  `db:"id" json:"id"`
	ClubID      *string `db:"club_id" json:"club_id,omitempty"`
	Name        string  `db:"name" json:"name"`
	Position    string  `db:"position" json:"position"`
	Overall     int     `db:"overall" json:"overall"`
	Potential   int     `db:"potential" json:"potential"`
	Nationality string  `db:"nationality" json:"nationality"`
	Age         int     `db:"age" json:"age"`
	// MarketMultiplier converts salary into an implied transfer valuation.
	// Always positive in well-formed records.
	MarketMultiplier float64 `db:"market_multiplier" json:"market_multiplier"`
	Contract
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Club is a managed team snapshot. Balance and roster mutate only through
// repository transactions; rule code treats a Club as read-only.
type Club struct {
	ID         string    `db:"id" json:"id"`
	ServerID   string    `db:"server_id" json:"server_id"`
	OwnerID    string    `db:"owner_id" json:"owner_id"`
	Name       string    `db:"name" json:"name"`
	Balance    float64   `db:"balance" json:"balance"`
	SalaryCap  float64   `db:"salary_cap" json:"salary_cap"`
	Reputation int       `db:"reputation" json:"reputation"`
	LogoURL    string    `db:"logo_url" json:"logo_url"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// Roster is populated by ClubRepository.GetByID, not a table column.
	Roster []Player `db:"-" json:"roster,omitempty"`
}

// Bid is one offer inside an auction.
type Bid struct {
	ID        string    `db:"id" json:"id"`
	AuctionID string    `db:"auction_id" json:"auction_id"`
	ClubID    string    `db:"club_id" json:"club_id"`
	Amount    float64   `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Auction lifecycle states.
const (
	AuctionScheduled = "scheduled"
	AuctionActive    = "active"
	AuctionCompleted = "completed"
	AuctionCancelled = "cancelled"
)

// Auction is a timed player sale record.
type Auction struct {
	ID              string     `db:"id" json:"id"`
	PlayerID        string     `db:"player_id" json:"player_id"`
	SellerClubID    string     `db:"seller_club_id" json:"seller_club_id"`
	Status          string     `db:"status" json:"status"`
	StartingBid     float64    `db:"starting_bid" json:"starting_bid"`
	CurrentBid      float64    `db:"current_bid" json:"current_bid"`
	CurrentBidderID *string    `db:"current_bidder_id" json:"current_bidder_id,omitempty"`
	StartsAt        time.Time  `db:"starts_at" json:"starts_at"`
	CountdownSec    int        `db:"countdown_sec" json:"countdown_sec"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ClosedAt        *time.Time `db:"closed_at" json:"closed_at,omitempty"`
}

// Transfer describes the atomic player move executed when an auction
// completes: the player changes club, the buyer is debited and the seller
// credited, and the new contract salary is derived from the winning bid.
type Transfer struct {
	PlayerID   string
	FromClubID string
	ToClubID   string
	Fee        float64
	NewSalary  float64
}

// ClubRepository defines club persistence operations.
type ClubRepository interface {
	Create(ctx context.Context, c *Club) error
	// GetByID returns the club with its roster loaded.
	GetByID(ctx context.Context, id string) (*Club, error)
	ListByServer(ctx context.Context, serverID string) ([]Club, error)
	// AdjustBalance applies a signed delta and fails if it would go negative.
	AdjustBalance(ctx context.Context, id string, delta float64) error
}

// PlayerRepository defines player persistence operations.
type PlayerRepository interface {
	Create(ctx context.Context, p *Player) error
	GetByID(ctx context.Context, id string) (*Player, error)
	ListByClub(ctx context.Context, clubID string) ([]Player, error)
}

// AuctionRepository defines auction persistence operations.
type AuctionRepository interface {
	Create(ctx context.Context, a *Auction) error
	GetByID(ctx context.Context, id string) (*Auction, error)
	// SetStatus moves an auction between lifecycle states and records the
	// close time for terminal states.
	SetStatus(ctx context.Context, id, from, to string, closedAt *time.Time) error
	// RecordBid updates the running high bid on the auction row.
	RecordBid(ctx context.Context, id, bidderClubID string, amount float64) error
	ListByStatus(ctx context.Context, status string) ([]Auction, error)
}

// StandingRepository defines competition table persistence operations.
type StandingRepository interface {
	Upsert(ctx context.Context, competitionID string, row standings.Row) error
	ListByCompetition(ctx context.Context, competitionID string) ([]standings.Row, error)
	// ApplyResult folds one match result into a club's counters.
	ApplyResult(ctx context.Context, competitionID, clubID string, points, goalsFor, goalsAgainst int) error
}

// TransferRepository executes the money-and-player move as one transaction.
type TransferRepository interface {
	ExecuteTransfer(ctx context.Context, t Transfer) error
	// DebitSalaries subtracts each club's roster salary total from its
	// balance in one transaction and returns the per-club amounts.
	DebitSalaries(ctx context.Context) (map[string]float64, error)
}
