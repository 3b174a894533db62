package event

import (
	"encoding/json"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	AuctionScheduled Type = "auction.scheduled"
	AuctionActivated Type = "auction.activated"
	AuctionBidPlaced Type = "auction.bid_placed"
	AuctionCompleted Type = "auction.completed"
	AuctionCancelled Type = "auction.cancelled"

	ResultRecorded    Type = "result.recorded"
	SalariesProcessed Type = "salaries.processed"
	TransferCompleted Type = "transfer.completed"
)

// Event represents a single domain event.
type Event struct {
	ID          string          `json:"id" db:"id"`
	AggregateID string          `json:"aggregate_id" db:"aggregate_id"`
	Type        Type            `json:"type" db:"type"`
	Data        json.RawMessage `json:"data" db:"data"`
	Version     int             `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// AuctionScheduledData is the payload for AuctionScheduled events.
type AuctionScheduledData struct {
	PlayerID     string    `json:"player_id"`
	SellerClubID string    `json:"seller_club_id"`
	StartingBid  float64   `json:"starting_bid"`
	StartsAt     time.Time `json:"starts_at"`
	CountdownSec int       `json:"countdown_sec"`
}

// BidPlacedData is the payload for AuctionBidPlaced events.
type BidPlacedData struct {
	ClubID string  `json:"club_id"`
	Amount float64 `json:"amount"`
}

// AuctionCompletedData is the payload for AuctionCompleted events. An
// auction that expires with no bids completes with an empty winner.
type AuctionCompletedData struct {
	WinnerClubID string  `json:"winner_club_id"`
	Amount       float64 `json:"amount"`
}

// ResultRecordedData is the payload for ResultRecorded events.
type ResultRecordedData struct {
	CompetitionID string `json:"competition_id"`
	ClubID        string `json:"club_id"`
	Points        int    `json:"points"`
	GoalsFor      int    `json:"goals_for"`
	GoalsAgainst  int    `json:"goals_against"`
}

// SalariesProcessedData is the payload for SalariesProcessed events.
type SalariesProcessedData struct {
	ClubID string  `json:"club_id"`
	Amount float64 `json:"amount"`
}

// TransferCompletedData is the payload for TransferCompleted events.
type TransferCompletedData struct {
	PlayerID   string  `json:"player_id"`
	FromClubID string  `json:"from_club_id"`
	ToClubID   string  `json:"to_club_id"`
	Fee        float64 `json:"fee"`
	NewSalary  float64 `json:"new_salary"`
}
