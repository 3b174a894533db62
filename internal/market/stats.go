package market

import (
	"math"

	"github.com/footixhq/footix-manager/internal/store"
)

// Stats are read-only auction analytics for display. All figures are pure
// reductions over the bid sequence; the increment figures assume amounts
// are non-decreasing in bid order.
type Stats struct {
	BidCount         int     `json:"bid_count"`
	UniqueBidders    int     `json:"unique_bidders"`
	AverageIncrement float64 `json:"average_increment"`
	BidsPerMinute    float64 `json:"bids_per_minute"`
	// Volatility is the standard deviation of consecutive increments.
	Volatility float64 `json:"volatility"`
}

// Statistics computes auction analytics over a bid sequence. With fewer
// than two bids the increment, frequency and volatility figures are 0.
func Statistics(bids []store.Bid) Stats {
	s := Stats{BidCount: len(bids)}

	bidders := make(map[string]struct{}, len(bids))
	for _, b := range bids {
		bidders[b.ClubID] = struct{}{}
	}
	s.UniqueBidders = len(bidders)

	if len(bids) < 2 {
		return s
	}

	increments := make([]float64, 0, len(bids)-1)
	var sum float64
	for i := 1; i < len(bids); i++ {
		inc := bids[i].Amount - bids[i-1].Amount
		increments = append(increments, inc)
		sum += inc
	}
	s.AverageIncrement = sum / float64(len(increments))

	elapsed := bids[len(bids)-1].CreatedAt.Sub(bids[0].CreatedAt).Minutes()
	if elapsed > 0 {
		s.BidsPerMinute = float64(len(bids)) / elapsed
	}

	var sqDev float64
	for _, inc := range increments {
		d := inc - s.AverageIncrement
		sqDev += d * d
	}
	s.Volatility = math.Sqrt(sqDev / float64(len(increments)))

	return s
}
