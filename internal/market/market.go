// Package market holds the transfer-market rules: salary projection, player
// valuation and bid validation. Everything is a pure computation over club,
// player and bid snapshots; enforcement of the outcome belongs to the caller.
package market

import "github.com/footixhq/footix-manager/internal/store"

// Valuation model coefficients.
const (
	overallBaseline = 70
	overallStep     = 0.02
	potentialStep   = 0.03
)

// ProjectedSalary returns the salary implied by a market bid. The caller
// guarantees multiplier > 0; player records always carry a positive one.
func ProjectedSalary(bidAmount, multiplier float64) float64 {
	return bidAmount / multiplier
}

// MarketValue estimates a player's fair transfer value from contract terms.
// The overall adjustment is deliberately not clamped: a very low overall
// produces a negative multiplier, matching the established game balance.
func MarketValue(p store.Player) float64 {
	base := p.Salary * p.MarketMultiplier
	overallAdj := 1 + float64(p.Overall-overallBaseline)*overallStep
	potentialAdj := 1 + float64(p.Potential-p.Overall)*potentialStep
	return base * overallAdj * potentialAdj
}

// SalaryTotal sums the contract salaries of a club's roster.
func SalaryTotal(c store.Club) float64 {
	var total float64
	for _, p := range c.Roster {
		total += p.Salary
	}
	return total
}

// Rules carries the tunable economic constraints applied to bids. Servers
// may override these per league; DefaultRules matches the stock game.
type Rules struct {
	// BalanceBuffer is the fraction of a club's balance reserved and not
	// spendable on a single bid.
	BalanceBuffer float64 `yaml:"balance_buffer"`
	// BandLow/BandHigh bound acceptable bids as multiples of market value.
	BandLow  float64 `yaml:"band_low"`
	BandHigh float64 `yaml:"band_high"`
	// ExposureLimit caps a club's summed bids in one auction as a fraction
	// of its balance.
	ExposureLimit float64 `yaml:"exposure_limit"`
	// Increment suggestion parameters for NextBidAmount.
	BaseIncrement   float64 `yaml:"base_increment"`
	IncrementGrowth float64 `yaml:"increment_growth"`
	IncrementCap    float64 `yaml:"increment_cap"`
}

// DefaultRules returns the stock economic rules.
func DefaultRules() Rules {
	return Rules{
		BalanceBuffer:   0.20,
		BandLow:         0.7,
		BandHigh:        1.5,
		ExposureLimit:   0.7,
		BaseIncrement:   100_000,
		IncrementGrowth: 0.1,
		IncrementCap:    2.0,
	}
}

// NextBidAmount suggests a minimum next bid for the UI. The increment grows
// with the number of bids already placed, capped by IncrementCap. It is a
// suggestion only; any amount passing ValidateBid may be submitted.
func (r Rules) NextBidAmount(currentBid float64, bidCount int) float64 {
	mult := 1 + r.IncrementGrowth*float64(bidCount)
	if mult > r.IncrementCap {
		mult = r.IncrementCap
	}
	return currentBid + r.BaseIncrement*mult
}
