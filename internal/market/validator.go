package market

import "github.com/footixhq/footix-manager/internal/store"

// BidCheck is the structured outcome of validating one proposed bid. Each
// rule reports independently so the caller decides which violations block
// the bid and which are surfaced as warnings. The salary-cap projection is
// always advisory: authoritative enforcement happens in the transactional
// transfer, never here.
type BidCheck struct {
	Amount float64 `json:"amount"`

	// Balance rule (hard): the bid must fit inside the spendable part of
	// the club's balance after the reserve buffer.
	AvailableBalance float64 `json:"available_balance"`
	BalanceOK        bool    `json:"balance_ok"`

	// Market band rule (hard).
	MarketValue float64 `json:"market_value"`
	MinBid      float64 `json:"min_bid"`
	MaxBid      float64 `json:"max_bid"`
	WithinBand  bool    `json:"within_band"`

	// Salary-cap projection (advisory only).
	ProjectedSalary      float64 `json:"projected_salary"`
	ProjectedSalaryTotal float64 `json:"projected_salary_total"`
	CapExceeded          bool    `json:"cap_exceeded"`
	CapOverage           float64 `json:"cap_overage"`

	// Multi-bid aggregate rule (hard, applies only when the club already
	// has bids in this auction).
	OwnBidTotal   float64 `json:"own_bid_total"`
	ExposureLimit float64 `json:"exposure_limit"`
	ExposureOK    bool    `json:"exposure_ok"`
}

// Accepted reports whether every hard rule passed. The cap projection does
// not factor in.
func (c BidCheck) Accepted() bool {
	return c.BalanceOK && c.WithinBand && c.ExposureOK
}

// ValidateBid gates a proposed bid against the economic rules. history is
// the auction's bid sequence so far; it feeds only the aggregate-exposure
// rule. The balance rule intentionally ignores the club's own uncommitted
// bids, matching the established game behavior.
func (r Rules) ValidateBid(club store.Club, player store.Player, amount float64, history []store.Bid) BidCheck {
	check := BidCheck{Amount: amount}

	check.AvailableBalance = club.Balance - r.BalanceBuffer*club.Balance
	check.BalanceOK = amount <= check.AvailableBalance

	check.MarketValue = MarketValue(player)
	check.MinBid = r.BandLow * check.MarketValue
	check.MaxBid = r.BandHigh * check.MarketValue
	check.WithinBand = amount >= check.MinBid && amount <= check.MaxBid

	check.ProjectedSalary = ProjectedSalary(amount, player.MarketMultiplier)
	check.ProjectedSalaryTotal = SalaryTotal(club) + check.ProjectedSalary
	if check.ProjectedSalaryTotal > club.SalaryCap {
		check.CapExceeded = true
		check.CapOverage = check.ProjectedSalaryTotal - club.SalaryCap
	}

	for _, b := range history {
		if b.ClubID == club.ID {
			check.OwnBidTotal += b.Amount
		}
	}
	check.ExposureLimit = r.ExposureLimit * club.Balance
	check.ExposureOK = true
	if check.OwnBidTotal > 0 {
		check.ExposureOK = check.OwnBidTotal+amount <= check.ExposureLimit
	}

	return check
}
