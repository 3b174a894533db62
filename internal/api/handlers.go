package api

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/footixhq/footix-manager/internal/auction"
	"github.com/footixhq/footix-manager/internal/standings"
)

// GetStandings returns the ranked table for a competition. The tie-break
// order defaults from config and can be overridden per request with
// ?tiebreakers=goal_difference,goals_for.
func (h *Handler) GetStandings(c *fiber.Ctx) error {
	competitionID := c.Params("competitionID")

	names := h.game.TieBreakers
	if raw := c.Query("tiebreakers"); raw != "" {
		names = splitCSV(raw)
	}

	rows, err := h.league.Table(c.UserContext(), competitionID, standings.ParseCriteria(names))
	if err != nil {
		h.logger.ErrorContext(c.UserContext(), "failed to load standings", slog.Any("error", err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load standings")
	}
	return c.JSON(fiber.Map{"competition_id": competitionID, "table": rows})
}

type recordResultRequest struct {
	ClubID       string `json:"club_id"`
	Points       int    `json:"points"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
}

// RecordResult folds one match result into the competition table.
func (h *Handler) RecordResult(c *fiber.Ctx) error {
	var req recordResultRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	if req.ClubID == "" {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "club_id is required")
	}
	if req.Points < 0 || req.GoalsFor < 0 || req.GoalsAgainst < 0 {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "counters must be non-negative")
	}

	if err := h.league.RecordResult(c.UserContext(), c.Params("competitionID"), req.ClubID, req.Points, req.GoalsFor, req.GoalsAgainst); err != nil {
		h.logger.ErrorContext(c.UserContext(), "failed to record result", slog.Any("error", err))
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to record result")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetClub returns one club with its roster.
func (h *Handler) GetClub(c *fiber.Ctx) error {
	club, err := h.clubs.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "club not found")
	}
	return c.JSON(club)
}

// GetClubFinances returns the club's balance and salary-cap report.
func (h *Handler) GetClubFinances(c *fiber.Ctx) error {
	report, err := h.finance.Report(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "club not found")
	}
	return c.JSON(report)
}

// ListAuctions returns all open (scheduled or active) auctions.
func (h *Handler) ListAuctions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"auctions": h.auctions.List(c.UserContext())})
}

// GetAuction returns one auction snapshot.
func (h *Handler) GetAuction(c *fiber.Ctx) error {
	snap, err := h.auctions.Snapshot(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "auction not found")
	}
	return c.JSON(snap)
}

// GetAuctionStats returns display analytics for an auction's bid sequence.
func (h *Handler) GetAuctionStats(c *fiber.Ctx) error {
	stats, err := h.auctions.Stats(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "auction not found")
	}
	return c.JSON(stats)
}

// GetNextBid returns the suggested next bid amount.
func (h *Handler) GetNextBid(c *fiber.Ctx) error {
	amount, err := h.auctions.NextBid(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "auction not found")
	}
	return c.JSON(fiber.Map{"auction_id": c.Params("id"), "next_bid": amount})
}

type scheduleAuctionRequest struct {
	PlayerID     string    `json:"player_id"`
	StartingBid  float64   `json:"starting_bid"`
	StartsAt     time.Time `json:"starts_at"`
	CountdownSec int       `json:"countdown_sec"`
}

// ScheduleAuction creates an auction for a player owned by the caller's club.
func (h *Handler) ScheduleAuction(c *fiber.Ctx) error {
	var req scheduleAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	if req.PlayerID == "" || req.StartingBid <= 0 || req.CountdownSec <= 0 {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "player_id, starting_bid and countdown_sec are required")
	}
	if req.StartsAt.IsZero() {
		req.StartsAt = time.Now().UTC()
	}

	clubID := c.Locals(localClubID).(string)
	snap, err := h.auctions.Schedule(c.UserContext(), req.PlayerID, clubID, req.StartingBid, req.StartsAt, time.Duration(req.CountdownSec)*time.Second)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(snap)
}

type bidRequest struct {
	Amount float64 `json:"amount"`
}

// PlaceBid submits a bid for the caller's club. A bid that fails a market
// rule is not an error: the response carries the full check so the client
// can show which rule failed and which advisories fired.
func (h *Handler) PlaceBid(c *fiber.Ctx) error {
	var req bidRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	if req.Amount <= 0 {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "amount must be positive")
	}

	clubID := c.Locals(localClubID).(string)
	check, err := h.auctions.PlaceBid(c.UserContext(), c.Params("id"), clubID, req.Amount)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"accepted": true, "check": check})
	case errors.Is(err, auction.ErrBidRejected):
		return c.JSON(fiber.Map{"accepted": false, "check": check})
	case errors.Is(err, auction.ErrNotActive), errors.Is(err, auction.ErrClosed), errors.Is(err, auction.ErrBidTooLow):
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "auction not found")
	}
}

// PreviewBid runs the market rules for the caller without placing a bid.
func (h *Handler) PreviewBid(c *fiber.Ctx) error {
	var req bidRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}

	clubID := c.Locals(localClubID).(string)
	check, err := h.auctions.PreviewBid(c.UserContext(), c.Params("id"), clubID, req.Amount)
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "auction not found")
	}
	return c.JSON(fiber.Map{"accepted": check.Accepted(), "check": check})
}

// CancelAuction cancels an auction. Only the selling club may cancel.
func (h *Handler) CancelAuction(c *fiber.Ctx) error {
	snap, err := h.auctions.Snapshot(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "auction not found")
	}
	if snap.SellerClubID != c.Locals(localClubID).(string) {
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "only the selling club can cancel an auction")
	}

	if err := h.auctions.Cancel(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
