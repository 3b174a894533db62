package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/footixhq/footix-manager/internal/auction"
	"github.com/footixhq/footix-manager/internal/config"
	"github.com/footixhq/footix-manager/internal/finance"
	"github.com/footixhq/footix-manager/internal/health"
	"github.com/footixhq/footix-manager/internal/league"
	"github.com/footixhq/footix-manager/internal/store"
)

// Handler bundles the managers the HTTP surface dispatches into.
type Handler struct {
	auctions *auction.Manager
	league   *league.Manager
	finance  *finance.Manager
	clubs    store.ClubRepository
	players  store.PlayerRepository
	game     config.GameConfig
	logger   *slog.Logger
}

func NewHandler(auctions *auction.Manager, lg *league.Manager, fin *finance.Manager, clubs store.ClubRepository, players store.PlayerRepository, game config.GameConfig, logger *slog.Logger) *Handler {
	return &Handler{
		auctions: auctions,
		league:   lg,
		finance:  fin,
		clubs:    clubs,
		players:  players,
		game:     game,
		logger:   logger,
	}
}

// NewServer assembles the fiber app: panic recovery, rate limiting, health
// probes, and the versioned API routes.
func NewServer(h *Handler, hc *health.Handler, rdb *redis.Client, cfg config.ServerConfig, secret string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "footixd",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return writeError(c, fe.Code, codeFor(fe.Code), fe.Message)
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error")
		},
	})

	app.Use(fiberrecover.New())
	app.Use(RateLimit(rdb, cfg.RateLimitPerMinute))

	app.Get("/healthz", hc.Liveness())
	app.Get("/readyz", hc.Readiness())

	v1 := app.Group("/api/v1")

	v1.Get("/standings/:competitionID", h.GetStandings)
	v1.Get("/clubs/:id", h.GetClub)
	v1.Get("/clubs/:id/finances", h.GetClubFinances)
	v1.Get("/auctions", h.ListAuctions)
	v1.Get("/auctions/:id", h.GetAuction)
	v1.Get("/auctions/:id/stats", h.GetAuctionStats)
	v1.Get("/auctions/:id/next-bid", h.GetNextBid)

	auth := v1.Group("", RequireAuth(secret))
	auth.Post("/standings/:competitionID/results", h.RecordResult)
	auth.Post("/auctions", h.ScheduleAuction)
	auth.Post("/auctions/:id/bids", h.PlaceBid)
	auth.Post("/auctions/:id/bids/preview", h.PreviewBid)
	auth.Post("/auctions/:id/cancel", h.CancelAuction)

	return app
}

func codeFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorBody{Error: errorDetail{Code: code, Message: message}})
}
