// Package health exposes liveness and readiness endpoints with pluggable
// dependency checks.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/footixhq/footix-manager/internal/clock"
)

// Status represents a health check result.
type Status struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Checker defines a named health check function.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler provides health check endpoints.
type Handler struct {
	mu       sync.RWMutex
	ready    bool
	checkers []Checker
	clock    clock.Clock
}

// NewHandler creates a new health handler with the given checkers.
func NewHandler(clk clock.Clock, checkers ...Checker) *Handler {
	return &Handler{checkers: checkers, clock: clk}
}

// SetReady marks the service as ready to receive traffic.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// Liveness returns 200 if the process is alive.
func (h *Handler) Liveness() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(Status{
			Status:    "ok",
			Timestamp: h.clock.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Readiness returns 200 if the service is ready and every checker passes.
func (h *Handler) Readiness() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h.mu.RLock()
		ready := h.ready
		h.mu.RUnlock()

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(Status{
				Status:    "not_ready",
				Timestamp: h.clock.Now().UTC().Format(time.RFC3339),
			})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true
		for _, chk := range h.checkers {
			if err := chk.Check(ctx); err != nil {
				checks[chk.Name] = err.Error()
				allOK = false
			} else {
				checks[chk.Name] = "ok"
			}
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not_ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(Status{
			Status:    status,
			Checks:    checks,
			Timestamp: h.clock.Now().UTC().Format(time.RFC3339),
		})
	}
}
