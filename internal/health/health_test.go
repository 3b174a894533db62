package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/health"
)

func newApp(h *health.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/healthz", h.Liveness())
	app.Get("/readyz", h.Readiness())
	return app
}

func testClock() clock.Clock {
	return clock.NewMock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
}

func TestLiveness(t *testing.T) {
	h := health.NewHandler(testClock())
	app := newApp(h)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		checkErr   error
		wantStatus int
	}{
		{
			name:       "not ready before SetReady",
			ready:      false,
			wantStatus: fiber.StatusServiceUnavailable,
		},
		{
			name:       "ready with passing checks",
			ready:      true,
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "ready but dependency failing",
			ready:      true,
			checkErr:   errors.New("connection refused"),
			wantStatus: fiber.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(testClock(), health.Checker{
				Name:  "database",
				Check: func(context.Context) error { return tt.checkErr },
			})
			h.SetReady(tt.ready)
			app := newApp(h)

			resp, err := app.Test(httptest.NewRequest("GET", "/readyz", nil))
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			if tt.ready {
				var body health.Status
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("decoding body: %v", err)
				}
				if _, ok := body.Checks["database"]; !ok {
					t.Errorf("checks missing database entry: %+v", body.Checks)
				}
			}
		})
	}
}
