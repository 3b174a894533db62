package store

import (
	"context"
	"fmt"
	"io"

	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/event"
)

// Repositories groups all repository implementations returned by a store driver.
type Repositories struct {
	Clubs     ClubRepository
	Players   PlayerRepository
	Auctions  AuctionRepository
	Standings StandingRepository
	Transfers TransferRepository
	Events    event.Store
	// Closer is called to release underlying resources (e.g. DB connection).
	Closer io.Closer
	// Ping checks the underlying connection health.
	Ping func(ctx context.Context) error
}

// Driver is a function that opens a connection and returns Repositories.
// It receives the connection string only; driver selection and DSN assembly
// stay with the caller so this package has no config dependency.
type Driver func(ctx context.Context, dsn string, clk clock.Clock) (*Repositories, error)

// registry maps driver names to their factory functions.
var registry = map[string]Driver{}

// Register adds a named driver to the global registry.
// It is intended to be called from init() in each driver package.
func Register(name string, d Driver) {
	registry[name] = d
}

// Open selects the named driver and returns Repositories.
func Open(ctx context.Context, driver, dsn string, clk clock.Clock) (*Repositories, error) {
	d, ok := registry[driver]
	if !ok {
		return nil, fmt.Errorf("unknown store driver %q (registered: %v)", driver, registeredNames())
	}
	return d(ctx, dsn, clk)
}

func registeredNames() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	return names
}
