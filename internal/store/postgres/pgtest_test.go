package postgres_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestDB starts a Postgres container, applies the migration, and returns
// a connected *sqlx.DB. The container is automatically terminated when the
// test ends.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	// Locate migration file relative to this source file.
	_, thisFile, _, _ := runtime.Caller(0)
	migrationDir := filepath.Join(filepath.Dir(thisFile), "migrations")

	migrationSQL, err := os.ReadFile(filepath.Join(migrationDir, "001_initial.sql"))
	if err != nil {
		t.Fatalf("reading migration: %v", err)
	}

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("footix_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Apply migration.
	if _, err := db.ExecContext(ctx, string(migrationSQL)); err != nil {
		t.Fatalf("applying migration: %v", err)
	}

	return db
}

// seedClub inserts a club directly and returns its generated ID.
func seedClub(t *testing.T, db *sqlx.DB, name string, balance float64) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO clubs (server_id, owner_id, name, balance, salary_cap)
		 VALUES ('s1', 'owner', $1, $2, 1000000) RETURNING id`,
		name, balance,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding club: %v", err)
	}
	return id
}

// seedPlayer inserts a player owned by clubID and returns its generated ID.
func seedPlayer(t *testing.T, db *sqlx.DB, clubID string, salary float64) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO players (club_id, name, position, overall, potential, age, market_multiplier, salary)
		 VALUES ($1, 'Test Player', 'ST', 75, 80, 22, 20, $2) RETURNING id`,
		clubID, salary,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding player: %v", err)
	}
	return id
}

// seedAuction inserts an auction row and returns its ID.
func seedAuction(t *testing.T, db *sqlx.DB, playerID, sellerClubID, status string) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO auctions (id, player_id, seller_club_id, status, starting_bid, starts_at, countdown_sec)
		 VALUES (gen_random_uuid(), $1, $2, $3, 700000, now(), 600) RETURNING id`,
		playerID, sellerClubID, status,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding auction: %v", err)
	}
	return id
}

func clubBalance(t *testing.T, db *sqlx.DB, id string) float64 {
	t.Helper()
	var balance float64
	if err := db.Get(&balance, `SELECT balance FROM clubs WHERE id = $1`, id); err != nil {
		t.Fatalf("reading balance: %v", err)
	}
	return balance
}
