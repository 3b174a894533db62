package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/footixhq/footix-manager/internal/api"
	"github.com/footixhq/footix-manager/internal/archive"
	"github.com/footixhq/footix-manager/internal/auction"
	"github.com/footixhq/footix-manager/internal/cache"
	"github.com/footixhq/footix-manager/internal/clock"
	"github.com/footixhq/footix-manager/internal/config"
	"github.com/footixhq/footix-manager/internal/finance"
	"github.com/footixhq/footix-manager/internal/health"
	"github.com/footixhq/footix-manager/internal/leader"
	"github.com/footixhq/footix-manager/internal/league"
	"github.com/footixhq/footix-manager/internal/realtime"
	"github.com/footixhq/footix-manager/internal/store"
	"github.com/footixhq/footix-manager/internal/telemetry"

	// Register store drivers so they are available via store.Open.
	_ "github.com/footixhq/footix-manager/internal/store/entstore"
	_ "github.com/footixhq/footix-manager/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup telemetry.
	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	// Open store using the configured driver (sqlx or ent).
	repos, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN(), clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "connected to database", slog.String("driver", cfg.Database.Driver))

	// One Redis client shared by the cache, the realtime publisher and the
	// rate limiter.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	standingsCache := cache.New(rdb, cfg.Redis.CacheTTL)
	notifier := realtime.NewPublisher(rdb)

	// Event archival is optional; auctions run fine without it.
	var archiver auction.Archiver
	if cfg.NATS.Enabled {
		natsPub, natsErr := archive.New(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if natsErr != nil {
			logger.WarnContext(ctx, "archive setup failed, continuing without archival", slog.Any("error", natsErr))
		} else {
			defer natsPub.Close()
			archiver = natsPub
		}
	}

	// Initialize managers.
	auctionMgr := auction.NewManager(auction.Deps{
		Rules:     cfg.Game.Market,
		Events:    repos.Events,
		Clubs:     repos.Clubs,
		Players:   repos.Players,
		Records:   repos.Auctions,
		Transfers: repos.Transfers,
		Notifier:  notifier,
		Archiver:  archiver,
		Logger:    logger,
		TP:        tp.TracerProvider,
		Clock:     clk,
	})
	leagueMgr := league.NewManager(repos.Standings, repos.Events, standingsCache, logger, tp.TracerProvider)
	financeMgr := finance.NewManager(repos.Clubs, repos.Transfers, repos.Events, logger, tp.TracerProvider)

	// Setup health checks.
	healthHandler := health.NewHandler(clk,
		health.Checker{Name: "database", Check: repos.Ping},
		health.Checker{Name: "redis", Check: standingsCache.Ping},
	)

	// HTTP API runs on all replicas; only the leader drives the background
	// loops that mutate auctions and balances.
	handler := api.NewHandler(auctionMgr, leagueMgr, financeMgr, repos.Clubs, repos.Players, cfg.Game, logger)
	app := api.NewServer(handler, healthHandler, rdb, cfg.Server, cfg.Auth.JWTSecret)

	go func() {
		logger.InfoContext(ctx, "starting http server", slog.Int("port", cfg.Server.Port))
		if listenErr := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); listenErr != nil {
			logger.ErrorContext(ctx, "http server error", slog.Any("error", listenErr))
		}
	}()

	// startLoops is the core work that only the leader should run.
	startLoops := func(ctx context.Context) {
		// Recover in-flight auctions from the event store so that they
		// survive leader failover.
		if n, recoverErr := auctionMgr.RecoverOpen(ctx); recoverErr != nil {
			logger.ErrorContext(ctx, "auction recovery failed", slog.Any("error", recoverErr))
		} else if n > 0 {
			logger.InfoContext(ctx, "recovered open auctions", slog.Int("count", n))
		}

		go auctionMgr.Run(ctx, cfg.Game.FinalizeInterval)
		go financeMgr.Run(ctx, cfg.Game.SalaryInterval)

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "footixd is running (leader)", slog.String("version", version))

		// Block until leadership is lost or process is shutting down.
		<-ctx.Done()
		healthHandler.SetReady(false)
	}

	if cfg.LeaderElection.Enabled {
		logger.InfoContext(ctx, "leader election enabled, waiting for leadership...")

		if leaderErr := leader.Run(ctx, cfg.LeaderElection, logger, startLoops, func() {
			logger.Info("lost leadership, shutting down...")
			cancel()
		}); leaderErr != nil {
			return fmt.Errorf("leader election: %w", leaderErr)
		}
	} else {
		startLoops(ctx)
	}

	logger.Info("shutting down...")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
