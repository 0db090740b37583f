package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cinescout/cinescout/internal/aggregator"
	"github.com/cinescout/cinescout/internal/api"
	"github.com/cinescout/cinescout/internal/catalog"
	"github.com/cinescout/cinescout/internal/config"
	"github.com/cinescout/cinescout/internal/database"
	"github.com/cinescout/cinescout/internal/discovery"
	"github.com/cinescout/cinescout/internal/history"
	"github.com/cinescout/cinescout/internal/logger"
	"github.com/cinescout/cinescout/internal/scheduler"
	"github.com/cinescout/cinescout/internal/scheduler/tasks"
	"github.com/cinescout/cinescout/internal/tmdb"
	"github.com/cinescout/cinescout/internal/websocket"
)

const version = "0.1.0"

func main() {
	// Optional .env for local development; ignore if absent
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Logging.Path,
	})
	defer log.Close()

	log.Info().
		Str("version", version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting CineScout")

	vocab, err := catalog.DefaultVocabulary()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load vocabulary")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// WebSocket hub for status events
	hub := websocket.NewHub()
	go hub.Run()

	// Upstream clients
	aggClient := aggregator.NewClient(cfg.Aggregator, log.Logger)
	tmdbClient := tmdb.NewClient(cfg.TMDB, log.Logger)

	// Shared item cache for popular pages and similar lookups
	cache := discovery.NewItemCache(discovery.CacheConfig{
		TTL:      time.Duration(cfg.Discovery.CacheTTLMinutes) * time.Minute,
		MaxItems: discovery.DefaultCacheConfig().MaxItems,
	})

	fetcher := discovery.NewFetcher(aggClient, tmdbClient, cache, discovery.FetcherConfig{
		MinBatch:   cfg.Discovery.MinBatch,
		GuardLimit: cfg.Discovery.GuardLimit,
	}, log.Logger)

	ranker := discovery.NewRanker(tmdbClient, cache, cfg.Discovery.RecommendLimit, log.Logger)

	historyService := history.NewService(db.Conn(), log.Logger)

	sessionTTL := time.Duration(cfg.Discovery.SessionTTLMinutes) * time.Minute
	sessions := discovery.NewManager(vocab, fetcher, ranker, sessionTTL, log.Logger)
	sessions.SetRecorder(historyService)
	sessions.SetBroadcaster(hub)

	// Background tasks
	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := tasks.RegisterTrendingWarmTask(sched, fetcher); err != nil {
		log.Warn().Err(err).Msg("failed to register trending warm task")
	}
	if err := tasks.RegisterSessionSweepTask(sched, sessions); err != nil {
		log.Warn().Err(err).Msg("failed to register session sweep task")
	}
	if err := tasks.RegisterHistoryPruneTask(sched, historyService, 90*24*time.Hour); err != nil {
		log.Warn().Err(err).Msg("failed to register history prune task")
	}
	sched.Start()

	server := api.NewServer(cfg, vocab, sessions, historyService, hub, log.Logger)
	server.SetScheduler(sched)

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil {
			log.Info().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	if err := sched.Stop(); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}
