// Package main provides the game server binary: the HTTP API over the
// compiled rulebook, board topology, and campaign storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/torbridge/conquest/internal/config"
	"github.com/torbridge/conquest/internal/content"
	"github.com/torbridge/conquest/internal/game/board"
	"github.com/torbridge/conquest/internal/game/rulebook"
	"github.com/torbridge/conquest/internal/gameserver"
	"github.com/torbridge/conquest/internal/observability"
	"github.com/torbridge/conquest/internal/server"
	"github.com/torbridge/conquest/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	noDB := flag.Bool("no-db", false, "run without campaign storage (rulebook and board queries only)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	store, closeStore, err := newContentStore(cfg.Content)
	if err != nil {
		logger.Fatal("opening content store", zap.Error(err))
	}
	logger.Info("content store ready", zap.String("backend", cfg.Content.Backend))

	repo := rulebook.NewRepository(store, logger)
	compiler := rulebook.NewCompiler(repo, logger)
	boards := board.NewCache(store, logger)

	// Fail fast on broken shipped content rather than on first request.
	if _, err := repo.BaseRules(); err != nil {
		logger.Fatal("loading base rulebook", zap.Error(err))
	}
	for _, version := range boards.Versions() {
		boardStart := time.Now()
		topo, err := boards.Get(version)
		if err != nil {
			logger.Fatal("loading board", zap.String("board", version), zap.Error(err))
		}
		report := topo.VerifyIntegrity()
		logger.Info("board verified",
			zap.String("board", version),
			zap.Bool("valid", report.Valid),
			zap.Int("issues", len(report.Issues)),
			zap.Duration("elapsed", time.Since(boardStart)),
		)
	}

	var campaigns gameserver.CampaignDirectory
	var pool *postgres.Pool
	if !*noDB {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		campaigns = postgres.NewCampaignStore(pool.DB())
	}

	srv := gameserver.New(cfg.Server, logger, compiler, repo, boards, campaigns)

	stopTimeout := cfg.Server.ShutdownTimeout
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	lifecycle := server.NewLifecycle(logger, stopTimeout)
	lifecycle.Add("http", srv)

	if pool != nil {
		lifecycle.Add("postgres", server.Hooks{
			OnStart: func() error {
				for {
					time.Sleep(30 * time.Second)
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			},
			OnShutdown: func(context.Context) error {
				pool.Close()
				return nil
			},
		})
	}
	if closeStore != nil {
		lifecycle.Add("content", server.Hooks{
			OnShutdown: func(context.Context) error {
				return closeStore()
			},
		})
	}

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Server.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newContentStore builds the configured content backend. The returned close
// function is nil for backends with nothing to release.
func newContentStore(cfg config.ContentConfig) (content.Store, func() error, error) {
	switch cfg.Backend {
	case "embedded":
		return content.Embedded(), nil, nil
	case "fs":
		return content.NewFSStore(cfg.Dir), nil, nil
	case "sqlite":
		store, err := content.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown content backend %q", cfg.Backend)
	}
}
