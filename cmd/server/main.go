// Package main runs the tax and credit engine as a standalone HTTP server
// for local development. Postgres and Redis are optional.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tax-credit-engine/internal/api"
	"tax-credit-engine/internal/config"
	"tax-credit-engine/internal/services/assessor"
	"tax-credit-engine/internal/services/cache"
	"tax-credit-engine/internal/services/database"
	"tax-credit-engine/internal/services/tax"
	"tax-credit-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := tax.NewEngine(cfg.DeductionRules())

	store := cache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword)
	defer store.Close()
	comparisons := cache.NewComparisons(engine, store, cfg.CacheTTL)

	deps := api.Deps{
		Engine:   engine,
		Comparer: comparisons,
		Assessor: assessor.NewService(comparisons, nil),
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		logger.Warn("Database unavailable, running without persistence", zap.Error(err))
	} else {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		deps.DB = db
		deps.Assessments = db.Assessments()
		deps.Scores = db.Scores()
		deps.Assessor = assessor.NewService(comparisons, db.Assessments())
	}

	server := api.New(net.JoinHostPort("0.0.0.0", cfg.Port), deps)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
