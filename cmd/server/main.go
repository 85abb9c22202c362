package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talent-sourcing/internal/api/ranking"
	"talent-sourcing/internal/config"
	"talent-sourcing/internal/logger"
	"talent-sourcing/internal/server"
	"talent-sourcing/internal/sourcing"
	"talent-sourcing/internal/storage/postgres"
	"talent-sourcing/internal/storage/redis"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting talent sourcing service",
		zap.String("log_level", cfg.LogLevel),
		zap.Int64("sourcing_cost", cfg.SourcingCost),
	)

	log.Info("connecting to PostgreSQL...")
	store, err := postgres.New(cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer store.Close()

	log.Info("connecting to Redis...")
	cache, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer cache.Close()

	ranker := ranking.New(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		cfg.LLMTemperature,
		cfg.SourcingTopN,
		cfg.LLMTimeout,
		log,
	)
	log.Info("ranking engine client created", zap.String("model", cfg.LLMModel))

	svc := sourcing.New(store, ranker, sourcing.Config{
		Cost:                  cfg.SourcingCost,
		DryRunDailyLimit:      cfg.DryRunDailyLimit,
		DryRunPerVacancyLimit: cfg.DryRunPerVacancyLimit,
		PoolFetchLimit:        cfg.PoolFetchLimit,
		PoolAnalyzeLimit:      cfg.PoolAnalyzeLimit,
	}, log)

	srv := server.New(svc, store, cache, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(cfg.HTTPAddr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped with error", zap.Error(err))
		}
	}

	log.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}
