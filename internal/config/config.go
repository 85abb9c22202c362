package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP
	HTTPAddr string

	// Database
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Ranking engine (LLM gateway)
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Sourcing settings
	SourcingCost          int64
	DryRunDailyLimit      int
	DryRunPerVacancyLimit int
	PoolFetchLimit        int
	PoolAnalyzeLimit      int
	SourcingTopN          int

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		HTTPAddr:              ":8080",
		LLMBaseURL:            "https://api.openai.com/v1",
		LLMModel:              "gpt-4o-mini",
		LLMTemperature:        0.2,
		LLMTimeout:            60 * time.Second,
		SourcingCost:          50,
		DryRunDailyLimit:      20,
		DryRunPerVacancyLimit: 3,
		PoolFetchLimit:        100,
		PoolAnalyzeLimit:      50,
		SourcingTopN:          10,
		LogLevel:              "info",
		RedisDB:               0,
	}

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}

	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	} else {
		cfg.RedisAddr = "localhost:6379"
	}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		db, err := strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		cfg.LLMBaseURL = baseURL
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		cfg.LLMModel = model
	}

	if temp := os.Getenv("LLM_TEMPERATURE"); temp != "" {
		f, err := strconv.ParseFloat(temp, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
		}
		cfg.LLMTemperature = f
	}

	if timeout := os.Getenv("LLM_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
		}
		cfg.LLMTimeout = d
	}

	if cost := os.Getenv("SOURCING_COST"); cost != "" {
		n, err := strconv.ParseInt(cost, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SOURCING_COST: %w", err)
		}
		cfg.SourcingCost = n
	}

	if limit := os.Getenv("DRY_RUN_DAILY_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid DRY_RUN_DAILY_LIMIT: %w", err)
		}
		cfg.DryRunDailyLimit = n
	}

	if limit := os.Getenv("DRY_RUN_PER_VACANCY_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid DRY_RUN_PER_VACANCY_LIMIT: %w", err)
		}
		cfg.DryRunPerVacancyLimit = n
	}

	if limit := os.Getenv("POOL_FETCH_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid POOL_FETCH_LIMIT: %w", err)
		}
		cfg.PoolFetchLimit = n
	}

	if limit := os.Getenv("POOL_ANALYZE_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid POOL_ANALYZE_LIMIT: %w", err)
		}
		cfg.PoolAnalyzeLimit = n
	}

	if topN := os.Getenv("SOURCING_TOP_N"); topN != "" {
		n, err := strconv.Atoi(topN)
		if err != nil {
			return nil, fmt.Errorf("invalid SOURCING_TOP_N: %w", err)
		}
		cfg.SourcingTopN = n
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is empty")
	}

	if c.SourcingCost < 1 {
		return fmt.Errorf("sourcing cost must be positive: %d", c.SourcingCost)
	}

	if c.DryRunDailyLimit < 1 || c.DryRunPerVacancyLimit < 1 {
		return fmt.Errorf("dry run limits must be positive")
	}

	if c.DryRunPerVacancyLimit > c.DryRunDailyLimit {
		return fmt.Errorf("per-vacancy dry run limit exceeds daily limit")
	}

	if c.PoolAnalyzeLimit > c.PoolFetchLimit {
		return fmt.Errorf("pool analyze limit exceeds fetch limit")
	}

	if c.SourcingTopN < 1 || c.SourcingTopN > c.PoolAnalyzeLimit {
		return fmt.Errorf("sourcing top N must be between 1 and the analyze limit")
	}

	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM temperature out of range: %v", c.LLMTemperature)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}
