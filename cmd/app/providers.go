package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/news-reducer/internal/domain/auth"
	"github.com/yanqian/news-reducer/internal/domain/summarizer"
	"github.com/yanqian/news-reducer/internal/infra/annotator/remote"
	"github.com/yanqian/news-reducer/internal/infra/bpe"
	"github.com/yanqian/news-reducer/internal/infra/config"
	"github.com/yanqian/news-reducer/internal/infra/ratelimit"
)

func provideSummaryConfig(cfg *config.Config) summarizer.Config {
	return summarizer.Config{
		AllowedTags:          cfg.Summary.AllowedTags,
		Damping:              cfg.Summary.Damping,
		ConvergenceThreshold: cfg.Summary.ConvergenceThreshold,
		MaxIterations:        cfg.Summary.MaxIterations,
		Budget:               cfg.Summary.Budget,
		MaxBudget:            cfg.Summary.MaxBudget,
		LengthUnit:           summarizer.LengthUnit(cfg.Summary.LengthUnit),
		ScoringMode:          summarizer.ScoringMode(cfg.Summary.ScoringMode),
		Separator:            cfg.Summary.Separator,
		MaxKeywords:          cfg.Summary.MaxKeywords,
		Workers:              cfg.Summary.Workers,
		Timeout:              cfg.Summary.Timeout,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideAnnotator(cfg *config.Config, logger *slog.Logger) summarizer.Annotator {
	baseURL := strings.TrimSpace(cfg.Annotator.BaseURL)
	if baseURL == "" {
		logger.Warn("annotator base url not set, only pre-annotated requests will succeed")
		return remote.Unavailable{}
	}
	logger.Info("remote annotator enabled", "base_url", baseURL)
	return remote.NewClient(baseURL, cfg.Annotator.Timeout)
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) summarizer.TokenCounter {
	if cfg.Summary.LengthUnit != string(summarizer.UnitTokens) {
		return nil
	}
	counter, err := bpe.NewCounter(cfg.Summary.Encoding)
	if err != nil {
		logger.Error("failed to load bpe encoding, measuring sentences in words", "encoding", cfg.Summary.Encoding, "error", err)
		return nil
	}
	return counter
}

func provideRateLimiter(cfg *config.Config, logger *slog.Logger) ratelimit.Limiter {
	rl := cfg.HTTP.RateLimit
	if !rl.Enabled {
		return nil
	}
	fallback := ratelimit.NewMemoryLimiter(rl.RequestsPerMinute, rl.Burst)
	if !rl.Valkey.Enabled {
		return fallback
	}
	opt, err := buildValkeyOptions(rl.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory rate limiter", "error", err)
		return fallback
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory rate limiter", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory rate limiter", "error", err)
		client.Close()
		return fallback
	}
	logger.Info("valkey rate limiter enabled", "addr", rl.Valkey.Addr)
	return ratelimit.NewValkeyLimiter(client, rl.Valkey.KeyPrefix, rl.RequestsPerMinute, rl.Burst)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
