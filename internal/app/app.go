// Package app wires configuration into the components both binaries run.
package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/ingest"
	"github.com/joseph-ayodele/submission-intake/internal/llm/openai"
	"github.com/joseph-ayodele/submission-intake/internal/pipeline"
	"github.com/joseph-ayodele/submission-intake/internal/submission"
	"github.com/joseph-ayodele/submission-intake/internal/summarize"
)

// NewLogger returns a JSON or text slog logger at the configured level.
func NewLogger(cfg common.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewProcessor builds the extraction pipeline over the OpenAI client.
func NewProcessor(cfg *common.Config, logger *slog.Logger) *pipeline.Processor {
	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Strict:      cfg.LLM.Strict,
	}, logger)
	return pipeline.NewProcessor(logger, client, summarize.New(logger, client))
}

// NewTokenCache returns a Redis-backed cache when an address is configured and reachable,
// otherwise an in-process one. The returned func releases the Redis connection.
func NewTokenCache(ctx context.Context, cfg common.RedisConfig, logger *slog.Logger) (submission.TokenCache, func()) {
	if cfg.Addr == "" {
		return submission.NewMemoryTokenCache(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("submission.cache.redis_unavailable", "addr", cfg.Addr, "error", err, "fallback", "memory")
		_ = rdb.Close()
		return submission.NewMemoryTokenCache(), func() {}
	}
	logger.Info("submission.cache.redis", "addr", cfg.Addr, "db", cfg.DB)
	return submission.NewRedisTokenCache(rdb, logger), func() { _ = rdb.Close() }
}

// NewSubmitter builds the quote API client for the selected environment.
// It fails when that environment's credentials are incomplete.
func NewSubmitter(cfg *common.Config, cache submission.TokenCache, logger *slog.Logger) (*submission.Client, error) {
	if err := cfg.ValidateForSubmit(); err != nil {
		return nil, err
	}
	env, _, err := cfg.QuoteEnvironment()
	if err != nil {
		return nil, err
	}
	envCfg := func(q common.QuoteEnvConfig) submission.EnvConfig {
		return submission.EnvConfig{
			BaseURL:      q.BaseURL,
			TokenURL:     q.TokenURL,
			ClientID:     q.ClientID,
			ClientSecret: q.ClientSecret,
			Audience:     q.Audience,
		}
	}
	return submission.NewClient(submission.Config{
		Environment: env,
		Environments: map[constants.Environment]submission.EnvConfig{
			constants.EnvTest:       envCfg(cfg.Submission.Test),
			constants.EnvProduction: envCfg(cfg.Submission.Production),
		},
		QuotePath: cfg.Submission.QuotePath,
		Timeout:   cfg.Submission.Timeout,
	}, cache, logger), nil
}

// NewLoader returns a loader for local paths and s3:// URIs.
func NewLoader(ctx context.Context, cfg common.S3Config, logger *slog.Logger) (*ingest.Router, error) {
	s3l, err := ingest.NewS3Loader(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &ingest.Router{FS: ingest.NewFSLoader(logger), S3: s3l}, nil
}
