// Copyright (c) 2026 Bezal John Benny
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Source Request Responder — Historical Backfill Command
//
// Standalone CLI tool that replays digest emails from the last N days
// through the full parse/classify/draft pipeline. Intended for seeding
// data on new deployments or recovering from downtime.
//
// Usage:
//
//	go run ./cmd/backfill/ [--days 7]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/goodguyben/Source-Request-Responder/internal/audit"
	"github.com/goodguyben/Source-Request-Responder/internal/backfill"
	"github.com/goodguyben/Source-Request-Responder/internal/config"
	"github.com/goodguyben/Source-Request-Responder/internal/dedup"
	"github.com/goodguyben/Source-Request-Responder/internal/draft"
	"github.com/goodguyben/Source-Request-Responder/internal/gemini"
	"github.com/goodguyben/Source-Request-Responder/internal/gmail"
	"github.com/goodguyben/Source-Request-Responder/internal/poller"
	"github.com/goodguyben/Source-Request-Responder/internal/relevance"
	"github.com/goodguyben/Source-Request-Responder/internal/review"
	"github.com/goodguyben/Source-Request-Responder/internal/store"
)

func main() {
	_ = godotenv.Load()

	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	daysFlag := flag.Int("days", 7, "Lookback window in days")
	flag.Parse()

	if *daysFlag <= 0 {
		slog.Error("--days must be positive", "days", *daysFlag)
		os.Exit(1)
	}

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	st, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise request store", "error", err)
		os.Exit(1)
	}

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	trail := audit.NewTrail(rdb)
	if err := trail.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	filter := dedup.NewFilter(rdb)

	// --- Gmail ---
	svc, err := gmail.NewService(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile)
	if err != nil {
		slog.Error("failed to create Gmail service", "error", err)
		os.Exit(1)
	}
	source, err := gmail.NewSource(ctx, svc, cfg.Gmail.Label, logger)
	if err != nil {
		slog.Error("failed to open digest label", "error", err)
		os.Exit(1)
	}
	sender := gmail.NewSender(svc, logger)

	// --- Gemini ---
	llm, err := gemini.NewClient(gemini.Config{APIKey: cfg.Gemini.APIKey})
	if err != nil {
		slog.Error("failed to create Gemini client", "error", err)
		os.Exit(1)
	}

	var classifier poller.Classifier = relevance.Disabled{}
	if cfg.Gemini.UseFiltering {
		classifier = relevance.NewClassifier(llm, cfg.Gemini.FilterModel, cfg.Gemini.FilterFallbackModel)
	}

	generator := draft.NewGenerator(llm, cfg.Gemini.DraftModel,
		draft.LoadTemplate(cfg.Gemini.PromptTemplatePath), logger)

	gate := relevance.GateConfig{
		ScoreThreshold:      cfg.Gemini.ScoreThreshold,
		ConfidenceThreshold: cfg.Gemini.ConfidenceThreshold,
		IncludeKeywords:     cfg.IncludeKeywords,
		ExcludeKeywords:     cfg.ExcludeKeywords,
	}

	// --- Telegram Review Channel ---
	tg := review.NewClient(review.ClientConfig{
		Token:  cfg.Telegram.BotToken,
		ChatID: cfg.Telegram.ChatID,
	})
	reviewer := review.NewReviewer(tg, st, sender, trail, rdb, logger)

	// The poller doubles as the per-message processor; backfill drives it
	// over a historical listing instead of the unread set.
	p := poller.New(source, filter, classifier, generator, st, reviewer, trail,
		gate, cfg.PollInterval, logger)

	// --- Run Backfill ---
	runner := backfill.NewRunner(backfill.RunnerConfig{
		Lister:    source,
		Processor: p,
		Logger:    logger,
	})

	result, err := runner.Run(ctx, *daysFlag)
	if err != nil {
		slog.Error("backfill failed", "error", err)
		os.Exit(1)
	}

	// --- Summary ---
	slog.Info("backfill finished",
		"listed", result.Listed,
		"errors", result.Errors,
		"elapsed", result.Elapsed,
	)
}
