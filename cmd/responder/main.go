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

// Source Request Responder
//
// Entry point for the responder service. It:
//  1. Loads configuration from config.yaml and the environment
//  2. Connects to PostgreSQL and Redis
//  3. Opens the Gmail digest label and the Telegram review channel
//  4. Runs the digest poller (parse -> classify -> draft -> review)
//  5. Runs the Telegram dispatcher (approve / edit / reject)
//  6. Serves a health endpoint and handles graceful shutdown
//
// Run with -authorize to perform the one-time Gmail OAuth consent flow.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/goodguyben/Source-Request-Responder/internal/audit"
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
	authorize := flag.Bool("authorize", false, "run the one-time Gmail OAuth consent flow and exit")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting source request responder")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *authorize {
		if err := runAuthorize(cfg); err != nil {
			slog.Error("authorization failed", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("configuration loaded",
		"label", cfg.Gmail.Label,
		"poll_interval", cfg.PollInterval,
		"filtering", cfg.Gemini.UseFiltering,
	)

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
	slog.Info("connected to PostgreSQL")

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	trail := audit.NewTrail(rdb)
	if err := trail.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	filter := dedup.NewFilter(rdb)

	// --- Request Store (Postgres) ---
	st, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise request store", "error", err)
		os.Exit(1)
	}

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

	// --- Pipeline ---
	p := poller.New(source, filter, classifier, generator, st, reviewer, trail,
		gate, cfg.PollInterval, logger)

	go p.Run(ctx)
	go func() {
		if err := reviewer.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("review dispatcher stopped", "error", err)
		}
	}()

	// --- Health Check Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check Redis
		if err := trail.Ping(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
		// Check Postgres
		if err := pgPool.Ping(r.Context()); err != nil {
			http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel() // Stop the poller and dispatcher

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		rdb.Close()
		pgPool.Close()
	}()

	slog.Info("responder service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("responder service stopped")
}

// runAuthorize walks the installed-app OAuth consent flow on the terminal
// and saves the resulting token for later runs.
func runAuthorize(cfg *config.Config) error {
	url, err := gmail.AuthorizeURL(cfg.Gmail.CredentialsFile)
	if err != nil {
		return err
	}

	fmt.Printf("Open the following URL in a browser, grant access, and paste the code here:\n\n%s\n\nCode: ", url)
	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)

	if err := gmail.Exchange(context.Background(), cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile, code); err != nil {
		return err
	}
	fmt.Printf("Token saved to %s\n", cfg.Gmail.TokenFile)
	return nil
}
