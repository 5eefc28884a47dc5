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

// Package backfill replays historical digest messages through the pipeline:
// it lists every message under the digest label within a lookback window and
// processes each one. The seen-filter keeps already-handled digests from
// being drafted twice.
package backfill

import (
	"context"
	"log/slog"
	"time"
)

// Lister enumerates historical digest message IDs.
type Lister interface {
	ListSince(ctx context.Context, days int) ([]string, error)
}

// Processor runs the pipeline for one message.
type Processor interface {
	ProcessMessage(ctx context.Context, messageID string) error
}

// Result summarises a completed backfill run.
type Result struct {
	Listed  int
	Errors  int
	Elapsed time.Duration
}

// Runner performs historical digest backfill.
type Runner struct {
	lister    Lister
	processor Processor
	delay     time.Duration
	logger    *slog.Logger
}

// RunnerConfig holds dependencies for the backfill runner.
type RunnerConfig struct {
	Lister    Lister
	Processor Processor

	// Delay between messages to stay clear of API quotas.
	Delay time.Duration

	Logger *slog.Logger
}

// NewRunner creates a backfill runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Delay == 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		lister:    cfg.Lister,
		processor: cfg.Processor,
		delay:     cfg.Delay,
		logger:    cfg.Logger,
	}
}

// Run processes every digest from the last `days` days.
func (r *Runner) Run(ctx context.Context, days int) (*Result, error) {
	start := time.Now()

	ids, err := r.lister.ListSince(ctx, days)
	if err != nil {
		return nil, err
	}

	r.logger.Info("starting historical backfill", "days", days, "messages", len(ids))

	result := &Result{Listed: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if err := r.processor.ProcessMessage(ctx, id); err != nil {
			r.logger.Error("backfill digest failed", "message_id", id, "error", err)
			result.Errors++
		}

		select {
		case <-ctx.Done():
		case <-time.After(r.delay):
		}
	}

	result.Elapsed = time.Since(start)
	r.logger.Info("backfill complete",
		"listed", result.Listed,
		"errors", result.Errors,
		"elapsed", result.Elapsed,
	)
	return result, nil
}
