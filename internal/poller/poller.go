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

// Package poller runs the digest pipeline: it periodically lists unread
// digest messages and walks each one through sanitize, provider detection,
// record splitting, relevance classification, draft generation and
// normalization, persistence, and the review channel. Records within a
// digest are processed in order; a digest is marked read once all of its
// records have been handled, including when none were admitted.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goodguyben/Source-Request-Responder/internal/audit"
	"github.com/goodguyben/Source-Request-Responder/internal/digest"
	"github.com/goodguyben/Source-Request-Responder/internal/draft"
	"github.com/goodguyben/Source-Request-Responder/internal/models"
	"github.com/goodguyben/Source-Request-Responder/internal/relevance"
	"github.com/goodguyben/Source-Request-Responder/internal/sanitize"
	"github.com/goodguyben/Source-Request-Responder/internal/store"
)

// DocumentSource lists, fetches, and acknowledges digest messages.
type DocumentSource interface {
	ListUnread(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, messageID string) (models.Document, error)
	MarkRead(ctx context.Context, messageID string) error
}

// SeenFilter deduplicates messages across poll cycles.
type SeenFilter interface {
	IsNew(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

// Classifier produces a relevance verdict for one record.
type Classifier interface {
	Analyze(ctx context.Context, queryText, summary, category string) models.RelevanceAnalysis
}

// Generator produces raw draft text for an admitted request.
type Generator interface {
	Generate(ctx context.Context, req models.StructuredRequest) (string, error)
	Model() string
}

// RequestStore persists requests and drafts.
type RequestStore interface {
	UpsertRequest(ctx context.Context, req models.StructuredRequest) error
	SaveDraft(ctx context.Context, d models.Draft) error
	MarkStatus(ctx context.Context, externalID, status string) error
}

// ReviewChannel posts a draft for human review.
type ReviewChannel interface {
	SendReview(ctx context.Context, req models.StructuredRequest, subject, body string) error
}

// Recorder appends audit events.
type Recorder interface {
	Record(ctx context.Context, action, externalID string, detail map[string]string)
}

// Poller owns the pipeline loop.
type Poller struct {
	source     DocumentSource
	seen       SeenFilter
	classifier Classifier
	generator  Generator
	store      RequestStore
	review     ReviewChannel
	trail      Recorder

	gate     relevance.GateConfig
	interval time.Duration
	logger   *slog.Logger
}

// New wires a poller.
func New(source DocumentSource, seen SeenFilter, classifier Classifier, generator Generator,
	st RequestStore, review ReviewChannel, trail Recorder,
	gate relevance.GateConfig, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:     source,
		seen:       seen,
		classifier: classifier,
		generator:  generator,
		store:      st,
		review:     review,
		trail:      trail,
		gate:       gate,
		interval:   interval,
		logger:     logger,
	}
}

// Run starts the polling loop. It blocks until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("digest poller starting", "interval", p.interval)

	// Do an initial poll immediately
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("digest poller stopping")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll lists unread digests and processes each in turn.
func (p *Poller) poll(ctx context.Context) {
	ids, err := p.source.ListUnread(ctx)
	if err != nil {
		p.logger.Error("list unread digests", "error", err)
		return
	}
	if len(ids) == 0 {
		p.logger.Debug("no unread digests")
		return
	}
	p.logger.Info("found unread digests", "count", len(ids))

	for _, id := range ids {
		if err := p.ProcessMessage(ctx, id); err != nil {
			p.logger.Error("process digest", "message_id", id, "error", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// ProcessMessage runs the full pipeline for one digest message. Record-level
// failures degrade and continue; only document-level failures (fetch, final
// mark-read) return an error, with the seen-marker released so the next poll
// retries the message.
func (p *Poller) ProcessMessage(ctx context.Context, messageID string) error {
	isNew, err := p.seen.IsNew(ctx, messageID)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if !isNew {
		// Already handled in a previous cycle; just clear the unread flag.
		p.logger.Debug("digest already seen", "message_id", messageID)
		return p.source.MarkRead(ctx, messageID)
	}

	doc, err := p.source.Fetch(ctx, messageID)
	if err != nil {
		p.forget(ctx, messageID)
		return fmt.Errorf("fetch digest: %w", err)
	}

	doc.Body = sanitize.Clean(doc.Body)
	provider := digest.DetectProvider(doc.Subject, doc.Headers, doc.Body)
	requests := digest.Split(doc, provider)

	p.logger.Info("digest parsed",
		"message_id", messageID,
		"provider", string(provider),
		"records", len(requests),
	)

	admitted := 0
	for _, req := range requests {
		if p.processRecord(ctx, req) {
			admitted++
		}
	}

	if admitted == 0 {
		p.logger.Info("no records admitted", "message_id", messageID)
	}

	// Mark read regardless of admission so the digest is not re-listed.
	if err := p.source.MarkRead(ctx, messageID); err != nil {
		p.forget(ctx, messageID)
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// processRecord classifies, persists, and (when admitted) drafts and posts
// one record for review. Returns true when the record was admitted.
func (p *Poller) processRecord(ctx context.Context, req models.StructuredRequest) bool {
	analysis := p.classifier.Analyze(ctx, req.QueryText, req.Summary, req.Category)
	req.Analysis = &analysis

	if err := p.store.UpsertRequest(ctx, req); err != nil {
		p.logger.Error("persist request", "external_id", req.ExternalID, "error", err)
		return false
	}
	p.trail.Record(ctx, audit.ActionRequestParsed, req.ExternalID, map[string]string{
		"provider": string(req.Provider),
	})

	if !relevance.Admit(req, analysis, p.gate) {
		p.logger.Info("record not admitted",
			"external_id", req.ExternalID,
			"relevant", fmt.Sprintf("%t", analysis.Relevant),
			"score", fmt.Sprintf("%.2f", analysis.RelevanceScore),
		)
		if err := p.store.MarkStatus(ctx, req.ExternalID, store.StatusRejected); err != nil {
			p.logger.Error("mark rejected", "external_id", req.ExternalID, "error", err)
		}
		return false
	}

	raw, err := p.generator.Generate(ctx, req)
	if err != nil {
		// Normalization still produces a structurally valid draft from
		// whatever text is available, so the reviewer sees something.
		p.logger.Warn("draft generation failed, normalizing empty draft",
			"external_id", req.ExternalID, "error", err)
		raw = ""
	}

	subject, body := draft.Normalize(raw, draft.Options{
		OriginalSubject: req.Subject,
		QueryText:       req.QueryText,
		RequesterName:   req.RequesterName,
	})

	d := models.Draft{
		RequestID: req.ExternalID,
		Subject:   subject,
		Body:      body,
		Model:     p.generator.Model(),
	}
	if err := p.store.SaveDraft(ctx, d); err != nil {
		p.logger.Error("persist draft", "external_id", req.ExternalID, "error", err)
		p.markError(ctx, req.ExternalID)
		return false
	}
	p.trail.Record(ctx, audit.ActionDraftCreated, req.ExternalID, map[string]string{
		"model": d.Model,
	})

	if err := p.review.SendReview(ctx, req, subject, body); err != nil {
		p.logger.Error("send review", "external_id", req.ExternalID, "error", err)
		p.markError(ctx, req.ExternalID)
		return false
	}
	return true
}

func (p *Poller) markError(ctx context.Context, externalID string) {
	if err := p.store.MarkStatus(ctx, externalID, store.StatusError); err != nil {
		p.logger.Error("mark error status", "external_id", externalID, "error", err)
	}
}

func (p *Poller) forget(ctx context.Context, messageID string) {
	if err := p.seen.Forget(ctx, messageID); err != nil {
		p.logger.Warn("release seen marker", "message_id", messageID, "error", err)
	}
}
