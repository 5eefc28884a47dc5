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

// Package store provides Postgres-backed persistence for structured source
// requests and their generated drafts, including the review status
// lifecycle: new -> drafted -> pending_review -> sent | rejected | error.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

// Request statuses. Transitions move strictly forward; terminal states are
// sent, rejected, and error.
const (
	StatusNew           = "new"
	StatusDrafted       = "drafted"
	StatusPendingReview = "pending_review"
	StatusSent          = "sent"
	StatusRejected      = "rejected"
	StatusError         = "error"
)

// RequestRecord is a persisted structured request plus lifecycle metadata.
type RequestRecord struct {
	ID        int64
	Request   models.StructuredRequest
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DraftRecord is a persisted draft keyed by its request's external ID.
type DraftRecord struct {
	ID         int64
	ExternalID string
	Subject    string
	Body       string
	Model      string
	Edited     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store provides CRUD operations for requests and drafts in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store backed by the given Postgres pool. It ensures the
// requests and drafts tables exist on creation.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure request schema: %w", err)
	}
	slog.Info("request store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS requests (
			id             BIGSERIAL PRIMARY KEY,
			external_id    TEXT NOT NULL UNIQUE,
			thread_id      TEXT DEFAULT '',
			message_id     TEXT DEFAULT '',
			provider       TEXT DEFAULT '',
			query_index    INT DEFAULT 0,
			subject        TEXT DEFAULT '',
			sender         TEXT DEFAULT '',
			sender_email   TEXT DEFAULT '',
			reply_to       TEXT DEFAULT '',
			received_at    TIMESTAMPTZ NOT NULL,
			deadline       TEXT DEFAULT '',
			requirements   TEXT DEFAULT '',
			query_text     TEXT NOT NULL,
			summary        TEXT DEFAULT '',
			category       TEXT DEFAULT '',
			media_outlet   TEXT DEFAULT '',
			requester_name TEXT DEFAULT '',
			analysis       JSONB,
			status         TEXT DEFAULT 'new',
			created_at     TIMESTAMPTZ DEFAULT NOW(),
			updated_at     TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
		CREATE INDEX IF NOT EXISTS idx_requests_received ON requests(received_at);

		CREATE TABLE IF NOT EXISTS drafts (
			id          BIGSERIAL PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE REFERENCES requests(external_id) ON DELETE CASCADE,
			subject     TEXT NOT NULL,
			body        TEXT NOT NULL,
			model       TEXT DEFAULT '',
			edited      BOOLEAN DEFAULT FALSE,
			created_at  TIMESTAMPTZ DEFAULT NOW(),
			updated_at  TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

// UpsertRequest inserts or refreshes a request keyed on its external ID.
// Re-ingesting a digest updates the parsed fields but never rewinds status.
func (s *Store) UpsertRequest(ctx context.Context, req models.StructuredRequest) error {
	var analysis []byte
	if req.Analysis != nil {
		var err error
		analysis, err = json.Marshal(req.Analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO requests
			(external_id, thread_id, message_id, provider, query_index, subject,
			 sender, sender_email, reply_to, received_at, deadline, requirements,
			 query_text, summary, category, media_outlet, requester_name, analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (external_id) DO UPDATE SET
			subject        = EXCLUDED.subject,
			deadline       = EXCLUDED.deadline,
			requirements   = EXCLUDED.requirements,
			query_text     = EXCLUDED.query_text,
			summary        = EXCLUDED.summary,
			category       = EXCLUDED.category,
			media_outlet   = EXCLUDED.media_outlet,
			requester_name = EXCLUDED.requester_name,
			analysis       = COALESCE(EXCLUDED.analysis, requests.analysis),
			updated_at     = NOW()
	`, req.ExternalID, req.ThreadID, req.MessageID, string(req.Provider),
		req.QueryIndex, req.Subject, req.Sender, req.SenderEmail, req.ReplyTo,
		req.ReceivedAt, req.Deadline, req.Requirements, req.QueryText,
		req.Summary, req.Category, req.MediaOutlet, req.RequesterName, analysis)
	return err
}

// GetRequest retrieves a request by external ID. Returns nil when absent.
func (s *Store) GetRequest(ctx context.Context, externalID string) (*RequestRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, external_id, thread_id, message_id, provider, query_index,
		       subject, sender, sender_email, reply_to, received_at, deadline,
		       requirements, query_text, summary, category, media_outlet,
		       requester_name, analysis, status, created_at, updated_at
		FROM requests
		WHERE external_id = $1
	`, externalID)
	return scanRequest(row)
}

// ListByStatus returns requests in the given status, oldest first.
func (s *Store) ListByStatus(ctx context.Context, status string, limit int) ([]RequestRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, external_id, thread_id, message_id, provider, query_index,
		       subject, sender, sender_email, reply_to, received_at, deadline,
		       requirements, query_text, summary, category, media_outlet,
		       requester_name, analysis, status, created_at, updated_at
		FROM requests
		WHERE status = $1
		ORDER BY received_at
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RequestRecord
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// MarkStatus sets the lifecycle status of a request.
func (s *Store) MarkStatus(ctx context.Context, externalID, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE requests
		SET status = $1, updated_at = NOW()
		WHERE external_id = $2
	`, status, externalID)
	return err
}

// SaveDraft inserts or replaces the draft for a request and advances the
// request to the drafted status.
func (s *Store) SaveDraft(ctx context.Context, d models.Draft) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO drafts (external_id, subject, body, model)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE SET
			subject    = EXCLUDED.subject,
			body       = EXCLUDED.body,
			model      = EXCLUDED.model,
			edited     = FALSE,
			updated_at = NOW()
	`, d.RequestID, d.Subject, d.Body, d.Model)
	if err != nil {
		return err
	}
	return s.MarkStatus(ctx, d.RequestID, StatusDrafted)
}

// UpdateDraft applies a reviewer edit to a stored draft.
func (s *Store) UpdateDraft(ctx context.Context, externalID, subject, body string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE drafts
		SET subject = $1, body = $2, edited = TRUE, updated_at = NOW()
		WHERE external_id = $3
	`, subject, body, externalID)
	return err
}

// GetDraft retrieves the draft for a request. Returns nil when absent.
func (s *Store) GetDraft(ctx context.Context, externalID string) (*DraftRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, external_id, subject, body, model, edited, created_at, updated_at
		FROM drafts
		WHERE external_id = $1
	`, externalID)

	var d DraftRecord
	err := row.Scan(&d.ID, &d.ExternalID, &d.Subject, &d.Body, &d.Model,
		&d.Edited, &d.CreatedAt, &d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanRequest(row pgx.Row) (*RequestRecord, error) {
	var (
		r        RequestRecord
		provider string
		analysis []byte
	)
	err := row.Scan(
		&r.ID, &r.Request.ExternalID, &r.Request.ThreadID, &r.Request.MessageID,
		&provider, &r.Request.QueryIndex, &r.Request.Subject, &r.Request.Sender,
		&r.Request.SenderEmail, &r.Request.ReplyTo, &r.Request.ReceivedAt,
		&r.Request.Deadline, &r.Request.Requirements, &r.Request.QueryText,
		&r.Request.Summary, &r.Request.Category, &r.Request.MediaOutlet,
		&r.Request.RequesterName, &analysis, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Request.Provider = models.Provider(provider)
	if len(analysis) > 0 {
		var a models.RelevanceAnalysis
		if err := json.Unmarshal(analysis, &a); err == nil {
			r.Request.Analysis = &a
		}
	}
	return &r, nil
}
