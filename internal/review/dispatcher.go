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

package review

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goodguyben/Source-Request-Responder/internal/audit"
	"github.com/goodguyben/Source-Request-Responder/internal/gmail"
	"github.com/goodguyben/Source-Request-Responder/internal/models"
	"github.com/goodguyben/Source-Request-Responder/internal/store"
)

const (
	pendingEditPrefix = "responder:pendingedit:"
	reviewMsgPrefix   = "responder:reviewmsg:"

	// pendingEditTTL expires an abandoned edit flow.
	pendingEditTTL = 24 * time.Hour

	longPollTimeout = 50 * time.Second
)

// RequestStore is the persistence surface the dispatcher needs.
type RequestStore interface {
	GetRequest(ctx context.Context, externalID string) (*store.RequestRecord, error)
	GetDraft(ctx context.Context, externalID string) (*store.DraftRecord, error)
	UpdateDraft(ctx context.Context, externalID, subject, body string) error
	MarkStatus(ctx context.Context, externalID, status string) error
}

// ReplySender sends an approved reply.
type ReplySender interface {
	Send(ctx context.Context, r gmail.Reply) error
}

// Recorder appends audit events.
type Recorder interface {
	Record(ctx context.Context, action, externalID string, detail map[string]string)
}

// Reviewer posts drafts for review and applies the reviewer's decisions.
type Reviewer struct {
	client *Client
	store  RequestStore
	sender ReplySender
	trail  Recorder
	rdb    *redis.Client
	logger *slog.Logger
}

// NewReviewer wires the review dispatcher. Redis holds transient state: the
// per-chat pending-edit marker and the review message ID per request.
func NewReviewer(client *Client, st RequestStore, sender ReplySender, trail Recorder, rdb *redis.Client, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{client: client, store: st, sender: sender, trail: trail, rdb: rdb, logger: logger}
}

// SendReview posts a draft with the approve/edit/reject keyboard and marks
// the request pending review.
func (r *Reviewer) SendReview(ctx context.Context, req models.StructuredRequest, subject, body string) error {
	text := buildReviewText(req, subject, body)
	msgID, err := r.client.SendMessage(ctx, text, reviewKeyboard(req.ExternalID))
	if err != nil {
		return fmt.Errorf("send review message: %w", err)
	}

	if err := r.rdb.Set(ctx, reviewMsgPrefix+req.ExternalID, msgID, 0).Err(); err != nil {
		r.logger.Warn("store review message id", "external_id", req.ExternalID, "error", err)
	}
	if err := r.store.MarkStatus(ctx, req.ExternalID, store.StatusPendingReview); err != nil {
		return fmt.Errorf("mark pending review: %w", err)
	}

	r.trail.Record(ctx, audit.ActionReviewSent, req.ExternalID, map[string]string{
		"message_id": strconv.FormatInt(msgID, 10),
	})
	r.logger.Info("draft sent for review", "external_id", req.ExternalID, "message_id", msgID)
	return nil
}

// Run long-polls Telegram for reviewer activity until the context is done.
func (r *Reviewer) Run(ctx context.Context) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := r.client.GetUpdates(ctx, offset, longPollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("poll telegram updates", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			switch {
			case u.CallbackQuery != nil:
				r.handleCallback(ctx, u.CallbackQuery)
			case u.Message != nil:
				r.handleMessage(ctx, u.Message)
			}
		}
	}
}

func (r *Reviewer) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if err := r.client.AnswerCallback(ctx, cb.ID); err != nil {
		r.logger.Warn("answer callback", "error", err)
	}

	action, externalID, found := strings.Cut(cb.Data, ":")
	if !found || externalID == "" {
		r.logger.Warn("malformed callback data", "data", cb.Data)
		return
	}

	switch action {
	case actionApprove:
		r.approve(ctx, externalID)
	case actionReject:
		r.reject(ctx, externalID)
	case actionEdit:
		r.beginEdit(ctx, cb, externalID)
	default:
		r.logger.Warn("unknown callback action", "action", action)
	}
}

func (r *Reviewer) approve(ctx context.Context, externalID string) {
	rec, err := r.store.GetRequest(ctx, externalID)
	if err != nil || rec == nil {
		r.notify(ctx, "Draft not found.")
		return
	}
	draft, err := r.store.GetDraft(ctx, externalID)
	if err != nil || draft == nil {
		r.notify(ctx, "Draft not found.")
		return
	}

	err = r.sender.Send(ctx, gmail.Reply{
		To:        rec.Request.ReplyTo,
		Subject:   draft.Subject,
		Body:      draft.Body,
		ThreadID:  rec.Request.ThreadID,
		InReplyTo: rec.Request.MessageID,
	})
	if err != nil {
		r.logger.Error("send approved reply", "external_id", externalID, "error", err)
		r.trail.Record(ctx, audit.ActionSendFailed, externalID, map[string]string{"error": err.Error()})
		r.notify(ctx, fmt.Sprintf("❌ Failed to send: %v", err))
		return
	}

	if err := r.store.MarkStatus(ctx, externalID, store.StatusSent); err != nil {
		r.logger.Error("mark sent", "external_id", externalID, "error", err)
	}
	r.trail.Record(ctx, audit.ActionApprovedAndSent, externalID, nil)
	r.notify(ctx, "✅ Sent reply via Gmail.")
}

func (r *Reviewer) reject(ctx context.Context, externalID string) {
	if err := r.store.MarkStatus(ctx, externalID, store.StatusRejected); err != nil {
		r.logger.Error("mark rejected", "external_id", externalID, "error", err)
	}
	r.trail.Record(ctx, audit.ActionRejected, externalID, nil)
	r.notify(ctx, "❌ Rejected. No reply will be sent.")
}

func (r *Reviewer) beginEdit(ctx context.Context, cb *CallbackQuery, externalID string) {
	chatID := int64(0)
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}
	key := pendingEditPrefix + strconv.FormatInt(chatID, 10)
	if err := r.rdb.Set(ctx, key, externalID, pendingEditTTL).Err(); err != nil {
		r.logger.Error("set pending edit", "external_id", externalID, "error", err)
		r.notify(ctx, "Could not start the edit flow, try again.")
		return
	}
	r.notify(ctx, editInstructions)
}

// handleMessage consumes a reviewer's text message when an edit is pending
// for their chat; everything else is ignored.
func (r *Reviewer) handleMessage(ctx context.Context, msg *Message) {
	key := pendingEditPrefix + strconv.FormatInt(msg.Chat.ID, 10)
	externalID, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return
	}
	if err != nil {
		r.logger.Warn("read pending edit", "error", err)
		return
	}

	subject, body, ok := parseSubjectBody(msg.Text)
	if !ok {
		r.notify(ctx, "Please include both 'Subject:' and 'Body:' sections.")
		return
	}

	if err := r.store.UpdateDraft(ctx, externalID, subject, body); err != nil {
		r.logger.Error("update draft", "external_id", externalID, "error", err)
		r.notify(ctx, "Could not save the edited draft.")
		return
	}
	r.rdb.Del(ctx, key)

	r.refreshReviewMessage(ctx, externalID, subject, body)
	r.notify(ctx, "✅ Draft updated.")
}

// refreshReviewMessage rewrites the original review message with the edited
// draft, falling back to a fresh message when the edit fails.
func (r *Reviewer) refreshReviewMessage(ctx context.Context, externalID, subject, body string) {
	rec, err := r.store.GetRequest(ctx, externalID)
	if err != nil || rec == nil {
		return
	}

	text := buildReviewText(rec.Request, subject, body)
	msgID, err := r.rdb.Get(ctx, reviewMsgPrefix+externalID).Int64()
	if err == nil {
		if err := r.client.EditMessageText(ctx, msgID, text, reviewKeyboard(externalID)); err == nil {
			return
		}
	}
	if err := r.SendReview(ctx, rec.Request, subject, body); err != nil {
		r.logger.Error("resend review after edit", "external_id", externalID, "error", err)
	}
}

func (r *Reviewer) notify(ctx context.Context, text string) {
	if _, err := r.client.SendMessage(ctx, text, nil); err != nil {
		r.logger.Warn("send notification", "error", err)
	}
}
