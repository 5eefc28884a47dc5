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

// Package audit records pipeline actions to a capped Redis list so a run can
// be reconstructed after the fact: what was parsed, drafted, sent, rejected.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Action names recorded on the trail.
const (
	ActionRequestParsed   = "request_parsed"
	ActionDraftCreated    = "draft_created"
	ActionReviewSent      = "review_sent"
	ActionApprovedAndSent = "approved_and_sent"
	ActionRejected        = "rejected"
	ActionSendFailed      = "send_failed"
)

const (
	// defaultKey is the Redis list holding the trail.
	defaultKey = "responder:audit"

	// defaultCap bounds the list; older events are trimmed away.
	defaultCap = 10000
)

// Event is one entry on the audit trail.
type Event struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	ExternalID string            `json:"external_id"`
	At         time.Time         `json:"at"`
	Detail     map[string]string `json:"detail,omitempty"`
}

// Trail appends pipeline action events to Redis.
type Trail struct {
	rdb *redis.Client
	key string
	cap int64
}

// NewTrail creates an audit trail on the default key.
func NewTrail(rdb *redis.Client) *Trail {
	return &Trail{rdb: rdb, key: defaultKey, cap: defaultCap}
}

// Record appends one action event. Failures are logged, not returned: the
// trail is advisory and must never stall the pipeline.
func (t *Trail) Record(ctx context.Context, action, externalID string, detail map[string]string) {
	event := Event{
		ID:         uuid.New().String(),
		Action:     action,
		ExternalID: externalID,
		At:         time.Now().UTC(),
		Detail:     detail,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal audit event", "action", action, "error", err)
		return
	}

	pipe := t.rdb.Pipeline()
	pipe.LPush(ctx, t.key, string(payload))
	pipe.LTrim(ctx, t.key, 0, t.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("append audit event", "action", action, "error", err)
		return
	}

	slog.Debug("audit event recorded",
		"event_id", event.ID,
		"action", action,
		"external_id", externalID,
	)
}

// Recent returns the newest n events, newest first.
func (t *Trail) Recent(ctx context.Context, n int64) ([]Event, error) {
	raw, err := t.rdb.LRange(ctx, t.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("audit LRANGE: %w", err)
	}
	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		var e Event
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// Ping checks the Redis connection.
func (t *Trail) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return t.rdb.Ping(ctx).Err()
}
