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

// Package dedup provides digest deduplication using a Redis SET with TTL.
// A Gmail message can stay unread across poll cycles (for example when a
// later stage fails before mark-read), so the message ID is remembered to
// keep the same digest from being drafted twice.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a seen message ID is remembered. Digests are
	// daily, so a week comfortably covers re-delivery and retry overlap.
	DefaultTTL = 7 * 24 * time.Hour

	// keyPrefix namespaces dedup keys in Redis.
	keyPrefix = "responder:seen:"
)

// Filter tracks which Gmail message IDs have already been processed.
type Filter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFilter creates a dedup filter backed by Redis.
func NewFilter(rdb *redis.Client) *Filter {
	return &Filter{
		rdb: rdb,
		ttl: DefaultTTL,
	}
}

// IsNew returns true if the message ID has NOT been seen before.
// If true, the message is marked as seen atomically (SETNX).
func (f *Filter) IsNew(ctx context.Context, messageID string) (bool, error) {
	key := fmt.Sprintf("%s%s", keyPrefix, messageID)

	// SET NX = set only if key does not exist. Returns true if the key was set.
	set, err := f.rdb.SetNX(ctx, key, 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}

	return set, nil
}

// Forget removes a message ID so the next poll reprocesses it. Used when a
// digest fails partway and should be retried.
func (f *Filter) Forget(ctx context.Context, messageID string) error {
	if err := f.rdb.Del(ctx, keyPrefix+messageID).Err(); err != nil {
		return fmt.Errorf("dedup DEL: %w", err)
	}
	return nil
}
