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

package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

// listCap bounds a single poll; digests arrive a few per day, so 50 covers
// any realistic backlog.
const listCap = 50

// Source lists and fetches unread digest messages under a single label.
type Source struct {
	svc     *gmailapi.Service
	label   string
	labelID string
	logger  *slog.Logger
}

// NewSource creates a source for the named label, resolving the label ID up
// front so a misconfigured label fails at startup rather than mid-poll.
func NewSource(ctx context.Context, svc *gmailapi.Service, label string, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{svc: svc, label: label, logger: logger}

	id, err := s.resolveLabelID(ctx)
	if err != nil {
		return nil, err
	}
	s.labelID = id
	logger.Info("gmail label resolved", "label", label, "label_id", id)
	return s, nil
}

func (s *Source) resolveLabelID(ctx context.Context) (string, error) {
	resp, err := s.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list labels: %w", err)
	}
	for _, l := range resp.Labels {
		if strings.EqualFold(l.Name, s.label) {
			return l.Id, nil
		}
	}
	return "", fmt.Errorf("label %q not found", s.label)
}

// ListUnread returns the IDs of unread messages under the label, oldest
// batch first as Gmail returns them.
func (s *Source) ListUnread(ctx context.Context) ([]string, error) {
	resp, err := s.svc.Users.Messages.List("me").
		LabelIds(s.labelID, "UNREAD").
		MaxResults(listCap).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// ListSince returns all message IDs under the label from the last `days`
// days, read or not, following pagination. Used by the backfill runner.
func (s *Source) ListSince(ctx context.Context, days int) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		call := s.svc.Users.Messages.List("me").
			LabelIds(s.labelID).
			Q(fmt.Sprintf("newer_than:%dd", days)).
			MaxResults(listCap).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages since %dd: %w", days, err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Fetch retrieves a full message and flattens it into a Document: headers
// collected into a map, body decoded from the MIME tree with text/plain
// preferred and HTML stripped to text otherwise.
func (s *Source) Fetch(ctx context.Context, messageID string) (models.Document, error) {
	msg, err := s.svc.Users.Messages.Get("me", messageID).
		Format("full").
		Context(ctx).Do()
	if err != nil {
		return models.Document{}, fmt.Errorf("fetch message %s: %w", messageID, err)
	}

	headers := make(map[string]string)
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			headers[strings.ToLower(h.Name)] = h.Value
		}
	}

	return models.Document{
		SourceID: msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  headers["subject"],
		Headers:  headers,
		Body:     extractBody(msg.Payload),
	}, nil
}

// MarkRead removes the UNREAD label so the message is not picked up again.
func (s *Source) MarkRead(ctx context.Context, messageID string) error {
	_, err := s.svc.Users.Messages.Modify("me", messageID, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mark read %s: %w", messageID, err)
	}
	return nil
}

// extractBody walks the MIME tree and returns the best available text:
// the first text/plain part, else the first text/html part stripped to text.
func extractBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}
	if plain := findPart(payload, "text/plain"); plain != "" {
		return plain
	}
	if htmlPart := findPart(payload, "text/html"); htmlPart != "" {
		return StripHTML(htmlPart)
	}
	return ""
}

func findPart(part *gmailapi.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if strings.HasPrefix(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, p := range part.Parts {
		if found := findPart(p, mimeType); found != "" {
			return found
		}
	}
	return ""
}

// decodeBody decodes Gmail's base64url body data, tolerating both padded
// and unpadded encodings.
func decodeBody(data string) string {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}
