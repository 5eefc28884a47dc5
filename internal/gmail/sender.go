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
)

// Reply describes one outgoing reply to a source request.
type Reply struct {
	To      string
	Subject string
	Body    string

	// ThreadID keeps the reply on the digest's Gmail thread.
	ThreadID string

	// InReplyTo is the Message-ID header of the original message, used for
	// In-Reply-To/References threading. Optional.
	InReplyTo string
}

// Sender sends approved replies through the Gmail API.
type Sender struct {
	svc    *gmailapi.Service
	logger *slog.Logger
}

// NewSender creates a reply sender.
func NewSender(svc *gmailapi.Service, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{svc: svc, logger: logger}
}

// Send builds an RFC 822 message from the reply and sends it on the
// original thread.
func (s *Sender) Send(ctx context.Context, r Reply) error {
	if r.To == "" {
		return fmt.Errorf("reply has no recipient")
	}

	raw := buildRFC822(r)
	msg := &gmailapi.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(raw)),
		ThreadId: r.ThreadID,
	}

	sent, err := s.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send reply to %s: %w", r.To, err)
	}

	s.logger.Info("reply sent",
		"to", r.To,
		"subject", r.Subject,
		"message_id", sent.Id,
		"thread_id", sent.ThreadId,
	)
	return nil
}

// buildRFC822 assembles the raw message. Headers use CRLF line endings as
// RFC 822 requires; the body is sent as UTF-8 plain text.
func buildRFC822(r Reply) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", r.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(r.Subject))
	if r.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", r.InReplyTo)
		fmt.Fprintf(&b, "References: %s\r\n", r.InReplyTo)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(r.Body)
	return b.String()
}

// sanitizeHeader strips CR/LF so body text can never leak into headers.
func sanitizeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.TrimSpace(v)
}
