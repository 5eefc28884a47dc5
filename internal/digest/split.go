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

package digest

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

// Split turns one document into zero or more structured requests according to
// the detected provider. HARO digests yield one request per record; B2B and
// unrecognised documents yield exactly one. Records keep digest order, and
// each multi-record request mints its own external ID with a ::qN suffix.
func Split(doc models.Document, provider models.Provider) []models.StructuredRequest {
	senderName, senderEmail := parseAddress(headerValue(doc.Headers, "From"))
	_, replyToEmail := parseAddress(headerValue(doc.Headers, "Reply-To"))
	if replyToEmail == "" {
		replyToEmail = senderEmail
	}
	received := receivedAt(doc.Headers)

	base := models.StructuredRequest{
		ThreadID:    doc.ThreadID,
		MessageID:   headerValue(doc.Headers, "Message-ID"),
		Sender:      senderName,
		SenderEmail: senderEmail,
		ReceivedAt:  received,
		Provider:    provider,
	}

	switch provider {
	case models.ProviderHARO:
		var requests []models.StructuredRequest
		for i, rec := range parseHARO(doc.Body) {
			req := base
			req.ExternalID = fmt.Sprintf("%s::q%d", doc.SourceID, i+1)
			req.QueryIndex = i + 1
			req.Subject = "HARO: " + firstNonEmpty(rec.summary, doc.Subject)
			req.ReplyTo = firstNonEmpty(rec.email, replyToEmail, senderEmail)
			req.Deadline = firstNonEmpty(rec.deadline, extractFirst(deadlinePatterns, doc.Body))
			req.QueryText = firstNonEmpty(rec.query, doc.Body)
			req.Summary = rec.summary
			req.Category = rec.category
			req.MediaOutlet = rec.mediaOutlet
			req.RequesterName = rec.name
			requests = append(requests, req)
		}
		return requests

	case models.ProviderB2BWriter:
		rec := parseB2B(doc.Body)
		req := base
		req.ExternalID = doc.SourceID
		req.QueryIndex = 1
		req.Subject = "Help A B2B Writer: " + firstNonEmpty(rec.summary, doc.Subject)
		req.ReplyTo = firstNonEmpty(rec.email, replyToEmail, senderEmail)
		req.Deadline = rec.deadline
		req.QueryText = firstNonEmpty(rec.query, doc.Body)
		req.Summary = rec.summary
		req.Category = rec.category
		req.MediaOutlet = rec.mediaOutlet
		req.RequesterName = rec.name
		return []models.StructuredRequest{req}

	default:
		f := parseGeneric(doc.Body)
		req := base
		req.ExternalID = doc.SourceID
		req.QueryIndex = 1
		req.Subject = doc.Subject
		req.ReplyTo = replyToEmail
		req.Deadline = f.deadline
		req.Requirements = f.requirements
		req.QueryText = f.query
		return []models.StructuredRequest{req}
	}
}

// parseAddress splits an RFC 5322 address into display name and address.
// Malformed input falls back to the raw string as the address.
func parseAddress(raw string) (name, addr string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return raw, raw
	}
	if parsed.Name != "" {
		return parsed.Name, parsed.Address
	}
	return parsed.Address, parsed.Address
}

// receivedAt parses the Date header, defaulting to now when absent or
// unparseable.
func receivedAt(headers map[string]string) time.Time {
	if d := headerValue(headers, "Date"); d != "" {
		if t, err := mail.ParseDate(d); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
