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
	"strings"
	"testing"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		headers map[string]string
		body    string
		want    models.Provider
	}{
		{
			name:    "HARO by sender domain",
			subject: "Morning edition",
			headers: map[string]string{"From": "HARO <digest@helpareporter.com>"},
			want:    models.ProviderHARO,
		},
		{
			name:    "HARO by subject",
			subject: "[HARO] Afternoon queries",
			headers: map[string]string{"From": "someone@example.com"},
			want:    models.ProviderHARO,
		},
		{
			name:    "HARO by list id, lowercase header key",
			subject: "Queries",
			headers: map[string]string{"list-id": "<digest.helpareporter.com>"},
			want:    models.ProviderHARO,
		},
		{
			name:    "B2B by body domain",
			subject: "New request",
			headers: map[string]string{"From": "requests@example.com"},
			body:    "Reply by emailing the writer: x123@helpab2bwriter.com",
			want:    models.ProviderB2BWriter,
		},
		{
			name:    "B2B by subject",
			subject: "Help a B2B Writer: new query",
			headers: map[string]string{},
			want:    models.ProviderB2BWriter,
		},
		{
			name:    "HARO wins over B2B when both signal",
			subject: "HARO digest",
			headers: map[string]string{},
			body:    "mentions help a b2b writer too",
			want:    models.ProviderHARO,
		},
		{
			name:    "unrecognised",
			subject: "Interview request",
			headers: map[string]string{"From": "reporter@example.com"},
			body:    "Would you like to comment?",
			want:    models.ProviderUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectProvider(tt.subject, tt.headers, tt.body)
			if got != tt.want {
				t.Errorf("DetectProvider() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplit_HAROMintsUniqueIDs(t *testing.T) {
	body := strings.Join([]string{
		"1) Summary: First",
		"Name: Alice",
		"Category: Business",
		"Email: alice@haro.test",
		"Media Outlet: BizDaily",
		"Deadline: Monday",
		"Query:",
		"First query.",
		"Back to Top",
		"",
		"2) Summary: Second",
		"Name: Bob",
		"Category: Technology",
		"Email: bob@haro.test",
		"Media Outlet: TechHour",
		"Deadline: Tuesday",
		"Query:",
		"Second query.",
		"Back to Top",
	}, "\n")

	doc := models.Document{
		SourceID: "msg123",
		ThreadID: "thread456",
		Subject:  "HARO Morning Edition",
		Headers: map[string]string{
			"From": "HARO <digest@helpareporter.com>",
			"Date": "Mon, 02 Jan 2006 15:04:05 -0700",
		},
		Body: body,
	}

	reqs := Split(doc, models.ProviderHARO)
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}

	if reqs[0].ExternalID != "msg123::q1" || reqs[1].ExternalID != "msg123::q2" {
		t.Errorf("external IDs = %q, %q", reqs[0].ExternalID, reqs[1].ExternalID)
	}
	if reqs[0].QueryIndex != 1 || reqs[1].QueryIndex != 2 {
		t.Errorf("query indices = %d, %d", reqs[0].QueryIndex, reqs[1].QueryIndex)
	}
	if reqs[0].ReplyTo != "alice@haro.test" {
		t.Errorf("record-level reply address not preferred: %q", reqs[0].ReplyTo)
	}
	if reqs[0].Subject != "HARO: First" {
		t.Errorf("subject = %q", reqs[0].Subject)
	}
	if reqs[0].ThreadID != "thread456" {
		t.Errorf("thread id = %q", reqs[0].ThreadID)
	}
	if reqs[0].ReceivedAt.IsZero() {
		t.Error("received timestamp not set")
	}
}

func TestSplit_ReplyToResolutionOrder(t *testing.T) {
	body := "1) Summary: No record email\n" +
		"Name: Grace\n" +
		"Category: Business\n" +
		"Email:\n" +
		"Media Outlet: Daily\n" +
		"Deadline: Friday\n" +
		"Query:\nNeed sources.\nBack to Top"

	doc := models.Document{
		SourceID: "m1",
		Subject:  "HARO",
		Headers: map[string]string{
			"From":     "HARO <digest@helpareporter.com>",
			"Reply-To": "replies@helpareporter.com",
		},
		Body: body,
	}

	reqs := Split(doc, models.ProviderHARO)
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	if reqs[0].ReplyTo != "replies@helpareporter.com" {
		t.Errorf("ReplyTo = %q, want document Reply-To", reqs[0].ReplyTo)
	}
}

func TestSplit_B2BWriter(t *testing.T) {
	body := strings.Join([]string{
		"Title: How SMBs adopt automation",
		"Writer: Hank Fields",
		"Publication: B2B Growth",
		"Industries: SaaS",
		"",
		"Writer's Request: Looking for operators who automated onboarding.",
		"Share measurable before/after numbers.",
		"",
		"Deadline: 2026-09-01",
		"",
		"To respond, email the writer: x42@helpab2bwriter.com",
	}, "\n")

	doc := models.Document{
		SourceID: "b2b-9",
		Subject:  "New request from Help a B2B Writer",
		Headers:  map[string]string{"From": "notify@helpab2bwriter.com"},
		Body:     body,
	}

	reqs := Split(doc, models.ProviderB2BWriter)
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}

	req := reqs[0]
	if req.ExternalID != "b2b-9" {
		t.Errorf("external id = %q", req.ExternalID)
	}
	if req.Summary != "How SMBs adopt automation" {
		t.Errorf("summary = %q", req.Summary)
	}
	if req.RequesterName != "Hank Fields" {
		t.Errorf("requester = %q", req.RequesterName)
	}
	if req.MediaOutlet != "B2B Growth" {
		t.Errorf("outlet = %q", req.MediaOutlet)
	}
	if req.Category != "SaaS" {
		t.Errorf("category = %q", req.Category)
	}
	if req.ReplyTo != "x42@helpab2bwriter.com" {
		t.Errorf("reply address = %q", req.ReplyTo)
	}
	if !strings.HasPrefix(req.QueryText, "Looking for operators") {
		t.Errorf("query text = %q", req.QueryText)
	}
	if strings.Contains(req.QueryText, "Deadline:") {
		t.Errorf("query text not terminated before deadline: %q", req.QueryText)
	}
}

func TestSplit_GenericFallback(t *testing.T) {
	doc := models.Document{
		SourceID: "gen-1",
		Subject:  "Interview request",
		Headers:  map[string]string{"From": "Pat Reporter <pat@example.com>"},
		Body: "Hi,\n\nTopic: local business AI adoption\nWhat we need: 2-3 quotes\n" +
			"Deadline: next Tuesday\n\nThanks!",
	}

	reqs := Split(doc, models.ProviderUnknown)
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}

	req := reqs[0]
	if req.QueryText != "local business AI adoption" {
		t.Errorf("query = %q", req.QueryText)
	}
	if req.Requirements != "2-3 quotes" {
		t.Errorf("requirements = %q", req.Requirements)
	}
	if req.Deadline != "next Tuesday" {
		t.Errorf("deadline = %q", req.Deadline)
	}
	if req.ReplyTo != "pat@example.com" {
		t.Errorf("reply address = %q", req.ReplyTo)
	}
	if req.Sender != "Pat Reporter" {
		t.Errorf("sender = %q", req.Sender)
	}
}

// TestSplit_GenericQueryNeverEmpty verifies the capped body-prefix fallback.
func TestSplit_GenericQueryNeverEmpty(t *testing.T) {
	long := strings.Repeat("word ", 200)
	doc := models.Document{
		SourceID: "gen-2",
		Subject:  "no labels at all",
		Headers:  map[string]string{"From": "x@example.com"},
		Body:     long,
	}

	reqs := Split(doc, models.ProviderUnknown)
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	q := reqs[0].QueryText
	if q == "" {
		t.Fatal("query text empty")
	}
	if len(q) > 400 {
		t.Errorf("query prefix not capped: %d chars", len(q))
	}
}
