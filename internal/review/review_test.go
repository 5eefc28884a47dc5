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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

func TestBuildReviewText(t *testing.T) {
	req := models.StructuredRequest{
		ExternalID:    "msg1::q1",
		Provider:      models.ProviderHARO,
		Subject:       "HARO: AI in retail",
		Sender:        "Jane Doe",
		SenderEmail:   "jane@outlet.example",
		ReplyTo:       "query-123@helpareporter.net",
		RequesterName: "Jane Doe",
		Category:      "Biztech",
		MediaOutlet:   "Outlet Weekly",
		Deadline:      "19:00 EST - 3 March",
		QueryText:     "Looking for AI adoption stories from small agencies.",
		Analysis: &models.RelevanceAnalysis{
			Relevant:       true,
			RelevanceScore: 0.92,
			Confidence:     0.9,
			MatchingTopics: []string{"artificial_intelligence"},
			Reasoning:      "Directly about AI adoption. Strong fit. Third sentence dropped.",
		},
	}

	text := buildReviewText(req, "Re: AI in retail", "Draft body here.")

	for _, want := range []string{
		"Provider: HARO",
		"Name: Jane Doe",
		"Media Outlet: Outlet Weekly",
		"From: Jane Doe <jane@outlet.example>",
		"Reply-to: query-123@helpareporter.net",
		"Deadline: 19:00 EST - 3 March",
		"Query:\nLooking for AI adoption stories",
		"📊 Relevance Score: 0.92",
		"🎯 Topics: artificial_intelligence",
		"Proposed Subject:\nRe: AI in retail",
		"Proposed Body:\nDraft body here.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("review text missing %q:\n%s", want, text)
		}
	}

	if strings.Contains(text, "Third sentence dropped") {
		t.Error("reasoning not trimmed to two sentences")
	}
}

func TestBuildReviewText_OmitsEmptyAndAmbiguous(t *testing.T) {
	req := models.StructuredRequest{
		Sender:      "a",
		SenderEmail: "a@b.c",
		QueryText:   "q",
		Analysis:    &models.RelevanceAnalysis{Reasoning: models.FallbackReasoning},
	}
	text := buildReviewText(req, "s", "b")

	if strings.Contains(text, "🧠") {
		t.Error("ambiguous analysis should not render an analysis section")
	}
	if !strings.Contains(text, "Deadline: n/a") {
		t.Error("missing n/a deadline placeholder")
	}
	if strings.Contains(text, "Provider:") || strings.Contains(text, "Category:") {
		t.Error("empty optional fields rendered")
	}
}

func TestBuildReviewText_Truncation(t *testing.T) {
	req := models.StructuredRequest{
		Sender:      "a",
		SenderEmail: "a@b.c",
		QueryText:   strings.Repeat("long query text ", 500),
	}
	text := buildReviewText(req, "s", "b")

	if len(text) > maxMessageChars {
		t.Errorf("len = %d, want <= %d", len(text), maxMessageChars)
	}
	if !strings.HasSuffix(text, "…[truncated]") {
		t.Errorf("missing truncation marker: %q", text[len(text)-40:])
	}
}

func TestParseSubjectBody(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantSubject string
		wantBody    string
		wantOK      bool
	}{
		{
			name:        "canonical format",
			in:          "Subject: New pitch\n\nBody:\nFirst line.\nSecond line.",
			wantSubject: "New pitch",
			wantBody:    "First line.\nSecond line.",
			wantOK:      true,
		},
		{
			name:        "case insensitive labels",
			in:          "subject: x\nbody: y",
			wantSubject: "x",
			wantBody:    "y",
			wantOK:      true,
		},
		{
			name:   "missing body",
			in:     "Subject: only a subject",
			wantOK: false,
		},
		{
			name:   "missing subject",
			in:     "Body:\nonly a body",
			wantOK: false,
		},
		{
			name:   "plain text",
			in:     "no labels at all",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, ok := parseSubjectBody(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestReviewKeyboard(t *testing.T) {
	kb := reviewKeyboard("m1::q2")
	if len(kb.InlineKeyboard) != 3 {
		t.Fatalf("rows = %d, want 3", len(kb.InlineKeyboard))
	}
	want := []string{"approve:m1::q2", "edit:m1::q2", "reject:m1::q2"}
	for i, row := range kb.InlineKeyboard {
		if row[0].CallbackData != want[i] {
			t.Errorf("row %d data = %q, want %q", i, row[0].CallbackData, want[i])
		}
	}
}

func TestClient_SendMessage(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 42},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Token: "tok", ChatID: 777, BaseURL: srv.URL})
	id, err := c.SendMessage(context.Background(), "hello", reviewKeyboard("x"))
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if id != 42 {
		t.Errorf("message id = %d, want 42", id)
	}
	if gotPath != "/bottok/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["chat_id"].(float64) != 777 {
		t.Errorf("chat_id = %v", gotPayload["chat_id"])
	}
	if _, ok := gotPayload["reply_markup"]; !ok {
		t.Error("reply_markup missing")
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Token: "tok", BaseURL: srv.URL})
	if _, err := c.SendMessage(context.Background(), "x", nil); err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v, want chat not found", err)
	}
}

func TestClient_GetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{
					"update_id": 10,
					"callback_query": map[string]any{
						"id":      "cb1",
						"data":    "approve:m1",
						"message": map[string]any{"message_id": 5, "chat": map[string]any{"id": 777}},
					},
				},
				{
					"update_id": 11,
					"message":   map[string]any{"message_id": 6, "text": "Subject: s\nBody: b", "chat": map[string]any{"id": 777}},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Token: "tok", BaseURL: srv.URL})
	updates, err := c.GetUpdates(context.Background(), 0, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if updates[0].CallbackQuery == nil || updates[0].CallbackQuery.Data != "approve:m1" {
		t.Errorf("callback query not decoded: %+v", updates[0])
	}
	if updates[1].Message == nil || updates[1].Message.Chat.ID != 777 {
		t.Errorf("message not decoded: %+v", updates[1])
	}
}
