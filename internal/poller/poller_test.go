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

package poller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
	"github.com/goodguyben/Source-Request-Responder/internal/relevance"
	"github.com/goodguyben/Source-Request-Responder/internal/store"
)

const twoRecordDigest = `1) Summary: AI tools for agencies

Name: Jane Doe

Category: Biztech

Email: query-1@helpareporter.net

Media Outlet: Outlet Weekly

Deadline: 19:00 EST - 3 March

Query:

Looking for AI adoption stories.

Back to Top

2) Summary: Gardening tips

Name: Bob Roe

Category: Lifestyle

Email: query-2@helpareporter.net

Media Outlet: Green Mag

Deadline: 20:00 EST - 4 March

Query:

Tell me about heirloom tomatoes.

Back to Top
`

type fakeSource struct {
	docs      map[string]models.Document
	fetchErr  error
	markRead  []string
	fetched   []string
	markErr   error
	listedIDs []string
}

func (f *fakeSource) ListUnread(context.Context) ([]string, error) { return f.listedIDs, nil }

func (f *fakeSource) Fetch(_ context.Context, id string) (models.Document, error) {
	f.fetched = append(f.fetched, id)
	if f.fetchErr != nil {
		return models.Document{}, f.fetchErr
	}
	return f.docs[id], nil
}

func (f *fakeSource) MarkRead(_ context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markRead = append(f.markRead, id)
	return nil
}

type fakeSeen struct {
	seen      map[string]bool
	forgotten []string
}

func (f *fakeSeen) IsNew(_ context.Context, id string) (bool, error) {
	if f.seen[id] {
		return false, nil
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[id] = true
	return true, nil
}

func (f *fakeSeen) Forget(_ context.Context, id string) error {
	f.forgotten = append(f.forgotten, id)
	delete(f.seen, id)
	return nil
}

// fakeClassifier returns a verdict keyed on a substring of the query text.
type fakeClassifier struct {
	verdicts map[string]models.RelevanceAnalysis
}

func (f *fakeClassifier) Analyze(_ context.Context, queryText, _, _ string) models.RelevanceAnalysis {
	for substr, a := range f.verdicts {
		if strings.Contains(queryText, substr) {
			return a
		}
	}
	return models.FallbackAnalysis()
}

type fakeGenerator struct {
	raw string
	err error
}

func (f *fakeGenerator) Generate(context.Context, models.StructuredRequest) (string, error) {
	return f.raw, f.err
}

func (f *fakeGenerator) Model() string { return "test-model" }

type fakeStore struct {
	upserted []models.StructuredRequest
	drafts   []models.Draft
	statuses map[string]string
}

func (f *fakeStore) UpsertRequest(_ context.Context, req models.StructuredRequest) error {
	f.upserted = append(f.upserted, req)
	return nil
}

func (f *fakeStore) SaveDraft(_ context.Context, d models.Draft) error {
	f.drafts = append(f.drafts, d)
	return nil
}

func (f *fakeStore) MarkStatus(_ context.Context, externalID, status string) error {
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[externalID] = status
	return nil
}

type fakeReview struct {
	sent []string
	err  error
}

func (f *fakeReview) SendReview(_ context.Context, req models.StructuredRequest, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req.ExternalID)
	return nil
}

type fakeTrail struct {
	actions []string
}

func (f *fakeTrail) Record(_ context.Context, action, _ string, _ map[string]string) {
	f.actions = append(f.actions, action)
}

func testGate() relevance.GateConfig {
	return relevance.GateConfig{
		ScoreThreshold:      0.85,
		ConfidenceThreshold: 0.75,
	}
}

func haroDoc(id string) models.Document {
	return models.Document{
		SourceID: id,
		ThreadID: "thread-" + id,
		Subject:  "[HARO] Afternoon Edition",
		Headers: map[string]string{
			"from":       "HARO <no-reply@helpareporter.com>",
			"message-id": "<" + id + "@mail.example>",
			"date":       "Tue, 3 Mar 2026 12:00:00 -0500",
		},
		Body: twoRecordDigest,
	}
}

func newTestPoller(src *fakeSource, seen *fakeSeen, cls *fakeClassifier, gen *fakeGenerator,
	st *fakeStore, rev *fakeReview, trail *fakeTrail) *Poller {
	return New(src, seen, cls, gen, st, rev, trail, testGate(), time.Minute, nil)
}

func TestProcessMessage_AdmitsAndRejects(t *testing.T) {
	src := &fakeSource{docs: map[string]models.Document{"m1": haroDoc("m1")}}
	seen := &fakeSeen{}
	cls := &fakeClassifier{verdicts: map[string]models.RelevanceAnalysis{
		"AI adoption": {Relevant: true, RelevanceScore: 0.95, Confidence: 0.9,
			MatchingTopics: []string{"artificial_intelligence"}, Reasoning: "on topic"},
		"tomatoes": {Relevant: false, RelevanceScore: 0.1, Confidence: 0.95,
			MatchingTopics: []string{}, Reasoning: "gardening"},
	}}
	gen := &fakeGenerator{raw: `{"subject": "Re: AI tools", "body": "A grounded answer with detail."}`}
	st := &fakeStore{}
	rev := &fakeReview{}
	trail := &fakeTrail{}

	p := newTestPoller(src, seen, cls, gen, st, rev, trail)
	if err := p.ProcessMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(st.upserted) != 2 {
		t.Fatalf("upserted = %d, want 2", len(st.upserted))
	}
	if st.upserted[0].ExternalID != "m1::q1" || st.upserted[1].ExternalID != "m1::q2" {
		t.Errorf("external IDs = %q, %q", st.upserted[0].ExternalID, st.upserted[1].ExternalID)
	}
	if st.upserted[0].Analysis == nil || !st.upserted[0].Analysis.Relevant {
		t.Error("first record missing its analysis snapshot")
	}

	if len(st.drafts) != 1 || st.drafts[0].RequestID != "m1::q1" {
		t.Fatalf("drafts = %+v, want one for m1::q1", st.drafts)
	}
	if st.drafts[0].Model != "test-model" {
		t.Errorf("draft model = %q", st.drafts[0].Model)
	}

	if len(rev.sent) != 1 || rev.sent[0] != "m1::q1" {
		t.Errorf("reviews sent = %v", rev.sent)
	}
	if st.statuses["m1::q2"] != store.StatusRejected {
		t.Errorf("second record status = %q, want rejected", st.statuses["m1::q2"])
	}
	if len(src.markRead) != 1 || src.markRead[0] != "m1" {
		t.Errorf("mark read = %v", src.markRead)
	}
}

func TestProcessMessage_ZeroAdmittedStillMarksRead(t *testing.T) {
	src := &fakeSource{docs: map[string]models.Document{"m2": haroDoc("m2")}}
	cls := &fakeClassifier{verdicts: map[string]models.RelevanceAnalysis{
		"AI adoption": {Relevant: false, RelevanceScore: 0.1, Confidence: 0.9},
		"tomatoes":    {Relevant: false, RelevanceScore: 0.1, Confidence: 0.9},
	}}
	st := &fakeStore{}
	rev := &fakeReview{}

	p := newTestPoller(src, &fakeSeen{}, cls, &fakeGenerator{}, st, rev, &fakeTrail{})
	if err := p.ProcessMessage(context.Background(), "m2"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(rev.sent) != 0 {
		t.Errorf("reviews sent = %v, want none", rev.sent)
	}
	if len(src.markRead) != 1 {
		t.Errorf("digest with zero admitted records must still be marked read")
	}
	if len(st.upserted) != 2 {
		t.Errorf("all parsed records must be persisted, got %d", len(st.upserted))
	}
}

func TestProcessMessage_DuplicateSkipsProcessing(t *testing.T) {
	src := &fakeSource{docs: map[string]models.Document{"m3": haroDoc("m3")}}
	seen := &fakeSeen{seen: map[string]bool{"m3": true}}
	st := &fakeStore{}

	p := newTestPoller(src, seen, &fakeClassifier{}, &fakeGenerator{}, st, &fakeReview{}, &fakeTrail{})
	if err := p.ProcessMessage(context.Background(), "m3"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(src.fetched) != 0 {
		t.Error("duplicate message should not be fetched")
	}
	if len(src.markRead) != 1 {
		t.Error("duplicate message should still be marked read")
	}
	if len(st.upserted) != 0 {
		t.Error("duplicate message should not be persisted again")
	}
}

func TestProcessMessage_GenerationFailureStillDrafts(t *testing.T) {
	src := &fakeSource{docs: map[string]models.Document{"m4": haroDoc("m4")}}
	cls := &fakeClassifier{verdicts: map[string]models.RelevanceAnalysis{
		"AI adoption": {Relevant: true, RelevanceScore: 0.95, Confidence: 0.9,
			MatchingTopics: []string{"artificial_intelligence"}},
		"tomatoes": {Relevant: false, RelevanceScore: 0.1, Confidence: 0.9},
	}}
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	st := &fakeStore{}
	rev := &fakeReview{}

	p := newTestPoller(src, &fakeSeen{}, cls, gen, st, rev, &fakeTrail{})
	if err := p.ProcessMessage(context.Background(), "m4"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(st.drafts) != 1 {
		t.Fatalf("drafts = %d, want 1 (normalized empty draft)", len(st.drafts))
	}
	if st.drafts[0].Body == "" {
		t.Error("normalization must still produce a structurally valid body")
	}
	if !strings.HasPrefix(st.drafts[0].Subject, "Re: ") {
		t.Errorf("fallback subject = %q, want Re: prefix", st.drafts[0].Subject)
	}
	if len(rev.sent) != 1 {
		t.Errorf("reviews sent = %v, want 1", rev.sent)
	}
}

func TestProcessMessage_FetchFailureReleasesSeenMarker(t *testing.T) {
	src := &fakeSource{fetchErr: errors.New("network down")}
	seen := &fakeSeen{}

	p := newTestPoller(src, seen, &fakeClassifier{}, &fakeGenerator{}, &fakeStore{}, &fakeReview{}, &fakeTrail{})
	if err := p.ProcessMessage(context.Background(), "m5"); err == nil {
		t.Fatal("expected error from fetch failure")
	}

	if len(seen.forgotten) != 1 || seen.forgotten[0] != "m5" {
		t.Errorf("seen marker not released: %v", seen.forgotten)
	}
	if len(src.markRead) != 0 {
		t.Error("failed message must stay unread for retry")
	}
}
