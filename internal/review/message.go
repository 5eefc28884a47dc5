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
	"fmt"
	"regexp"
	"strings"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

// maxMessageChars stays under Telegram's 4096 limit with headroom for the
// truncation marker and keyboard metadata.
const maxMessageChars = 3800

// Callback actions encoded in button data as "<action>:<external_id>".
const (
	actionApprove = "approve"
	actionEdit    = "edit"
	actionReject  = "reject"
)

// editInstructions is sent when the reviewer presses Edit.
const editInstructions = `✏️ Send the updated draft as a single message in this format:
Subject: <your subject>

Body:
<your body>

Tip: You can reply to the original draft message to keep context.`

// reviewKeyboard builds the approve/edit/reject keyboard for a request.
func reviewKeyboard(externalID string) *InlineKeyboard {
	return &InlineKeyboard{InlineKeyboard: [][]InlineButton{
		{{Text: "✅ Approve & Send", CallbackData: actionApprove + ":" + externalID}},
		{{Text: "✏️ Edit Draft", CallbackData: actionEdit + ":" + externalID}},
		{{Text: "❌ Reject", CallbackData: actionReject + ":" + externalID}},
	}}
}

// buildReviewText assembles the review message: request context, the full
// query, the classifier's verdict when present, and the proposed draft.
// Overlong messages are truncated with a marker.
func buildReviewText(req models.StructuredRequest, subject, body string) string {
	var b strings.Builder

	b.WriteString("🤖 AI-Powered Source Request\n")
	if req.Provider != models.ProviderUnknown {
		fmt.Fprintf(&b, "Provider: %s\n", req.Provider)
	}
	if req.RequesterName != "" {
		fmt.Fprintf(&b, "Name: %s\n", req.RequesterName)
	}
	if req.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", req.Category)
	}
	if req.MediaOutlet != "" {
		fmt.Fprintf(&b, "Media Outlet: %s\n", req.MediaOutlet)
	}
	fmt.Fprintf(&b, "From: %s <%s>\n", req.Sender, req.SenderEmail)
	if req.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-to: %s\n", req.ReplyTo)
	}
	deadline := req.Deadline
	if deadline == "" {
		deadline = "n/a"
	}
	fmt.Fprintf(&b, "Deadline: %s\n\n", deadline)

	fmt.Fprintf(&b, "Query:\n%s\n\n", req.QueryText)

	if a := req.Analysis; a != nil && !a.Ambiguous() {
		fmt.Fprintf(&b, "🧠 AI Analysis: %s\n", firstSentences(a.Reasoning, 2))
		fmt.Fprintf(&b, "📊 Relevance Score: %.2f\n", a.RelevanceScore)
		fmt.Fprintf(&b, "🎯 Topics: %s\n\n", strings.Join(a.MatchingTopics, ", "))
	}

	fmt.Fprintf(&b, "Proposed Subject:\n%s\n\nProposed Body:\n%s", subject, body)

	text := b.String()
	if len(text) <= maxMessageChars {
		return text
	}
	return text[:maxMessageChars-100] + "\n\n…[truncated]"
}

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// firstSentences keeps the leading n sentences of text.
func firstSentences(text string, n int) string {
	parts := sentenceEnd.Split(text, -1)
	ends := sentenceEnd.FindAllStringSubmatch(text, -1)
	if len(parts) <= n {
		return strings.TrimSpace(text)
	}
	var b strings.Builder
	for i := 0; i < n && i < len(parts); i++ {
		b.WriteString(parts[i])
		if i < len(ends) {
			b.WriteString(ends[i][1])
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

var (
	subjectLine = regexp.MustCompile(`(?im)^\s*Subject\s*:\s*(.+)$`)
	bodySection = regexp.MustCompile(`(?ims)^\s*Body\s*:\s*(.+)$`)
)

// parseSubjectBody extracts the Subject: line and the Body: section from a
// reviewer's edit message. Both must be present and non-empty; the body runs
// from its label to the end of the message.
func parseSubjectBody(text string) (subject, body string, ok bool) {
	if m := subjectLine.FindStringSubmatch(text); m != nil {
		subject = strings.TrimSpace(m[1])
	}
	if m := bodySection.FindStringSubmatch(text); m != nil {
		body = strings.TrimSpace(m[1])
	}
	return subject, body, subject != "" && body != ""
}
