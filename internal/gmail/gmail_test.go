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
	"encoding/base64"
	"strings"
	"testing"

	gmailapi "google.golang.org/api/gmail/v1"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "blocks become line breaks",
			in:   "<div>1) Summary: AI tools</div><div>Query:</div><p>Tell us more.</p>",
			want: "1) Summary: AI tools\n\nQuery:\n\nTell us more.",
		},
		{
			name: "script and style dropped",
			in:   "<style>body{color:red}</style><script>alert(1)</script>visible",
			want: "visible",
		},
		{
			name: "entities decoded",
			in:   "Fish &amp; chips &mdash; tonight",
			want: "Fish & chips — tonight",
		},
		{
			name: "br to newline",
			in:   "line one<br/>line two",
			want: "line one\nline two",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildRFC822(t *testing.T) {
	raw := buildRFC822(Reply{
		To:        "reporter@example.com",
		Subject:   "Re: AI query\nX-Injected: bad",
		Body:      "Hello!\n\nAnswer here.",
		InReplyTo: "<abc123@mail.example.com>",
	})

	headers, body, found := strings.Cut(raw, "\r\n\r\n")
	if !found {
		t.Fatal("no header/body separator")
	}
	if body != "Hello!\n\nAnswer here." {
		t.Errorf("body = %q", body)
	}
	for _, want := range []string{
		"To: reporter@example.com",
		"In-Reply-To: <abc123@mail.example.com>",
		"References: <abc123@mail.example.com>",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	} {
		if !strings.Contains(headers, want) {
			t.Errorf("headers missing %q:\n%s", want, headers)
		}
	}
	if strings.Contains(headers, "X-Injected") && strings.Contains(headers, "\nX-Injected") {
		t.Errorf("header injection not neutralised:\n%s", headers)
	}
	if !strings.Contains(headers, "Subject: Re: AI query X-Injected: bad") {
		t.Errorf("subject not flattened to one line:\n%s", headers)
	}
}

func TestExtractBody(t *testing.T) {
	enc := func(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }

	t.Run("prefers plain text over html", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: enc("<p>html version</p>")}},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: enc("plain version")}},
			},
		}
		if got := extractBody(payload); got != "plain version" {
			t.Errorf("extractBody = %q", got)
		}
	})

	t.Run("falls back to stripped html", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			MimeType: "text/html",
			Body:     &gmailapi.MessagePartBody{Data: enc("<p>only html</p>")},
		}
		if got := extractBody(payload); got != "only html" {
			t.Errorf("extractBody = %q", got)
		}
	})

	t.Run("nested multipart", func(t *testing.T) {
		payload := &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmailapi.MessagePart{
						{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: enc("nested plain")}},
					},
				},
			},
		}
		if got := extractBody(payload); got != "nested plain" {
			t.Errorf("extractBody = %q", got)
		}
	})

	t.Run("unpadded base64url tolerated", func(t *testing.T) {
		data := base64.RawURLEncoding.EncodeToString([]byte("unpadded"))
		payload := &gmailapi.MessagePart{
			MimeType: "text/plain",
			Body:     &gmailapi.MessagePartBody{Data: data},
		}
		if got := extractBody(payload); got != "unpadded" {
			t.Errorf("extractBody = %q", got)
		}
	})
}
