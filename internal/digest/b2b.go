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
	"regexp"
	"strings"
)

var (
	b2bTitle       = labeledLine("Title")
	b2bWriter      = labeledLine("Writer")
	b2bPublication = labeledLine("Publication")
	b2bDeadline    = labeledLine("Deadline")
	b2bIndustries  = labeledLine("Industries")

	// The writer's request block runs until a blank line followed by the
	// deadline label, or end of text.
	b2bRequest = regexp.MustCompile(`(?is)Writer's Request:\s*(.+?)(?:\n\nDeadline:|\z)`)

	// Replies go to a per-query alias at the service's fixed domain, quoted in
	// an instruction sentence. Absence is fine; the caller falls back to the
	// document's Reply-To/From.
	b2bReplyEmail = regexp.MustCompile(`(?i)email the writer\s*:\s*(\S+@helpab2bwriter\.com)`)
)

func labeledLine(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^\s*` + label + `\s*:\s*(.+)$`)
}

func findLabeled(re *regexp.Regexp, body string) string {
	if m := re.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// parseB2B extracts the single record a Help a B2B Writer email carries.
func parseB2B(body string) record {
	request := body
	if m := b2bRequest.FindStringSubmatch(body); m != nil {
		request = strings.TrimSpace(m[1])
	}

	email := ""
	if m := b2bReplyEmail.FindStringSubmatch(body); m != nil {
		email = strings.TrimSpace(m[1])
	}

	return record{
		index:       1,
		summary:     findLabeled(b2bTitle, body),
		name:        findLabeled(b2bWriter, body),
		category:    findLabeled(b2bIndustries, body),
		email:       email,
		mediaOutlet: findLabeled(b2bPublication, body),
		deadline:    findLabeled(b2bDeadline, body),
		query:       request,
	}
}
