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

// genericQueryPrefixLimit caps the body prefix used when no query-style line
// is found in an unrecognised document.
const genericQueryPrefixLimit = 400

var (
	deadlinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*deadline\s*:\s*(.+)$`),
	}

	requirementsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*requirements?\s*:\s*(.+)$`),
		regexp.MustCompile(`(?im)^\s*what we need\s*:\s*(.+)$`),
	}

	queryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*query\s*:\s*(.+)$`),
		regexp.MustCompile(`(?im)^\s*summary\s*:\s*(.+)$`),
		regexp.MustCompile(`(?im)^\s*topic\s*:\s*(.+)$`),
	}
)

// extractFirst returns the first capture from the first pattern that matches.
func extractFirst(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// genericFields holds what the generic scan could recover from an
// unrecognised document.
type genericFields struct {
	deadline     string
	requirements string
	query        string
}

// parseGeneric scans an unrecognised body independently for a deadline line,
// a requirements line, and a query/summary/topic line. When no query-style
// line exists, a capped prefix of the body stands in so the query text is
// never empty.
func parseGeneric(body string) genericFields {
	f := genericFields{
		deadline:     extractFirst(deadlinePatterns, body),
		requirements: extractFirst(requirementsPatterns, body),
		query:        extractFirst(queryPatterns, body),
	}
	if f.query == "" {
		prefix := []rune(body)
		if len(prefix) > genericQueryPrefixLimit {
			prefix = prefix[:genericQueryPrefixLimit]
		}
		f.query = strings.TrimSpace(string(prefix))
	}
	return f
}
