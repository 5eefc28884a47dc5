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

// Package sanitize scrubs digest text before parsing. Source digests arrive
// with zero-width characters, pasted tracking payloads, and irregular blank
// lines; every downstream stage assumes they are gone.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	zeroWidth = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`)
	blankRuns = regexp.MustCompile(`\n\s*\n+`)

	// Opaque machine-generated blobs pasted into query bodies. Long hex runs
	// and base64-alphabet runs are never human content at these lengths.
	hexRuns    = regexp.MustCompile(`\b[0-9A-Fa-f]{40,}\b`)
	base64Runs = regexp.MustCompile(`\b[A-Za-z0-9+/=]{60,}\b`)
)

// Clean removes zero-width and BOM characters, collapses runs of blank lines
// into a single blank line, and strips long hex/base64-like noise tokens.
// Clean is pure and idempotent.
func Clean(text string) string {
	text = zeroWidth.ReplaceAllString(text, "")
	text = hexRuns.ReplaceAllString(text, "")
	text = base64Runs.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// CollapseBlankLines normalises blank-line runs without touching anything
// else. The digest splitter uses it on whole bodies where noise tokens must
// survive until per-field cleaning.
func CollapseBlankLines(text string) string {
	return blankRuns.ReplaceAllString(text, "\n\n")
}

// StripZeroWidth removes zero-width and BOM characters only.
func StripZeroWidth(text string) string {
	return zeroWidth.ReplaceAllString(text, "")
}
