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
	"strconv"
	"strings"

	"github.com/goodguyben/Source-Request-Responder/internal/sanitize"
)

// record is one query pulled out of a digest body before it is promoted to a
// StructuredRequest.
type record struct {
	index       int
	summary     string
	name        string
	category    string
	email       string
	mediaOutlet string
	deadline    string
	query       string
}

// haroRecord matches the labeled sequence HARO uses per query. Permissive
// about blank-line counts between labels, case-insensitive on labels; the
// optional Muck Rack URL line is skipped. The query runs until "Back to Top"
// or end of text.
var haroRecord = regexp.MustCompile(
	`(?ims)^\s*(\d+)\)\s*Summary:\s*(.*?)\n+` +
		`Name:\s*(.*?)\n+` +
		`Category:\s*(.*?)\n+` +
		`Email:\s*(.*?)\n+` +
		`(?:Muck Rack URL:.*?\n+)?` +
		`Media Outlet:\s*(.*?)\n+` +
		`Deadline:\s*(.*?)\n+` +
		`Query:\s*\n+(.*?)(?:\n+Back to Top|\z)`)

// haroChunkStart marks the beginning of one numbered record for the fallback
// splitter.
var haroChunkStart = regexp.MustCompile(`(?m)^\s*\d+\)\s*Summary:`)

// haroChunkQuery finds the query section inside one fallback chunk.
var haroChunkQuery = regexp.MustCompile(`(?is)Query\s*:\s*\n+(.*?)(?:\n+Back to Top|\z)`)

// haroChunkIndex reads the record's positional label.
var haroChunkIndex = regexp.MustCompile(`^\s*(\d+)`)

// haroChunkFields are the labeled fields looked up independently per chunk.
var haroChunkFields = map[string]*regexp.Regexp{
	"summary":      chunkField("Summary"),
	"name":         chunkField("Name"),
	"category":     chunkField("Category"),
	"email":        chunkField("Email"),
	"media_outlet": chunkField("Media Outlet"),
	"deadline":     chunkField("Deadline"),
}

func chunkField(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)` + label + `\s*:\s*(.+?)\n+`)
}

// parseHARO extracts every query record from a HARO digest body, preserving
// digest order. The primary structural pattern is tried first; only when it
// yields nothing does the permissive chunk splitter run.
func parseHARO(body string) []record {
	text := sanitize.CollapseBlankLines(sanitize.StripZeroWidth(body))

	var records []record
	for _, m := range haroRecord.FindAllStringSubmatch(text, -1) {
		idx, _ := strconv.Atoi(m[1])
		records = append(records, record{
			index:       idx,
			summary:     strings.TrimSpace(m[2]),
			name:        strings.TrimSpace(m[3]),
			category:    strings.TrimSpace(m[4]),
			email:       strings.TrimSpace(m[5]),
			mediaOutlet: strings.TrimSpace(m[6]),
			deadline:    strings.TrimSpace(m[7]),
			query:       sanitize.Clean(m[8]),
		})
	}

	if len(records) == 0 {
		records = parseHAROChunks(text)
	}

	return records
}

// parseHAROChunks is the fallback splitter: break the body at numbered record
// starts, then look up each labeled field independently within the chunk.
// Chunks with no recoverable query section are dropped silently.
func parseHAROChunks(text string) []record {
	starts := haroChunkStart.FindAllStringIndex(text, -1)

	var records []record
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		chunk := text[loc[0]:end]

		qm := haroChunkQuery.FindStringSubmatch(chunk)
		if qm == nil {
			continue
		}
		query := sanitize.Clean(qm[1])
		if query == "" {
			continue
		}

		find := func(key string) string {
			if m := haroChunkFields[key].FindStringSubmatch(chunk); m != nil {
				return strings.TrimSpace(m[1])
			}
			return ""
		}

		idx := 0
		if m := haroChunkIndex.FindStringSubmatch(strings.TrimSpace(chunk)); m != nil {
			idx, _ = strconv.Atoi(m[1])
		}

		records = append(records, record{
			index:       idx,
			summary:     find("summary"),
			name:        find("name"),
			category:    find("category"),
			email:       find("email"),
			mediaOutlet: find("media_outlet"),
			deadline:    find("deadline"),
			query:       query,
		})
	}

	return records
}
