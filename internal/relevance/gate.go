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

package relevance

import (
	"strings"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

// GateConfig holds the thresholds and keyword sets the gate evaluates.
// Passed explicitly so Admit stays pure and testable.
type GateConfig struct {
	ScoreThreshold      float64
	ConfidenceThreshold float64

	// IncludeKeywords admits only records whose combined text contains at
	// least one entry; empty means no restriction. ExcludeKeywords rejects
	// records containing any entry. Both apply only when the classifier
	// verdict is ambiguous.
	IncludeKeywords []string
	ExcludeKeywords []string
}

// Admit decides whether a record proceeds to draft generation.
//
// Precedence is fixed: an explicit not-relevant verdict rejects regardless of
// keyword configuration; a confident positive verdict (relevant, both scores
// at or above threshold, at least one matching topic) admits; anything else
// falls back to the keyword rules over the record's combined text. Admit is a
// pure function of its inputs.
func Admit(req models.StructuredRequest, analysis models.RelevanceAnalysis, cfg GateConfig) bool {
	if !analysis.Relevant && !analysis.Ambiguous() {
		return false
	}

	if analysis.Relevant &&
		analysis.RelevanceScore >= cfg.ScoreThreshold &&
		analysis.Confidence >= cfg.ConfidenceThreshold &&
		len(analysis.MatchingTopics) > 0 {
		return true
	}

	return keywordMatch(combinedText(req), cfg)
}

// combinedText is the record text the keyword rules scan: summary, category,
// outlet, and query body, lowercased.
func combinedText(req models.StructuredRequest) string {
	return strings.ToLower(strings.Join([]string{
		req.Summary,
		req.Category,
		req.MediaOutlet,
		req.QueryText,
	}, " "))
}

// keywordMatch applies the deterministic backstop rules. With no keyword
// sets configured at all, the record is admitted.
func keywordMatch(text string, cfg GateConfig) bool {
	if len(cfg.IncludeKeywords) > 0 {
		found := false
		for _, kw := range cfg.IncludeKeywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, kw := range cfg.ExcludeKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
			return false
		}
	}

	return true
}
