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

// Package relevance decides whether a parsed source request is worth
// answering. The AI classifier is the primary signal; deterministic keyword
// rules are a conservative backstop when its verdict is unavailable or not
// confidently negative.
package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goodguyben/Source-Request-Responder/internal/gemini"
	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

// Classifier asks Gemini to score a query against the topic table. A failed
// or malformed call never surfaces as an error: the caller always receives a
// usable analysis, substituting the fixed fallback value when necessary.
type Classifier struct {
	client        *gemini.Client
	model         string
	fallbackModel string
}

// NewClassifier creates a classifier using the given primary model and an
// optional fallback model tried when the primary fails.
func NewClassifier(client *gemini.Client, model, fallbackModel string) *Classifier {
	return &Classifier{
		client:        client,
		model:         model,
		fallbackModel: fallbackModel,
	}
}

// Disabled is a classifier stand-in used when model filtering is turned
// off. Its verdict is always the ambiguous fallback, so the gate decides on
// keyword rules alone.
type Disabled struct{}

// Analyze returns the ambiguous fallback verdict unconditionally.
func (Disabled) Analyze(context.Context, string, string, string) models.RelevanceAnalysis {
	return models.FallbackAnalysis()
}

// Analyze returns the classifier's verdict for one record. On any failure or
// structurally invalid response from every configured model it returns the
// deterministic fallback analysis, never an error.
func (c *Classifier) Analyze(ctx context.Context, queryText, summary, category string) models.RelevanceAnalysis {
	prompt := buildPrompt(queryText, summary, category)

	candidates := []string{c.model}
	if c.fallbackModel != "" && c.fallbackModel != c.model {
		candidates = append(candidates, c.fallbackModel)
	}

	for _, model := range candidates {
		raw, err := c.client.Generate(ctx, model, prompt)
		if err != nil {
			slog.Warn("classifier call failed",
				"model", model,
				"error", err,
			)
			continue
		}

		analysis, err := parseAnalysis(raw)
		if err != nil {
			slog.Warn("classifier returned malformed verdict",
				"model", model,
				"error", err,
			)
			continue
		}

		slog.Info("classifier verdict",
			"model", model,
			"relevant", analysis.Relevant,
			"score", analysis.RelevanceScore,
			"confidence", analysis.Confidence,
			"topics", analysis.MatchingTopics,
		)
		return analysis
	}

	slog.Error("all classifier models failed, using fallback verdict")
	return models.FallbackAnalysis()
}

// parseAnalysis decodes the classifier's JSON verdict and rejects
// structurally invalid results.
func parseAnalysis(raw string) (models.RelevanceAnalysis, error) {
	cleaned := gemini.StripFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return models.RelevanceAnalysis{}, fmt.Errorf("decode verdict: %w", err)
	}
	for _, required := range []string{"relevant", "relevance_score", "matching_topics", "reasoning", "confidence"} {
		if _, ok := fields[required]; !ok {
			return models.RelevanceAnalysis{}, fmt.Errorf("verdict missing field %q", required)
		}
	}

	var a models.RelevanceAnalysis
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return models.RelevanceAnalysis{}, fmt.Errorf("decode verdict: %w", err)
	}

	if a.RelevanceScore < 0 || a.RelevanceScore > 1 {
		return models.RelevanceAnalysis{}, fmt.Errorf("relevance score %f out of range", a.RelevanceScore)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return models.RelevanceAnalysis{}, fmt.Errorf("confidence %f out of range", a.Confidence)
	}
	if a.MatchingTopics == nil {
		a.MatchingTopics = []string{}
	}

	return a, nil
}

// buildPrompt renders the classification prompt with the topic table.
func buildPrompt(queryText, summary, category string) string {
	var topics strings.Builder
	for _, t := range Topics {
		fmt.Fprintf(&topics, "- %s: %s\n", t.Name, t.Description)
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are an expert at analyzing media queries to determine their relevance to specific business and technology topics.

ANALYZE THIS QUERY:
Summary: %s
Category: %s
Query Text: %s

RELEVANT TOPICS TO CONSIDER:
%s
TASK:
Determine if this query is relevant to any of the above topics. Consider:
1. Direct mentions of technologies, services, or concepts
2. Implicit connections (e.g., "business growth" might relate to marketing)
3. Industry context (startup, enterprise, small business needs)
4. Professional expertise areas (development, marketing, strategy)

RESPOND WITH JSON ONLY:
{
    "relevant": true/false,
    "relevance_score": 0.0-1.0,
    "matching_topics": ["topic1", "topic2"],
    "reasoning": "Brief explanation of why this query is/isn't relevant",
    "confidence": 0.0-1.0
}

Guidelines:
- Be strict about relevance; prefer precision over recall. If unsure, set relevant=false.
- Do not infer relevance from generic business language. Require explicit topical signals (direct mentions) or two strong implicit signals.
- Scoring: 0.85-1.0 = clearly relevant; 0.65-0.84 = borderline; <0.65 = not relevant.
- Confidence must reflect evidence. Lower confidence when signals are weak, ambiguous, or generic.
- Only include topics that genuinely match. If none match, use an empty array.
`, summary, category, queryText, topics.String()))
}
