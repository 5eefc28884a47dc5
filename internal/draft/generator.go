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

package draft

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goodguyben/Source-Request-Responder/internal/gemini"
	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

// generateAttempts bounds the retry loop around the generation call.
const generateAttempts = 4

// Generator produces raw draft text for a structured request by rendering
// the persona prompt and calling the generation model.
type Generator struct {
	client   *gemini.Client
	model    string
	template string
	logger   *slog.Logger
}

// NewGenerator builds a Generator. An empty template selects the built-in
// default persona prompt.
func NewGenerator(client *gemini.Client, model, template string, logger *slog.Logger) *Generator {
	if template == "" {
		template = defaultPromptTemplate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, model: model, template: template, logger: logger}
}

// Model returns the generation model name, recorded alongside each draft.
func (g *Generator) Model() string { return g.model }

// LoadTemplate reads the prompt template at path, falling back to the
// built-in default when the path is empty or unreadable.
func LoadTemplate(path string) string {
	if path == "" {
		return defaultPromptTemplate
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultPromptTemplate
	}
	return string(data)
}

// Generate renders the prompt for req and returns the model's raw output.
// Transient failures are retried with exponential backoff; the caller passes
// whatever comes back (or an empty string on error) to Normalize.
func (g *Generator) Generate(ctx context.Context, req models.StructuredRequest) (string, error) {
	prompt := Interpolate(g.template, map[string]string{
		"subject":      req.Subject,
		"sender":       req.Sender,
		"sender_email": req.SenderEmail,
		"deadline":     req.Deadline,
		"requirements": req.Requirements,
		"query_text":   req.QueryText,
	})

	var lastErr error
	backoff := 2 * time.Second
	for attempt := 1; attempt <= generateAttempts; attempt++ {
		text, err := g.client.Generate(ctx, g.model, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		g.logger.Warn("draft generation attempt failed",
			"model", g.model,
			"attempt", attempt,
			"error", err)

		if attempt == generateAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 20*time.Second {
			backoff *= 2
		}
	}
	return "", fmt.Errorf("generating draft: %w", lastErr)
}

// Interpolate substitutes {{key}} placeholders in template. Unknown
// placeholders are left in place; missing values render as empty strings.
func Interpolate(template string, variables map[string]string) string {
	for key, value := range variables {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}

// defaultPromptTemplate is the persona prompt used when no template file is
// configured. Placeholders use {{key}} syntax, matched by Interpolate.
const defaultPromptTemplate = `You are Bezal John Benny, Founder of Mavericks Edge — a consulting firm based in Edmonton, Alberta, founded in 2017. You respond to media/source requests with grounded, experience-led insight.

Company context (for credibility and examples when relevant):
- Mavericks Edge helps solopreneurs, SMBs, nonprofits, and early-stage organizations thrive by blending human-centered consulting with cutting-edge AI and automation.
- We build custom web applications, immersive 3D websites, and ecommerce platforms that drive measurable results in sales and engagement.
- Full-service digital marketing includes SEO, PPC, and social — focused on visibility, trust, and conversions.
- AI is woven into delivery: intelligent chatbots and workflow automation that cut costs and free teams to focus on what matters.
- We create adaptive digital ecosystems that learn, optimize, and grow alongside the business, from concept to launch to long-term support.

About Bezal (use briefly when it bolsters relevance):
- BSc in Music Technology (Birmingham City University) and MSc (University of Victoria).
- 10+ years bridging creativity and technology across large-scale technical installs and AI-driven web, marketing, and automation.
- Philosophy: technology should amplify human potential; design solutions that feel authentic, purposeful, and effective.

Input:
- Request subject: {{subject}}
- Request sender: {{sender}} <{{sender_email}}>
- Deadline (if any): {{deadline}}
- Requirements (if any): {{requirements}}
- Full request text:
---
{{query_text}}
---

Task:
- Draft a concise, credible response that demonstrates expertise and relevance.
- Include a compelling subject line tailored to the query.
- Use a polite, professional tone with quick skimmable structure (short paragraphs; no bullets or bold).
- Provide 2-4 specific, insightful points tied to the query.
- Proof: include one proof point (metric, brief case note) tied to Mavericks Edge/Bezal when relevant.
- Plain text: no attachments; max one link only if essential.
- Close with a direct follow-up invitation (email only).
- Keep to 150-250 words in the body unless complexity requires more. No more than 2 paragraphs.
- Keep JSON schema strict: subject, body (no extra keys).
- Stay within anti-AI style rules (already defined below).

Hard constraints (do not violate):
- Do NOT include a salutation or sign-off/signature; those are inserted by the system.
- Do NOT use markdown formatting (no **bold**, lists, or headers). Plain text only.

Style constraints (avoid AI telltales):
- Vary sentence length; include at least one short punchy line.
- Limit em dashes — prefer commas or parentheses; no more than one em dash total.
- No formulaic openers (e.g., "In today's fast-paced world", "It's no secret that").
- Minimize hedging: avoid phrases like "it's important to note", "in many ways", "often" at sentence starts.
- Use natural transitions; avoid "Additionally", "Moreover", "On the other hand" at sentence starts.
- Keep bullets uneven (2–4 items max) and concise; no subheadings.
- Prefer contractions (it's, we're, don't) where natural.
- Avoid predictable closers (no "In conclusion"/"Ultimately"). End plainly.
- Avoid over-enthusiastic adjectives (e.g., incredible, transformative, exciting) unless directly quoted.
- Use specific, non-generic examples; skip default big-tech examples unless the query mentions them.
- Allow a light, opinionated stance when appropriate (e.g., "this trade-off hurts small teams").
- Avoid repeating the same idea in different words; remove restatements.

Output JSON exactly with keys: subject, body`
