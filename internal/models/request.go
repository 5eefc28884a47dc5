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

// Package models defines the data structures shared across the responder pipeline.
package models

import "time"

// Provider identifies the digest format a document was parsed from.
type Provider string

const (
	ProviderHARO      Provider = "HARO"
	ProviderB2BWriter Provider = "HELP_A_B2B_WRITER"
	ProviderUnknown   Provider = ""
)

// Document is one inbound email as supplied by the document source:
// decoded plain-text body plus the headers the pipeline dispatches on.
type Document struct {
	SourceID string            // provider message ID
	ThreadID string            // conversation/thread ID for reply threading
	Subject  string
	Headers  map[string]string
	Body     string // decoded, plain text
}

// StructuredRequest is one addressable source request extracted from a digest.
// Multi-record digests produce one StructuredRequest per record, each with a
// unique ExternalID (source document ID plus a positional ::qN suffix).
//
// A StructuredRequest is never mutated after construction; downstream stages
// operate on derived values.
type StructuredRequest struct {
	ExternalID  string // unique per record, not per document
	ThreadID    string
	MessageID   string // original Message-ID header, for reply threading
	Subject     string
	Sender      string // display name
	SenderEmail string
	ReplyTo     string // record email → document Reply-To → document From
	ReceivedAt  time.Time

	Deadline     string
	Requirements string
	QueryText    string // never empty; capped body prefix as last resort

	Summary       string
	Category      string
	MediaOutlet   string
	Provider      Provider
	QueryIndex    int    // 1-based position within the source digest
	RequesterName string

	Analysis *RelevanceAnalysis // classifier snapshot, nil until classified
}

// RelevanceAnalysis is the classifier's verdict for one request.
type RelevanceAnalysis struct {
	Relevant       bool     `json:"relevant"`
	RelevanceScore float64  `json:"relevance_score"`
	Confidence     float64  `json:"confidence"`
	MatchingTopics []string `json:"matching_topics"`
	Reasoning      string   `json:"reasoning"`
}

// FallbackReasoning is the fixed reasoning text carried by the fallback analysis.
const FallbackReasoning = "analysis failed, defaulting to exclude"

// FallbackAnalysis returns the deterministic substitute used whenever the
// classifier call fails or returns a structurally invalid result. The gate
// treats it as an ambiguous verdict and falls through to keyword rules.
func FallbackAnalysis() RelevanceAnalysis {
	return RelevanceAnalysis{
		Relevant:       false,
		RelevanceScore: 0,
		Confidence:     0,
		MatchingTopics: []string{},
		Reasoning:      FallbackReasoning,
	}
}

// Ambiguous reports whether the analysis carries no usable verdict: a negative
// flag backed by zero score and zero confidence is indistinguishable from the
// fallback value and must not be read as an explicit rejection.
func (a RelevanceAnalysis) Ambiguous() bool {
	return !a.Relevant && a.RelevanceScore == 0 && a.Confidence == 0
}

// Draft is a generated reply awaiting review, keyed by its request's
// external ID.
type Draft struct {
	RequestID string
	Subject   string
	Body      string
	Model     string
}
