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

// Package digest classifies inbound documents into known source-request
// formats and splits them into structured requests. A HARO digest bundles
// many independent queries in one email; Help a B2B Writer sends one query
// per email; anything else is treated as a single generic request.
package digest

import (
	"strings"

	"github.com/goodguyben/Source-Request-Responder/internal/models"
)

// DetectProvider classifies a document by sender, subject, and body signals.
// HARO signals are checked first; first match wins. No match routes the whole
// document through the generic single-record path.
func DetectProvider(subject string, headers map[string]string, body string) models.Provider {
	from := strings.ToLower(headerValue(headers, "From"))
	listID := strings.ToLower(headerValue(headers, "List-Id"))
	subj := strings.ToLower(subject)
	lower := strings.ToLower(body)

	if strings.Contains(from, "helpareporter.com") ||
		strings.Contains(subj, "haro") ||
		strings.Contains(listID, "helpareporter") {
		return models.ProviderHARO
	}

	if strings.Contains(lower, "helpab2bwriter.com") ||
		strings.Contains(lower, "help a b2b writer") ||
		strings.Contains(subj, "help a b2b writer") {
		return models.ProviderB2BWriter
	}

	return models.ProviderUnknown
}

// headerValue looks up a header by name, case-insensitively.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
