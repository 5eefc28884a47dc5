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

// Package draft turns freeform model output into a structurally compliant
// reply: plain text, at most two paragraphs, a greeting, a fixed closing,
// and a verbatim signature. The transform chain is ordered and each stage is
// a pure function; a stage that cannot apply is a no-op, never an error.
package draft

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/goodguyben/Source-Request-Responder/internal/gemini"
)

// Closing is the fixed sign-off line inserted before the signature.
const Closing = "Best regards,"

// Signature is the fixed block appended to every reply.
const Signature = "Bezal John Benny\n" +
	"Founder | Mavericks Edge — https://mavericksedge.ca/\n" +
	"bezal.benny@mavericksedge.ca\n" +
	"C: +1 (250) 883-8849"

// Options carries the per-request context the chain needs.
type Options struct {
	// OriginalSubject builds the "Re:" fallback subject.
	OriginalSubject string

	// QueryText is the source request body; brand names appearing in it are
	// contextually relevant and left alone by the brand neutraliser.
	QueryText string

	// RequesterName personalises the greeting when known.
	RequesterName string
}

// draftPayload is the JSON shape the generation prompt asks for.
type draftPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Normalize converts raw model output into a compliant (subject, body) pair.
// The raw text is expected, but not guaranteed, to be a JSON object with
// subject and body keys; unparseable input is treated as the body itself.
// Normalize always returns a non-empty subject and body.
func Normalize(raw string, opts Options) (subject, body string) {
	subject = "Re: " + opts.OriginalSubject
	body = strings.TrimSpace(raw)

	var payload draftPayload
	if err := json.Unmarshal([]byte(gemini.StripFences(raw)), &payload); err == nil {
		if strings.TrimSpace(payload.Subject) != "" {
			subject = strings.TrimSpace(payload.Subject)
		}
		if strings.TrimSpace(payload.Body) != "" {
			body = strings.TrimSpace(payload.Body)
		}
	}

	body = humanize(body, opts.QueryText)

	body = stripLeadingGreeting(body)
	body = stripSignOff(body)
	body = stripMarkdown(body)
	body = limitParagraphs(body)

	if body == "" {
		body = strings.TrimSpace(raw)
	}

	body = greeting(opts.RequesterName) + "\n\n" + strings.TrimSpace(body)
	body = ensureClosing(body)
	body = appendSignature(body)

	return strings.TrimSpace(subject), strings.TrimSpace(body)
}

// humanize applies the ordered anti-telltale chain. Stage order matters:
// each stage sees the previous stage's output, and none may error.
func humanize(text, queryText string) string {
	original := text
	text = stripStockPhrases(text)
	text = neutralizeAdjectives(text)
	text = neutralizeBrands(text, queryText)
	text = dedupeSentences(text)
	text = limitEmDashes(text)
	text = evenOutBullets(text)
	text = applyContractions(text)
	text = breakRhythm(text)
	text = stripConclusion(text)
	if strings.TrimSpace(text) == "" {
		return original
	}
	return strings.TrimSpace(text)
}

// stockPhrases are formulaic openers and hedging connectors removed wherever
// they appear. Configuration data: extend the list, not the loop.
var stockPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bIn today's (?:fast-paced|ever[- ]changing) world\b`),
	regexp.MustCompile(`(?i)\bIt's no secret that\b`),
	regexp.MustCompile(`(?i)\bAt the end of the day\b`),
	regexp.MustCompile(`(?i)\bUltimately,\b`),
	regexp.MustCompile(`(?i)\bIn conclusion,\b`),
	regexp.MustCompile(`(?i)\bAdditionally,\b`),
	regexp.MustCompile(`(?i)\bMoreover,\b`),
	regexp.MustCompile(`(?i)\bOn the other hand,\b`),
	regexp.MustCompile(`(?i)\bIt is important to note that\b`),
}

func stripStockPhrases(text string) string {
	for _, p := range stockPhrases {
		text = p.ReplaceAllString(text, "")
	}
	return text
}

// exuberantAdjectives get toned down to a neutral synonym.
var exuberantAdjectives = regexp.MustCompile(`(?i)\b(?:incredible|transformative|exciting|revolutionary|game-changing|unprecedented|amazing|remarkable|cutting-edge)\b`)

func neutralizeAdjectives(text string) string {
	return exuberantAdjectives.ReplaceAllString(text, "strong")
}

// bigBrands are the generically-invoked names replaced with a neutral
// paraphrase unless the query itself mentions them.
var bigBrands = []string{"Tesla", "Apple", "Google", "Amazon", "Microsoft"}

var brandPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(bigBrands))
	for _, b := range bigBrands {
		m[b] = regexp.MustCompile(`\b` + b + `\b`)
	}
	return m
}()

func neutralizeBrands(text, queryText string) string {
	lowerQuery := strings.ToLower(queryText)
	for _, b := range bigBrands {
		if strings.Contains(lowerQuery, strings.ToLower(b)) {
			continue
		}
		text = brandPatterns[b].ReplaceAllString(text, "a well-known player")
	}
	return text
}

var nonWordRuns = regexp.MustCompile(`\W+`)

// dedupeSentences drops sentences whose normalised form (lowercase, non-word
// runs collapsed) repeats an earlier sentence. When nothing repeats, the text
// is left untouched, preserving its line structure.
func dedupeSentences(text string) string {
	sentences := splitSentences(text)
	seen := make(map[string]bool, len(sentences))
	kept := make([]string, 0, len(sentences))
	dropped := false
	for _, s := range sentences {
		key := strings.TrimSpace(nonWordRuns.ReplaceAllString(strings.ToLower(s), " "))
		if key == "" || !seen[key] {
			kept = append(kept, s)
			if key != "" {
				seen[key] = true
			}
			continue
		}
		dropped = true
	}
	if !dropped || len(kept) < 2 {
		return text
	}
	return strings.Join(kept, " ")
}

// splitSentences breaks text after sentence-ending punctuation followed by
// whitespace. Punctuation stays attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				sentences = append(sentences, strings.TrimSpace(string(runes[start:i+1])))
				j := i + 1
				for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t') {
					j++
				}
				start = j
				i = j - 1
			}
		}
	}
	if start < len(runes) {
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

// limitEmDashes keeps the first em dash and converts the rest to commas.
func limitEmDashes(text string) string {
	first := strings.Index(text, "—")
	if first < 0 {
		return text
	}
	head := text[:first+len("—")]
	tail := strings.ReplaceAll(text[first+len("—"):], "—", ",")
	return head + tail
}

var bulletLine = regexp.MustCompile(`^\s*[-*] `)

// evenOutBullets caps each contiguous bullet block and introduces deliberate
// unevenness: four bullets at most (overlong blocks keep only three), the
// first forced to end with a period, the second with an ellipsis.
func evenOutBullets(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	var block []string

	flush := func() {
		if len(block) == 0 {
			return
		}
		if len(block) > 4 {
			block = block[:3]
		}
		block[0] = forcePeriod(block[0])
		if len(block) >= 2 {
			block[1] = forceEllipsis(block[1])
		}
		out = append(out, block...)
		block = nil
	}

	for _, ln := range lines {
		if bulletLine.MatchString(ln) {
			block = append(block, ln)
			continue
		}
		flush()
		out = append(out, ln)
	}
	flush()

	return strings.Join(out, "\n")
}

func forcePeriod(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, ".") {
		return trimmed
	}
	return trimmed + "."
}

func forceEllipsis(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	trimmed = strings.TrimSuffix(trimmed, ".")
	return trimmed + "…"
}

// contractions substitutes formal phrasings with their contracted forms.
var contractions = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bdo not\b`), "don't"},
	{regexp.MustCompile(`(?i)\bis not\b`), "isn't"},
	{regexp.MustCompile(`(?i)\bwe are\b`), "we're"},
	{regexp.MustCompile(`(?i)\bit is\b`), "it's"},
}

func applyContractions(text string) string {
	for _, c := range contractions {
		text = c.pattern.ReplaceAllString(text, c.replacement)
	}
	return text
}

// interjection is the short line inserted to break uniform sentence rhythm.
const interjection = "Quick take: here's the gist."

// breakRhythm inserts one short sentence after the first when every sentence
// is long and of fairly uniform length.
func breakRhythm(text string) string {
	sentences := splitSentences(text)
	if len(sentences) < 2 || len(sentences) > 8 {
		return text
	}

	total := 0
	for _, s := range sentences {
		n := len(s)
		if n <= 10 || n >= 220 {
			return text
		}
		total += n
	}
	if float64(total)/float64(len(sentences)) <= 80 {
		return text
	}

	out := append([]string{sentences[0], interjection}, sentences[1:]...)
	return strings.Join(out, " ")
}

var conclusionTail = regexp.MustCompile(`(?i)\n*(In conclusion|Ultimately)[^\n]*$`)

// stripConclusion removes a predictable conclusory clause at the very end.
func stripConclusion(text string) string {
	return strings.TrimSpace(conclusionTail.ReplaceAllString(text, ""))
}

var greetingLine = regexp.MustCompile(`(?i)^(?:hi|hello|hey|dear|greetings)[^\n]*\n+`)

// stripLeadingGreeting removes up to two greeting-style lines the model may
// have produced; the pipeline inserts its own greeting later.
func stripLeadingGreeting(text string) string {
	t := strings.TrimLeft(text, " \t\n")
	for i := 0; i < 2; i++ {
		m := greetingLine.FindString(t)
		if m == "" {
			break
		}
		t = strings.TrimLeft(t[len(m):], " \t\n")
	}
	return t
}

var (
	signOffTail = regexp.MustCompile(`(?i)\n\s*(best regards|regards|sincerely|thanks|thank you)[^\n]*$`)

	// signatureFragment spots lines that look like a signature: an email
	// address, a phone-like token, or a known name/title marker.
	signatureFragment = regexp.MustCompile(`(?i)@|\+\d|mavericksedge|founder|bezal`)
)

// stripSignOff removes a trailing model-generated sign-off block. First any
// recognised sign-off keyword line and everything after it goes; then the
// last few lines are scanned and everything from the first signature-looking
// line down is dropped.
func stripSignOff(text string) string {
	t := strings.TrimRight(text, " \t\n")

	if loc := signOffTail.FindStringIndex(t); loc != nil {
		t = strings.TrimRight(t[:loc[0]], " \t\n")
	}

	lines := strings.Split(t, "\n")
	dropFrom := -1
	for i := len(lines) - 1; i >= 0 && i >= len(lines)-5; i-- {
		if signatureFragment.MatchString(lines[i]) {
			dropFrom = i
		}
	}
	if dropFrom >= 0 {
		t = strings.TrimRight(strings.Join(lines[:dropFrom], "\n"), " \t\n")
	}

	return t
}

var (
	boldMarks     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnder     = regexp.MustCompile(`__(.*?)__`)
	italicMarks   = regexp.MustCompile(`\*(.*?)\*`)
	italicUnder   = regexp.MustCompile(`_(.*?)_`)
	bulletPrefix  = regexp.MustCompile(`^\s*([-*•]|\d+\.)\s+`)
	blankLineRuns = regexp.MustCompile(`\n\s*\n+`)
)

// stripMarkdown removes emphasis markers and bullet/numbering prefixes, then
// collapses blank-line runs. Idempotent.
func stripMarkdown(text string) string {
	text = boldMarks.ReplaceAllString(text, "$1")
	text = boldUnder.ReplaceAllString(text, "$1")
	text = italicMarks.ReplaceAllString(text, "$1")
	text = italicUnder.ReplaceAllString(text, "$1")

	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		lines[i] = bulletPrefix.ReplaceAllString(ln, "")
	}
	text = strings.Join(lines, "\n")

	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var (
	paragraphBreaks = regexp.MustCompile(`\n\n+`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// limitParagraphs collapses the body to at most two paragraphs: the first is
// kept verbatim, everything after it is merged into one second paragraph
// with internal whitespace collapsed. Idempotent.
func limitParagraphs(text string) string {
	var paras []string
	for _, p := range paragraphBreaks.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) == 0 {
		return strings.TrimSpace(text)
	}
	if len(paras) <= 2 {
		return strings.Join(paras, "\n\n")
	}
	merged := paras[1] + " " + strings.Join(paras[2:], " ")
	return paras[0] + "\n\n" + strings.TrimSpace(whitespaceRuns.ReplaceAllString(merged, " "))
}

var (
	personalGreetings = []string{"Hello %s!", "Hi %s,"}
	genericGreetings  = []string{"Hello!", "Hi there!"}
)

// greeting picks a greeting line, personalised with the requester's first
// name when one is known.
func greeting(requesterName string) string {
	first := strings.Fields(strings.TrimSpace(requesterName))
	if len(first) == 0 {
		return genericGreetings[rand.IntN(len(genericGreetings))]
	}
	pattern := personalGreetings[rand.IntN(len(personalGreetings))]
	return fmt.Sprintf(pattern, first[0])
}

var closingAtEnd = regexp.MustCompile(`(?i)\n\s*Best regards,\s*$`)

// ensureClosing makes sure the body ends with the fixed closing line.
func ensureClosing(body string) string {
	if closingAtEnd.MatchString(body) {
		return body
	}
	return strings.TrimRight(body, " \t\n") + "\n\n" + Closing
}

// appendSignature appends the fixed signature block unless the body already
// contains it. Checked by substring containment, not by chain state.
func appendSignature(body string) string {
	if strings.Contains(body, Signature) {
		return body
	}
	return strings.TrimRight(body, " \t\n") + "\n\n" + Signature
}
