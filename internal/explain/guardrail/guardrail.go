// Package guardrail validates and sanitizes LLM-generated explanation text
// before it is allowed to overlay the deterministic narrative. An LLM
// response earns the right to be shown to a user only after clearing every
// check below; any failure falls back to the deterministic narrative.
package guardrail

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Result classifies why validation succeeded or failed.
type Result string

const (
	ResultValid               Result = "valid"
	ResultSchemaViolation     Result = "schema_violation"
	ResultHallucination       Result = "hallucination"
	ResultContentViolation    Result = "content_violation"
	ResultUncertaintyRefusal  Result = "uncertainty_refusal"
)

// Explanation is the required JSON shape of an LLM response.
type Explanation struct {
	ExplanationText string   `json:"explanation"`
	Confidence      float64  `json:"confidence"`
	KeyFactors      []string `json:"key_factors"`
}

// DecisionContext is the subset of a decision the content check cross
// references, so an explanation can't float free of the transaction it's
// meant to explain.
type DecisionContext struct {
	CartTotal float64
	Currency  string
	Rail      string
	Channel   string
}

// Outcome is the verdict of Validate: either a sanitized, usable
// Explanation, or a Result explaining why it was refused.
type Outcome struct {
	Result      Result
	Explanation *Explanation // nil unless Result == ResultValid
	Reason      string
}

var (
	codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

	exactTimestampRe = regexp.MustCompile(`\b\d{1,2}:\d{2}:\d{2}\s*(?:AM|PM|am|pm)?\b`)
	fakeStatisticRe  = regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?%\s*(?:probability|chance|confidence|certain)`)
	overlySpecificRe = regexp.MustCompile(`\bexactly\s+\d+\b`)

	ssnRe     = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	emailRe   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	cardNumRe = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)
	nameRe    = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)

	legalAdviceRe = regexp.MustCompile(`(?i)\b(consult (a|an|your) (lawyer|attorney|accountant|financial advisor)|legal advice|seek legal counsel)\b`)
	guaranteeRe   = regexp.MustCompile(`(?i)\b(guarantee[d]?|100% (safe|secure)|promise[ds]?|assur(e|ed|ance))\b`)

	uncertaintyWordsRe = regexp.MustCompile(`(?i)\b(not sure|might be|may or may not|uncertain|unsure|i think|possibly|not confident|i'm not certain)\b`)
)

const (
	minExplanationLen = 10
	maxExplanationLen = 2000
	maxKeyFactors      = 10
	minConfidence      = 0.5
)

// Validate runs the full pipeline: extraction, schema check, hallucination
// detection, content-violation detection, uncertainty detection. The
// returned Outcome carries a sanitized Explanation only on ResultValid.
func Validate(raw string, ctx DecisionContext) Outcome {
	stripped := stripCodeFence(raw)

	var exp Explanation
	if err := json.Unmarshal([]byte(stripped), &exp); err != nil {
		return Outcome{Result: ResultSchemaViolation, Reason: "response is not valid JSON"}
	}

	if violation := validateSchema(exp); violation != "" {
		return Outcome{Result: ResultSchemaViolation, Reason: violation}
	}
	if violation := detectHallucination(exp.ExplanationText); violation != "" {
		return Outcome{Result: ResultHallucination, Reason: violation}
	}
	if violation := detectContentViolation(exp.ExplanationText, ctx); violation != "" {
		return Outcome{Result: ResultContentViolation, Reason: violation}
	}
	if violation := detectUncertainty(exp); violation != "" {
		return Outcome{Result: ResultUncertaintyRefusal, Reason: violation}
	}

	exp.ExplanationText = Sanitize(exp.ExplanationText)
	return Outcome{Result: ResultValid, Explanation: &exp}
}

func stripCodeFence(raw string) string {
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

func validateSchema(exp Explanation) string {
	n := len(exp.ExplanationText)
	if n < minExplanationLen || n > maxExplanationLen {
		return fmt.Sprintf("explanation length %d outside [%d,%d]", n, minExplanationLen, maxExplanationLen)
	}
	if exp.Confidence < 0 || exp.Confidence > 1 {
		return "confidence outside [0,1]"
	}
	if len(exp.KeyFactors) > maxKeyFactors {
		return fmt.Sprintf("key_factors has %d entries, limit %d", len(exp.KeyFactors), maxKeyFactors)
	}
	return ""
}

func detectHallucination(text string) string {
	if exactTimestampRe.MatchString(text) {
		return "contains an exact timestamp"
	}
	if fakeStatisticRe.MatchString(text) {
		return "contains a fabricated statistic"
	}
	if overlySpecificRe.MatchString(text) {
		return "contains an overly specific unverifiable count"
	}
	return ""
}

func detectContentViolation(text string, ctx DecisionContext) string {
	if ssnRe.MatchString(text) || emailRe.MatchString(text) || cardNumRe.MatchString(text) || nameRe.MatchString(text) {
		return "contains likely PII"
	}
	if legalAdviceRe.MatchString(text) {
		return "contains legal or financial advice"
	}
	if guaranteeRe.MatchString(text) {
		return "contains an unqualified guarantee"
	}
	if !referencesContext(text, ctx) {
		return "does not reference the transaction it explains"
	}
	return ""
}

// referencesContext requires the explanation to ground itself in at least
// one fact about the actual transaction: its cart total, currency, or rail.
func referencesContext(text string, ctx DecisionContext) bool {
	amount := strconv.FormatFloat(ctx.CartTotal, 'f', 2, 64)
	if strings.Contains(text, amount) {
		return true
	}
	if ctx.Currency != "" && strings.Contains(text, ctx.Currency) {
		return true
	}
	if ctx.Rail != "" && strings.Contains(strings.ToLower(text), strings.ToLower(ctx.Rail)) {
		return true
	}
	return false
}

func detectUncertainty(exp Explanation) string {
	if exp.Confidence < minConfidence {
		return "confidence below minimum threshold"
	}
	if uncertaintyWordsRe.MatchString(exp.ExplanationText) {
		return "contains hedge language"
	}
	return ""
}

// Sanitize redacts matched PII and softens absolute language. It is applied
// only to explanations that already passed every other check — sanitization
// cleans up edge phrasing, it does not rescue a rejected response.
func Sanitize(text string) string {
	text = ssnRe.ReplaceAllString(text, "[REDACTED SSN]")
	text = emailRe.ReplaceAllString(text, "[REDACTED EMAIL]")
	text = nameRe.ReplaceAllString(text, "[REDACTED NAME]")

	text = guaranteeRe.ReplaceAllString(text, "indicate")
	text = regexp.MustCompile(`(?i)\bexactly\b`).ReplaceAllString(text, "approximately")
	text = regexp.MustCompile(`(?i)\bfor advice\b`).ReplaceAllString(text, "for general information")
	text = regexp.MustCompile(`(?i)\bshould consult\b`).ReplaceAllString(text, "may wish to consult")

	return text
}
