// Package explain implements the Explanation Composer: a deterministic,
// template-based narrative that may optionally be overlaid by a guardrailed
// LLM explanation when AI mode is configured and available.
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lumina/orca/internal/domain"
	"lumina/orca/internal/explain/guardrail"
)

// LLMClient produces a raw completion for a prompt. Implementations talk to
// whatever provider is configured (Azure OpenAI in production); the
// Composer treats any error or timeout as "unavailable".
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Composer builds the deterministic narrative and, when enabled, overlays a
// guardrail-checked LLM explanation.
type Composer struct {
	AIEnabled bool
	Client    LLMClient
	Timeout   time.Duration
}

// New returns a Composer. Pass a nil Client to always use the deterministic
// narrative (AIEnabled is then irrelevant).
func New(aiEnabled bool, client LLMClient, timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Composer{AIEnabled: aiEnabled, Client: client, Timeout: timeout}
}

// Result is everything the orchestrator needs to populate the response.
type Result struct {
	Narrative string
	Human     string
	AI        *domain.AIMeta
}

// Compose produces the deterministic narrative and, if configured, attempts
// to overlay a guardrailed LLM explanation.
func (c *Composer) Compose(ctx context.Context, req *domain.DecisionRequest, d domain.Decision, reasons []string, riskScore float64) Result {
	narrative := deterministicNarrative(d, reasons, req.CartTotal, riskScore)
	human := humanNarrative(reasons, d)

	if !c.AIEnabled || c.Client == nil {
		return Result{Narrative: narrative, Human: human, AI: &domain.AIMeta{Status: "503_service_unavailable"}}
	}

	overlay, ai := c.tryLLMOverlay(ctx, req, d, reasons, riskScore)
	if overlay == "" {
		return Result{Narrative: narrative, Human: human, AI: ai}
	}
	return Result{Narrative: overlay, Human: human, AI: ai}
}

func (c *Composer) tryLLMOverlay(ctx context.Context, req *domain.DecisionRequest, d domain.Decision, reasons []string, riskScore float64) (string, *domain.AIMeta) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	prompt := buildPrompt(req, d, reasons, riskScore)
	raw, err := c.Client.Complete(timeoutCtx, prompt)
	if err != nil {
		return "", &domain.AIMeta{Status: "503_service_unavailable"}
	}

	outcome := guardrail.Validate(raw, guardrail.DecisionContext{
		CartTotal: req.CartTotal,
		Currency:  req.Currency,
		Rail:      string(req.Rail),
		Channel:   string(req.Channel),
	})
	if outcome.Result != guardrail.ResultValid {
		return "", &domain.AIMeta{Status: "guardrail_refusal"}
	}

	return outcome.Explanation.ExplanationText, &domain.AIMeta{
		Status:         "ok",
		LLMExplanation: outcome.Explanation.ExplanationText,
		Confidence:     outcome.Explanation.Confidence,
	}
}

func buildPrompt(req *domain.DecisionRequest, d domain.Decision, reasons []string, riskScore float64) string {
	return fmt.Sprintf(
		"Explain this payment decision in JSON {explanation, confidence, key_factors}. decision=%s cart_total=%.2f currency=%s rail=%s channel=%s risk_score=%.3f reasons=%s",
		d, req.CartTotal, req.Currency, req.Rail, req.Channel, riskScore, strings.Join(reasons, ";"),
	)
}

// Narrative returns the deterministic (non-LLM) narrative sentence for a
// decision, exported for callers — the orca CLI's explain command — that
// want the template narrative without spinning up a full Composer.
func Narrative(d domain.Decision, reasons []string, cartTotal, riskScore float64) string {
	return deterministicNarrative(d, reasons, cartTotal, riskScore)
}

func deterministicNarrative(d domain.Decision, reasons []string, cartTotal, riskScore float64) string {
	switch d {
	case domain.DecisionApprove:
		return fmt.Sprintf("Transaction approved for $%.2f. Cart total within approved limits.", cartTotal)
	case domain.DecisionDecline:
		if riskScore > 0.9 {
			return fmt.Sprintf("Transaction declined due to high ML risk score of %.3f.", riskScore)
		}
		return fmt.Sprintf("Transaction declined due to: %s.", firstTwo(reasons))
	case domain.DecisionReview:
		return fmt.Sprintf("Transaction flagged for manual review due to: %s.", firstTwo(reasons))
	default:
		return fmt.Sprintf("Transaction decision: %s", d)
	}
}

func firstTwo(reasons []string) string {
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}
	return strings.Join(reasons, ", ")
}

// reasonGlosses maps a canonical reason code to a single-sentence human
// template. Codes with no mapping fall back to a generic gloss.
var reasonGlosses = map[string]string{
	"HIGH_TICKET":             "The cart total was unusually high; flagged for review.",
	"VELOCITY_FLAG":           "Transaction velocity over the last 24 hours exceeded the normal range.",
	"LOCATION_MISMATCH":       "The IP location and billing address did not match.",
	"HIGH_IP_DISTANCE":        "The IP address was geographically distant from the expected location.",
	"CHARGEBACK_HISTORY":      "The customer has chargebacks on file in the past 12 months.",
	"LOYALTY_BOOST":           "The customer's loyalty tier favorably adjusted this decision.",
	"ITEM_COUNT":              "The cart contained an unusually large number of items.",
	"high_ticket":             "The cart total exceeded the card rail's high-ticket limit.",
	"velocity_flag":           "Card transaction velocity exceeded the rail's limit.",
	"online_verification":     "An online card transaction above the step-up threshold required extra verification.",
	"ach_limit_exceeded":      "The ACH transaction exceeded the rail's amount limit.",
	"location_mismatch":       "An ACH transaction's location did not match the billing address.",
	"ach_online_verification": "An online ACH transaction above the verification threshold required a micro-deposit check.",
	"HIGH_RISK":               "The ML risk model flagged this transaction as high risk.",
}

func humanNarrative(reasons []string, d domain.Decision) string {
	var sentences []string
	for _, r := range reasons {
		if gloss, ok := reasonGlosses[r]; ok {
			sentences = append(sentences, gloss)
			continue
		}
		if strings.HasPrefix(r, "HIGH_RISK:") {
			sentences = append(sentences, r+".")
		}
	}
	sentences = append(sentences, fmt.Sprintf("Final decision: %s", d))
	return strings.Join(sentences, " ")
}
