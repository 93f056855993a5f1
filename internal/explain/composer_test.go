package explain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/orca/internal/domain"
)

type stubLLM struct {
	response string
	err      error
}

func (s stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func TestCompose_DeterministicApprove(t *testing.T) {
	c := New(false, nil, 0)
	req := &domain.DecisionRequest{CartTotal: 250.0}

	res := c.Compose(context.Background(), req, domain.DecisionApprove, nil, 0.1)

	assert.Contains(t, res.Narrative, "approved for $250.00")
	assert.Equal(t, "503_service_unavailable", res.AI.Status)
}

func TestCompose_DeterministicDeclineHighRisk(t *testing.T) {
	c := New(false, nil, 0)
	req := &domain.DecisionRequest{CartTotal: 100.0}

	res := c.Compose(context.Background(), req, domain.DecisionDecline, []string{"HIGH_RISK"}, 0.95)

	assert.Contains(t, res.Narrative, "high ML risk score of 0.950")
}

func TestCompose_DeterministicDeclineReasons(t *testing.T) {
	c := New(false, nil, 0)
	req := &domain.DecisionRequest{CartTotal: 100.0}

	res := c.Compose(context.Background(), req, domain.DecisionDecline, []string{"high_ticket", "velocity_flag", "third"}, 0.5)

	assert.Equal(t, "Transaction declined due to: high_ticket, velocity_flag.", res.Narrative)
}

func TestCompose_ReviewNarrative(t *testing.T) {
	c := New(false, nil, 0)
	req := &domain.DecisionRequest{CartTotal: 100.0}

	res := c.Compose(context.Background(), req, domain.DecisionReview, []string{"HIGH_TICKET"}, 0.4)

	assert.Equal(t, "Transaction flagged for manual review due to: HIGH_TICKET.", res.Narrative)
}

func TestCompose_HumanNarrativeAppendsFinalDecision(t *testing.T) {
	c := New(false, nil, 0)
	req := &domain.DecisionRequest{CartTotal: 100.0}

	res := c.Compose(context.Background(), req, domain.DecisionReview, []string{"HIGH_TICKET"}, 0.4)

	assert.Contains(t, res.Human, "flagged for review")
	assert.Contains(t, res.Human, "Final decision: REVIEW")
}

func TestCompose_LLMOverlayValid(t *testing.T) {
	client := stubLLM{response: `{"explanation": "The 100.00 transaction on Card was approved due to low risk", "confidence": 0.9, "key_factors": ["low_risk"]}`}
	c := New(true, client, 0)
	req := &domain.DecisionRequest{CartTotal: 100.0, Rail: domain.RailCard}

	res := c.Compose(context.Background(), req, domain.DecisionApprove, nil, 0.1)

	require.Equal(t, "ok", res.AI.Status)
	assert.Contains(t, res.Narrative, "low risk")
}

func TestCompose_LLMOverlayFallsBackOnGuardrailRejection(t *testing.T) {
	client := stubLLM{response: `{"explanation": "This is guaranteed to be totally safe for sure", "confidence": 0.9}`}
	c := New(true, client, 0)
	req := &domain.DecisionRequest{CartTotal: 100.0}

	res := c.Compose(context.Background(), req, domain.DecisionApprove, nil, 0.1)

	assert.Equal(t, "guardrail_refusal", res.AI.Status)
	assert.Contains(t, res.Narrative, "approved for $100.00")
}

func TestCompose_LLMUnavailableFallsBack(t *testing.T) {
	client := stubLLM{err: errors.New("connection refused")}
	c := New(true, client, 0)
	req := &domain.DecisionRequest{CartTotal: 100.0}

	res := c.Compose(context.Background(), req, domain.DecisionApprove, nil, 0.1)

	assert.Equal(t, "503_service_unavailable", res.AI.Status)
	assert.Contains(t, res.Narrative, "approved for $100.00")
}
