package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestNew_CompilesAllBundledSchemas(t *testing.T) {
	v := New()
	assert.Len(t, v.compiled, 3)
}

func TestValidate_DecisionAcceptsWellFormedContract(t *testing.T) {
	v := New()
	data := decodeJSON(t, `{
		"ap2_version": "0.1.0",
		"intent": {"channel": "online", "timestamps": {"created": "2026-01-01T00:00:00Z", "expires": "2026-01-02T00:00:00Z"}},
		"cart": {"amount": "20.00", "currency": "USD"},
		"payment": {"modality": "immediate"},
		"decision": {"result": "APPROVE", "risk_score": 0.1, "reasons": ["ok"], "actions": ["Process payment"], "meta": {}},
		"signing": {}
	}`)

	out := v.Validate(TypeDecision, data)
	assert.True(t, out.Valid)
	assert.False(t, out.UsedFallback)
}

func TestValidate_DecisionRejectsBadResult(t *testing.T) {
	v := New()
	data := decodeJSON(t, `{
		"ap2_version": "0.1.0",
		"intent": {"channel": "online", "timestamps": {"created": "2026-01-01T00:00:00Z", "expires": "2026-01-02T00:00:00Z"}},
		"cart": {"amount": "20.00", "currency": "USD"},
		"payment": {"modality": "immediate"},
		"decision": {"result": "MAYBE", "risk_score": 0.1, "reasons": [], "actions": [], "meta": {}},
		"signing": {}
	}`)

	out := v.Validate(TypeDecision, data)
	assert.False(t, out.Valid)
}

func TestValidate_ExplanationRejectsOutOfRangeConfidence(t *testing.T) {
	v := New()
	data := decodeJSON(t, `{
		"trace_id": "txn_abc",
		"explanation": "this purchase was approved based on low risk signals",
		"confidence": 1.5,
		"key_factors": ["low_risk"]
	}`)

	out := v.Validate(TypeExplanation, data)
	assert.False(t, out.Valid)
}

func TestBasicDecisionValidation_FlagsMissingFields(t *testing.T) {
	out := basicDecisionValidation(map[string]any{"ap2_version": "0.1.0"})
	assert.False(t, out.Valid)
	assert.True(t, out.UsedFallback)
	assert.NotEmpty(t, out.Errors)
}

func TestBasicExplanationValidation_AcceptsValidPayload(t *testing.T) {
	out := basicExplanationValidation(map[string]any{
		"trace_id":    "txn_abc",
		"explanation": "approved",
		"confidence":  0.75,
		"key_factors": []any{"low_risk"},
	})
	assert.True(t, out.Valid)
}

func TestValidate_CloudEventRejectsBadSubject(t *testing.T) {
	v := New()
	data := decodeJSON(t, `{
		"specversion": "1.0",
		"id": "evt_1",
		"source": "https://orca.ocn.ai/decision-engine",
		"type": "ocn.orca.decision.v1",
		"subject": "not-valid",
		"time": "2026-01-01T00:00:00Z",
		"datacontenttype": "application/json",
		"data": {}
	}`)

	out := v.Validate(TypeCloudEvent, data)
	assert.False(t, out.Valid)
}
