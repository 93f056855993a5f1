package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/orca/internal/domain"
	"lumina/orca/internal/events"
	"lumina/orca/internal/explain"
	"lumina/orca/internal/receipt"
	"lumina/orca/internal/risk"
	"lumina/orca/internal/rules"
	"lumina/orca/internal/schema"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	signer, err := receipt.NewEphemeralSigner()
	require.NoError(t, err)

	return &Engine{
		RiskModel: risk.NewStub(),
		Rules:     rules.NewRegistry(rules.DefaultThresholds()),
		Explainer: explain.New(false, nil, time.Second),
		Signer:    signer,
		Emitter:   events.New(events.DefaultConfig("")),
		Validator: schema.New(),
	}
}

func TestDecide_LowTicketApproves(t *testing.T) {
	e := newTestEngine(t)
	req := &domain.DecisionRequest{CartTotal: 100}

	out, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionApprove, out.Response.Decision)
	assert.Equal(t, domain.StatusApprove, out.Response.Status)
	assert.NotEmpty(t, out.Contract.Signing.ReceiptHash)
	assert.NotNil(t, out.Contract.Signing.VCProof)
}

func TestDecide_HighTicketReviews(t *testing.T) {
	e := newTestEngine(t)
	req := &domain.DecisionRequest{CartTotal: 750}

	out, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionReview, out.Response.Decision)
	assert.Equal(t, domain.StatusRoute, out.Response.Status)
}

func TestDecide_NegativeCartTotalIsValidationError(t *testing.T) {
	e := newTestEngine(t)
	req := &domain.DecisionRequest{CartTotal: -5}

	_, err := e.Decide(context.Background(), req)
	require.Error(t, err)
}

func TestDecide_InvalidRailIsValidationError(t *testing.T) {
	e := newTestEngine(t)
	req := &domain.DecisionRequest{CartTotal: 10, Rail: domain.Rail("WIRE")}

	_, err := e.Decide(context.Background(), req)
	require.Error(t, err)
}

func TestDecide_AssignsTraceIDWhenMissing(t *testing.T) {
	e := newTestEngine(t)
	req := &domain.DecisionRequest{CartTotal: 10}

	out, err := e.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Response.TransactionID)
	assert.Equal(t, out.Response.TransactionID, out.Contract.TraceID())
}

func TestDecide_IsDeterministicAcrossInvocations(t *testing.T) {
	e := newTestEngine(t)
	req1 := &domain.DecisionRequest{CartTotal: 600, TraceID: "txn_fixed"}
	req2 := &domain.DecisionRequest{CartTotal: 600, TraceID: "txn_fixed"}

	out1, err := e.Decide(context.Background(), req1)
	require.NoError(t, err)
	out2, err := e.Decide(context.Background(), req2)
	require.NoError(t, err)

	assert.Equal(t, out1.Response.Decision, out2.Response.Decision)
	assert.Equal(t, out1.Response.Reasons, out2.Response.Reasons)
	assert.Equal(t, out1.Response.Actions, out2.Response.Actions)
}

func TestDecide_CancelledContextBeforeAggregationIsCancelled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &domain.DecisionRequest{CartTotal: 10}
	_, err := e.Decide(ctx, req)
	require.Error(t, err)
}
