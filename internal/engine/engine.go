// Package engine wires the pipeline stages — feature extraction, risk
// model, rule registry, decision aggregation, explanation composition,
// contract building, receipt hashing/signing, and event emission — into the
// single Decide entry point described in §4.9.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lumina/orca/internal/apierr"
	"lumina/orca/internal/contract"
	"lumina/orca/internal/decision"
	"lumina/orca/internal/domain"
	"lumina/orca/internal/events"
	"lumina/orca/internal/explain"
	"lumina/orca/internal/features"
	"lumina/orca/internal/receipt"
	"lumina/orca/internal/risk"
	"lumina/orca/internal/rules"
	"lumina/orca/internal/schema"
	"lumina/orca/internal/store"
)

// Engine is the Decision Orchestrator. It holds only read-only, shared
// dependencies (the loaded risk model, the rule registry, the schema
// validator, the signer, the emitter) so one Engine is safe to invoke
// concurrently from many goroutines — every Decide call is independent.
type Engine struct {
	RiskModel risk.Model
	Rules     *rules.Registry
	Explainer *explain.Composer
	Signer    *receipt.Signer // nil disables signing; receipt_hash is still computed
	Emitter   *events.Emitter
	Validator *schema.Validator

	// DecisionLog is optional — nil disables entity/pattern reporting
	// entirely. It never affects the returned decision.
	DecisionLog *store.Store

	// ReceiptHashOnly, when true, skips the §4.7 VC proof even if Signer is
	// set — only the content hash is computed.
	ReceiptHashOnly bool
}

// Outcome is everything Decide produces for one request: the internal
// response, the AP2 wire contract, and any non-fatal errors recorded as
// metadata rather than returned (MODEL_ERROR, LLM_ERROR, SIGNING_ERROR,
// EMISSION_ERROR, SCHEMA_ERROR all land here, not in the returned error).
type Outcome struct {
	Response *domain.DecisionResponse
	Contract domain.DecisionContract
}

// Decide runs the ten-stage pipeline in §4.9. The only error it returns is
// fatal: VALIDATION_ERROR (malformed request) or CANCELLED (context done
// before aggregation). Everything else is recovered locally per §7 and
// surfaced through Outcome.Response.MetaStructured.
func (e *Engine) Decide(ctx context.Context, req *domain.DecisionRequest) (*Outcome, error) {
	start := time.Now()

	// 1. Validate request.
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	req.Normalize()
	if req.TraceID == "" {
		req.TraceID = "txn_" + uuid.NewString()
	}

	select {
	case <-ctx.Done():
		return nil, apierr.New(apierr.CodeCancelled, "decision cancelled before aggregation")
	default:
	}

	// 2. Extract features.
	derived := features.Extract(req)

	// 3. Invoke Risk Model.
	riskModelError := ""
	riskPred := e.RiskModel.Predict(derived)
	for _, code := range riskPred.ReasonCodes {
		if code == "MODEL_ERROR" {
			riskModelError = "MODEL_ERROR"
		}
	}

	// 4. Run Rule Registry.
	outcomes := e.Rules.Evaluate(&rules.Context{Request: req, Features: derived, Risk: riskPred})

	// 5. Aggregate decision.
	d, reasons, actions, signals := decision.Aggregate(req, riskPred, outcomes)
	status := decision.Status(d)
	routingHint := decision.RoutingHint(d, req)

	// From here on, cancellation no longer aborts the decision: §5 requires
	// the in-flight optional work (LLM overlay, emission) to be abandoned
	// instead, which Compose and the async Emit goroutine already do via
	// their own timeouts.

	// 6. Compose explanation.
	explainResult := e.Explainer.Compose(ctx, req, d, reasons, riskPred.RiskScore)

	processingMS := time.Since(start).Milliseconds()
	meta := map[string]any{
		"model":              riskPred.ModelType,
		"version":            riskPred.Version,
		"processing_time_ms": processingMS,
		"risk_score":         riskPred.RiskScore,
		"rules_evaluated":    signals,
	}
	if riskModelError != "" {
		meta["risk_model_error"] = riskModelError
	}

	metaStructured := domain.MetaStructured{
		Model:            riskPred.ModelType,
		Version:          riskPred.Version,
		TraceID:          req.TraceID,
		ProcessingTimeMS: processingMS,
		RiskScore:        riskPred.RiskScore,
		RulesEvaluated:   len(signals),
		RiskModelError:   riskModelError,
		AI:               explainResult.AI,
	}

	// 7. Build contract.
	built := contract.Build(req, req.TraceID, d, riskPred.RiskScore, reasons, actions, meta, time.Now())

	// 8. Hash receipt (and sign if configured).
	hash, err := receipt.Hash(&built)
	if err != nil {
		slog.Warn("receipt hashing failed", "trace_id", req.TraceID, "error", err)
	} else {
		built.Signing.ReceiptHash = &hash
	}
	if e.Signer != nil && !e.ReceiptHashOnly {
		if proof, err := e.Signer.Sign(time.Now()); err != nil {
			slog.Warn("receipt signing failed", "trace_id", req.TraceID, "error", err)
		} else {
			built.Signing.VCProof = proof
		}
	}

	// Validate the built contract against the bundled schema; failures are
	// SCHEMA_ERROR and abort emission but not the returned decision.
	var schemaErrors []string
	if e.Validator != nil {
		if data, convErr := toMap(built); convErr == nil {
			out := e.Validator.Validate(schema.TypeDecision, data)
			if !out.Valid {
				schemaErrors = out.Errors
			}
		}
	}
	metaStructured.SchemaErrors = schemaErrors

	response := &domain.DecisionResponse{
		Decision:         d,
		Status:           status,
		Reasons:          reasons,
		Actions:          actions,
		SignalsTriggered: signals,
		RoutingHint:      routingHint,
		Meta:             meta,
		MetaStructured:   metaStructured,
		Explanation:      explainResult.Narrative,
		ExplanationHuman: explainResult.Human,
		TransactionID:    req.TraceID,
		Timestamp:        time.Now(),
		CartTotal:        req.CartTotal,
		Rail:             req.Rail,
	}

	// 9. Fire-and-record event emission asynchronously; never blocks the
	// response and never turns into a returned error.
	if e.Emitter != nil && len(schemaErrors) == 0 {
		contractCopy := built
		go func() {
			event, err := e.Emitter.WrapDecision(&contractCopy, req.TraceID)
			if err != nil {
				slog.Warn("event wrap failed", "trace_id", req.TraceID, "error", err)
				return
			}
			if err := e.Emitter.Emit(context.Background(), event); err != nil {
				slog.Warn("event emission failed", "trace_id", req.TraceID, "error", err)
			}
		}()
	}

	if e.DecisionLog != nil {
		e.DecisionLog.Append(logRecord(req, d, riskPred.RiskScore, reasons))
	}

	// 10. Return.
	return &Outcome{Response: response, Contract: built}, nil
}

// logRecord projects a completed decision into the thinned form the entity
// and pattern reports aggregate over. card_bin/ip_address/customer_ref are
// opportunistic: callers may carry them as string features alongside the
// numeric ones the Feature Extractor reads; absent, the record simply isn't
// indexed under that entity type.
func logRecord(req *domain.DecisionRequest, d domain.Decision, riskScore float64, reasons []string) domain.DecisionLogRecord {
	return domain.DecisionLogRecord{
		TraceID:     req.TraceID,
		Decision:    d,
		RiskScore:   riskScore,
		CartTotal:   req.CartTotal,
		Currency:    req.Currency,
		Rail:        req.Rail,
		Channel:     req.Channel,
		CardBIN:     stringFeature(req, "card_bin"),
		IPAddress:   stringFeature(req, "ip_address"),
		CustomerRef: stringFeature(req, "customer_ref"),
		Reasons:     reasons,
		Timestamp:   time.Now(),
	}
}

func stringFeature(req *domain.DecisionRequest, key string) string {
	v, ok := req.Features[key].(string)
	if !ok {
		return ""
	}
	return v
}

func toMap(c domain.DecisionContract) (map[string]any, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// validateRequest checks shape and enum membership per §4.9 step 1.
func validateRequest(req *domain.DecisionRequest) error {
	if req == nil {
		return apierr.New(apierr.CodeValidation, "request body is required")
	}
	if req.CartTotal < 0 {
		return apierr.New(apierr.CodeValidation, "cart_total must be non-negative")
	}
	switch req.Rail {
	case "", domain.RailCard, domain.RailACH:
	default:
		return apierr.Newf(apierr.CodeValidation, "rail must be Card or ACH, got %q", req.Rail)
	}
	switch req.Channel {
	case "", domain.ChannelOnline, domain.ChannelPOS:
	default:
		return apierr.Newf(apierr.CodeValidation, "channel must be online or pos, got %q", req.Channel)
	}
	return nil
}
