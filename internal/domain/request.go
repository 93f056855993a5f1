// Package domain contains the core types shared across the decision pipeline:
// the inbound request, the derived features, the internal response, and the
// AP2 wire contract. Keeping them in one place lets every stage of the
// pipeline (features, risk, rules, aggregation, contract, receipt) share one
// vocabulary without import cycles.
package domain

import (
	"encoding/json"
	"time"
)

// Rail is the payment clearing system used by a transaction.
type Rail string

const (
	RailCard Rail = "Card"
	RailACH  Rail = "ACH"
)

// Channel is the point of sale.
type Channel string

const (
	ChannelOnline Channel = "online"
	ChannelPOS    Channel = "pos"
)

// Decision is the internal three-way outcome of the pipeline.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReview  Decision = "REVIEW"
	DecisionDecline Decision = "DECLINE"
)

// Status is the external projection of Decision (REVIEW becomes ROUTE).
type Status string

const (
	StatusApprove Status = "APPROVE"
	StatusRoute   Status = "ROUTE"
	StatusDecline Status = "DECLINE"
)

// RoutingHint tells a downstream processor where to send an approved or
// blocked transaction.
type RoutingHint string

const (
	RoutingBlockTransaction    RoutingHint = "BLOCK_TRANSACTION"
	RoutingManualReview        RoutingHint = "ROUTE_TO_MANUAL_REVIEW"
	RoutingVisaNetwork         RoutingHint = "ROUTE_TO_VISA_NETWORK"
	RoutingACHNetwork          RoutingHint = "ROUTE_TO_ACH_NETWORK"
	RoutingProcessNormally     RoutingHint = "PROCESS_NORMALLY"
)

// LoyaltyTier is the customer's program tier.
type LoyaltyTier string

const (
	LoyaltyNone     LoyaltyTier = "NONE"
	LoyaltySilver   LoyaltyTier = "SILVER"
	LoyaltyGold     LoyaltyTier = "GOLD"
	LoyaltyPlatinum LoyaltyTier = "PLATINUM"
)

// PaymentMethod carries either a plain string or a struct with a `type`
// field; the spec allows both wire shapes for context.payment_method.
type PaymentMethod struct {
	Type string
}

// UnmarshalJSON accepts either `"visa"` or `{"type":"visa"}`.
func (p *PaymentMethod) UnmarshalJSON(b []byte) error {
	var asString string
	if err := json.Unmarshal(b, &asString); err == nil {
		p.Type = asString
		return nil
	}
	var asStruct struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &asStruct); err != nil {
		return err
	}
	p.Type = asStruct.Type
	return nil
}

// Customer carries the fields of context.customer the Rule Registry and
// Risk Model inspect.
type Customer struct {
	Chargebacks12m float64     `json:"chargebacks_12m"`
	LoyaltyTier    LoyaltyTier `json:"loyalty_tier"`
	AgeDays        float64     `json:"age_days"`
}

// RequestContext is the nested, loosely-typed `context` bag of a
// DecisionRequest. Only the recognized keys are promoted to typed fields;
// anything else is preserved in Extra for forward compatibility.
type RequestContext struct {
	LocationIPCountry string         `json:"location_ip_country,omitempty"`
	BillingCountry    string         `json:"billing_country,omitempty"`
	LocationMismatch  bool           `json:"location_mismatch,omitempty"`
	ItemCount         float64        `json:"item_count,omitempty"`
	PaymentMethod     *PaymentMethod `json:"payment_method,omitempty"`
	Customer          *Customer      `json:"customer,omitempty"`
}

// DecisionRequest is the immutable input to the decision pipeline.
type DecisionRequest struct {
	CartTotal float64                `json:"cart_total"`
	Currency  string                 `json:"currency"`
	Rail      Rail                   `json:"rail"`
	Channel   Channel                `json:"channel"`
	Features  map[string]any         `json:"features"`
	Context   *RequestContext        `json:"context"`

	// TraceID correlates this request through the contract, receipt, and
	// CloudEvent. It is assigned by the orchestrator if the caller omits it.
	TraceID string `json:"-"`
}

// Normalize applies the request-level defaults the spec requires
// (currency=USD, rail=Card, channel=online) without mutating zero-value
// ambiguity elsewhere in the pipeline.
func (r *DecisionRequest) Normalize() {
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if r.Rail == "" {
		r.Rail = RailCard
	}
	if r.Channel == "" {
		r.Channel = ChannelOnline
	}
}

// DerivedFeatures is a flat numeric view of a DecisionRequest, produced once
// by the Feature Extractor and consumed read-only by the Risk Model and the
// Rule Registry.
type DerivedFeatures map[string]float64

// RiskPrediction is the output of a Risk Model.
type RiskPrediction struct {
	RiskScore    float64  `json:"risk_score"`
	ReasonCodes  []string `json:"reason_codes"`
	Version      string   `json:"version"`
	ModelType    string   `json:"model_type"`
}

// RuleOutcome is what a single rule emits when it fires.
type RuleOutcome struct {
	Name         string
	DecisionHint Decision // "" means no hint
	Reasons      []string
	Actions      []string
}

// MetaStructured mirrors the required subset of DecisionResponse.Meta as
// typed fields, so downstream code isn't forced through map[string]any.
type MetaStructured struct {
	Model             string         `json:"model"`
	Version           string         `json:"version"`
	TraceID           string         `json:"trace_id"`
	ProcessingTimeMS  int64          `json:"processing_time_ms"`
	RiskScore         float64        `json:"risk_score"`
	RulesEvaluated    int            `json:"rules_evaluated"`
	RiskModelError    string         `json:"risk_model_error,omitempty"`
	AI                *AIMeta        `json:"ai,omitempty"`
	SchemaErrors      []string       `json:"schema_errors,omitempty"`
}

// AIMeta carries the provenance of the optional LLM explanation overlay.
type AIMeta struct {
	Status          string `json:"status"`
	LLMExplanation  string `json:"llm_explanation,omitempty"`
	Confidence      float64 `json:"confidence,omitempty"`
}

// DecisionResponse is the internal result of the pipeline, before it is
// projected into the AP2 wire contract.
type DecisionResponse struct {
	Decision         Decision
	Status           Status
	Reasons          []string
	Actions          []string
	SignalsTriggered []string
	RoutingHint      RoutingHint
	Meta             map[string]any
	MetaStructured   MetaStructured
	Explanation      string
	ExplanationHuman string

	// Backward-compatibility fields mirrored onto the wire contract.
	TransactionID string
	Timestamp     time.Time
	CartTotal     float64
	Rail          Rail
}
