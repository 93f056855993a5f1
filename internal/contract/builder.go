// Package contract assembles the canonical AP2 wire contract (intent, cart,
// payment, decision, signing envelope) from an internal decision response.
package contract

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lumina/orca/internal/domain"
)

const intentValidityWindow = 24 * time.Hour

// Build produces the AP2-shaped DecisionContract. now is passed in rather
// than read from the clock so callers (and tests) control the timestamps.
func Build(req *domain.DecisionRequest, traceID string, d domain.Decision, riskScore float64, reasons, actions []string, meta map[string]any, now time.Time) domain.DecisionContract {
	amount := decimal.NewFromFloat(req.CartTotal).Round(2).StringFixed(2)

	return domain.DecisionContract{
		AP2Version: domain.AP2Version,
		Intent:     buildIntent(req, now),
		Cart:       buildCart(req, amount),
		Payment:    buildPayment(req, actions),
		Decision: domain.ContractDecision{
			Result:    d,
			RiskScore: riskScore,
			Reasons:   reasons,
			Actions:   actions,
			Meta:      withTraceID(meta, traceID),
		},
		Signing: domain.Signing{VCProof: nil, ReceiptHash: nil},
	}
}

func buildIntent(req *domain.DecisionRequest, now time.Time) domain.Intent {
	return domain.Intent{
		Actor:         "checkout_agent",
		IntentType:    "purchase",
		Channel:       req.Channel,
		AgentPresence: "present",
		Timestamps: domain.Timestamps{
			Created: now.UTC().Format(time.RFC3339),
			Expires: now.Add(intentValidityWindow).UTC().Format(time.RFC3339),
		},
	}
}

func buildCart(req *domain.DecisionRequest, amount string) domain.Cart {
	cart := domain.Cart{
		Amount:   amount,
		Currency: req.Currency,
	}
	if req.Context != nil && req.Context.BillingCountry != "" {
		cart.Geo = &domain.Geo{Country: req.Context.BillingCountry}
	}
	return cart
}

func buildPayment(req *domain.DecisionRequest, actions []string) domain.Payment {
	modality := domain.ModalityImmediate
	if req.Rail == domain.RailACH {
		modality = domain.ModalityDeferred
	}

	payment := domain.Payment{Modality: modality}
	if req.Context != nil && req.Context.PaymentMethod != nil {
		payment.InstrumentRef = req.Context.PaymentMethod.Type
	}

	for _, a := range actions {
		switch strings.ToLower(a) {
		case "step_up_auth":
			payment.AuthRequirements = append(payment.AuthRequirements, "step_up_auth")
		case "micro_deposit_verification":
			payment.AuthRequirements = append(payment.AuthRequirements, "micro_deposit_verification")
		}
	}
	return payment
}

func withTraceID(meta map[string]any, traceID string) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out["trace_id"] = traceID
	return out
}
