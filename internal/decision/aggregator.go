// Package decision implements the Decision Aggregator: it combines rule
// outcomes and the risk prediction into a single APPROVE/REVIEW/DECLINE
// result using fixed precedence, then attaches the external status
// projection and routing hint.
package decision

import (
	"fmt"

	"lumina/orca/internal/domain"
	"lumina/orca/internal/rules"
)

// level ranks the three decisions so raising is a simple max.
func level(d domain.Decision) int {
	switch d {
	case domain.DecisionDecline:
		return 2
	case domain.DecisionReview:
		return 1
	default:
		return 0
	}
}

func fromLevel(l int) domain.Decision {
	switch l {
	case 2:
		return domain.DecisionDecline
	case 1:
		return domain.DecisionReview
	default:
		return domain.DecisionApprove
	}
}

// Aggregate runs the precedence procedure in §4.4 over outcomes and risk,
// returning the decision, deduplicated reasons/actions, and signals. The
// risk-score-driven high-risk escalation is the rule registry's job (the
// HIGH_RISK rule, evaluated against the same risk prediction before
// Aggregate is called) — outcomes already carries its DecisionHint, so
// aggregation itself only needs to fold hints by precedence.
func Aggregate(req *domain.DecisionRequest, risk domain.RiskPrediction, outcomes []domain.RuleOutcome) (d domain.Decision, reasons, actions, signals []string) {
	lvl := level(domain.DecisionApprove)

	for _, o := range outcomes {
		if o.DecisionHint != "" && level(o.DecisionHint) > lvl {
			lvl = level(o.DecisionHint)
		}
	}

	d = fromLevel(lvl)

	reasons = dedupe(concatReasons(outcomes))
	actions = dedupe(concatActions(outcomes))
	for _, o := range outcomes {
		if len(o.Reasons) > 0 || len(o.Actions) > 0 || o.DecisionHint != "" {
			signals = append(signals, o.Name)
		}
	}

	if d == domain.DecisionApprove && len(reasons) == 0 {
		reasons = []string{fmt.Sprintf("Cart total %.2f within approved threshold", req.CartTotal)}
		actions = []string{"Process payment", "Send confirmation"}
	}

	return d, reasons, actions, signals
}

// Status projects decision to its external form: REVIEW becomes ROUTE,
// everything else is the identity.
func Status(d domain.Decision) domain.Status {
	if d == domain.DecisionReview {
		return domain.StatusRoute
	}
	return domain.Status(d)
}

// RoutingHint resolves §4.4's routing table.
func RoutingHint(d domain.Decision, req *domain.DecisionRequest) domain.RoutingHint {
	switch d {
	case domain.DecisionDecline:
		return domain.RoutingBlockTransaction
	case domain.DecisionReview:
		return domain.RoutingManualReview
	default:
		method := ""
		if req.Context != nil && req.Context.PaymentMethod != nil {
			method = req.Context.PaymentMethod.Type
		}
		return rules.RoutingHintForPaymentMethod(method)
	}
}

func concatReasons(outcomes []domain.RuleOutcome) []string {
	var out []string
	for _, o := range outcomes {
		out = append(out, o.Reasons...)
	}
	return out
}

func concatActions(outcomes []domain.RuleOutcome) []string {
	var out []string
	for _, o := range outcomes {
		out = append(out, o.Actions...)
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
