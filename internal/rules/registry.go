// Package rules implements the Rule Registry: an ordered collection of
// independent rules, each inspecting a request (and its derived features)
// and optionally emitting a decision hint, reasons, and actions.
//
// Rules are never short-circuited — every rule in the registry runs on
// every request, and every outcome it emits contributes to the final
// decision. Ordering is fixed for determinism; it is also the order reasons
// and actions surface in, before deduplication.
package rules

import (
	"strings"

	"lumina/orca/internal/domain"
)

// Context bundles everything a rule needs to evaluate: the raw request, its
// derived features, and (for the HIGH_RISK rule) the risk prediction.
type Context struct {
	Request  *domain.DecisionRequest
	Features domain.DerivedFeatures
	Risk     domain.RiskPrediction
}

// ruleFunc evaluates a single rule against ctx, returning nil when the rule
// does not apply.
type ruleFunc func(ctx *Context, t Thresholds) *domain.RuleOutcome

// Thresholds holds every tunable trigger value in the rule table. Each has a
// spec-mandated default, overridable at construction time so the set can be
// retuned without touching rule logic.
type Thresholds struct {
	HighTicket        float64
	Velocity          float64
	ItemCount         float64
	CardHighTicket    float64
	CardVelocity      float64
	CardChannelOnline float64
	ACHLimit          float64
	ACHChannelOnline  float64
	HighRisk          float64
}

// DefaultThresholds returns the trigger values listed in the rule table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighTicket:        500,
		Velocity:          3,
		ItemCount:         10,
		CardHighTicket:    5000,
		CardVelocity:      4,
		CardChannelOnline: 1000,
		ACHLimit:          2000,
		ACHChannelOnline:  500,
		HighRisk:          0.80,
	}
}

// Registry is the ordered, constructor-time-configured set of mandatory
// rules.
type Registry struct {
	thresholds Thresholds
	rules      []namedRule
}

type namedRule struct {
	name string
	fn   ruleFunc
}

// NewRegistry builds the registry with t as the effective thresholds. Rule
// order matches the mandatory table in declaration order.
func NewRegistry(t Thresholds) *Registry {
	return &Registry{
		thresholds: t,
		rules: []namedRule{
			{"HIGH_TICKET", ruleHighTicket},
			{"VELOCITY", ruleVelocity},
			{"LOCATION_MISMATCH", ruleLocationMismatch},
			{"HIGH_IP_DISTANCE", ruleHighIPDistance},
			{"CHARGEBACK_HISTORY", ruleChargebackHistory},
			{"LOYALTY_BOOST", ruleLoyaltyBoost},
			{"ITEM_COUNT", ruleItemCount},
			{"CARD_HIGH_TICKET", ruleCardHighTicket},
			{"CARD_VELOCITY", ruleCardVelocity},
			{"CARD_CHANNEL", ruleCardChannel},
			{"ACH_LIMIT", ruleACHLimit},
			{"ACH_LOCATION_MISMATCH", ruleACHLocationMismatch},
			{"ACH_CHANNEL", ruleACHChannel},
			{"HIGH_RISK", ruleHighRisk},
		},
	}
}

// Evaluate runs every rule against ctx and returns the outcomes of those
// that fired, in registry order.
func (reg *Registry) Evaluate(ctx *Context) []domain.RuleOutcome {
	outcomes := make([]domain.RuleOutcome, 0, len(reg.rules))
	for _, r := range reg.rules {
		if outcome := r.fn(ctx, reg.thresholds); outcome != nil {
			outcome.Name = r.name
			outcomes = append(outcomes, *outcome)
		}
	}
	return outcomes
}

// ─── individual rules ─────────────────────────────────────────────────────

func ruleHighTicket(ctx *Context, t Thresholds) *domain.RuleOutcome {
	if ctx.Request.CartTotal <= t.HighTicket {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionReview,
		Reasons:      []string{"HIGH_TICKET"},
		Actions:      []string{"ROUTE_TO_REVIEW"},
	}
}

func ruleVelocity(ctx *Context, t Thresholds) *domain.RuleOutcome {
	if ctx.Features["velocity_24h"] <= t.Velocity {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionReview,
		Reasons:      []string{"VELOCITY_FLAG"},
		Actions:      []string{"ROUTE_TO_REVIEW"},
	}
}

func ruleLocationMismatch(ctx *Context, _ Thresholds) *domain.RuleOutcome {
	c := ctx.Request.Context
	if c == nil || c.LocationIPCountry == "" || c.BillingCountry == "" || c.LocationIPCountry == c.BillingCountry {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionReview,
		Reasons:      []string{"LOCATION_MISMATCH"},
		Actions:      []string{"ROUTE_TO_REVIEW"},
	}
}

func ruleHighIPDistance(ctx *Context, _ Thresholds) *domain.RuleOutcome {
	if ctx.Features["high_ip_distance"] == 0 {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionReview,
		Reasons:      []string{"HIGH_IP_DISTANCE"},
		Actions:      []string{"ROUTE_TO_REVIEW"},
	}
}

func ruleChargebackHistory(ctx *Context, _ Thresholds) *domain.RuleOutcome {
	c := ctx.Request.Context
	if c == nil || c.Customer == nil || c.Customer.Chargebacks12m <= 0 {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionReview,
		Reasons:      []string{"CHARGEBACK_HISTORY"},
		Actions:      []string{"ROUTE_TO_REVIEW"},
	}
}

func ruleLoyaltyBoost(ctx *Context, _ Thresholds) *domain.RuleOutcome {
	c := ctx.Request.Context
	if c == nil || c.Customer == nil {
		return nil
	}
	switch c.Customer.LoyaltyTier {
	case domain.LoyaltyGold, domain.LoyaltyPlatinum:
	default:
		return nil
	}
	return &domain.RuleOutcome{
		Reasons: []string{"LOYALTY_BOOST"},
		Actions: []string{"LOYALTY_BOOST"},
	}
}

func ruleItemCount(ctx *Context, t Thresholds) *domain.RuleOutcome {
	c := ctx.Request.Context
	if c == nil || c.ItemCount <= t.ItemCount {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionReview,
		Reasons:      []string{"ITEM_COUNT"},
		Actions:      []string{"ROUTE_TO_REVIEW"},
	}
}

func ruleCardHighTicket(ctx *Context, t Thresholds) *domain.RuleOutcome {
	if ctx.Request.Rail != domain.RailCard || ctx.Request.CartTotal <= t.CardHighTicket {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionDecline,
		Reasons:      []string{"high_ticket"},
		Actions:      []string{"manual_review"},
	}
}

func ruleCardVelocity(ctx *Context, t Thresholds) *domain.RuleOutcome {
	if ctx.Request.Rail != domain.RailCard || ctx.Features["velocity_24h"] <= t.CardVelocity {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionDecline,
		Reasons:      []string{"velocity_flag"},
		Actions:      []string{"block_transaction"},
	}
}

// ruleCardChannel covers both CARD_CHANNEL table rows: the online
// step-up-auth branch and the pos pass-through branch.
func ruleCardChannel(ctx *Context, t Thresholds) *domain.RuleOutcome {
	if ctx.Request.Rail != domain.RailCard {
		return nil
	}
	switch ctx.Request.Channel {
	case domain.ChannelOnline:
		if ctx.Request.CartTotal <= t.CardChannelOnline {
			return nil
		}
		return &domain.RuleOutcome{
			DecisionHint: domain.DecisionReview,
			Reasons:      []string{"online_verification"},
			Actions:      []string{"step_up_auth"},
		}
	case domain.ChannelPOS:
		return &domain.RuleOutcome{Actions: []string{"pos_processing"}}
	default:
		return nil
	}
}

func ruleACHLimit(ctx *Context, t Thresholds) *domain.RuleOutcome {
	if ctx.Request.Rail != domain.RailACH || ctx.Request.CartTotal <= t.ACHLimit {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionDecline,
		Reasons:      []string{"ach_limit_exceeded"},
		Actions:      []string{"fallback_card"},
	}
}

func ruleACHLocationMismatch(ctx *Context, _ Thresholds) *domain.RuleOutcome {
	c := ctx.Request.Context
	if ctx.Request.Rail != domain.RailACH || c == nil {
		return nil
	}
	mismatch := c.LocationMismatch || (c.LocationIPCountry != "" && c.BillingCountry != "" && c.LocationIPCountry != c.BillingCountry)
	if !mismatch {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionDecline,
		Reasons:      []string{"location_mismatch"},
		Actions:      []string{"fallback_card"},
	}
}

// ruleACHChannel covers both ACH_CHANNEL table rows.
func ruleACHChannel(ctx *Context, t Thresholds) *domain.RuleOutcome {
	if ctx.Request.Rail != domain.RailACH {
		return nil
	}
	switch ctx.Request.Channel {
	case domain.ChannelOnline:
		if ctx.Request.CartTotal <= t.ACHChannelOnline {
			return nil
		}
		return &domain.RuleOutcome{
			DecisionHint: domain.DecisionReview,
			Reasons:      []string{"ach_online_verification"},
			Actions:      []string{"micro_deposit_verification"},
		}
	case domain.ChannelPOS:
		return &domain.RuleOutcome{Actions: []string{"ach_pos_processing"}}
	default:
		return nil
	}
}

func ruleHighRisk(ctx *Context, t Thresholds) *domain.RuleOutcome {
	if ctx.Risk.RiskScore <= t.HighRisk {
		return nil
	}
	return &domain.RuleOutcome{
		DecisionHint: domain.DecisionDecline,
		Reasons:      []string{"HIGH_RISK"},
		Actions:      []string{"BLOCK"},
	}
}

// RoutingHintForPaymentMethod resolves the APPROVE-path routing hint from a
// payment method string, matching case-insensitively.
func RoutingHintForPaymentMethod(method string) domain.RoutingHint {
	switch strings.ToLower(method) {
	case "visa", "mastercard", "amex":
		return domain.RoutingVisaNetwork
	case "ach", "bank_transfer":
		return domain.RoutingACHNetwork
	default:
		return domain.RoutingProcessNormally
	}
}
