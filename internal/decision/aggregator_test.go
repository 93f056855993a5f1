package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lumina/orca/internal/domain"
)

func TestAggregate_LowTicketApprove(t *testing.T) {
	req := &domain.DecisionRequest{CartTotal: 250.0, Rail: domain.RailCard, Channel: domain.ChannelOnline}
	outcomes := []domain.RuleOutcome{
		{Name: "LOYALTY_BOOST", Reasons: []string{"LOYALTY_BOOST"}, Actions: []string{"LOYALTY_BOOST"}},
	}

	d, reasons, actions, signals := Aggregate(req, domain.RiskPrediction{RiskScore: 0.1}, outcomes)

	assert.Equal(t, domain.DecisionApprove, d)
	assert.Contains(t, signals, "LOYALTY_BOOST")
	assert.Contains(t, actions, "LOYALTY_BOOST")
	// LOYALTY_BOOST carries a reason, so no synthesized approve-reason; but
	// since the rule's own reason list is non-empty the synthesis step does
	// not fire.
	assert.NotEmpty(t, reasons)
}

func TestAggregate_SynthesizesApproveReasonWhenEmpty(t *testing.T) {
	req := &domain.DecisionRequest{CartTotal: 42.50}
	d, reasons, actions, _ := Aggregate(req, domain.RiskPrediction{RiskScore: 0.1}, nil)

	assert.Equal(t, domain.DecisionApprove, d)
	assert.Contains(t, reasons[0], "within approved threshold")
	assert.Equal(t, []string{"Process payment", "Send confirmation"}, actions)
}

func TestAggregate_FoldsHighRiskRuleOutcome(t *testing.T) {
	// The HIGH_RISK rule (internal/rules) is what turns a risk score into a
	// DecisionHint; Aggregate just folds whatever hint it's handed. See
	// internal/rules.TestRuleHighRisk for the threshold behavior itself.
	req := &domain.DecisionRequest{CartTotal: 100}
	outcomes := []domain.RuleOutcome{
		{Name: "HIGH_RISK", DecisionHint: domain.DecisionDecline, Reasons: []string{"HIGH_RISK"}, Actions: []string{"BLOCK"}},
	}

	d, reasons, actions, signals := Aggregate(req, domain.RiskPrediction{RiskScore: 0.8001}, outcomes)

	assert.Equal(t, domain.DecisionDecline, d)
	assert.Contains(t, reasons, "HIGH_RISK")
	assert.Contains(t, actions, "BLOCK")
	assert.Contains(t, signals, "HIGH_RISK")
}

func TestAggregate_DeclinePrecedesReview(t *testing.T) {
	outcomes := []domain.RuleOutcome{
		{Name: "HIGH_TICKET", DecisionHint: domain.DecisionReview, Reasons: []string{"HIGH_TICKET"}},
		{Name: "CARD_HIGH_TICKET", DecisionHint: domain.DecisionDecline, Reasons: []string{"high_ticket"}},
	}
	req := &domain.DecisionRequest{CartTotal: 5001, Rail: domain.RailCard}

	d, reasons, _, signals := Aggregate(req, domain.RiskPrediction{RiskScore: 0.1}, outcomes)

	assert.Equal(t, domain.DecisionDecline, d)
	assert.Equal(t, []string{"HIGH_TICKET", "high_ticket"}, reasons)
	assert.Equal(t, []string{"HIGH_TICKET", "CARD_HIGH_TICKET"}, signals)
}

func TestAggregate_DedupesReasonsPreservingFirstOccurrence(t *testing.T) {
	outcomes := []domain.RuleOutcome{
		{Name: "A", Reasons: []string{"X", "Y"}, DecisionHint: domain.DecisionReview},
		{Name: "B", Reasons: []string{"Y", "Z"}, DecisionHint: domain.DecisionReview},
	}
	req := &domain.DecisionRequest{}

	_, reasons, _, _ := Aggregate(req, domain.RiskPrediction{}, outcomes)

	assert.Equal(t, []string{"X", "Y", "Z"}, reasons)
}

func TestStatusProjection(t *testing.T) {
	assert.Equal(t, domain.StatusRoute, Status(domain.DecisionReview))
	assert.Equal(t, domain.StatusApprove, Status(domain.DecisionApprove))
	assert.Equal(t, domain.StatusDecline, Status(domain.DecisionDecline))
}

func TestRoutingHint(t *testing.T) {
	assert.Equal(t, domain.RoutingBlockTransaction, RoutingHint(domain.DecisionDecline, &domain.DecisionRequest{}))
	assert.Equal(t, domain.RoutingManualReview, RoutingHint(domain.DecisionReview, &domain.DecisionRequest{}))

	visaReq := &domain.DecisionRequest{Context: &domain.RequestContext{PaymentMethod: &domain.PaymentMethod{Type: "visa"}}}
	assert.Equal(t, domain.RoutingVisaNetwork, RoutingHint(domain.DecisionApprove, visaReq))

	noneReq := &domain.DecisionRequest{}
	assert.Equal(t, domain.RoutingProcessNormally, RoutingHint(domain.DecisionApprove, noneReq))
}
