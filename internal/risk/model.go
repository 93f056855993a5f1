// Package risk implements the pluggable Risk Model: a deterministic stub and
// a gradient-boosted variant loaded from a directory of artifacts, unified
// behind the Model interface so the engine never branches on which one is
// active.
package risk

import "lumina/orca/internal/domain"

// Model predicts a risk score from derived features. Implementations must
// never return an error to the caller — failures are converted to a stub
// prediction carrying the MODEL_ERROR reason code.
type Model interface {
	Predict(features domain.DerivedFeatures) domain.RiskPrediction
}

const (
	stubVersion = "stub-0.1.0"

	stubBase            = 0.35
	stubHighAmountDelta  = 0.20
	stubHighAmountReason = "DUMMY_MCC"
	stubHighAmountThresh = 500.0

	stubVelocityDelta  = 0.10
	stubVelocityReason = "VELOCITY"
	stubVelocityThresh = 2.0

	stubCrossBorderDelta  = 0.10
	stubCrossBorderReason = "CROSS_BORDER"

	stubBaselineReason = "BASELINE"
	modelErrorReason   = "MODEL_ERROR"
)

// StubModel is the deterministic fallback variant: a fixed base score plus
// additive triggers. It is idempotent and safe for concurrent use — it holds
// no mutable state.
type StubModel struct{}

// NewStub returns a StubModel.
func NewStub() *StubModel { return &StubModel{} }

// Predict implements Model.
func (StubModel) Predict(f domain.DerivedFeatures) domain.RiskPrediction {
	score := stubBase
	var reasons []string

	if f["amount"] > stubHighAmountThresh {
		score += stubHighAmountDelta
		reasons = append(reasons, stubHighAmountReason)
	}
	if f["velocity_24h"] > stubVelocityThresh {
		score += stubVelocityDelta
		reasons = append(reasons, stubVelocityReason)
	}
	if f["cross_border"] > 0 {
		score += stubCrossBorderDelta
		reasons = append(reasons, stubCrossBorderReason)
	}
	if len(reasons) == 0 {
		reasons = []string{stubBaselineReason}
	}

	return domain.RiskPrediction{
		RiskScore:   clamp01(score),
		ReasonCodes: reasons,
		Version:     stubVersion,
		ModelType:   "stub",
	}
}

// errorPrediction is what any variant falls back to when inference cannot
// complete — the Risk Model contract forbids raising to the caller.
func errorPrediction() domain.RiskPrediction {
	p := NewStub().Predict(domain.DerivedFeatures{})
	p.ReasonCodes = []string{modelErrorReason}
	return p
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
