package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lumina/orca/internal/domain"
)

func TestStubModel_BaseScore(t *testing.T) {
	pred := NewStub().Predict(domain.DerivedFeatures{"amount": 100, "velocity_24h": 1, "cross_border": 0})

	assert.Equal(t, 0.35, pred.RiskScore)
	assert.Equal(t, []string{"BASELINE"}, pred.ReasonCodes)
	assert.Equal(t, "stub-0.1.0", pred.Version)
	assert.Equal(t, "stub", pred.ModelType)
}

func TestStubModel_Triggers(t *testing.T) {
	cases := []struct {
		name     string
		features domain.DerivedFeatures
		score    float64
		reasons  []string
	}{
		{"high amount", domain.DerivedFeatures{"amount": 600}, 0.55, []string{"DUMMY_MCC"}},
		{"velocity", domain.DerivedFeatures{"velocity_24h": 3}, 0.45, []string{"VELOCITY"}},
		{"cross border", domain.DerivedFeatures{"cross_border": 1}, 0.45, []string{"CROSS_BORDER"}},
		{
			"all three",
			domain.DerivedFeatures{"amount": 600, "velocity_24h": 3, "cross_border": 1},
			0.75,
			[]string{"DUMMY_MCC", "VELOCITY", "CROSS_BORDER"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pred := NewStub().Predict(c.features)
			assert.InDelta(t, c.score, pred.RiskScore, 1e-9)
			assert.Equal(t, c.reasons, pred.ReasonCodes)
		})
	}
}

func TestStubModel_AmountBoundary(t *testing.T) {
	at := NewStub().Predict(domain.DerivedFeatures{"amount": 500.0})
	above := NewStub().Predict(domain.DerivedFeatures{"amount": 500.01})

	assert.Equal(t, 0.35, at.RiskScore)
	assert.Equal(t, 0.55, above.RiskScore)
}

func TestStubModel_VelocityBoundary(t *testing.T) {
	at := NewStub().Predict(domain.DerivedFeatures{"velocity_24h": 2.0})
	above := NewStub().Predict(domain.DerivedFeatures{"velocity_24h": 2.01})

	assert.Equal(t, 0.35, at.RiskScore)
	assert.InDelta(t, 0.45, above.RiskScore, 1e-9)
}

func TestStubModel_ClampsToUnitInterval(t *testing.T) {
	pred := NewStub().Predict(domain.DerivedFeatures{"amount": 10000, "velocity_24h": 100, "cross_border": 1})
	assert.LessOrEqual(t, pred.RiskScore, 1.0)
	assert.GreaterOrEqual(t, pred.RiskScore, 0.0)
}

func TestNewVariant_MissingArtifactDirFallsBackToStub(t *testing.T) {
	m := NewVariant("xgb", "/nonexistent/dir", 0.05)
	_, isStub := m.(*StubModel)
	assert.True(t, isStub, "expected fallback to stub when artifact dir is missing")
}

func TestNewVariant_NonXGBReturnsStub(t *testing.T) {
	m := NewVariant("stub", "", 0.05)
	_, isStub := m.(*StubModel)
	assert.True(t, isStub)
}
