package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/orca/internal/domain"
)

func TestBuild_AmountIsTwoDecimalString(t *testing.T) {
	req := &domain.DecisionRequest{CartTotal: 250, Currency: "USD", Rail: domain.RailCard, Channel: domain.ChannelOnline}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := Build(req, "txn_abc", domain.DecisionApprove, 0.1, nil, nil, nil, now)

	assert.Equal(t, "250.00", c.Cart.Amount)
	assert.Equal(t, "USD", c.Cart.Currency)
}

func TestBuild_IntentTimestampsSpanTwentyFourHours(t *testing.T) {
	req := &domain.DecisionRequest{Channel: domain.ChannelOnline}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c := Build(req, "txn_abc", domain.DecisionApprove, 0.1, nil, nil, nil, now)

	created, err := time.Parse(time.RFC3339, c.Intent.Timestamps.Created)
	require.NoError(t, err)
	expires, err := time.Parse(time.RFC3339, c.Intent.Timestamps.Expires)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, expires.Sub(created))
}

func TestBuild_ACHModalityIsDeferred(t *testing.T) {
	req := &domain.DecisionRequest{Rail: domain.RailACH}
	c := Build(req, "txn_abc", domain.DecisionApprove, 0.1, nil, nil, nil, time.Now())
	assert.Equal(t, domain.ModalityDeferred, c.Payment.Modality)
}

func TestBuild_CardModalityIsImmediate(t *testing.T) {
	req := &domain.DecisionRequest{Rail: domain.RailCard}
	c := Build(req, "txn_abc", domain.DecisionApprove, 0.1, nil, nil, nil, time.Now())
	assert.Equal(t, domain.ModalityImmediate, c.Payment.Modality)
}

func TestBuild_AuthRequirementsFromActions(t *testing.T) {
	req := &domain.DecisionRequest{Rail: domain.RailCard}
	c := Build(req, "txn_abc", domain.DecisionReview, 0.1, nil, []string{"step_up_auth"}, nil, time.Now())
	assert.Equal(t, []string{"step_up_auth"}, c.Payment.AuthRequirements)
}

func TestBuild_SigningStartsNil(t *testing.T) {
	req := &domain.DecisionRequest{}
	c := Build(req, "txn_abc", domain.DecisionApprove, 0.1, nil, nil, nil, time.Now())
	assert.Nil(t, c.Signing.VCProof)
	assert.Nil(t, c.Signing.ReceiptHash)
}

func TestBuild_DecisionMetaCarriesTraceID(t *testing.T) {
	req := &domain.DecisionRequest{}
	c := Build(req, "txn_xyz", domain.DecisionApprove, 0.1, nil, nil, map[string]any{"model": "stub"}, time.Now())
	assert.Equal(t, "txn_xyz", c.Decision.Meta["trace_id"])
	assert.Equal(t, "stub", c.Decision.Meta["model"])
}
