package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/orca/internal/domain"
)

func sampleContract() *domain.DecisionContract {
	return &domain.DecisionContract{
		AP2Version: domain.AP2Version,
		Intent: domain.Intent{
			Actor: "checkout_agent", IntentType: "purchase", Channel: domain.ChannelOnline,
			AgentPresence: "present",
			Timestamps:    domain.Timestamps{Created: "2026-01-01T00:00:00Z", Expires: "2026-01-02T00:00:00Z"},
			Nonce:         "should-be-dropped",
		},
		Cart: domain.Cart{
			Items: []domain.CartItem{
				{ID: "item_1", Quantity: 2, UnitPrice: "10.00", TotalPrice: "20.00"},
			},
			Amount:   "20.00",
			Currency: "USD",
		},
		Payment: domain.Payment{
			InstrumentRef:    "tok_should_be_dropped",
			Modality:         domain.ModalityImmediate,
			AuthRequirements: []string{"step_up_auth"},
		},
		Decision: domain.ContractDecision{
			Result:    domain.DecisionApprove,
			RiskScore: 0.1,
			Reasons:   []string{"ok"},
			Actions:   []string{"Process payment"},
			Meta: map[string]any{
				"model": "stub", "version": "stub-0.1.0", "processing_time_ms": int64(5),
				"trace_id": "txn_abc",
			},
		},
		Signing: domain.Signing{},
	}
}

func TestHash_DropsPricesAndKeepsOnlyIDAndQuantity(t *testing.T) {
	c := sampleContract()
	data := buildReceiptData(c)

	require.Len(t, data.Cart.Items, 1)
	assert.Equal(t, "item_1", data.Cart.Items[0].ID)
	assert.Equal(t, 2, data.Cart.Items[0].Quantity)
}

func TestHash_DropsInstrumentRefFromPayment(t *testing.T) {
	c := sampleContract()
	data := buildReceiptData(c)

	// receiptPayment has no InstrumentRef field at all, so the instrument
	// token cannot survive into the canonicalized bytes.
	assert.Equal(t, []string{"step_up_auth"}, data.Payment.AuthRequirements)
	assert.Equal(t, domain.ModalityImmediate, data.Payment.Modality)
}

func TestHash_DropsNonceFromIntent(t *testing.T) {
	c := sampleContract()
	canonical, err := canonicalJSON(buildReceiptData(c))
	require.NoError(t, err)

	assert.NotContains(t, string(canonical), "should-be-dropped")
	assert.NotContains(t, string(canonical), "tok_should_be_dropped")
}

func TestHash_IsStableAndDeterministic(t *testing.T) {
	c := sampleContract()
	h1, err := Hash(c)
	require.NoError(t, err)
	h2, err := Hash(c)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHash_ChangesWhenDecisionResultChanges(t *testing.T) {
	c1 := sampleContract()
	c2 := sampleContract()
	c2.Decision.Result = domain.DecisionDecline

	h1, _ := Hash(c1)
	h2, _ := Hash(c2)
	assert.NotEqual(t, h1, h2)
}

func TestVerify_RoundTrips(t *testing.T) {
	c := sampleContract()
	h, err := Hash(c)
	require.NoError(t, err)

	ok, err := Verify(c, h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(c, "not-the-hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSigner_SignAndVerifyRoundTrip(t *testing.T) {
	signer, err := NewEphemeralSigner()
	require.NoError(t, err)
	assert.True(t, signer.IsEphemeral())

	proof, err := signer.Sign(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Ed25519Signature2020", proof.Type)
	assert.Equal(t, "assertionMethod", proof.ProofPurpose)
	assert.NotEmpty(t, proof.ProofValue)

	assert.True(t, signer.Verify(proof))
}

func TestSigner_VerifyRejectsTamperedProof(t *testing.T) {
	signer, err := NewEphemeralSigner()
	require.NoError(t, err)

	proof, err := signer.Sign(time.Now())
	require.NoError(t, err)

	proof.ProofPurpose = "tampered"
	assert.False(t, signer.Verify(proof))
}
