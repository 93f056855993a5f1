// Package receipt implements the Receipt Hasher & Signer: a canonical
// SHA-256 digest over a sanitized view of the decision contract, plus an
// optional Ed25519 verifiable-credential proof whose signature covers the
// canonicalized proof object (type, created, verificationMethod,
// proofPurpose); the digest itself is not part of the signed bytes.
package receipt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"lumina/orca/internal/domain"
)

const (
	receiptMetadataVersion = "1.0"
	hashAlgorithm          = "SHA-256"
)

type receiptItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type receiptCart struct {
	Items    []receiptItem `json:"items,omitempty"`
	Amount   string        `json:"amount"`
	Currency string        `json:"currency"`
	MCC      string        `json:"mcc,omitempty"`
	Geo      *domain.Geo   `json:"geo,omitempty"`
}

type receiptPayment struct {
	Modality         domain.Modality `json:"modality"`
	AuthRequirements []string        `json:"auth_requirements,omitempty"`
}

type receiptIntent struct {
	Actor         string            `json:"actor,omitempty"`
	IntentType    string            `json:"intent_type,omitempty"`
	Channel       domain.Channel    `json:"channel"`
	AgentPresence string            `json:"agent_presence,omitempty"`
	Timestamps    domain.Timestamps `json:"timestamps"`
}

type receiptDecisionMeta struct {
	Model            string `json:"model"`
	Version          string `json:"version"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

type receiptDecision struct {
	Result    domain.Decision     `json:"result"`
	RiskScore float64             `json:"risk_score"`
	Reasons   []string            `json:"reasons"`
	Actions   []string            `json:"actions"`
	Meta      receiptDecisionMeta `json:"meta"`
}

type receiptMetadata struct {
	Version       string `json:"version"`
	HashAlgorithm string `json:"hash_algorithm"`
}

// receiptData is the sanitized, canonical-serializable view of a contract
// that the hash is computed over. It deliberately omits `signing` and
// top-level `metadata`, and drops fields that would make the hash unstable
// or leak instrument/nonce data (§4.7 steps 2-6).
type receiptData struct {
	AP2Version      string          `json:"ap2_version"`
	Intent          receiptIntent   `json:"intent"`
	Cart            receiptCart     `json:"cart"`
	Payment         receiptPayment  `json:"payment"`
	Decision        receiptDecision `json:"decision"`
	ReceiptMetadata receiptMetadata `json:"receipt_metadata"`
}

func buildReceiptData(c *domain.DecisionContract) receiptData {
	items := make([]receiptItem, len(c.Cart.Items))
	for i, it := range c.Cart.Items {
		items[i] = receiptItem{ID: it.ID, Quantity: it.Quantity}
	}

	model, _ := c.Decision.Meta["model"].(string)
	version, _ := c.Decision.Meta["version"].(string)
	var processingTimeMS int64
	switch v := c.Decision.Meta["processing_time_ms"].(type) {
	case int64:
		processingTimeMS = v
	case int:
		processingTimeMS = int64(v)
	case float64:
		processingTimeMS = int64(v)
	}

	return receiptData{
		AP2Version: c.AP2Version,
		Intent: receiptIntent{
			Actor:         c.Intent.Actor,
			IntentType:    c.Intent.IntentType,
			Channel:       c.Intent.Channel,
			AgentPresence: c.Intent.AgentPresence,
			Timestamps:    c.Intent.Timestamps,
		},
		Cart: receiptCart{
			Items:    items,
			Amount:   c.Cart.Amount,
			Currency: c.Cart.Currency,
			MCC:      c.Cart.MCC,
			Geo:      c.Cart.Geo,
		},
		Payment: receiptPayment{
			Modality:         c.Payment.Modality,
			AuthRequirements: c.Payment.AuthRequirements,
		},
		Decision: receiptDecision{
			Result:    c.Decision.Result,
			RiskScore: c.Decision.RiskScore,
			Reasons:   c.Decision.Reasons,
			Actions:   c.Decision.Actions,
			Meta: receiptDecisionMeta{
				Model:            model,
				Version:          version,
				ProcessingTimeMS: processingTimeMS,
			},
		},
		ReceiptMetadata: receiptMetadata{
			Version:       receiptMetadataVersion,
			HashAlgorithm: hashAlgorithm,
		},
	}
}

// Hash computes the canonical SHA-256 receipt hash over c, as a lowercase
// hex string. It is stable across runs and independent of field insertion
// order.
func Hash(c *domain.DecisionContract) (string, error) {
	canonical, err := canonicalJSON(buildReceiptData(c))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON serializes v with sorted keys and no whitespace. Go already
// marshals map[string]any keys in sorted order and emits no whitespace by
// default; round-tripping through a generic map guarantees nested object
// keys are sorted even when they originated from struct field order.
func canonicalJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// Verify recomputes the receipt hash and compares it to want.
func Verify(c *domain.DecisionContract, want string) (bool, error) {
	got, err := Hash(c)
	if err != nil {
		return false, err
	}
	return got == want, nil
}
