package domain

// ─── AP2 wire contract ────────────────────────────────────────────────────────

// Modality describes when funds move relative to authorization.
type Modality string

const (
	ModalityImmediate Modality = "immediate"
	ModalityDeferred  Modality = "deferred"
)

// AP2Version is the fixed contract version this engine emits.
const AP2Version = "0.1.0"

// CartItem is a single line item; prices are decimal strings per §4.6.
type CartItem struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price,omitempty"`
	TotalPrice string `json:"total_price,omitempty"`
}

// Geo carries the country a cart is billed/shipped against.
type Geo struct {
	Country string `json:"country,omitempty"`
}

// Cart is the AP2 `cart` branch.
type Cart struct {
	Items    []CartItem `json:"items,omitempty"`
	Amount   string     `json:"amount"`
	Currency string     `json:"currency"`
	MCC      string     `json:"mcc,omitempty"`
	Geo      *Geo       `json:"geo,omitempty"`
}

// Timestamps bounds the intent's validity window.
type Timestamps struct {
	Created string `json:"created"`
	Expires string `json:"expires"`
}

// Intent is the AP2 `intent` branch.
type Intent struct {
	Actor        string     `json:"actor,omitempty"`
	IntentType   string     `json:"intent_type,omitempty"`
	Channel      Channel    `json:"channel"`
	AgentPresence string    `json:"agent_presence,omitempty"`
	Timestamps   Timestamps `json:"timestamps"`
	Nonce        string     `json:"nonce,omitempty"`
}

// Payment is the AP2 `payment` branch.
type Payment struct {
	InstrumentRef    string   `json:"instrument_ref,omitempty"`
	Modality         Modality `json:"modality"`
	AuthRequirements []string `json:"auth_requirements,omitempty"`
}

// ContractDecision is the AP2 `decision` branch.
type ContractDecision struct {
	Result    Decision       `json:"result"`
	RiskScore float64        `json:"risk_score"`
	Reasons   []string       `json:"reasons"`
	Actions   []string       `json:"actions"`
	Meta      map[string]any `json:"meta"`
}

// Signing is the AP2 `signing` branch; both fields start nil and are filled
// by the Receipt Hasher & Signer.
type Signing struct {
	VCProof     *VCProof `json:"vc_proof"`
	ReceiptHash *string  `json:"receipt_hash"`
}

// VCProof is an Ed25519Signature2020-style verifiable-credential proof.
type VCProof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	ProofValue         string `json:"proofValue"`
}

// DecisionContract is the full AP2-shaped wire response.
type DecisionContract struct {
	AP2Version string            `json:"ap2_version"`
	Intent     Intent            `json:"intent"`
	Cart       Cart              `json:"cart"`
	Payment    Payment           `json:"payment"`
	Decision   ContractDecision  `json:"decision"`
	Signing    Signing           `json:"signing"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
}

// TraceID returns the correlation id carried in decision.meta.trace_id.
func (c *DecisionContract) TraceID() string {
	if v, ok := c.Decision.Meta["trace_id"].(string); ok {
		return v
	}
	return ""
}

// ─── CloudEvents ──────────────────────────────────────────────────────────────

const (
	EventTypeDecision    = "ocn.orca.decision.v1"
	EventTypeExplanation = "ocn.orca.explanation.v1"
	EventTypeAudit       = "ocn.weave.audit.v1"

	SchemaDecisionURI    = "https://schemas.ocn.ai/ap2/v1/decision.schema.json"
	SchemaExplanationURI = "https://schemas.ocn.ai/ap2/v1/explanation.schema.json"
	SchemaAuditURI       = "https://schemas.ocn.ai/common/v1/audit.schema.json"
)

// CloudEvent is a CloudEvents 1.0 envelope.
type CloudEvent struct {
	SpecVersion     string         `json:"specversion"`
	ID              string         `json:"id"`
	Source          string         `json:"source"`
	Type            string         `json:"type"`
	Subject         string         `json:"subject"`
	Time            string         `json:"time"`
	DataContentType string         `json:"datacontenttype"`
	DataSchema      string         `json:"dataschema,omitempty"`
	Data            map[string]any `json:"data"`
}

// ExplanationPayload is the data branch of an ocn.orca.explanation.v1 event.
type ExplanationPayload struct {
	TraceID          string   `json:"trace_id"`
	DecisionResult   Decision `json:"decision_result"`
	Explanation      string   `json:"explanation"`
	Confidence       float64  `json:"confidence"`
	ModelProvenance  string   `json:"model_provenance"`
}

// ─── Receipts (audit subscriber) ──────────────────────────────────────────────

// AuditEventType distinguishes what kind of payload a receipt was minted for.
type AuditEventType string

const (
	AuditEventDecision    AuditEventType = "decision"
	AuditEventExplanation AuditEventType = "explanation"
)

// AuditReceiptStatus is the mock-blockchain confirmation status.
type AuditReceiptStatus string

const (
	AuditStatusConfirmed AuditReceiptStatus = "confirmed"
	AuditStatusPending   AuditReceiptStatus = "pending"
)

// Receipt is the record the Audit Subscriber stores and returns for every
// CloudEvent it accepts.
type Receipt struct {
	TraceID         string             `json:"trace_id"`
	ReceiptHash     string             `json:"receipt_hash"`
	EventType       AuditEventType     `json:"event_type"`
	Timestamp       string             `json:"timestamp"`
	BlockHeight     int64              `json:"block_height"`
	TransactionHash string             `json:"transaction_hash"`
	GasUsed         int64              `json:"gas_used"`
	GasPrice        string             `json:"gas_price"`
	Status          AuditReceiptStatus `json:"status"`
}
