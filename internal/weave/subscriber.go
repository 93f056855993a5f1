package weave

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"lumina/orca/internal/domain"
)

var subjectPrefix = regexp.MustCompile(`^txn_`)

var acceptedTypes = map[string]domain.AuditEventType{
	domain.EventTypeDecision:    domain.AuditEventDecision,
	domain.EventTypeExplanation: domain.AuditEventExplanation,
}

// Subscriber is the HTTP sink described in §4.10.
type Subscriber struct {
	store     *Store
	sourceURI string
}

// NewSubscriber builds a Subscriber backed by store.
func NewSubscriber(store *Store) *Subscriber {
	return &Subscriber{store: store, sourceURI: "https://weave.ocn.ai/audit-service"}
}

// Router builds the chi router for the subscriber's three endpoints.
func (s *Subscriber) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.Health)
	r.Post("/events", s.ReceiveEvent)
	r.Get("/receipts/{trace_id}", s.GetReceipt)
	return r
}

// Health reports liveness.
func (s *Subscriber) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReceiveEvent re-parses and re-validates an incoming CloudEvent envelope,
// mints a Receipt, and returns it in the response body.
func (s *Subscriber) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	var ce domain.CloudEvent
	if err := json.NewDecoder(r.Body).Decode(&ce); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errBody("invalid CloudEvent format: "+err.Error()))
		return
	}

	if problem := validateEnvelope(&ce); problem != "" {
		writeJSON(w, http.StatusBadRequest, errBody(problem))
		return
	}

	eventType := acceptedTypes[ce.Type]
	receipt, err := s.store.MintReceipt(ce.Subject, ce.Data, eventType, ce.Time)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody("failed to store receipt: "+err.Error()))
		return
	}

	auditEvent := s.buildAuditEvent(ce.Subject, receipt)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"message":        "CloudEvent " + ce.ID + " processed successfully",
		"receipt":        receipt,
		"audit_event_id": auditEvent.ID,
	})
}

// GetReceipt returns the latest receipt stored for a trace id.
func (s *Subscriber) GetReceipt(w http.ResponseWriter, r *http.Request) {
	traceID := chi.URLParam(r, "trace_id")
	if !subjectPrefix.MatchString(traceID) {
		writeJSON(w, http.StatusBadRequest, errBody("invalid trace_id format"))
		return
	}

	receipt, ok := s.store.Lookup(traceID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("no receipt found for "+traceID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "receipt": receipt})
}

func (s *Subscriber) buildAuditEvent(subject string, receipt *domain.Receipt) domain.CloudEvent {
	data, _ := toDataMap(receipt)
	return domain.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          s.sourceURI,
		Type:            domain.EventTypeAudit,
		Subject:         subject,
		Time:            time.Now().UTC().Format(time.RFC3339),
		DataContentType: "application/json",
		DataSchema:      "https://schemas.ocn.ai/common/v1/audit.schema.json",
		Data:            data,
	}
}

func validateEnvelope(ce *domain.CloudEvent) string {
	if ce.SpecVersion != "1.0" {
		return "invalid specversion: " + ce.SpecVersion
	}
	if _, ok := acceptedTypes[ce.Type]; !ok {
		return "unsupported event type: " + ce.Type
	}
	if !subjectPrefix.MatchString(ce.Subject) {
		return "invalid subject format: " + ce.Subject
	}
	if _, err := time.Parse(time.RFC3339, ce.Time); err != nil {
		return "invalid timestamp format: " + ce.Time
	}
	return ""
}

func toDataMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func errBody(message string) map[string]string {
	return map[string]string{"status": "error", "detail": message}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
