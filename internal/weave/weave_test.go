package weave

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/orca/internal/domain"
)

func TestMintReceipt_IncrementsBlockHeight(t *testing.T) {
	s := New()
	r1, err := s.MintReceipt("txn_a", map[string]any{"x": 1}, domain.AuditEventDecision, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	r2, err := s.MintReceipt("txn_b", map[string]any{"x": 2}, domain.AuditEventDecision, "2026-01-01T00:00:01Z")
	require.NoError(t, err)

	assert.Equal(t, r1.BlockHeight+1, r2.BlockHeight)
	assert.Equal(t, int64(21000), r1.GasUsed)
	assert.Equal(t, domain.AuditStatusConfirmed, r1.Status)
}

func TestContentHash_IsStableUnderKeyOrder(t *testing.T) {
	h1, err := ContentHash(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	h2, err := ContentHash(map[string]any{"a": 2, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Contains(t, h1, "sha256:")
}

func TestLookup_ReturnsLatestReceiptForTraceID(t *testing.T) {
	s := New()
	_, err := s.MintReceipt("txn_a", map[string]any{"x": 1}, domain.AuditEventDecision, "2026-01-01T00:00:00Z")
	require.NoError(t, err)
	r2, err := s.MintReceipt("txn_a", map[string]any{"x": 2}, domain.AuditEventDecision, "2026-01-01T00:00:01Z")
	require.NoError(t, err)

	got, ok := s.Lookup("txn_a")
	require.True(t, ok)
	assert.Equal(t, r2.ReceiptHash, got.ReceiptHash)
}

func testEvent(overrides func(*domain.CloudEvent)) domain.CloudEvent {
	ce := domain.CloudEvent{
		SpecVersion:     "1.0",
		ID:              "evt_1",
		Source:          "https://orca.ocn.ai/decision-engine",
		Type:            domain.EventTypeDecision,
		Subject:         "txn_abc123",
		Time:            time.Now().UTC().Format(time.RFC3339),
		DataContentType: "application/json",
		Data:            map[string]any{"hello": "world"},
	}
	if overrides != nil {
		overrides(&ce)
	}
	return ce
}

func postEvent(t *testing.T, srv *httptest.Server, ce domain.CloudEvent) *http.Response {
	t.Helper()
	b, _ := json.Marshal(ce)
	resp, err := http.Post(srv.URL+"/events", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func TestReceiveEvent_AcceptsValidDecisionEvent(t *testing.T) {
	sub := NewSubscriber(New())
	srv := httptest.NewServer(sub.Router())
	defer srv.Close()

	resp := postEvent(t, srv, testEvent(nil))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReceiveEvent_RejectsBadSubject(t *testing.T) {
	sub := NewSubscriber(New())
	srv := httptest.NewServer(sub.Router())
	defer srv.Close()

	resp := postEvent(t, srv, testEvent(func(ce *domain.CloudEvent) { ce.Subject = "not-a-txn" }))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReceiveEvent_RejectsUnsupportedType(t *testing.T) {
	sub := NewSubscriber(New())
	srv := httptest.NewServer(sub.Router())
	defer srv.Close()

	resp := postEvent(t, srv, testEvent(func(ce *domain.CloudEvent) { ce.Type = "ocn.weave.audit.v1" }))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetReceipt_ReturnsStoredReceipt(t *testing.T) {
	store := New()
	sub := NewSubscriber(store)
	srv := httptest.NewServer(sub.Router())
	defer srv.Close()

	resp := postEvent(t, srv, testEvent(nil))
	resp.Body.Close()

	got, err := http.Get(srv.URL + "/receipts/txn_abc123")
	require.NoError(t, err)
	defer got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)
}

func TestGetReceipt_404sForUnknownTraceID(t *testing.T) {
	sub := NewSubscriber(New())
	srv := httptest.NewServer(sub.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/receipts/txn_never_seen")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
