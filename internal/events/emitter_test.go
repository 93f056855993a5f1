package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/orca/internal/domain"
)

func TestWrapDecision_RejectsBadSubject(t *testing.T) {
	e := New(DefaultConfig(""))
	_, err := e.WrapDecision(&domain.DecisionContract{}, "not-a-valid-subject")
	require.Error(t, err)
}

func TestWrapDecision_BuildsEnvelope(t *testing.T) {
	e := New(DefaultConfig("http://example.invalid"))
	contract := &domain.DecisionContract{AP2Version: domain.AP2Version}

	event, err := e.WrapDecision(contract, "txn_abc123")
	require.NoError(t, err)

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, domain.EventTypeDecision, event.Type)
	assert.Equal(t, "txn_abc123", event.Subject)
	assert.Equal(t, "application/json", event.DataContentType)
	assert.Equal(t, domain.SchemaDecisionURI, event.DataSchema)
	assert.NotEmpty(t, event.ID)
}

func TestEmit_NoopWhenSubscriberUnconfigured(t *testing.T) {
	e := New(DefaultConfig(""))
	err := e.Emit(context.Background(), &domain.CloudEvent{Subject: "txn_abc"})
	assert.NoError(t, err)
}

func TestEmit_SucceedsOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/cloudevents+json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.Timeout = time.Second
	e := New(cfg)

	err := e.Emit(context.Background(), &domain.CloudEvent{Subject: "txn_abc"})
	assert.NoError(t, err)
}

func TestEmit_DoesNotRetry4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.Timeout = time.Second
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	e := New(cfg)

	err := e.Emit(context.Background(), &domain.CloudEvent{Subject: "txn_abc"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmit_Retries5xxUpToMaxTries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.Timeout = time.Second
	cfg.MaxRetries = 3
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	e := New(cfg)

	err := e.Emit(context.Background(), &domain.CloudEvent{Subject: "txn_abc"})
	assert.Error(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}
