// Package events wraps decision and explanation payloads in CloudEvents-1.0
// envelopes and delivers them to a configured HTTP subscriber with
// at-least-once retry semantics. Emission is never on the critical path of
// a decision response: callers fire it asynchronously and only observe the
// outcome through logs (and, in tests, the error Emit returns).
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"lumina/orca/internal/domain"
)

var subjectPattern = regexp.MustCompile(`^txn_[A-Za-z0-9_-]+$`)

// Config controls transport and retry behavior.
type Config struct {
	SubscriberURL string
	SourceURI     string
	Timeout       time.Duration
	MaxRetries    uint
	InitialBackoff time.Duration
	MaxBackoff    time.Duration
}

// DefaultConfig returns the §4.8 defaults: 3 tries, 250ms→2s exponential
// backoff, 30s request timeout.
func DefaultConfig(subscriberURL string) Config {
	return Config{
		SubscriberURL:  subscriberURL,
		SourceURI:      "https://orca.ocn.ai/decision-engine",
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// Emitter delivers CloudEvents to the configured subscriber. It holds no
// per-request state, so one Emitter may be shared across concurrent
// decisions.
type Emitter struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// New builds an Emitter. When cfg.SubscriberURL is empty, Emit is a no-op
// that always succeeds — there is nothing configured to deliver to.
func New(cfg Config) *Emitter {
	return &Emitter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "orca-event-subscriber",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// WrapDecision builds the CloudEvent for an AP2 decision contract. subject
// must match ^txn_[A-Za-z0-9_-]+$ or emission fails fast per §4.8.
func (e *Emitter) WrapDecision(contract *domain.DecisionContract, subject string) (*domain.CloudEvent, error) {
	return e.wrap(contract, subject, domain.EventTypeDecision, domain.SchemaDecisionURI)
}

// WrapExplanation builds the CloudEvent for an explanation payload.
func (e *Emitter) WrapExplanation(payload *domain.ExplanationPayload, subject string) (*domain.CloudEvent, error) {
	return e.wrap(payload, subject, domain.EventTypeExplanation, domain.SchemaExplanationURI)
}

func (e *Emitter) wrap(payload any, subject, eventType, schemaURI string) (*domain.CloudEvent, error) {
	if !subjectPattern.MatchString(subject) {
		return nil, fmt.Errorf("events: subject %q does not match ^txn_[A-Za-z0-9_-]+$", subject)
	}

	data, err := toDataMap(payload)
	if err != nil {
		return nil, fmt.Errorf("events: encode payload: %w", err)
	}

	return &domain.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          e.cfg.SourceURI,
		Type:            eventType,
		Subject:         subject,
		Time:            time.Now().UTC().Format(time.RFC3339),
		DataContentType: "application/json",
		DataSchema:      schemaURI,
		Data:            data,
	}, nil
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

// retryableError marks an error from the HTTP layer as worth retrying
// (5xx or network failure); anything else is wrapped in backoff.Permanent
// so the retry loop stops immediately.
type retryableError struct{ err error }

func (r retryableError) Error() string { return r.err.Error() }

// Emit transports event to the configured subscriber, retrying 5xx/network
// failures with exponential backoff and never retrying 4xx responses.
// Emission failures are returned to the caller but must never be treated as
// fatal to the decision that produced the event — callers should log and
// move on.
func (e *Emitter) Emit(ctx context.Context, event *domain.CloudEvent) error {
	if e.cfg.SubscriberURL == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}

	operation := func() (struct{}, error) {
		_, err := e.breaker.Execute(func() (any, error) {
			return nil, e.post(ctx, body)
		})
		if err == nil {
			return struct{}{}, nil
		}
		if _, retryable := err.(retryableError); retryable {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.InitialBackoff
	b.MaxInterval = e.cfg.MaxBackoff

	_, err = backoff.Retry(ctx, operation, backoff.WithBackOff(b), backoff.WithMaxTries(e.cfg.MaxRetries))
	if err != nil {
		slog.Warn("event emission failed", "subject", event.Subject, "type", event.Type, "error", err)
		return err
	}
	return nil
}

func (e *Emitter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.SubscriberURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/cloudevents+json")
	req.Header.Set("User-Agent", "Orca-Core-CloudEvents/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return retryableError{err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return retryableError{fmt.Errorf("events: subscriber returned %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return fmt.Errorf("events: subscriber rejected event: %d", resp.StatusCode)
	default:
		return nil
	}
}
