// Package weave implements the Audit Subscriber (§4.10): a sink that
// accepts CloudEvents emitted by the decision engine, re-validates them,
// mints a Receipt, and answers lookups by trace id. Block height and
// transaction hash are deterministic, in-process stand-ins for an actual
// ledger — there is no real chain behind this service.
package weave

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"lumina/orca/internal/domain"
)

const (
	gasUsed  int64 = 21000
	gasPrice       = "20000000000"
)

// Store is a thread-safe receipt map keyed by trace id that keeps only the
// latest receipt per trace id, with a single monotonically increasing block
// height counter shared across all receipts minted by this process.
type Store struct {
	mu          sync.RWMutex
	byTraceID   map[string]*domain.Receipt
	blockHeight int64
}

// New creates an empty Store. The block height counter starts at 1,000,000,
// matching the mock ledger's starting point, so the first minted receipt
// gets block height 1,000,001.
func New() *Store {
	return &Store{
		byTraceID:   make(map[string]*domain.Receipt),
		blockHeight: 1_000_000,
	}
}

// MintReceipt computes the content hash of data, assigns the next block
// height, and stores (overwriting any prior receipt for the same trace id —
// the latest receipt wins on lookup, matching §4.10's "latest receipt"
// wording).
func (s *Store) MintReceipt(traceID string, data map[string]any, eventType domain.AuditEventType, timestamp string) (*domain.Receipt, error) {
	hash, err := ContentHash(data)
	if err != nil {
		return nil, fmt.Errorf("weave: content hash: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blockHeight++
	receipt := &domain.Receipt{
		TraceID:         traceID,
		ReceiptHash:     hash,
		EventType:       eventType,
		Timestamp:       timestamp,
		BlockHeight:     s.blockHeight,
		TransactionHash: transactionHash(traceID, hash),
		GasUsed:         gasUsed,
		GasPrice:        gasPrice,
		Status:          domain.AuditStatusConfirmed,
	}
	s.byTraceID[traceID] = receipt
	return receipt, nil
}

// Lookup returns the latest receipt minted for traceID.
func (s *Store) Lookup(traceID string) (*domain.Receipt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byTraceID[traceID]
	return r, ok
}

// ContentHash computes "sha256:" + hex(SHA-256(sort_keys(data))) per §4.10.
func ContentHash(data map[string]any) (string, error) {
	canonical, err := canonicalJSON(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

func transactionHash(traceID, receiptHash string) string {
	sum := sha256.Sum256([]byte(traceID + "_" + receiptHash))
	return "0x" + hex.EncodeToString(sum[:])
}

// canonicalJSON marshals v, then round-trips it through a generic map/slice
// decode and re-encode so Go's alphabetical-key encoding applies at every
// nesting level, giving a stable sort_keys(data) byte string.
func canonicalJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
