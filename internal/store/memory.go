// Package store provides thread-safe, in-memory storage for completed
// decisions — an audit trail the entity-activity and decision-pattern
// report endpoints aggregate over. It is explicitly not the system of
// record: nothing here survives a process restart, and nothing here is
// consulted by the decision pipeline itself.
//
// Design rationale: entity and pattern reporting only need a bounded
// lookback window, so an in-memory store with secondary indexes is
// sufficient; a production deployment would swap this for a time-series
// store.
package store

import (
	"sort"
	"sync"
	"time"

	"lumina/orca/internal/domain"
)

// Store is a thread-safe in-memory decision log.
type Store struct {
	mu sync.RWMutex

	records []domain.DecisionLogRecord

	// Secondary indexes: entity value → indices into records.
	// Maintained on every append so reads stay fast.
	byCardBIN  map[string][]int
	byIP       map[string][]int
	byCustomer map[string][]int
}

// New creates an empty, ready-to-use Store.
func New() *Store {
	return &Store{
		byCardBIN:  make(map[string][]int),
		byIP:       make(map[string][]int),
		byCustomer: make(map[string][]int),
	}
}

// Append records a completed decision and updates all secondary indexes.
func (s *Store) Append(rec domain.DecisionLogRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.records)
	s.records = append(s.records, rec)

	if rec.CardBIN != "" {
		s.byCardBIN[rec.CardBIN] = append(s.byCardBIN[rec.CardBIN], idx)
	}
	if rec.IPAddress != "" {
		s.byIP[rec.IPAddress] = append(s.byIP[rec.IPAddress], idx)
	}
	if rec.CustomerRef != "" {
		s.byCustomer[rec.CustomerRef] = append(s.byCustomer[rec.CustomerRef], idx)
	}
}

// EntitySummary aggregates every decision recorded for (entityType, value)
// at or after since.
func (s *Store) EntitySummary(entityType domain.EntityType, value string, since time.Time) domain.EntitySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var index map[string][]int
	switch entityType {
	case domain.EntityCardBIN:
		index = s.byCardBIN
	case domain.EntityIP:
		index = s.byIP
	case domain.EntityCustomer:
		index = s.byCustomer
	}

	summary := domain.EntitySummary{
		EntityType:  entityType,
		EntityValue: value,
		Period:      periodLabel(since),
	}

	var riskSum float64
	for _, idx := range index[value] {
		rec := s.records[idx]
		if rec.Timestamp.Before(since) {
			continue
		}
		summary.Decisions = append(summary.Decisions, rec)
		summary.TotalCount++
		summary.TotalCartAmount += rec.CartTotal
		riskSum += rec.RiskScore
		switch rec.Decision {
		case domain.DecisionDecline:
			summary.DeclineCount++
		case domain.DecisionReview:
			summary.ReviewCount++
		}
	}
	if summary.TotalCount > 0 {
		summary.AvgRiskScore = riskSum / float64(summary.TotalCount)
	}
	return summary
}

// PatternReport builds a DecisionPatternReport over every record at or
// after since: headline counts plus repeated-signal clusters (three or more
// decisions sharing a card BIN or IP, the checkout-domain analogue of the
// teacher's card-cycling/IP-abuse detection).
func (s *Store) PatternReport(since time.Time, generatedAt time.Time) domain.DecisionPatternReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.DecisionPatternReport{
		GeneratedAt: generatedAt,
		Period:      periodLabel(since),
	}

	for _, rec := range s.records {
		if rec.Timestamp.Before(since) {
			continue
		}
		report.Summary.TotalDecisions++
		switch rec.Decision {
		case domain.DecisionApprove:
			report.Summary.ApproveCount++
		case domain.DecisionReview:
			report.Summary.ReviewCount++
		case domain.DecisionDecline:
			report.Summary.DeclineCount++
			report.Summary.TotalFlaggedCart += rec.CartTotal
		}
		report.Summary.AvgRiskScore += rec.RiskScore
	}
	if report.Summary.TotalDecisions > 0 {
		report.Summary.AvgRiskScore /= float64(report.Summary.TotalDecisions)
	}

	report.Patterns = append(report.Patterns, s.clusterPatterns("card_bin", s.byCardBIN, since)...)
	report.Patterns = append(report.Patterns, s.clusterPatterns("ip_address", s.byIP, since)...)

	sort.Slice(report.Patterns, func(i, j int) bool {
		return report.Patterns[i].Count > report.Patterns[j].Count
	})
	return report
}

// clusterPatterns finds entity values with 3+ decisions in the window —
// must be called with at least a read-lock held.
func (s *Store) clusterPatterns(kind string, index map[string][]int, since time.Time) []domain.DecisionPattern {
	var patterns []domain.DecisionPattern
	for value, indices := range index {
		var count int
		var total float64
		var examples []string
		for _, idx := range indices {
			rec := s.records[idx]
			if rec.Timestamp.Before(since) {
				continue
			}
			count++
			total += rec.CartTotal
			if len(examples) < 3 {
				examples = append(examples, rec.TraceID)
			}
		}
		if count < 3 {
			continue
		}
		patterns = append(patterns, domain.DecisionPattern{
			Type:        kind + "_cluster",
			Description: "repeated activity from one " + kind,
			Count:       count,
			TotalAmount: total,
			Examples:    examples,
		})
	}
	return patterns
}

func periodLabel(since time.Time) string {
	return since.UTC().Format(time.RFC3339) + "/now"
}
