// Command seed generates a corpus of sample DecisionRequest payloads and
// writes it to data/seed.json. The corpus spans every rule-table trigger
// documented in internal/rules so it doubles as a smoke-test fixture set for
// the HTTP gateway and the orca CLI's decide-file subcommand.
//
// Usage:
//
//	go run ./cmd/seed
//
// The generated corpus contains ~180 requests with the distribution:
//   - 60% normal low-risk checkouts (card, online, well under every threshold)
//   - 12% high-ticket reviews (cart_total over the $500 HIGH_TICKET trigger)
//   - 10% velocity abuse (velocity_24h over the VELOCITY trigger)
//   - 8% location/IP mismatches (billing vs ip country, high ip distance)
//   - 5% ACH-rail declines (over the $2,000 ACH_LIMIT trigger)
//   - 5% loyalty and chargeback-history customers (boost/review interplay)
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"lumina/orca/internal/domain"
)

func main() {
	rng := rand.New(rand.NewSource(42)) // deterministic seed for reproducibility

	var requests []domain.DecisionRequest
	requests = append(requests, generateNormalCheckouts(rng)...)
	requests = append(requests, generateHighTicketReviews(rng)...)
	requests = append(requests, generateVelocityAbuse(rng)...)
	requests = append(requests, generateLocationMismatches(rng)...)
	requests = append(requests, generateACHDeclines(rng)...)
	requests = append(requests, generateLoyaltyAndChargebackCustomers(rng)...)

	// Shuffle so patterns aren't trivially grouped in the file.
	rng.Shuffle(len(requests), func(i, j int) {
		requests[i], requests[j] = requests[j], requests[i]
	})

	if err := os.MkdirAll("data", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir error: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create("data/seed.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(requests); err != nil {
		fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d decision requests → data/seed.json\n", len(requests))
}

// ─── Normal checkouts (~108 requests, 60%) ────────────────────────────────

var normalCurrencies = []string{"USD", "BRL", "MXN", "ARS", "COP"}

func generateNormalCheckouts(rng *rand.Rand) []domain.DecisionRequest {
	var reqs []domain.DecisionRequest
	for i := 0; i < 108; i++ {
		amount := roundTo2(15 + rng.Float64()*180) // well under the $500 HIGH_TICKET trigger
		reqs = append(reqs, domain.DecisionRequest{
			CartTotal: amount,
			Currency:  normalCurrencies[rng.Intn(len(normalCurrencies))],
			Rail:      domain.RailCard,
			Channel:   domain.ChannelOnline,
			Features: map[string]any{
				"amount":       amount,
				"velocity_24h": float64(rng.Intn(3)), // under the VELOCITY trigger of 3
				"cross_border": 0,
			},
			Context: &domain.RequestContext{
				LocationIPCountry: "US",
				BillingCountry:    "US",
				ItemCount:         float64(1 + rng.Intn(4)),
				PaymentMethod:     &domain.PaymentMethod{Type: "visa"},
			},
		})
	}
	return reqs
}

// ─── High-ticket reviews (~22 requests, 12%) ──────────────────────────────

func generateHighTicketReviews(rng *rand.Rand) []domain.DecisionRequest {
	var reqs []domain.DecisionRequest
	for i := 0; i < 22; i++ {
		amount := roundTo2(550 + rng.Float64()*2500) // over HIGH_TICKET (500), under CARD_HIGH_TICKET decline (5000)
		reqs = append(reqs, domain.DecisionRequest{
			CartTotal: amount,
			Currency:  "USD",
			Rail:      domain.RailCard,
			Channel:   domain.ChannelOnline,
			Features: map[string]any{
				"amount":       amount,
				"velocity_24h": float64(rng.Intn(2)),
				"cross_border": 0,
			},
			Context: &domain.RequestContext{
				LocationIPCountry: "US",
				BillingCountry:    "US",
				ItemCount:         float64(1 + rng.Intn(3)),
				PaymentMethod:     &domain.PaymentMethod{Type: "mastercard"},
			},
		})
	}
	return reqs
}

// ─── Velocity abuse (~18 requests, 10%) ───────────────────────────────────

func generateVelocityAbuse(rng *rand.Rand) []domain.DecisionRequest {
	var reqs []domain.DecisionRequest
	for i := 0; i < 18; i++ {
		amount := roundTo2(40 + rng.Float64()*60)
		reqs = append(reqs, domain.DecisionRequest{
			CartTotal: amount,
			Currency:  "USD",
			Rail:      domain.RailCard,
			Channel:   domain.ChannelOnline,
			Features: map[string]any{
				"amount":       amount,
				"velocity_24h": float64(5 + rng.Intn(4)), // over both VELOCITY (3) and CARD_VELOCITY (4)
				"cross_border": 0,
			},
			Context: &domain.RequestContext{
				LocationIPCountry: "US",
				BillingCountry:    "US",
				ItemCount:         1,
				PaymentMethod:     &domain.PaymentMethod{Type: "visa"},
			},
		})
	}
	return reqs
}

// ─── Location/IP mismatches (~14 requests, 8%) ────────────────────────────

var mismatchPairs = [][2]string{
	{"RU", "BR"}, {"NG", "MX"}, {"CN", "AR"}, {"UA", "CO"}, {"VN", "US"},
}

func generateLocationMismatches(rng *rand.Rand) []domain.DecisionRequest {
	var reqs []domain.DecisionRequest
	for i := 0; i < 14; i++ {
		pair := mismatchPairs[i%len(mismatchPairs)]
		amount := roundTo2(60 + rng.Float64()*300)
		reqs = append(reqs, domain.DecisionRequest{
			CartTotal: amount,
			Currency:  "USD",
			Rail:      domain.RailCard,
			Channel:   domain.ChannelOnline,
			Features: map[string]any{
				"amount":           amount,
				"velocity_24h":     float64(rng.Intn(2)),
				"cross_border":     1,
				"high_ip_distance": 1,
			},
			Context: &domain.RequestContext{
				LocationIPCountry: pair[0],
				BillingCountry:    pair[1],
				LocationMismatch:  true,
				ItemCount:         float64(1 + rng.Intn(3)),
				PaymentMethod:     &domain.PaymentMethod{Type: "visa"},
			},
		})
	}
	return reqs
}

// ─── ACH-rail declines (~9 requests, 5%) ──────────────────────────────────

func generateACHDeclines(rng *rand.Rand) []domain.DecisionRequest {
	var reqs []domain.DecisionRequest
	for i := 0; i < 9; i++ {
		amount := roundTo2(2100 + rng.Float64()*1500) // over the $2,000 ACH_LIMIT trigger
		reqs = append(reqs, domain.DecisionRequest{
			CartTotal: amount,
			Currency:  "USD",
			Rail:      domain.RailACH,
			Channel:   domain.ChannelOnline,
			Features: map[string]any{
				"amount":       amount,
				"velocity_24h": float64(rng.Intn(2)),
				"cross_border": 0,
			},
			Context: &domain.RequestContext{
				LocationIPCountry: "US",
				BillingCountry:    "US",
				ItemCount:         1,
				PaymentMethod:     &domain.PaymentMethod{Type: "bank_transfer"},
			},
		})
	}
	return reqs
}

// ─── Loyalty and chargeback-history customers (~9 requests, 5%) ──────────

func generateLoyaltyAndChargebackCustomers(rng *rand.Rand) []domain.DecisionRequest {
	var reqs []domain.DecisionRequest

	// Gold/platinum loyalty customers: LOYALTY_BOOST fires alongside whatever
	// else the cart triggers, to exercise the non-short-circuiting aggregator.
	tiers := []domain.LoyaltyTier{domain.LoyaltyGold, domain.LoyaltyPlatinum}
	for i := 0; i < 5; i++ {
		amount := roundTo2(50 + rng.Float64()*200)
		reqs = append(reqs, domain.DecisionRequest{
			CartTotal: amount,
			Currency:  "USD",
			Rail:      domain.RailCard,
			Channel:   domain.ChannelOnline,
			Features: map[string]any{
				"amount":       amount,
				"velocity_24h": 0,
				"cross_border": 0,
			},
			Context: &domain.RequestContext{
				LocationIPCountry: "US",
				BillingCountry:    "US",
				ItemCount:         2,
				PaymentMethod:     &domain.PaymentMethod{Type: "visa"},
				Customer: &domain.Customer{
					LoyaltyTier: tiers[i%len(tiers)],
					AgeDays:     float64(400 + rng.Intn(1000)),
				},
			},
		})
	}

	// Customers with chargeback history: CHARGEBACK_HISTORY always routes to
	// review regardless of cart size.
	for i := 0; i < 4; i++ {
		amount := roundTo2(30 + rng.Float64()*120)
		reqs = append(reqs, domain.DecisionRequest{
			CartTotal: amount,
			Currency:  "USD",
			Rail:      domain.RailCard,
			Channel:   domain.ChannelOnline,
			Features: map[string]any{
				"amount":       amount,
				"velocity_24h": 0,
				"cross_border": 0,
			},
			Context: &domain.RequestContext{
				LocationIPCountry: "US",
				BillingCountry:    "US",
				ItemCount:         1,
				PaymentMethod:     &domain.PaymentMethod{Type: "mastercard"},
				Customer: &domain.Customer{
					Chargebacks12m: float64(1 + rng.Intn(3)),
					AgeDays:        float64(30 + rng.Intn(300)),
				},
			},
		})
	}

	return reqs
}

// ─── Utilities ─────────────────────────────────────────────────────────────

func roundTo2(f float64) float64 {
	return float64(int(f*100)) / 100
}
