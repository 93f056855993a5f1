// Package features turns a raw DecisionRequest into the flat DerivedFeatures
// map the Risk Model and Rule Registry both read.
//
// Extraction is a pure function: no I/O, no shared state, no errors.
// Missing or ill-typed inputs degrade to 0.0 rather than failing — the rest
// of the pipeline must never block on a malformed optional field.
package features

import "lumina/orca/internal/domain"

// highTicketThreshold is the default cart_total above which is_high_ticket
// is set. It mirrors the HIGH_TICKET rule's default trigger in the rule
// registry, but the two are independent knobs.
const highTicketThreshold = 500.0

// Extract derives DerivedFeatures from req without mutating it.
func Extract(req *domain.DecisionRequest) domain.DerivedFeatures {
	out := make(domain.DerivedFeatures, len(req.Features)+3)

	for k, v := range req.Features {
		switch t := v.(type) {
		case float64:
			out[k] = t
		case int:
			out[k] = float64(t)
		case bool:
			out[k] = boolToFloat(t)
		default:
			// Not a number or boolean: dropped silently.
		}
	}

	out["is_high_ticket"] = boolToFloat(req.CartTotal > highTicketThreshold)
	out["ip_country_mismatch"] = boolToFloat(countryMismatch(req))
	out["has_chargebacks"] = boolToFloat(hasChargebacks(req))

	return out
}

func countryMismatch(req *domain.DecisionRequest) bool {
	if req.Context == nil {
		return false
	}
	ip, billing := req.Context.LocationIPCountry, req.Context.BillingCountry
	return ip != "" && billing != "" && ip != billing
}

func hasChargebacks(req *domain.DecisionRequest) bool {
	if req.Context == nil || req.Context.Customer == nil {
		return false
	}
	return req.Context.Customer.Chargebacks12m > 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
