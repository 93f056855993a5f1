// Package httpserver is the HTTP gateway in front of the Decision
// Orchestrator: it binds incoming JSON to domain.DecisionRequest, invokes
// engine.Engine.Decide, and writes the AP2 contract (or a §7 error
// envelope) back to the caller.
package httpserver

import (
	"encoding/json"
	"net/http"

	"lumina/orca/internal/apierr"
)

// envelope wraps a successful response; error responses instead write an
// apierr.Envelope directly, matching the {code, message, details?} shape §7
// requires on the wire.
type envelope struct {
	Data any `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func writeAPIError(w http.ResponseWriter, err *apierr.Error) {
	writeJSON(w, apierr.HTTPStatus(err.Code), err.ToEnvelope())
}

func internalError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, apierr.Envelope{
		Code:    "INTERNAL_ERROR",
		Message: message,
	})
}
