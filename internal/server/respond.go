package server

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	// Encoding errors after the header is written can only be logged by
	// the caller's middleware; the envelope types here never fail.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the JSON error envelope used by every API route.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
