// Package handler contains the HTTP handlers for the PresentMax server.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// writeJSONError writes a JSON error body.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// safeCallbackURL keeps redirects local: only rooted paths that cannot
// escape to another origin pass through, everything else falls back.
func safeCallbackURL(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return fallback
	}
	return raw
}
