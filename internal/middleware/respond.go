package middleware

import (
	"encoding/json"
	"net/http"
)

// deny writes the uniform failure envelope used across the API. Extra fields
// (required_plan, current_plan, rate-limit details) are merged into the body.
func deny(w http.ResponseWriter, status int, code, message string, extra map[string]any) {
	body := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
