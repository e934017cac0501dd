package middleware

import (
	"encoding/json"
	"net/http"
)

// Reason codes middleware attaches to rejected requests.
const (
	ReasonMissingToken   = "missing_token"
	ReasonTokenExpired   = "token_expired"
	ReasonTokenMalformed = "token_malformed"
	ReasonUserNotFound   = "user_not_found"
	ReasonForbidden      = "forbidden"
	ReasonRateLimited    = "rate_limited"
	ReasonInternal       = "internal_error"
)

// writeJSONError writes a JSON-encoded error response with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "reason": reason})
}
