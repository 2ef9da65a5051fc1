package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// respondJSON writes payload as a JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondWithError sends a JSON error body to the client and logs the
// underlying error server-side. userMsg is what the client sees; logMsg
// gives the log line more context when the user-facing message is generic.
func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, map[string]any{"ok": false, "error": userMsg})
}
