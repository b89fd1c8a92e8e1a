package auth

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the envelope every service answers with.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeAuthError writes a failure envelope. It carries no payload data.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Success: false, Message: message})
}
