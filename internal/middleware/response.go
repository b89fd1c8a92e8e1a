// Package middleware holds the HTTP middleware shared by the blog services:
// access logging, panic recovery, CORS and per-client rate limiting.
package middleware

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Success: false, Message: message})
}
