// Package handler provides the HTTP handlers and routers of the blog
// services. Every response is a JSON envelope with a success flag.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// envelope is the body of every response. success is added by the writers.
type envelope map[string]any

const (
	msgServerError = "Server error"
	msgInvalidBody = "Invalid request body"
	msgInvalidID   = "Invalid id"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeSuccess writes payload with success=true.
func writeSuccess(w http.ResponseWriter, status int, payload envelope) {
	if payload == nil {
		payload = envelope{}
	}
	payload["success"] = true
	writeJSON(w, status, payload)
}

// writeFailure writes a failure envelope with message and no payload.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// writeError maps err to a status code and writes its client message.
// Unexpected errors are logged and answered with fallback.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeFailure(w, status, fallback)
		return
	}
	writeFailure(w, status, domain.PublicMessage(err, fallback))
}

// statusFor maps a domain error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body of at most maxBytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty body decodes to the zero value; field checks report
			// what is missing.
			return nil
		}
		return domain.Validation(msgInvalidBody)
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation(msgInvalidID)
	}
	return id, nil
}

// flexibleID is an id field that accepts a JSON number or a numeric string.
// Browser clients send route parameters as strings. A string that is not a
// number decodes to 0 and fails the field check.
type flexibleID int64

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			n = 0
		}
		*id = flexibleID(n)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexibleID(n)
	return nil
}

// queryInt parses an integer query parameter. Missing or malformed values
// yield 0 so the service applies its default.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
