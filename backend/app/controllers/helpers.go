package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"sagiri-relay/backend/app/services"
	"sagiri-relay/backend/global"
)

// maxJSONBody bounds every JSON request. Screen frames are the largest.
const maxJSONBody = 32 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinel errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalid):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyCompleted):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrTooLarge):
		writeJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrFull):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		global.Logger.Error().Err(err).Msg("request failed")
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

// deviceIDFromRequest reads the polling agent's id from the query string or
// the X-Device-ID header.
func deviceIDFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get("device_id"); id != "" {
		return id
	}
	return r.Header.Get("X-Device-ID")
}

func success() map[string]string { return map[string]string{"status": "success"} }
