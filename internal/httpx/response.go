// Package httpx holds the JSON response helpers shared by all handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/donorlink/donorlink/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Current string `json:"current,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error maps a domain error onto the HTTP response. Non-domain errors become
// an opaque 500.
func Error(w http.ResponseWriter, err error) {
	var de *apperr.Error
	if !errors.As(err, &de) {
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	resp := ErrorResponse{Error: de.Code, Field: de.Field, Current: de.Current}
	if len(de.Details) > 0 {
		resp.Details = de.Details
	}
	if de.Attempted != "" {
		if resp.Details == nil {
			resp.Details = map[string]string{"attempted": de.Attempted}
		}
	}
	JSON(w, statusFor(de.Kind), resp)
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
