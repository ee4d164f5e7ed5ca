// Package response writes JSON bodies in the API's standard shapes.
package response

import (
	"encoding/json"
	"net/http"

	"tutor-app/internal/logger"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

// Error sends a standardized JSON error response. Details of err are only
// exposed for client errors.
func Error(w http.ResponseWriter, status int, message string, err error) {
	errResp := ErrorResponse{
		Error:   message,
		Code:    status,
		Message: message,
	}
	if err != nil && status < http.StatusInternalServerError {
		errResp.Message = err.Error()
	}
	JSON(w, status, errResp)
}
