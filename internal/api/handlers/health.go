package handlers

import (
	"net/http"

	"tutor-app/internal/api/response"
	"tutor-app/internal/auth"
)

type HealthResponse struct {
	Status string `json:"status"`
}

// HealthHandler reports that the server is up
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// userIDFromRequest returns the caller resolved by the identity middleware,
// writing a 401 when there is none
func userIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", nil)
	}
	return userID, ok
}
