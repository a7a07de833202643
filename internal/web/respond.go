package web

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// errorResponse is the JSON body for every failed request.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondJSON writes payload as JSON with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("Encoding response")
	}
}

// respondError writes a failure body. A zero status falls back to 500.
func respondError(w http.ResponseWriter, status int, message string) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, errorResponse{Success: false, Message: message})
}
