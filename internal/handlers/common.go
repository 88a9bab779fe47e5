package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sadbytecom/couplex/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// domainStatus maps a service error to an HTTP status. Unknown errors are
// internal failures.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrNotPaired):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSelfCode),
		errors.Is(err, services.ErrAlreadyPaired),
		errors.Is(err, services.ErrPartnerAlreadyPaired):
		return http.StatusConflict
	case errors.Is(err, services.ErrEmptyUsername),
		errors.Is(err, services.ErrUsernameTooLong),
		errors.Is(err, services.ErrInvalidEmotion),
		errors.Is(err, services.ErrEmptyDescription),
		errors.Is(err, services.ErrDescriptionTooLong):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondDomainError maps and sends a service error. Internal failures are
// masked with a generic message.
func respondDomainError(w http.ResponseWriter, err error) {
	status := domainStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondError(w, msg, status)
}
