package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"evcharging/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Validation
// messages pass through verbatim; everything unclassified is a 500 with the
// detail kept server-side.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *apperrors.ValidationError
	var overlapErr *apperrors.OverlapError
	var plateErr *apperrors.PlateConflictError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &overlapErr), errors.As(err, &plateErr):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperrors.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		log.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
