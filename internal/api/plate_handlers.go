package api

import (
	"encoding/json"
	"net/http"

	"evcharging/internal/entities"
	"evcharging/internal/service"

	"github.com/go-playground/validator/v10"
)

type PlateHandler struct {
	Service  *service.ReservationService
	validate *validator.Validate
}

func NewPlateHandler(svc *service.ReservationService) *PlateHandler {
	return &PlateHandler{Service: svc, validate: validator.New()}
}

// VerifyPlate answers duplicate-plate checks made before a booking attempt.
func (h *PlateHandler) VerifyPlate(w http.ResponseWriter, r *http.Request) {
	var req entities.PlateVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := h.Service.VerifyPlate(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// MatchPlate matches a camera-detected plate against live reservations.
func (h *PlateHandler) MatchPlate(w http.ResponseWriter, r *http.Request) {
	var req entities.PlateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := h.Service.MatchPlate(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
