package api

import (
	"encoding/json"
	"net/http"

	"evcharging/internal/entities"
	"evcharging/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type AdminHandler struct {
	Service  *service.ReservationService
	Auth     service.AdminAuthService
	validate *validator.Validate
}

func NewAdminHandler(svc *service.ReservationService, auth service.AdminAuthService) *AdminHandler {
	return &AdminHandler{Service: svc, Auth: auth, validate: validator.New()}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entities.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	token, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, entities.AdminLoginResponse{
		Token: token,
		Admin: map[string]string{"email": req.Email},
	})
}

func (h *AdminHandler) ReservationsBySession(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}
	board, err := h.Service.ReservationsBoard(date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *AdminHandler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	deleted, err := h.Service.AdminDeleteReservation(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "Reservation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entities.DeleteResponse{OK: true})
}

func (h *AdminHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.AdminCancelReservation(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.DeleteResponse{OK: true})
}
