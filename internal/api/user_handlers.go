package api

import (
	"encoding/json"
	"net/http"

	"evcharging/internal/entities"
	"evcharging/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type UserReservationHandler struct {
	Service  *service.ReservationService
	validate *validator.Validate
}

func NewUserReservationHandler(svc *service.ReservationService) *UserReservationHandler {
	return &UserReservationHandler{
		Service:  svc,
		validate: validator.New(),
	}
}

func (h *UserReservationHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Service.ListSessions()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *UserReservationHandler) ReservationsBySession(w http.ResponseWriter, r *http.Request) {
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

func (h *UserReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.Service.CreateReservation(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *UserReservationHandler) CreateReservationsBatch(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.Service.CreateReservationsBatch(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *UserReservationHandler) MyReservations(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	plate := r.URL.Query().Get("plate")
	if email == "" && plate == "" {
		http.Error(w, "either email or plate must be provided", http.StatusBadRequest)
		return
	}
	reservations, err := h.Service.UserReservations(email, plate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (h *UserReservationHandler) DeleteMyReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	email := r.URL.Query().Get("email")
	plate := r.URL.Query().Get("plate")
	if email == "" && plate == "" {
		http.Error(w, "either email or plate must be provided", http.StatusBadRequest)
		return
	}
	deleted, err := h.Service.DeleteForOwner(id, email, plate)
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
