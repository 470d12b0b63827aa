package api

import (
	"errors"
	"net/http"

	"evcharging/internal/service"
)

type BatteryHandler struct {
	Service *service.BatteryService
}

func NewBatteryHandler(svc *service.BatteryService) *BatteryHandler {
	return &BatteryHandler{Service: svc}
}

func (h *BatteryHandler) Now(w http.ResponseWriter, r *http.Request) {
	status, err := h.Service.FetchStatus()
	if err != nil {
		if errors.Is(err, service.ErrBatteryNotConfigured) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
