package handlers

import (
	"net/http"

	"konnectia/internal/utils"
)

// HealthChecker reports the state of the backing stores.
type HealthChecker interface {
	Health() map[string]string
}

type CommonHandler struct {
	db HealthChecker
}

func NewCommonHandler(db HealthChecker) *CommonHandler {
	return &CommonHandler{db: db}
}

func (h *CommonHandler) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	stats := h.db.Health()
	code := http.StatusOK
	if stats["status"] != "up" {
		code = http.StatusServiceUnavailable
	}
	utils.RespondWithJSON(w, code, stats)
}
