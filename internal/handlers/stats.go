package handlers

import (
	"net/http"

	"github.com/donorlink/donorlink/internal/httpx"
	"github.com/donorlink/donorlink/internal/services"
)

type StatsHandler struct{ Svc *services.StatsService }

func NewStatsHandler(svc *services.StatsService) *StatsHandler { return &StatsHandler{Svc: svc} }

// Dashboard: GET /stats/dashboard?category=...
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Dashboard(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_stats", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
