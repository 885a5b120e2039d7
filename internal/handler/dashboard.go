package handler

import (
	"log/slog"
	"net/http"

	"github.com/mystockfolio/backend/internal/service"
)

// DashboardHandler serves the aggregate statistics view.
//
// ROUTES:
//   - GET /api/dashboard/stats → totals, gain/loss, return rate, allocation
type DashboardHandler struct {
	service *service.DashboardService
	logger  *slog.Logger
}

func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: logger}
}

// HandleStats computes statistics across all the user's portfolios.
//
// HTTP: GET /api/dashboard/stats (auth required)
func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		h.logger.Error("dashboard stats failed",
			slog.Int64("userId", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
