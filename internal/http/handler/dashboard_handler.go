package handler

import (
	"net/http"

	"github.com/freelance-crm/relation-bot/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// @Summary Get dashboard data
// @Description Returns KPIs and breakdowns over all projects.
// @Description
// @Description - `totalProjects`, `uniqueClients`, `totalEstimated`
// @Description - `inProgress`: projects not in a terminal status (delivered, lost, declined)
// @Description - `byChannel` and `byStatus`: zero counts omitted
// @Description - `monthlyTrend`: new projects per creation month, oldest first
// @Description - `projects`: the table rows, newest first
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardService.GetDashboard(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}
