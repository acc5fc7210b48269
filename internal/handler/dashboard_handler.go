package handler

import (
	"net/http"

	"dealership/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	guard            gin.HandlerFunc
}

func NewDashboardHandler(dashboardService service.DashboardService, guard gin.HandlerFunc) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, guard: guard}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard", h.guard, h.GetStats)
}

// GetStats returns the back-office dashboard counters
// @Summary      Dashboard statistics
// @Description  Application counts per status, payment totals, support backlog and monthly submissions
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.DashboardStats}
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.GetStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}
