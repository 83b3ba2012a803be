package handler

import (
	"net/http"

	"ppda-backend/internal/middleware"
	"ppda-backend/internal/service"
	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard", middleware.RequireApprovedUser(), h.GetDashboard)
}

// GetDashboard handles GET /api/dashboard
// @Summary      Compliance dashboard
// @Description  Classifies each active measure of the caller's agency into approved, pending review, rejected or pending completion, based on the caller's most recent submission.
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Failure      403  {object}  response.Response
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboardService.Dashboard(c.Request.Context(), callerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dashboard))
}
