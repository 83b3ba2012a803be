package handler

import (
	"net/http"

	"ppda-backend/internal/middleware"
	"ppda-backend/internal/service"
	"ppda-backend/pkg/pagination"
	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type IndicatorHandler struct {
	reviewService service.ReviewService
}

func NewIndicatorHandler(reviewService service.ReviewService) *IndicatorHandler {
	return &IndicatorHandler{reviewService: reviewService}
}

func (h *IndicatorHandler) RegisterRoutes(router *gin.RouterGroup) {
	indicators := router.Group("/api/indicators")
	{
		indicators.GET("", middleware.RequireAdmin(), h.ListIndicators)
		indicators.POST("/:id/approve", middleware.RequireAdmin(), h.ApproveIndicator)
		indicators.POST("/:id/reject", middleware.RequireAdmin(), h.RejectIndicator)
	}
}

// ListIndicators handles GET /api/indicators
// @Summary      List indicator submissions
// @Description  Returns submissions with their documents, newest first
// @Tags         indicators
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.IndicatorResponse}
// @Router       /api/indicators [get]
func (h *IndicatorHandler) ListIndicators(c *gin.Context) {
	params := pagination.Parse(c)

	indicators, total, err := h.reviewService.ListIndicators(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    indicators,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	})
}

// ApproveIndicator handles POST /api/indicators/:id/approve
// @Summary      Approve an indicator
// @Description  Marks the submission as meeting requirements and recomputes the measure's next due date. The response carries a warning when the submitter could not be notified.
// @Tags         indicators
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Indicator ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/indicators/{id}/approve [post]
func (h *IndicatorHandler) ApproveIndicator(c *gin.Context) {
	warning, err := h.reviewService.Approve(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if warning != "" {
		c.JSON(http.StatusOK, response.MessageWithWarning("Indicator approved", warning))
		return
	}
	c.JSON(http.StatusOK, response.Message("Indicator approved"))
}

// RejectIndicator handles POST /api/indicators/:id/reject
// @Summary      Reject an indicator
// @Description  Marks the submission as not meeting requirements. A non-empty reason is required. The measure's due date is left untouched.
// @Tags         indicators
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Indicator ID"
// @Param        payload  body      service.RejectIndicatorRequest  true  "Rejection reason"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/indicators/{id}/reject [post]
func (h *IndicatorHandler) RejectIndicator(c *gin.Context) {
	var req service.RejectIndicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Reason presence is validated by the service so the error message
		// is consistent whether the body is missing or empty.
		req.Reason = ""
	}

	if err := h.reviewService.Reject(c.Request.Context(), c.Param("id"), callerID(c), req.Reason); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Message("Indicator rejected"))
}
