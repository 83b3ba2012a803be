package handler

import (
	"net/http"

	"ppda-backend/internal/middleware"
	"ppda-backend/internal/service"
	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AgencyHandler struct {
	agencyService service.AgencyService
}

func NewAgencyHandler(agencyService service.AgencyService) *AgencyHandler {
	return &AgencyHandler{agencyService: agencyService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AgencyHandler) RegisterRoutes(router *gin.RouterGroup) {
	agencies := router.Group("/api/agencies")
	{
		agencies.GET("", middleware.RequireAuthenticated(), h.ListAgencies)
		agencies.POST("", middleware.RequireAdmin(), h.CreateAgency)
		agencies.PUT("/:id", middleware.RequireAdmin(), h.UpdateAgency)
		agencies.DELETE("/:id", middleware.RequireAdmin(), h.DeleteAgency)
	}
}

// ListAgencies handles GET /api/agencies
// @Summary      List agencies
// @Description  Returns all active agencies ordered by name
// @Tags         agencies
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.AgencyResponse}
// @Router       /api/agencies [get]
func (h *AgencyHandler) ListAgencies(c *gin.Context) {
	agencies, err := h.agencyService.ListAgencies(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(agencies))
}

// CreateAgency handles POST /api/agencies
// @Summary      Create agency
// @Tags         agencies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AgencyRequest  true  "Agency payload"
// @Success      201      {object}  response.Response{data=service.AgencyResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/agencies [post]
func (h *AgencyHandler) CreateAgency(c *gin.Context) {
	var req service.AgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	agency, err := h.agencyService.CreateAgency(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(agency))
}

// UpdateAgency handles PUT /api/agencies/:id
// @Summary      Update agency
// @Tags         agencies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Agency ID"
// @Param        payload  body      service.AgencyRequest  true  "Agency payload"
// @Success      200      {object}  response.Response{data=service.AgencyResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/agencies/{id} [put]
func (h *AgencyHandler) UpdateAgency(c *gin.Context) {
	var req service.AgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	agency, err := h.agencyService.UpdateAgency(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(agency))
}

// DeleteAgency handles DELETE /api/agencies/:id
// @Summary      Delete agency
// @Description  Deletes the agency, or deactivates it when measures or users still reference it
// @Tags         agencies
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Agency ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/agencies/{id} [delete]
func (h *AgencyHandler) DeleteAgency(c *gin.Context) {
	deactivated, err := h.agencyService.DeleteAgency(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if deactivated {
		c.JSON(http.StatusOK, response.Message("Agency is still referenced and was deactivated instead of deleted"))
		return
	}
	c.JSON(http.StatusOK, response.Message("Agency deleted"))
}
