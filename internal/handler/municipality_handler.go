package handler

import (
	"net/http"

	"ppda-backend/internal/middleware"
	"ppda-backend/internal/service"
	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MunicipalityHandler struct {
	municipalityService service.MunicipalityService
}

func NewMunicipalityHandler(municipalityService service.MunicipalityService) *MunicipalityHandler {
	return &MunicipalityHandler{municipalityService: municipalityService}
}

func (h *MunicipalityHandler) RegisterRoutes(router *gin.RouterGroup) {
	municipalities := router.Group("/api/municipalities")
	{
		municipalities.GET("", middleware.RequireAuthenticated(), h.ListMunicipalities)
		municipalities.POST("", middleware.RequireAdmin(), h.CreateMunicipality)
		municipalities.PUT("/:id", middleware.RequireAdmin(), h.UpdateMunicipality)
		municipalities.DELETE("/:id", middleware.RequireAdmin(), h.DeleteMunicipality)
	}
}

// ListMunicipalities handles GET /api/municipalities
// @Summary      List municipalities
// @Tags         municipalities
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.MunicipalityResponse}
// @Router       /api/municipalities [get]
func (h *MunicipalityHandler) ListMunicipalities(c *gin.Context) {
	municipalities, err := h.municipalityService.ListMunicipalities(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(municipalities))
}

// CreateMunicipality handles POST /api/municipalities
// @Summary      Create municipality
// @Tags         municipalities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.MunicipalityRequest  true  "Municipality payload"
// @Success      201      {object}  response.Response{data=service.MunicipalityResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/municipalities [post]
func (h *MunicipalityHandler) CreateMunicipality(c *gin.Context) {
	var req service.MunicipalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	municipality, err := h.municipalityService.CreateMunicipality(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(municipality))
}

// UpdateMunicipality handles PUT /api/municipalities/:id
// @Summary      Update municipality
// @Tags         municipalities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Municipality ID"
// @Param        payload  body      service.MunicipalityRequest  true  "Municipality payload"
// @Success      200      {object}  response.Response{data=service.MunicipalityResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/municipalities/{id} [put]
func (h *MunicipalityHandler) UpdateMunicipality(c *gin.Context) {
	var req service.MunicipalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	municipality, err := h.municipalityService.UpdateMunicipality(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(municipality))
}

// DeleteMunicipality handles DELETE /api/municipalities/:id
// @Summary      Delete municipality
// @Tags         municipalities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Municipality ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/municipalities/{id} [delete]
func (h *MunicipalityHandler) DeleteMunicipality(c *gin.Context) {
	if err := h.municipalityService.DeleteMunicipality(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Message("Municipality deleted"))
}
