package handler

import (
	"net/http"

	"ppda-backend/internal/middleware"
	"ppda-backend/internal/service"
	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MeasureTypeHandler struct {
	measureTypeService service.MeasureTypeService
}

func NewMeasureTypeHandler(measureTypeService service.MeasureTypeService) *MeasureTypeHandler {
	return &MeasureTypeHandler{measureTypeService: measureTypeService}
}

func (h *MeasureTypeHandler) RegisterRoutes(router *gin.RouterGroup) {
	types := router.Group("/api/measure-types")
	{
		types.GET("", middleware.RequireAuthenticated(), h.ListMeasureTypes)
		types.POST("", middleware.RequireAdmin(), h.CreateMeasureType)
		types.PUT("/:id", middleware.RequireAdmin(), h.UpdateMeasureType)
		types.DELETE("/:id", middleware.RequireAdmin(), h.DeleteMeasureType)
	}
}

// ListMeasureTypes handles GET /api/measure-types
// @Summary      List measure types
// @Tags         measure-types
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.MeasureTypeResponse}
// @Router       /api/measure-types [get]
func (h *MeasureTypeHandler) ListMeasureTypes(c *gin.Context) {
	types, err := h.measureTypeService.ListMeasureTypes(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(types))
}

// CreateMeasureType handles POST /api/measure-types
// @Summary      Create measure type
// @Tags         measure-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.MeasureTypeRequest  true  "Measure type payload"
// @Success      201      {object}  response.Response{data=service.MeasureTypeResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/measure-types [post]
func (h *MeasureTypeHandler) CreateMeasureType(c *gin.Context) {
	var req service.MeasureTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	measureType, err := h.measureTypeService.CreateMeasureType(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(measureType))
}

// UpdateMeasureType handles PUT /api/measure-types/:id
// @Summary      Update measure type
// @Tags         measure-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Measure type ID"
// @Param        payload  body      service.MeasureTypeRequest  true  "Measure type payload"
// @Success      200      {object}  response.Response{data=service.MeasureTypeResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/measure-types/{id} [put]
func (h *MeasureTypeHandler) UpdateMeasureType(c *gin.Context) {
	var req service.MeasureTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	measureType, err := h.measureTypeService.UpdateMeasureType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(measureType))
}

// DeleteMeasureType handles DELETE /api/measure-types/:id
// @Summary      Delete measure type
// @Description  Deletes the type, or deactivates it when measures still reference it
// @Tags         measure-types
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Measure type ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/measure-types/{id} [delete]
func (h *MeasureTypeHandler) DeleteMeasureType(c *gin.Context) {
	deactivated, err := h.measureTypeService.DeleteMeasureType(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if deactivated {
		c.JSON(http.StatusOK, response.Message("Measure type is still referenced and was deactivated instead of deleted"))
		return
	}
	c.JSON(http.StatusOK, response.Message("Measure type deleted"))
}
