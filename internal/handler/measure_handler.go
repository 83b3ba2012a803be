package handler

import (
	"net/http"
	"strings"

	"ppda-backend/internal/middleware"
	"ppda-backend/internal/service"
	"ppda-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// docFieldPrefix is how upload form fields address a required-document slot:
// the field "doc_<slot uuid>" carries the file for that slot.
const docFieldPrefix = "doc_"

type MeasureHandler struct {
	measureService    service.MeasureService
	submissionService service.SubmissionService
}

func NewMeasureHandler(measureService service.MeasureService, submissionService service.SubmissionService) *MeasureHandler {
	return &MeasureHandler{measureService: measureService, submissionService: submissionService}
}

func (h *MeasureHandler) RegisterRoutes(router *gin.RouterGroup) {
	measures := router.Group("/api/measures")
	{
		measures.GET("", middleware.RequireAuthenticated(), h.ListMeasures)
		measures.POST("", middleware.RequireAdmin(), h.CreateMeasure)
		measures.PUT("/:id", middleware.RequireAdmin(), h.UpdateMeasure)
		measures.DELETE("/:id", middleware.RequireAdmin(), h.DeleteMeasure)

		measures.GET("/:id/required-documents", middleware.RequireAuthenticated(), h.RequiredDocuments)
		measures.POST("/:id/submissions", middleware.RequireApprovedUser(), h.SubmitIndicator)
	}
}

// ListMeasures handles GET /api/measures
// @Summary      List measures
// @Description  Returns all active measures with their required-document slots
// @Tags         measures
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.MeasureResponse}
// @Router       /api/measures [get]
func (h *MeasureHandler) ListMeasures(c *gin.Context) {
	measures, err := h.measureService.ListMeasures(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(measures))
}

// CreateMeasure handles POST /api/measures
// @Summary      Create measure
// @Tags         measures
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateMeasureRequest  true  "Measure payload"
// @Success      201      {object}  response.Response{data=service.MeasureResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/measures [post]
func (h *MeasureHandler) CreateMeasure(c *gin.Context) {
	var req service.CreateMeasureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	measure, err := h.measureService.CreateMeasure(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(measure))
}

// UpdateMeasure handles PUT /api/measures/:id
// @Summary      Update measure
// @Description  Updates measure fields. Replacing required documents is rejected with 409 when submissions already reference them.
// @Tags         measures
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Measure ID"
// @Param        payload  body      service.UpdateMeasureRequest  true  "Measure payload"
// @Success      200      {object}  response.Response{data=service.MeasureResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/measures/{id} [put]
func (h *MeasureHandler) UpdateMeasure(c *gin.Context) {
	var req service.UpdateMeasureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	measure, err := h.measureService.UpdateMeasure(c.Request.Context(), callerID(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(measure))
}

// DeleteMeasure handles DELETE /api/measures/:id
// @Summary      Delete measure
// @Description  Deletes the measure and its slots, or deactivates it when indicators reference it
// @Tags         measures
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Measure ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/measures/{id} [delete]
func (h *MeasureHandler) DeleteMeasure(c *gin.Context) {
	deactivated, err := h.measureService.DeleteMeasure(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if deactivated {
		c.JSON(http.StatusOK, response.Message("Measure is still referenced and was deactivated instead of deleted"))
		return
	}
	c.JSON(http.StatusOK, response.Message("Measure deleted"))
}

// RequiredDocuments handles GET /api/measures/:id/required-documents
// @Summary      List a measure's required documents
// @Description  Returns the measure's upload slots in creation order. Regular users can only read slots of their own agency's measures.
// @Tags         measures
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Measure ID"
// @Success      200  {object}  response.Response{data=[]service.RequiredDocumentResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/measures/{id}/required-documents [get]
func (h *MeasureHandler) RequiredDocuments(c *gin.Context) {
	docs, err := h.measureService.RequiredDocuments(c.Request.Context(), c.Param("id"), callerAgencyID(c), callerIsAdmin(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(docs))
}

// SubmitIndicator handles POST /api/measures/:id/submissions
// @Summary      Submit compliance evidence
// @Description  Accepts a multipart form with one file per required-document slot, addressed as doc_<slot id>. All slots are required; missing ones are listed in a 400 response before anything is stored.
// @Tags         measures
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Measure ID"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/measures/{id}/submissions [post]
func (h *MeasureHandler) SubmitIndicator(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid multipart form"))
		return
	}

	files := make(map[string]service.FileUpload)
	for field, headers := range form.File {
		if !strings.HasPrefix(field, docFieldPrefix) || len(headers) == 0 {
			continue
		}
		header := headers[0]
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("Failed to read uploaded file "+header.Filename))
			return
		}
		defer f.Close()
		files[strings.TrimPrefix(field, docFieldPrefix)] = service.FileUpload{
			Filename: header.Filename,
			Content:  f,
		}
	}

	if err := h.submissionService.Submit(c.Request.Context(), c.Param("id"), callerID(c), files); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Message("Submission received and pending review"))
}
