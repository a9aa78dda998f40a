package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzaki-dev/jadwal-api/internal/dto"
	"github.com/mzaki-dev/jadwal-api/internal/service"
	appErrors "github.com/mzaki-dev/jadwal-api/pkg/errors"
	"github.com/mzaki-dev/jadwal-api/pkg/response"
)

// RequirementHandler exposes per-class weekly hour override endpoints.
type RequirementHandler struct {
	service *service.RequirementService
}

// NewRequirementHandler constructs a requirement handler.
func NewRequirementHandler(svc *service.RequirementService) *RequirementHandler {
	return &RequirementHandler{service: svc}
}

// List godoc
// @Summary List weekly hour overrides
// @Tags Requirements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requirements [get]
func (h *RequirementHandler) List(c *gin.Context) {
	requirements, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requirements, nil)
}

// Upsert godoc
// @Summary Set weekly hours for a class and subject
// @Description Overrides the subject default hours for one class
// @Tags Requirements
// @Accept json
// @Produce json
// @Param payload body dto.LessonRequirementRequest true "Requirement payload"
// @Success 200 {object} response.Envelope
// @Router /requirements [put]
func (h *RequirementHandler) Upsert(c *gin.Context) {
	var req dto.LessonRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	requirement, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requirement, nil)
}

// Delete godoc
// @Summary Remove a weekly hour override
// @Tags Requirements
// @Produce json
// @Param id path string true "Requirement ID"
// @Success 204
// @Router /requirements/{id} [delete]
func (h *RequirementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
