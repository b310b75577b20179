// internal/handlers/grade.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mcgboard/permits-backend/internal/services"
	"github.com/mcgboard/permits-backend/internal/utils"
)

type GradeHandler struct {
	gradeService *services.GradeService
}

func NewGradeHandler(gradeService *services.GradeService) *GradeHandler {
	return &GradeHandler{
		gradeService: gradeService,
	}
}

// GET /grades
func (h *GradeHandler) ListGrades(c *gin.Context) {
	grades, err := h.gradeService.ListGrades(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, grades)
}

// GET /grades/:id
func (h *GradeHandler) GetGrade(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	grade, err := h.gradeService.GetGrade(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, grade)
}

// POST /grades
func (h *GradeHandler) CreateGrade(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	grade, err := h.gradeService.CreateGrade(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.CreatedResponse(c, grade)
}

// PUT /grades/:id
func (h *GradeHandler) UpdateGrade(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	grade, err := h.gradeService.UpdateGrade(c.Request.Context(), actor, id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, grade)
}

// DELETE /grades/:id
func (h *GradeHandler) DeleteGrade(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.gradeService.DeleteGrade(c.Request.Context(), actor, id); err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": true})
}
