// internal/handlers/permit.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mcgboard/permits-backend/internal/models"
	"github.com/mcgboard/permits-backend/internal/services"
	"github.com/mcgboard/permits-backend/internal/utils"
)

type PermitHandler struct {
	permitService *services.PermitService
}

func NewPermitHandler(permitService *services.PermitService) *PermitHandler {
	return &PermitHandler{
		permitService: permitService,
	}
}

// POST /permits
func (h *PermitHandler) SubmitPermit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.SubmitPermitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	permit, err := h.permitService.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.CreatedResponse(c, permit)
}

// GET /permits
func (h *PermitHandler) ListPermits(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := h.buildFilter(c, params)

	permits, total, err := h.permitService.ListPermits(c.Request.Context(), actor, filter, params)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(permits, total, params))
}

// GET /permits/:id
func (h *PermitHandler) GetPermit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	permit, err := h.permitService.GetPermit(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"permit":          permit,
		"total_bags":      permit.TotalBags(),
		"total_weight_kg": permit.TotalWeight(),
	})
}

// POST /permits/:id/approve
func (h *PermitHandler) ApprovePermit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	permit, err := h.permitService.Approve(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, permit)
}

// POST /permits/:id/reject
func (h *PermitHandler) RejectPermit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.RejectPermitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	permit, err := h.permitService.Reject(c.Request.Context(), actor, id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, permit)
}

// POST /permits/:id/cancel
func (h *PermitHandler) CancelPermit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	permit, err := h.permitService.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, permit)
}

// POST /permits/bulk-approve
func (h *PermitHandler) BulkApprove(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	req, ok := h.bindBulkRequest(c)
	if !ok {
		return
	}

	affected, err := h.permitService.BulkApprove(c.Request.Context(), actor, req.PermitIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"affected": affected})
}

// POST /permits/bulk-reject
func (h *PermitHandler) BulkReject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	req, ok := h.bindBulkRequest(c)
	if !ok {
		return
	}
	if req.Reason == "" {
		utils.BadRequestResponse(c, "Rejection reason is required", nil)
		return
	}

	affected, err := h.permitService.BulkReject(c.Request.Context(), actor, req.PermitIDs, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"affected": affected})
}

// POST /permits/bulk-cancel
func (h *PermitHandler) BulkCancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	req, ok := h.bindBulkRequest(c)
	if !ok {
		return
	}

	affected, err := h.permitService.BulkCancel(c.Request.Context(), actor, req.PermitIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"affected": affected})
}

// GET /permits/pending
func (h *PermitHandler) PendingPermits(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	permits, err := h.permitService.PendingPermits(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, permits)
}

// GET /permits/society-metrics
func (h *PermitHandler) SocietyMetrics(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	metrics, err := h.permitService.SocietyMetrics(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, metrics)
}

// GET /permits/staff-metrics
func (h *PermitHandler) StaffMetrics(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	metrics, err := h.permitService.StaffMetrics(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, metrics)
}

func (h *PermitHandler) bindBulkRequest(c *gin.Context) (*services.BulkPermitRequest, bool) {
	var req services.BulkPermitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return nil, false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return nil, false
	}
	return &req, true
}

func (h *PermitHandler) buildFilter(c *gin.Context, params utils.PaginationParams) services.PermitFilter {
	filter := services.PermitFilter{
		SocietyID:     parseUUIDQuery(c, "society_id"),
		FactoryID:     parseUUIDQuery(c, "factory_id"),
		WarehouseID:   parseUUIDQuery(c, "warehouse_id"),
		StartDate:     parseDateQuery(c, "start_date"),
		EndDate:       parseDateQuery(c, "end_date"),
		DeliveryStart: parseDateQuery(c, "delivery_start"),
		DeliveryEnd:   parseDateQuery(c, "delivery_end"),
		Search:        strings.TrimSpace(params.Search),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.PermitStatus(strings.ToUpper(raw))
		filter.Status = &status
	}
	if raw := c.Query("min_weight"); raw != "" {
		if weight, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinWeight = &weight
		}
	}
	if raw := c.Query("max_weight"); raw != "" {
		if weight, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxWeight = &weight
		}
	}
	if raw := c.Query("is_valid"); raw != "" {
		if valid, err := strconv.ParseBool(raw); err == nil {
			filter.IsValid = &valid
		}
	}
	return filter
}
