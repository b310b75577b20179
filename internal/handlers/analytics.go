// internal/handlers/analytics.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mcgboard/permits-backend/internal/services"
	"github.com/mcgboard/permits-backend/internal/utils"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GET /permits/analytics
func (h *AnalyticsHandler) StatusAnalytics(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	granularity, err := services.ParseGranularity(c.Query("granularity"))
	if err != nil {
		handleError(c, err)
		return
	}

	rows, err := h.analyticsService.StatusAnalytics(c.Request.Context(), actor, h.rangeFromQuery(c), granularity)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, rows)
}

// GET /permits/coffee-analytics
func (h *AnalyticsHandler) CoffeeWeightAnalytics(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	granularity, err := services.ParseGranularity(c.Query("granularity"))
	if err != nil {
		handleError(c, err)
		return
	}

	rows, err := h.analyticsService.CoffeeWeightAnalytics(c.Request.Context(), actor, h.rangeFromQuery(c), granularity)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, rows)
}

// GET /permits/top-societies
func (h *AnalyticsHandler) TopSocieties(c *gin.Context) {
	h.topTotals(c, services.TopBySociety)
}

// GET /permits/top-factories
func (h *AnalyticsHandler) TopFactories(c *gin.Context) {
	h.topTotals(c, services.TopByFactory)
}

// GET /permits/top-grades
func (h *AnalyticsHandler) TopGrades(c *gin.Context) {
	h.topTotals(c, services.TopByGrade)
}

// GET /permits/cumulative-status
func (h *AnalyticsHandler) CumulativeStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	rows, err := h.analyticsService.CumulativeStatus(c.Request.Context(), actor, h.rangeFromQuery(c))
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, rows)
}

func (h *AnalyticsHandler) topTotals(c *gin.Context, dimension services.TopDimension) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	var excludeGrades []string
	if raw := c.Query("exclude_grades"); raw != "" {
		for _, grade := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(grade); trimmed != "" {
				excludeGrades = append(excludeGrades, trimmed)
			}
		}
	}

	rows, err := h.analyticsService.TopTotals(c.Request.Context(), actor, h.rangeFromQuery(c), dimension, limit, excludeGrades)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.SuccessResponse(c, rows)
}

func (h *AnalyticsHandler) rangeFromQuery(c *gin.Context) services.AnalyticsRange {
	return services.AnalyticsRange{
		StartDate: parseDateQuery(c, "start_date"),
		EndDate:   parseDateQuery(c, "end_date"),
	}
}
