// internal/handlers/document.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcgboard/permits-backend/internal/services"
)

type DocumentHandler struct {
	documentService *services.DocumentService
}

func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// GET /permits/:id/pdf
func (h *DocumentHandler) PermitDocument(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	artifact, filename, err := h.documentService.PermitDocument(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}
	serveInline(c, artifact, filename)
}

// GET /permits/analytics/report-pdf
func (h *DocumentHandler) AnalyticsReport(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	r := services.AnalyticsRange{
		StartDate: parseDateQuery(c, "start_date"),
		EndDate:   parseDateQuery(c, "end_date"),
	}

	artifact, filename, err := h.documentService.AnalyticsReport(c.Request.Context(), actor, r)
	if err != nil {
		handleError(c, err)
		return
	}
	serveInline(c, artifact, filename)
}

func serveInline(c *gin.Context, artifact []byte, filename string) {
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", artifact)
}
