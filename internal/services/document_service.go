// internal/services/document_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcgboard/permits-backend/internal/models"
	"github.com/mcgboard/permits-backend/internal/pdf"
)

// ErrRendering wraps every document-sink failure so callers can distinguish
// a broken artifact from a broken permit.
var ErrRendering = fmt.Errorf("document rendering failed")

// DocumentService flattens permits and analytics results into read-only
// snapshots and hands them to the PDF generator.
type DocumentService struct {
	permits   *PermitService
	analytics *AnalyticsService
	generator *pdf.Generator
	clock     Clock
}

func NewDocumentService(permits *PermitService, analytics *AnalyticsService, generator *pdf.Generator, clock Clock) *DocumentService {
	if clock == nil {
		clock = SystemClock()
	}
	return &DocumentService{permits: permits, analytics: analytics, generator: generator, clock: clock}
}

// PermitDocument renders the printable delivery permit. Only an APPROVED
// permit has a deliverable window, so anything else is rejected up front.
func (s *DocumentService) PermitDocument(ctx context.Context, actor Actor, permitID uuid.UUID) ([]byte, string, error) {
	permit, err := s.permits.GetPermit(ctx, actor, permitID)
	if err != nil {
		return nil, "", err
	}
	if permit.Status != models.PermitStatusApproved {
		return nil, "", fmt.Errorf("%w: only approved permits have a delivery document", ErrValidation)
	}

	doc := pdf.PermitDocument{
		RefNo:         derefRefNo(permit.RefNo),
		Status:        string(permit.Status),
		FarmerName:    permit.Farmer.FullName(),
		SocietyName:   permit.Society.Name,
		FactoryName:   permit.Factory.Name,
		WarehouseName: permit.Warehouse.Name,
		ApplicationAt: permit.ApplicationDate,
		TotalBags:     permit.TotalBags(),
		TotalWeightKg: permit.TotalWeight(),
	}
	if permit.DeliveryStart != nil {
		doc.DeliveryStart = *permit.DeliveryStart
	}
	if permit.DeliveryEnd != nil {
		doc.DeliveryEnd = *permit.DeliveryEnd
	}
	if permit.ApprovedBy != nil {
		doc.ApprovedBy = permit.ApprovedBy.FullName()
	}
	if permit.ApprovedAt != nil {
		doc.ApprovedAt = *permit.ApprovedAt
	}
	for _, q := range permit.CoffeeQuantities {
		doc.Lines = append(doc.Lines, pdf.PermitLine{
			Grade:        q.CoffeeGrade.Grade,
			WeightPerBag: q.CoffeeGrade.WeightPerBag,
			Bags:         q.BagsQuantity,
			WeightKg:     q.TotalWeight(),
		})
	}

	artifact, err := s.generator.GeneratePermitDocument(doc)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRendering, err)
	}
	filename := fmt.Sprintf("permit-%s.pdf", permit.ID)
	return artifact, filename, nil
}

// AnalyticsReport renders a summary PDF over the actor-visible permits in
// the given range.
func (s *DocumentService) AnalyticsReport(ctx context.Context, actor Actor, r AnalyticsRange) ([]byte, string, error) {
	statusRows, err := s.analytics.StatusAnalytics(ctx, actor, r, GranularityMonthly)
	if err != nil {
		return nil, "", err
	}
	topSocieties, err := s.analytics.TopTotals(ctx, actor, r, TopBySociety, 10, nil)
	if err != nil {
		return nil, "", err
	}
	topGrades, err := s.analytics.TopTotals(ctx, actor, r, TopByGrade, 10, nil)
	if err != nil {
		return nil, "", err
	}

	report := pdf.AnalyticsReport{
		Title:       "Coffee Delivery Permits Report",
		GeneratedAt: s.clock.Now(),
		PeriodLabel: rangeLabel(r),
	}
	statusTotals := make(map[models.PermitStatus]int64)
	for _, row := range statusRows {
		for status, count := range row.Counts {
			statusTotals[status] += count
		}
	}
	for _, status := range models.AllPermitStatuses {
		report.StatusRows = append(report.StatusRows, pdf.ReportRow{
			Label: string(status),
			Value: fmt.Sprintf("%d", statusTotals[status]),
		})
	}
	for _, row := range topSocieties {
		report.TopSocieties = append(report.TopSocieties, pdf.ReportRow{Label: row.Name, Value: fmt.Sprintf("%.2f", row.WeightKg)})
	}
	for _, row := range topGrades {
		report.TopGrades = append(report.TopGrades, pdf.ReportRow{Label: row.Name, Value: fmt.Sprintf("%.2f", row.WeightKg)})
	}

	artifact, err := s.generator.GenerateAnalyticsReport(report)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRendering, err)
	}
	return artifact, fmt.Sprintf("permits-report-%s.pdf", s.clock.Now().Format("2006-01-02")), nil
}

func rangeLabel(r AnalyticsRange) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "open"
		}
		return t.Format("02 Jan 2006")
	}
	return fmt.Sprintf("%s to %s", format(r.StartDate), format(r.EndDate))
}
