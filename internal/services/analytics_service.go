// internal/services/analytics_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mcgboard/permits-backend/internal/models"
)

// AnalyticsService computes chart-ready series over the permit and quantity
// tables. Rows are loaded through the same role scope as the list endpoints
// and aggregated in memory, keeping the bucketing logic testable without a
// database.
type AnalyticsService struct {
	db      *gorm.DB
	permits *PermitService
	clock   Clock
	log     *logrus.Logger
}

func NewAnalyticsService(db *gorm.DB, permits *PermitService, clock Clock, log *logrus.Logger) *AnalyticsService {
	if clock == nil {
		clock = SystemClock()
	}
	return &AnalyticsService{db: db, permits: permits, clock: clock, log: log}
}

// AnalyticsRange bounds a series by application date; either side may be nil
// for an open-ended range.
type AnalyticsRange struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// StatusAnalytics is Operation A: permit counts per status per period.
func (s *AnalyticsService) StatusAnalytics(ctx context.Context, actor Actor, r AnalyticsRange, granularity Granularity) ([]StatusCountRow, error) {
	permits, err := s.loadPermits(ctx, actor, r, false)
	if err != nil {
		return nil, err
	}
	return StatusCountsByPeriod(permits, granularity), nil
}

// CoffeeWeightAnalytics is Operation B: coffee weight per period and grade.
// Every catalog grade is zero-filled into each period so unused grades still
// show up in the series.
func (s *AnalyticsService) CoffeeWeightAnalytics(ctx context.Context, actor Actor, r AnalyticsRange, granularity Granularity) ([]WeightRow, error) {
	permits, err := s.loadPermits(ctx, actor, r, true)
	if err != nil {
		return nil, err
	}
	grades, err := s.catalogGrades(ctx)
	if err != nil {
		return nil, err
	}
	return WeightByPeriodAndGrade(permits, granularity, r, grades), nil
}

func (s *AnalyticsService) catalogGrades(ctx context.Context) ([]string, error) {
	var grades []string
	if err := s.db.WithContext(ctx).Model(&models.CoffeeGrade{}).
		Order("grade ASC").Pluck("grade", &grades).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch coffee grades: %w", err)
	}
	return grades, nil
}

// TopTotals is Operation C: the heaviest limit societies, factories, or
// grades by total coffee weight.
func (s *AnalyticsService) TopTotals(ctx context.Context, actor Actor, r AnalyticsRange, dimension TopDimension, limit int, excludeGrades []string) ([]DimensionTotal, error) {
	switch dimension {
	case TopBySociety, TopByFactory, TopByGrade:
	default:
		return nil, fmt.Errorf("%w: unknown rollup dimension %q", ErrValidation, dimension)
	}
	if limit <= 0 {
		limit = 10
	}
	permits, err := s.loadPermits(ctx, actor, r, true)
	if err != nil {
		return nil, err
	}
	return TopTotalsByDimension(permits, dimension, limit, excludeGrades), nil
}

// CumulativeStatus is Operation D: running approved and rejected totals per
// decision day. The range bounds the decision dates, not the application
// dates.
func (s *AnalyticsService) CumulativeStatus(ctx context.Context, actor Actor, r AnalyticsRange) ([]CumulativeStatusRow, error) {
	permits, err := s.loadPermits(ctx, actor, AnalyticsRange{}, false)
	if err != nil {
		return nil, err
	}
	decided := permits[:0]
	for i := range permits {
		at := permits[i].ApprovedAt
		if permits[i].Status == models.PermitStatusRejected {
			at = permits[i].RejectedAt
		}
		if at == nil || !inRange(*at, r) {
			continue
		}
		decided = append(decided, permits[i])
	}
	return CumulativeStatusByDay(decided), nil
}

func inRange(at time.Time, r AnalyticsRange) bool {
	day := models.DateOnly(at)
	if r.StartDate != nil && day.Before(models.DateOnly(*r.StartDate)) {
		return false
	}
	if r.EndDate != nil && day.After(models.DateOnly(*r.EndDate)) {
		return false
	}
	return true
}

// loadPermits fetches the actor-visible rows within range, refreshing expiry
// first so status buckets never carry a stale APPROVED.
func (s *AnalyticsService) loadPermits(ctx context.Context, actor Actor, r AnalyticsRange, withQuantities bool) ([]models.PermitApplication, error) {
	if err := s.permits.refreshExpiredInScope(ctx, actor); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.PermitApplication{}).Scopes(scopeForActor(actor))
	if withQuantities {
		query = query.Preload("Society").Preload("Factory").
			Preload("CoffeeQuantities").Preload("CoffeeQuantities.CoffeeGrade")
	}
	if r.StartDate != nil {
		query = query.Where("permit_applications.application_date >= ?", models.DateOnly(*r.StartDate))
	}
	if r.EndDate != nil {
		query = query.Where("permit_applications.application_date < ?", models.DateOnly(*r.EndDate).AddDate(0, 0, 1))
	}

	var permits []models.PermitApplication
	if err := query.Order("permit_applications.application_date ASC").Find(&permits).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch permits for analytics: %w", err)
	}
	return permits, nil
}
