// internal/services/permit_query.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcgboard/permits-backend/internal/models"
	"github.com/mcgboard/permits-backend/internal/utils"
)

// PermitFilter carries the optional, composable list filters. Weight bounds
// apply to the derived total weight, so they filter over an aggregate join
// rather than a stored column.
type PermitFilter struct {
	Status        *models.PermitStatus
	SocietyID     *uuid.UUID
	FactoryID     *uuid.UUID
	WarehouseID   *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	DeliveryStart *time.Time
	DeliveryEnd   *time.Time
	MinWeight     *float64
	MaxWeight     *float64
	Search        string
	IsValid       *bool
}

// PermitVisibleTo is the role-scoped visibility rule: staff see everything, a
// society manager their society's permits, a farmer their own.
func PermitVisibleTo(actor Actor, permit *models.PermitApplication) bool {
	if actor.IsStaff() {
		return true
	}
	if actor.ManagedSocietyID != nil {
		return permit.SocietyID == *actor.ManagedSocietyID
	}
	return permit.FarmerID == actor.UserID
}

// scopeForActor applies the same rule as a query scope.
func scopeForActor(actor Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actor.IsStaff() {
			return db
		}
		if actor.ManagedSocietyID != nil {
			return db.Where("permit_applications.society_id = ?", *actor.ManagedSocietyID)
		}
		return db.Where("permit_applications.farmer_id = ?", actor.UserID)
	}
}

// permitSortFields are the sortable permit columns, qualified because the
// search filter joins other tables that also carry created_at. The first
// entry is the default, so unsorted lists come back newest application
// first.
var permitSortFields = []string{
	"permit_applications.application_date",
	"permit_applications.created_at",
	"permit_applications.status",
	"permit_applications.ref_no",
}

// qualifySort maps the client's bare column name onto the permit table so it
// can match the allow list.
func qualifySort(params utils.PaginationParams) utils.PaginationParams {
	if params.Sort != "" && !strings.Contains(params.Sort, ".") {
		params.Sort = "permit_applications." + params.Sort
	}
	if params.Order != "asc" && params.Order != "desc" {
		params.Order = "desc"
	}
	return params
}

// ListPermits returns the actor-visible page matching the filter, newest
// applications first. Statuses are refreshed through the expiry check before
// filters run so reads never observe a stale APPROVED.
func (s *PermitService) ListPermits(ctx context.Context, actor Actor, filter PermitFilter, params utils.PaginationParams) ([]models.PermitApplication, int64, error) {
	if err := s.refreshExpiredInScope(ctx, actor); err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Model(&models.PermitApplication{}).
		Scopes(scopeForActor(actor)).
		Preload("Farmer").Preload("Society").Preload("Factory").Preload("Warehouse").
		Preload("ApprovedBy").Preload("RejectedBy").
		Preload("CoffeeQuantities").Preload("CoffeeQuantities.CoffeeGrade")

	query = s.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count permits: %w", err)
	}

	query = utils.ApplySort(query, qualifySort(params), permitSortFields)
	query = utils.ApplyPagination(query, params)

	var permits []models.PermitApplication
	if err := query.Find(&permits).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch permits: %w", err)
	}
	return permits, total, nil
}

// PendingPermits lists the actor-visible permits still awaiting a decision.
func (s *PermitService) PendingPermits(ctx context.Context, actor Actor) ([]models.PermitApplication, error) {
	status := models.PermitStatusPending
	permits, _, err := s.ListPermits(ctx, actor, PermitFilter{Status: &status}, utils.PaginationParams{Page: 1, Limit: 100})
	return permits, err
}

// PermitMetrics are the per-status counters backing the dashboard cards.
type PermitMetrics struct {
	TotalPermits    int64 `json:"total_permits"`
	ActivePermits   int64 `json:"active_permits"`
	PendingPermits  int64 `json:"pending_permits"`
	ExpiredPermits  int64 `json:"expired_permits"`
	RejectedPermits int64 `json:"rejected_permits,omitempty"`
}

// SocietyMetrics summarizes the manager's own society.
func (s *PermitService) SocietyMetrics(ctx context.Context, actor Actor) (*PermitMetrics, error) {
	if actor.ManagedSocietyID == nil {
		return nil, fmt.Errorf("%w: only society managers can access these metrics", ErrAuthorization)
	}
	if err := s.refreshExpiredInScope(ctx, actor); err != nil {
		return nil, err
	}
	return s.countMetrics(ctx, s.db.WithContext(ctx).Model(&models.PermitApplication{}).
		Where("society_id = ?", *actor.ManagedSocietyID), false)
}

// StaffMetrics summarizes all permits; staff only.
func (s *PermitService) StaffMetrics(ctx context.Context, actor Actor) (*PermitMetrics, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff members can access these metrics", ErrAuthorization)
	}
	if err := s.refreshExpiredInScope(ctx, actor); err != nil {
		return nil, err
	}
	return s.countMetrics(ctx, s.db.WithContext(ctx).Model(&models.PermitApplication{}), true)
}

func (s *PermitService) countMetrics(ctx context.Context, base *gorm.DB, includeRejected bool) (*PermitMetrics, error) {
	metrics := &PermitMetrics{}
	counts := []struct {
		dest   *int64
		status *models.PermitStatus
	}{
		{&metrics.TotalPermits, nil},
		{&metrics.ActivePermits, statusPtr(models.PermitStatusApproved)},
		{&metrics.PendingPermits, statusPtr(models.PermitStatusPending)},
		{&metrics.ExpiredPermits, statusPtr(models.PermitStatusExpired)},
	}
	if includeRejected {
		counts = append(counts, struct {
			dest   *int64
			status *models.PermitStatus
		}{&metrics.RejectedPermits, statusPtr(models.PermitStatusRejected)})
	}
	for _, c := range counts {
		query := base.Session(&gorm.Session{})
		if c.status != nil {
			query = query.Where("status = ?", *c.status)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count permits: %w", err)
		}
	}
	return metrics, nil
}

// refreshExpiredInScope runs the lazy expiry touchpoint over the actor's
// visible APPROVED permits before any read.
func (s *PermitService) refreshExpiredInScope(ctx context.Context, actor Actor) error {
	var candidates []models.PermitApplication
	err := s.db.WithContext(ctx).
		Scopes(scopeForActor(actor)).
		Where("permit_applications.status = ?", models.PermitStatusApproved).
		Find(&candidates).Error
	if err != nil {
		return fmt.Errorf("failed to load approved permits: %w", err)
	}
	for i := range candidates {
		if err := s.CheckExpiration(ctx, &candidates[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PermitService) applyFilter(query *gorm.DB, filter PermitFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("permit_applications.status = ?", *filter.Status)
	}
	if filter.SocietyID != nil {
		query = query.Where("permit_applications.society_id = ?", *filter.SocietyID)
	}
	if filter.FactoryID != nil {
		query = query.Where("permit_applications.factory_id = ?", *filter.FactoryID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("permit_applications.warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.StartDate != nil {
		query = query.Where("permit_applications.application_date >= ?", models.DateOnly(*filter.StartDate))
	}
	if filter.EndDate != nil {
		query = query.Where("permit_applications.application_date < ?", models.DateOnly(*filter.EndDate).AddDate(0, 0, 1))
	}
	if filter.DeliveryStart != nil {
		query = query.Where("permit_applications.delivery_start >= ?", models.DateOnly(*filter.DeliveryStart))
	}
	if filter.DeliveryEnd != nil {
		query = query.Where("permit_applications.delivery_end <= ?", models.DateOnly(*filter.DeliveryEnd))
	}

	if filter.MinWeight != nil || filter.MaxWeight != nil {
		weights := s.db.Model(&models.CoffeeQuantity{}).
			Select("coffee_quantities.application_id AS application_id, SUM(coffee_quantities.bags_quantity * coffee_grades.weight_per_bag) AS total_kg").
			Joins("JOIN coffee_grades ON coffee_grades.id = coffee_quantities.coffee_grade_id").
			Group("coffee_quantities.application_id")
		query = query.Joins("LEFT JOIN (?) AS permit_weights ON permit_weights.application_id = permit_applications.id", weights)
		if filter.MinWeight != nil {
			query = query.Where("COALESCE(permit_weights.total_kg, 0) >= ?", *filter.MinWeight)
		}
		if filter.MaxWeight != nil {
			query = query.Where("COALESCE(permit_weights.total_kg, 0) <= ?", *filter.MaxWeight)
		}
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.
			Joins("JOIN users AS farmers ON farmers.id = permit_applications.farmer_id").
			Joins("JOIN societies ON societies.id = permit_applications.society_id").
			Joins("JOIN factories ON factories.id = permit_applications.factory_id").
			Joins("JOIN warehouses ON warehouses.id = permit_applications.warehouse_id").
			Where(`permit_applications.ref_no ILIKE ? OR farmers.first_name ILIKE ? OR farmers.last_name ILIKE ?
				OR societies.name ILIKE ? OR factories.name ILIKE ? OR warehouses.name ILIKE ?`,
				pattern, pattern, pattern, pattern, pattern, pattern)
	}

	if filter.IsValid != nil {
		today := models.DateOnly(s.clock.Now())
		if *filter.IsValid {
			query = query.Where("permit_applications.status = ? AND permit_applications.delivery_start <= ? AND permit_applications.delivery_end >= ?",
				models.PermitStatusApproved, today, today)
		} else {
			query = query.Not("permit_applications.status = ? AND permit_applications.delivery_start <= ? AND permit_applications.delivery_end >= ?",
				models.PermitStatusApproved, today, today)
		}
	}
	return query
}

func statusPtr(s models.PermitStatus) *models.PermitStatus { return &s }
