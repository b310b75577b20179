// internal/services/permit_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mcgboard/permits-backend/internal/models"
	"github.com/mcgboard/permits-backend/internal/utils"
)

type PermitService struct {
	db            *gorm.DB
	notifications NotificationSink
	clock         Clock
	log           *logrus.Logger
}

type CoffeeQuantityInput struct {
	CoffeeGradeID uuid.UUID `json:"coffee_grade_id" validate:"required"`
	BagsQuantity  int       `json:"bags_quantity" validate:"required,min=1"`
}

type SubmitPermitRequest struct {
	SocietyID        uuid.UUID             `json:"society_id" validate:"required"`
	FactoryID        uuid.UUID             `json:"factory_id" validate:"required"`
	WarehouseID      uuid.UUID             `json:"warehouse_id" validate:"required"`
	CoffeeQuantities []CoffeeQuantityInput `json:"coffee_quantities" validate:"required,min=1,dive"`
}

type RejectPermitRequest struct {
	Reason string `json:"rejection_reason" validate:"required"`
}

type BulkPermitRequest struct {
	PermitIDs []uuid.UUID `json:"permit_ids" validate:"required,min=1"`
	Reason    string      `json:"rejection_reason,omitempty"`
}

func NewPermitService(db *gorm.DB, notifications NotificationSink, clock Clock, log *logrus.Logger) *PermitService {
	if clock == nil {
		clock = SystemClock()
	}
	return &PermitService{
		db:            db,
		notifications: notifications,
		clock:         clock,
		log:           log,
	}
}

// Submit creates a PENDING permit owned by the society's manager along with
// its quantity lines, then notifies staff of the new application.
func (s *PermitService) Submit(ctx context.Context, actor Actor, req *SubmitPermitRequest) (*models.PermitApplication, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if actor.ManagedSocietyID == nil {
		return nil, fmt.Errorf("%w: only society managers can apply for permits", ErrValidation)
	}
	if *actor.ManagedSocietyID != req.SocietyID {
		return nil, fmt.Errorf("%w: you can only apply for permits for your own society", ErrValidation)
	}

	var society models.Society
	if err := s.db.WithContext(ctx).Preload("Manager").First(&society, "id = ?", req.SocietyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: society", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var factory models.Factory
	if err := s.db.WithContext(ctx).First(&factory, "id = ?", req.FactoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: factory", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if factory.SocietyID != society.ID {
		return nil, fmt.Errorf("%w: factory must belong to the selected society", ErrValidation)
	}
	if !factory.IsActive {
		return nil, fmt.Errorf("%w: selected factory is not active", ErrValidation)
	}

	var warehouse models.Warehouse
	if err := s.db.WithContext(ctx).First(&warehouse, "id = ?", req.WarehouseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: warehouse", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !warehouse.IsActive {
		return nil, fmt.Errorf("%w: selected warehouse is not active", ErrValidation)
	}

	seenGrades := make(map[uuid.UUID]bool, len(req.CoffeeQuantities))
	for _, line := range req.CoffeeQuantities {
		if line.BagsQuantity < 1 {
			return nil, fmt.Errorf("%w: number of bags must be at least 1", ErrValidation)
		}
		if seenGrades[line.CoffeeGradeID] {
			return nil, fmt.Errorf("%w: duplicate coffee grade in quantity lines", ErrValidation)
		}
		seenGrades[line.CoffeeGradeID] = true
	}

	permit := &models.PermitApplication{
		FarmerID:        society.ManagerID,
		SocietyID:       society.ID,
		FactoryID:       factory.ID,
		WarehouseID:     warehouse.ID,
		ApplicationDate: s.clock.Now(),
		Status:          models.PermitStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(permit).Error; err != nil {
			return fmt.Errorf("failed to create permit application: %w", err)
		}
		for _, line := range req.CoffeeQuantities {
			var grade models.CoffeeGrade
			if err := tx.First(&grade, "id = ?", line.CoffeeGradeID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: coffee grade", ErrNotFound)
				}
				return fmt.Errorf("database error: %w", err)
			}
			quantity := &models.CoffeeQuantity{
				ApplicationID: permit.ID,
				CoffeeGradeID: grade.ID,
				BagsQuantity:  line.BagsQuantity,
			}
			if err := tx.Create(quantity).Error; err != nil {
				return fmt.Errorf("failed to create coffee quantity: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.preloadPermit(ctx, permit)

	go s.notifications.NotifyStaff(context.Background(),
		models.NotificationNewPermit,
		fmt.Sprintf("A new permit application has been submitted by %s.", society.Name),
		fmt.Sprintf("/admin/permits/%s", permit.ID),
	)

	return permit, nil
}

// Approve moves a PENDING permit to APPROVED, allocating a reference number
// on first approval/rejection and granting the delivery window. The whole
// transition runs as one transaction; a ref-number collision from a
// concurrent allocation is retried once before surfacing as a conflict.
func (s *PermitService) Approve(ctx context.Context, actor Actor, permitID uuid.UUID) (*models.PermitApplication, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff members can approve permits", ErrAuthorization)
	}

	permit, err := s.transitionWithRefNo(ctx, permitID, func(p *models.PermitApplication, now time.Time) error {
		return applyApproval(p, actor, now)
	})
	if err != nil {
		return nil, err
	}

	go s.notifyOutcome(permit, models.NotificationPermitApproved,
		fmt.Sprintf("Your permit application (Ref: %s) has been approved.", derefRefNo(permit.RefNo)))

	return permit, nil
}

// Reject moves a PENDING permit to REJECTED. A reference number is still
// allocated so the decision is citable; the delivery window is cleared.
func (s *PermitService) Reject(ctx context.Context, actor Actor, permitID uuid.UUID, req *RejectPermitRequest) (*models.PermitApplication, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff members can reject permits", ErrAuthorization)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	permit, err := s.transitionWithRefNo(ctx, permitID, func(p *models.PermitApplication, now time.Time) error {
		return applyRejection(p, actor, req.Reason, now)
	})
	if err != nil {
		return nil, err
	}

	go s.notifyOutcome(permit, models.NotificationPermitRejected,
		fmt.Sprintf("Your permit application (Ref: %s) has been rejected. Reason: %s", derefRefNo(permit.RefNo), req.Reason))

	return permit, nil
}

// Cancel moves a PENDING or APPROVED permit to CANCELLED. Staff may cancel
// any permit; a society manager only their own society's.
func (s *PermitService) Cancel(ctx context.Context, actor Actor, permitID uuid.UUID) (*models.PermitApplication, error) {
	var permit *models.PermitApplication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.loadPermit(tx, permitID)
		if err != nil {
			return err
		}
		if !actor.IsStaff() && !actor.ManagesSociety(p.SocietyID) && actor.UserID != p.FarmerID {
			return fmt.Errorf("%w: you cannot cancel this permit", ErrAuthorization)
		}
		if err := applyCancellation(p, s.clock.Now()); err != nil {
			return err
		}
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to update permit: %w", err)
		}
		permit = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.preloadPermit(ctx, permit)

	go s.notifyOutcome(permit, models.NotificationPermitCancelled,
		fmt.Sprintf("Your permit application (Ref: %s) has been cancelled.", derefRefNo(permit.RefNo)))

	return permit, nil
}

// CheckExpiration is the single idempotent expiry touchpoint: if the permit
// is APPROVED and past its delivery end, it becomes EXPIRED and is persisted.
// Call sites must not duplicate the predicate.
func (s *PermitService) CheckExpiration(ctx context.Context, permit *models.PermitApplication) error {
	if !applyExpiry(permit, s.clock.Now()) {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(permit).Update("status", models.PermitStatusExpired).Error; err != nil {
		return fmt.Errorf("failed to expire permit: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"permit": permit.ID,
		"ref_no": derefRefNo(permit.RefNo),
	}).Info("permit expired")
	return nil
}

// RunExpirySweep walks every APPROVED permit and applies the expiry check.
// It returns the count transitioned to EXPIRED.
func (s *PermitService) RunExpirySweep(ctx context.Context) (int, error) {
	var permits []models.PermitApplication
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PermitStatusApproved).
		Find(&permits).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load approved permits: %w", err)
	}

	expired := 0
	for i := range permits {
		before := permits[i].Status
		if err := s.CheckExpiration(ctx, &permits[i]); err != nil {
			s.log.WithError(err).WithField("permit", permits[i].ID).Warn("expiry check failed")
			continue
		}
		if before != permits[i].Status {
			expired++
		}
	}
	return expired, nil
}

// BulkApprove applies the approval transition to each eligible permit, one
// transaction per permit. Ineligible or missing permits are skipped; the
// count of permits actually approved is returned.
func (s *PermitService) BulkApprove(ctx context.Context, actor Actor, permitIDs []uuid.UUID) (int, error) {
	if !actor.IsStaff() {
		return 0, fmt.Errorf("%w: only staff members can approve permits", ErrAuthorization)
	}
	if len(permitIDs) == 0 {
		return 0, fmt.Errorf("%w: no permit IDs provided", ErrValidation)
	}
	affected := 0
	for _, id := range permitIDs {
		if _, err := s.Approve(ctx, actor, id); err != nil {
			if isSkippableBulkError(err) {
				continue
			}
			return affected, err
		}
		affected++
	}
	return affected, nil
}

func (s *PermitService) BulkReject(ctx context.Context, actor Actor, permitIDs []uuid.UUID, reason string) (int, error) {
	if !actor.IsStaff() {
		return 0, fmt.Errorf("%w: only staff members can reject permits", ErrAuthorization)
	}
	if len(permitIDs) == 0 {
		return 0, fmt.Errorf("%w: no permit IDs provided", ErrValidation)
	}
	if reason == "" {
		return 0, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	req := &RejectPermitRequest{Reason: reason}
	affected := 0
	for _, id := range permitIDs {
		if _, err := s.Reject(ctx, actor, id, req); err != nil {
			if isSkippableBulkError(err) {
				continue
			}
			return affected, err
		}
		affected++
	}
	return affected, nil
}

func (s *PermitService) BulkCancel(ctx context.Context, actor Actor, permitIDs []uuid.UUID) (int, error) {
	if len(permitIDs) == 0 {
		return 0, fmt.Errorf("%w: no permit IDs provided", ErrValidation)
	}
	affected := 0
	for _, id := range permitIDs {
		if _, err := s.Cancel(ctx, actor, id); err != nil {
			if isSkippableBulkError(err) || errors.Is(err, ErrAuthorization) {
				continue
			}
			return affected, err
		}
		affected++
	}
	return affected, nil
}

// GetPermit loads a permit with its associations, runs the lazy expiry check
// and enforces visibility for the actor.
func (s *PermitService) GetPermit(ctx context.Context, actor Actor, permitID uuid.UUID) (*models.PermitApplication, error) {
	var permit models.PermitApplication
	err := s.db.WithContext(ctx).
		Preload("Farmer").Preload("Society").Preload("Society.Manager").
		Preload("Factory").Preload("Warehouse").
		Preload("ApprovedBy").Preload("RejectedBy").
		Preload("CoffeeQuantities").Preload("CoffeeQuantities.CoffeeGrade").
		First(&permit, "id = ?", permitID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: permit", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.CheckExpiration(ctx, &permit); err != nil {
		return nil, err
	}

	if !PermitVisibleTo(actor, &permit) {
		return nil, fmt.Errorf("%w: you cannot view this permit", ErrAuthorization)
	}
	return &permit, nil
}

// transitionWithRefNo runs a transition inside a transaction, allocating the
// reference number first when the permit has never been decided. A duplicate
// ref_no from a concurrent allocation in the same coffee year triggers a
// single retry with a fresh scan before the conflict is surfaced.
func (s *PermitService) transitionWithRefNo(ctx context.Context, permitID uuid.UUID, apply func(*models.PermitApplication, time.Time) error) (*models.PermitApplication, error) {
	var permit *models.PermitApplication

	attempt := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p, err := s.loadPermit(tx, permitID)
			if err != nil {
				return err
			}
			now := s.clock.Now()
			if p.RefNo == nil {
				refNo, err := s.nextRefNo(tx, now)
				if err != nil {
					return err
				}
				p.RefNo = &refNo
			}
			if err := apply(p, now); err != nil {
				return err
			}
			if err := tx.Save(p).Error; err != nil {
				return fmt.Errorf("failed to update permit: %w", err)
			}
			permit = p
			return nil
		})
	}

	err := attempt()
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		s.log.WithField("permit", permitID).Warn("ref number collision, retrying allocation")
		err = attempt()
		if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: reference number allocation collided twice", ErrConflict)
		}
	}
	if err != nil {
		return nil, err
	}

	s.preloadPermit(ctx, permit)
	return permit, nil
}

// nextRefNo finds the highest sequence already allocated for the current
// coffee year and increments it, starting at 1 for a fresh year or when the
// stored ref numbers fail to parse.
func (s *PermitService) nextRefNo(tx *gorm.DB, now time.Time) (string, error) {
	year := models.CoffeeYear(now)
	prefix := models.RefNoYearPrefix(year)

	var last models.PermitApplication
	err := tx.
		Where("ref_no LIKE ?", prefix+"%").
		Order("ref_no DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to scan existing ref numbers: %w", err)
	}

	seq := 1
	if err == nil && last.RefNo != nil {
		if parsed, ok := models.ParseRefNoSequence(*last.RefNo); ok {
			seq = parsed + 1
		}
	}
	return models.RefNoForYear(year, seq), nil
}

func (s *PermitService) loadPermit(tx *gorm.DB, permitID uuid.UUID) (*models.PermitApplication, error) {
	var permit models.PermitApplication
	if err := tx.First(&permit, "id = ?", permitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: permit", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &permit, nil
}

func (s *PermitService) preloadPermit(ctx context.Context, permit *models.PermitApplication) {
	s.db.WithContext(ctx).
		Preload("Farmer").Preload("Society").Preload("Society.Manager").
		Preload("Factory").Preload("Warehouse").
		Preload("CoffeeQuantities").Preload("CoffeeQuantities.CoffeeGrade").
		First(permit, "id = ?", permit.ID)
}

// notifyOutcome tells the society manager and, when distinct, the farmer.
func (s *PermitService) notifyOutcome(permit *models.PermitApplication, notifType models.NotificationType, message string) {
	ctx := context.Background()
	link := fmt.Sprintf("/permits/%s", permit.ID)

	recipients := []models.User{permit.Society.Manager}
	if permit.FarmerID != permit.Society.ManagerID {
		recipients = append(recipients, permit.Farmer)
	}
	s.notifications.Notify(ctx, recipients, notifType, message, link)
}

func isSkippableBulkError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound)
}

func derefRefNo(refNo *string) string {
	if refNo == nil {
		return "Pending"
	}
	return *refNo
}
