// internal/services/transitions.go
package services

import (
	"fmt"
	"time"

	"github.com/mcgboard/permits-backend/internal/models"
)

// The apply* helpers mutate permit fields for a transition without touching
// the database, so the state machine rules stay testable in isolation. The
// service wraps each one in a per-permit transaction.

func applyApproval(p *models.PermitApplication, actor Actor, now time.Time) error {
	if p.Status != models.PermitStatusPending {
		return fmt.Errorf("%w: only pending permits can be approved", ErrInvalidTransition)
	}
	start := models.DateOnly(now)
	end := start.AddDate(0, 0, models.DeliveryWindowDays)
	p.Status = models.PermitStatusApproved
	p.ApprovedByID = &actor.UserID
	p.ApprovedAt = &now
	p.DeliveryStart = &start
	p.DeliveryEnd = &end
	return nil
}

func applyRejection(p *models.PermitApplication, actor Actor, reason string, now time.Time) error {
	if p.Status != models.PermitStatusPending {
		return fmt.Errorf("%w: only pending permits can be rejected", ErrInvalidTransition)
	}
	if reason == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	p.Status = models.PermitStatusRejected
	p.RejectedByID = &actor.UserID
	p.RejectedAt = &now
	p.RejectionReason = reason
	p.DeliveryStart = nil
	p.DeliveryEnd = nil
	return nil
}

func applyCancellation(p *models.PermitApplication, now time.Time) error {
	if p.Status != models.PermitStatusPending && p.Status != models.PermitStatusApproved {
		return fmt.Errorf("%w: only pending or approved permits can be cancelled", ErrInvalidTransition)
	}
	// Delivery window and ref number stay as they were.
	p.Status = models.PermitStatusCancelled
	return nil
}

// applyExpiry moves an overdue APPROVED permit to EXPIRED. It reports whether
// anything changed; calling it again is a no-op.
func applyExpiry(p *models.PermitApplication, now time.Time) bool {
	if !p.IsExpired(now) {
		return false
	}
	p.Status = models.PermitStatusExpired
	return true
}
