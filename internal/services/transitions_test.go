// internal/services/transitions_test.go
package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcgboard/permits-backend/internal/models"
)

func staffActor() Actor {
	return Actor{UserID: uuid.New(), Role: models.UserRoleStaff}
}

func pendingPermit() *models.PermitApplication {
	return &models.PermitApplication{Status: models.PermitStatusPending}
}

func TestApplyApproval(t *testing.T) {
	actor := staffActor()
	now := time.Date(2025, time.June, 2, 14, 30, 0, 0, time.UTC)
	permit := pendingPermit()

	require.NoError(t, applyApproval(permit, actor, now))

	assert.Equal(t, models.PermitStatusApproved, permit.Status)
	assert.Equal(t, actor.UserID, *permit.ApprovedByID)
	assert.Equal(t, now, *permit.ApprovedAt)
	// The window opens on the approval date and spans seven days.
	assert.Equal(t, time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), *permit.DeliveryStart)
	assert.Equal(t, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC), *permit.DeliveryEnd)
}

func TestApplyApprovalRequiresPending(t *testing.T) {
	actor := staffActor()
	now := time.Now()

	for _, status := range []models.PermitStatus{
		models.PermitStatusApproved,
		models.PermitStatusRejected,
		models.PermitStatusCancelled,
		models.PermitStatusExpired,
	} {
		permit := &models.PermitApplication{Status: status}
		err := applyApproval(permit, actor, now)
		assert.ErrorIs(t, err, ErrInvalidTransition, string(status))
		assert.Equal(t, status, permit.Status)
	}
}

func TestApplyRejection(t *testing.T) {
	actor := staffActor()
	now := time.Now()
	start := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	permit := pendingPermit()
	permit.DeliveryStart = &start
	permit.DeliveryEnd = &end

	require.NoError(t, applyRejection(permit, actor, "incomplete documentation", now))

	assert.Equal(t, models.PermitStatusRejected, permit.Status)
	assert.Equal(t, "incomplete documentation", permit.RejectionReason)
	assert.Equal(t, actor.UserID, *permit.RejectedByID)
	assert.Nil(t, permit.DeliveryStart)
	assert.Nil(t, permit.DeliveryEnd)
}

func TestApplyRejectionRequiresReason(t *testing.T) {
	permit := pendingPermit()
	err := applyRejection(permit, staffActor(), "", time.Now())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, models.PermitStatusPending, permit.Status)
}

func TestApplyRejectionRequiresPending(t *testing.T) {
	permit := &models.PermitApplication{Status: models.PermitStatusApproved}
	err := applyRejection(permit, staffActor(), "reason", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyCancellation(t *testing.T) {
	now := time.Now()
	start := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	refNo := "MCG-CD/2024/25 MP 001"

	permit := &models.PermitApplication{
		Status:        models.PermitStatusApproved,
		RefNo:         &refNo,
		DeliveryStart: &start,
		DeliveryEnd:   &end,
	}
	require.NoError(t, applyCancellation(permit, now))

	// Cancellation freezes the permit as-is apart from the status.
	assert.Equal(t, models.PermitStatusCancelled, permit.Status)
	assert.Equal(t, refNo, *permit.RefNo)
	assert.Equal(t, start, *permit.DeliveryStart)
	assert.Equal(t, end, *permit.DeliveryEnd)

	pending := pendingPermit()
	require.NoError(t, applyCancellation(pending, now))
	assert.Equal(t, models.PermitStatusCancelled, pending.Status)
}

func TestApplyCancellationFromTerminalStates(t *testing.T) {
	for _, status := range []models.PermitStatus{
		models.PermitStatusRejected,
		models.PermitStatusCancelled,
		models.PermitStatusExpired,
	} {
		permit := &models.PermitApplication{Status: status}
		err := applyCancellation(permit, time.Now())
		assert.ErrorIs(t, err, ErrInvalidTransition, string(status))
	}
}

func TestApplyExpiry(t *testing.T) {
	start := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	permit := &models.PermitApplication{
		Status:        models.PermitStatusApproved,
		DeliveryStart: &start,
		DeliveryEnd:   &end,
	}

	// Inside the window nothing happens.
	assert.False(t, applyExpiry(permit, end))
	assert.Equal(t, models.PermitStatusApproved, permit.Status)

	overdue := end.AddDate(0, 0, 1)
	assert.True(t, applyExpiry(permit, overdue))
	assert.Equal(t, models.PermitStatusExpired, permit.Status)

	// Idempotent on the second pass.
	assert.False(t, applyExpiry(permit, overdue))
	assert.Equal(t, models.PermitStatusExpired, permit.Status)
}

func TestIsSkippableBulkError(t *testing.T) {
	assert.True(t, isSkippableBulkError(ErrInvalidTransition))
	assert.True(t, isSkippableBulkError(ErrNotFound))
	assert.False(t, isSkippableBulkError(ErrAuthorization))
	assert.False(t, isSkippableBulkError(errors.New("db down")))
}
