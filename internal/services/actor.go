// internal/services/actor.go
package services

import (
	"github.com/google/uuid"

	"github.com/mcgboard/permits-backend/internal/models"
)

// Actor is the resolved authorization context every core operation receives.
// Credential checks happen upstream; the core only consumes the triple.
type Actor struct {
	UserID           uuid.UUID
	Role             models.UserRole
	ManagedSocietyID *uuid.UUID
}

func (a Actor) IsStaff() bool { return a.Role.IsStaff() }

func (a Actor) ManagesSociety(societyID uuid.UUID) bool {
	return a.ManagedSocietyID != nil && *a.ManagedSocietyID == societyID
}
