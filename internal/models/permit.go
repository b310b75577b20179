// internal/models/permit.go
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RefNoPrefix is the fixed lead-in of every permit reference number.
const RefNoPrefix = "MCG-CD"

// DeliveryWindowDays is the length of the delivery window granted on approval.
const DeliveryWindowDays = 7

type PermitApplication struct {
	BaseModel
	RefNo       *string   `json:"ref_no" gorm:"type:varchar(30);uniqueIndex"`
	FarmerID    uuid.UUID `json:"farmer_id" gorm:"type:uuid;not null;index"`
	SocietyID   uuid.UUID `json:"society_id" gorm:"type:uuid;not null;index"`
	FactoryID   uuid.UUID `json:"factory_id" gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID `json:"warehouse_id" gorm:"type:uuid;not null;index"`

	ApplicationDate time.Time  `json:"application_date" gorm:"not null;index"`
	DeliveryStart   *time.Time `json:"delivery_start" gorm:"type:date"`
	DeliveryEnd     *time.Time `json:"delivery_end" gorm:"type:date"`

	Status          PermitStatus `json:"status" gorm:"type:varchar(10);default:'PENDING';index"`
	ApprovedByID    *uuid.UUID   `json:"approved_by_id" gorm:"type:uuid"`
	ApprovedAt      *time.Time   `json:"approved_at"`
	RejectedByID    *uuid.UUID   `json:"rejected_by_id" gorm:"type:uuid"`
	RejectedAt      *time.Time   `json:"rejected_at"`
	RejectionReason string       `json:"rejection_reason,omitempty" gorm:"type:text"`

	// Relationships
	Farmer           User             `json:"farmer,omitempty" gorm:"foreignKey:FarmerID"`
	Society          Society          `json:"society,omitempty" gorm:"foreignKey:SocietyID"`
	Factory          Factory          `json:"factory,omitempty" gorm:"foreignKey:FactoryID"`
	Warehouse        Warehouse        `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
	ApprovedBy       *User            `json:"approved_by,omitempty" gorm:"foreignKey:ApprovedByID"`
	RejectedBy       *User            `json:"rejected_by,omitempty" gorm:"foreignKey:RejectedByID"`
	CoffeeQuantities []CoffeeQuantity `json:"coffee_quantities,omitempty" gorm:"foreignKey:ApplicationID"`
}

// CoffeeQuantity is a per-grade line owned by exactly one permit. At most one
// line per (application, grade) pair.
type CoffeeQuantity struct {
	BaseModel
	ApplicationID uuid.UUID `json:"application_id" gorm:"type:uuid;not null;index;uniqueIndex:uq_permit_grade"`
	CoffeeGradeID uuid.UUID `json:"coffee_grade_id" gorm:"type:uuid;not null;uniqueIndex:uq_permit_grade"`
	BagsQuantity  int       `json:"bags_quantity" gorm:"not null;check:bags_quantity > 0"`

	CoffeeGrade CoffeeGrade `json:"coffee_grade,omitempty" gorm:"foreignKey:CoffeeGradeID"`
}

// TotalWeight is the line weight in kilograms.
func (q *CoffeeQuantity) TotalWeight() float64 {
	return float64(q.BagsQuantity) * q.CoffeeGrade.WeightPerBag
}

// TotalBags sums bag counts over the owned quantity lines; 0 with no lines.
func (p *PermitApplication) TotalBags() int {
	total := 0
	for _, q := range p.CoffeeQuantities {
		total += q.BagsQuantity
	}
	return total
}

// TotalWeight sums bags × weight-per-bag over the owned lines, in kilograms.
func (p *PermitApplication) TotalWeight() float64 {
	total := 0.0
	for _, q := range p.CoffeeQuantities {
		total += q.TotalWeight()
	}
	return total
}

// IsValid reports whether the permit authorizes delivery on the given day:
// approved and the day falls inside the delivery window.
func (p *PermitApplication) IsValid(today time.Time) bool {
	if p.Status != PermitStatusApproved || p.DeliveryStart == nil || p.DeliveryEnd == nil {
		return false
	}
	day := DateOnly(today)
	return !day.Before(DateOnly(*p.DeliveryStart)) && !day.After(DateOnly(*p.DeliveryEnd))
}

// IsExpired reports whether an APPROVED permit is past its delivery window.
// Once the expiry check transitions the permit to EXPIRED this reads false
// again; it signals overdue-ness, not the EXPIRED state.
func (p *PermitApplication) IsExpired(today time.Time) bool {
	return p.Status == PermitStatusApproved &&
		p.DeliveryEnd != nil &&
		DateOnly(today).After(DateOnly(*p.DeliveryEnd))
}

// CoffeeYear labels the season containing the given date. A season runs
// October 1 through September 30 and is written "YYYY/YY" with the last two
// digits of the end year, e.g. "2025/26".
func CoffeeYear(date time.Time) string {
	year := date.Year()
	start, end := year, year+1
	if date.Month() < time.October {
		start, end = year-1, year
	}
	return fmt.Sprintf("%d/%02d", start, end%100)
}

// RefNoForYear formats a permit reference number for a coffee year and
// sequence, e.g. "MCG-CD/2025/26 MP 007".
func RefNoForYear(coffeeYear string, seq int) string {
	return fmt.Sprintf("%s/%s MP %03d", RefNoPrefix, coffeeYear, seq)
}

// RefNoYearPrefix is the shared prefix of every ref number in a coffee year.
func RefNoYearPrefix(coffeeYear string) string {
	return fmt.Sprintf("%s/%s", RefNoPrefix, coffeeYear)
}

// ParseRefNoSequence extracts the trailing sequence number from a reference
// number. It returns 0 and false when the ref number does not parse.
func ParseRefNoSequence(refNo string) (int, bool) {
	idx := strings.LastIndex(refNo, "MP")
	if idx < 0 {
		return 0, false
	}
	seq, err := strconv.Atoi(strings.TrimSpace(refNo[idx+2:]))
	if err != nil {
		return 0, false
	}
	return seq, true
}

// DateOnly truncates a time to midnight UTC so date comparisons ignore the
// time of day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
