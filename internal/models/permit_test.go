// internal/models/permit_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCoffeeYear(t *testing.T) {
	// The coffee year runs October through September.
	assert.Equal(t, "2024/25", CoffeeYear(date(2024, time.October, 1)))
	assert.Equal(t, "2024/25", CoffeeYear(date(2025, time.March, 15)))
	assert.Equal(t, "2024/25", CoffeeYear(date(2025, time.September, 30)))
	assert.Equal(t, "2025/26", CoffeeYear(date(2025, time.October, 1)))
	assert.Equal(t, "2023/24", CoffeeYear(date(2024, time.September, 30)))
}

func TestCoffeeYearCenturyRollover(t *testing.T) {
	assert.Equal(t, "2099/00", CoffeeYear(date(2099, time.November, 5)))
}

func TestRefNoForYear(t *testing.T) {
	assert.Equal(t, "MCG-CD/2024/25 MP 001", RefNoForYear("2024/25", 1))
	assert.Equal(t, "MCG-CD/2024/25 MP 042", RefNoForYear("2024/25", 42))
	assert.Equal(t, "MCG-CD/2024/25 MP 1000", RefNoForYear("2024/25", 1000))
}

func TestParseRefNoSequence(t *testing.T) {
	seq, ok := ParseRefNoSequence("MCG-CD/2024/25 MP 007")
	assert.True(t, ok)
	assert.Equal(t, 7, seq)

	seq, ok = ParseRefNoSequence("MCG-CD/2024/25 MP 123")
	assert.True(t, ok)
	assert.Equal(t, 123, seq)

	_, ok = ParseRefNoSequence("garbage")
	assert.False(t, ok)

	_, ok = ParseRefNoSequence("MCG-CD/2024/25 MP abc")
	assert.False(t, ok)
}

func TestPermitTotals(t *testing.T) {
	permit := PermitApplication{
		CoffeeQuantities: []CoffeeQuantity{
			{BagsQuantity: 10, CoffeeGrade: CoffeeGrade{Grade: "AA", WeightPerBag: 50}},
			{BagsQuantity: 5, CoffeeGrade: CoffeeGrade{Grade: "AB", WeightPerBag: 60}},
		},
	}

	assert.Equal(t, 15, permit.TotalBags())
	assert.InDelta(t, 800.0, permit.TotalWeight(), 0.001)
}

func TestPermitTotalsEmpty(t *testing.T) {
	permit := PermitApplication{}
	assert.Equal(t, 0, permit.TotalBags())
	assert.Zero(t, permit.TotalWeight())
}

func TestIsValid(t *testing.T) {
	start := date(2025, time.June, 1)
	end := date(2025, time.June, 8)
	permit := PermitApplication{
		Status:        PermitStatusApproved,
		DeliveryStart: &start,
		DeliveryEnd:   &end,
	}

	assert.False(t, permit.IsValid(date(2025, time.May, 31)))
	assert.True(t, permit.IsValid(start))
	assert.True(t, permit.IsValid(date(2025, time.June, 5)))
	assert.True(t, permit.IsValid(end))
	assert.False(t, permit.IsValid(date(2025, time.June, 9)))

	permit.Status = PermitStatusPending
	assert.False(t, permit.IsValid(date(2025, time.June, 5)))
}

func TestIsExpired(t *testing.T) {
	start := date(2025, time.June, 1)
	end := date(2025, time.June, 8)
	permit := PermitApplication{
		Status:        PermitStatusApproved,
		DeliveryStart: &start,
		DeliveryEnd:   &end,
	}

	assert.False(t, permit.IsExpired(end))
	assert.True(t, permit.IsExpired(date(2025, time.June, 9)))

	// Once the state machine lands on EXPIRED the flag goes quiet again;
	// overdue-ness only describes a still-APPROVED permit.
	permit.Status = PermitStatusExpired
	assert.False(t, permit.IsExpired(date(2025, time.June, 9)))

	permit.Status = PermitStatusApproved
	permit.DeliveryEnd = nil
	assert.False(t, permit.IsExpired(date(2025, time.June, 9)))
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, PermitStatusPending.IsTerminal())
	assert.False(t, PermitStatusApproved.IsTerminal())
	assert.True(t, PermitStatusRejected.IsTerminal())
	assert.True(t, PermitStatusCancelled.IsTerminal())
	assert.True(t, PermitStatusExpired.IsTerminal())
}
