// internal/services/analytics_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcgboard/permits-backend/internal/models"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func permitOn(date time.Time, status models.PermitStatus, quantities ...models.CoffeeQuantity) models.PermitApplication {
	return models.PermitApplication{
		ApplicationDate:  date,
		Status:           status,
		CoffeeQuantities: quantities,
	}
}

func line(grade string, weightPerBag float64, bags int) models.CoffeeQuantity {
	return models.CoffeeQuantity{
		BagsQuantity: bags,
		CoffeeGrade:  models.CoffeeGrade{Grade: grade, WeightPerBag: weightPerBag},
	}
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("weekly")
	require.NoError(t, err)
	assert.Equal(t, GranularityWeekly, g)

	g, err = ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, GranularityMonthly, g)

	_, err = ParseGranularity("hourly")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPeriodKey(t *testing.T) {
	d := day(2025, time.January, 2)
	assert.Equal(t, "2025-01-02", PeriodKey(d, GranularityDaily))
	assert.Equal(t, "2025-W01", PeriodKey(d, GranularityWeekly))
	assert.Equal(t, "2025-01", PeriodKey(d, GranularityMonthly))
	assert.Equal(t, "2025-Q1", PeriodKey(d, GranularityQuarterly))

	// ISO week years differ from calendar years at the boundary.
	assert.Equal(t, "2025-W01", PeriodKey(day(2024, time.December, 30), GranularityWeekly))
	assert.Equal(t, "2025-Q4", PeriodKey(day(2025, time.November, 14), GranularityQuarterly))
}

func TestStatusCountsByPeriodZeroFills(t *testing.T) {
	permits := []models.PermitApplication{
		permitOn(day(2025, time.March, 3), models.PermitStatusApproved),
		permitOn(day(2025, time.March, 20), models.PermitStatusPending),
		permitOn(day(2025, time.May, 1), models.PermitStatusRejected),
	}

	rows := StatusCountsByPeriod(permits, GranularityMonthly)
	require.Len(t, rows, 2)

	assert.Equal(t, "2025-03", rows[0].Period)
	assert.Equal(t, "2025-05", rows[1].Period)

	// Every status key is present in every period, zero or not.
	for _, row := range rows {
		assert.Len(t, row.Counts, len(models.AllPermitStatuses))
	}
	assert.Equal(t, int64(1), rows[0].Counts[models.PermitStatusApproved])
	assert.Equal(t, int64(1), rows[0].Counts[models.PermitStatusPending])
	assert.Equal(t, int64(0), rows[0].Counts[models.PermitStatusExpired])
	assert.Equal(t, int64(1), rows[1].Counts[models.PermitStatusRejected])

	// Per-period counts add back up to the input size.
	var total int64
	for _, row := range rows {
		for _, count := range row.Counts {
			total += count
		}
	}
	assert.Equal(t, int64(len(permits)), total)
}

func TestStatusCountsByPeriodEmpty(t *testing.T) {
	assert.Empty(t, StatusCountsByPeriod(nil, GranularityDaily))
}

func TestWeightByPeriodAndGrade(t *testing.T) {
	permits := []models.PermitApplication{
		permitOn(day(2025, time.March, 3), models.PermitStatusApproved,
			line("AA", 50, 10), line("AB", 60, 5)),
		permitOn(day(2025, time.March, 10), models.PermitStatusApproved,
			line("AA", 50, 2)),
	}

	rows := WeightByPeriodAndGrade(permits, GranularityMonthly, AnalyticsRange{}, nil)
	require.Len(t, rows, 2)

	byGrade := map[string]float64{}
	for _, row := range rows {
		assert.Equal(t, "2025-03", row.Period)
		byGrade[row.Grade] = row.WeightKg
	}
	assert.InDelta(t, 600.0, byGrade["AA"], 0.001)
	assert.InDelta(t, 300.0, byGrade["AB"], 0.001)
}

func TestWeightByPeriodAndGradeCatalogZeroFill(t *testing.T) {
	permits := []models.PermitApplication{
		permitOn(day(2025, time.March, 3), models.PermitStatusApproved, line("AA", 50, 2)),
	}

	// PB has no rows this month but still appears because it is in the
	// catalog.
	rows := WeightByPeriodAndGrade(permits, GranularityMonthly, AnalyticsRange{}, []string{"AA", "PB"})
	require.Len(t, rows, 2)
	assert.Equal(t, "AA", rows[0].Grade)
	assert.InDelta(t, 100.0, rows[0].WeightKg, 0.001)
	assert.Equal(t, "PB", rows[1].Grade)
	assert.Zero(t, rows[1].WeightKg)
}

func TestWeightByPeriodAndGradeWeeklyGapFill(t *testing.T) {
	// Three ISO weeks apart; the week in between has no rows but must
	// still appear.
	permits := []models.PermitApplication{
		permitOn(day(2025, time.June, 2), models.PermitStatusApproved, line("AA", 50, 1)),
		permitOn(day(2025, time.June, 16), models.PermitStatusApproved, line("AA", 50, 3)),
	}

	rows := WeightByPeriodAndGrade(permits, GranularityWeekly, AnalyticsRange{}, nil)
	require.Len(t, rows, 3)

	assert.Equal(t, "2025-W23", rows[0].Period)
	assert.InDelta(t, 50.0, rows[0].WeightKg, 0.001)
	assert.Equal(t, "2025-W24", rows[1].Period)
	assert.Zero(t, rows[1].WeightKg)
	assert.Equal(t, "2025-W25", rows[2].Period)
	assert.InDelta(t, 150.0, rows[2].WeightKg, 0.001)
}

func TestWeightByPeriodAndGradeWeeklyCoversRequestedRange(t *testing.T) {
	// The range is wider than the data on both sides; the axis must span
	// the range, not just the weeks that had rows.
	start := day(2025, time.June, 1)
	end := day(2025, time.July, 31)
	permits := []models.PermitApplication{
		permitOn(day(2025, time.June, 2), models.PermitStatusApproved, line("AA", 50, 1)),
		permitOn(day(2025, time.June, 16), models.PermitStatusApproved, line("AA", 50, 3)),
	}

	rows := WeightByPeriodAndGrade(permits, GranularityWeekly, AnalyticsRange{StartDate: &start, EndDate: &end}, nil)
	require.Len(t, rows, 10)

	assert.Equal(t, "2025-W22", rows[0].Period)
	assert.Zero(t, rows[0].WeightKg)
	assert.Equal(t, "2025-W23", rows[1].Period)
	assert.InDelta(t, 50.0, rows[1].WeightKg, 0.001)
	assert.Equal(t, "2025-W25", rows[3].Period)
	assert.InDelta(t, 150.0, rows[3].WeightKg, 0.001)
	assert.Equal(t, "2025-W31", rows[9].Period)
	assert.Zero(t, rows[9].WeightKg)
}

func TestWeightByPeriodAndGradeBoundedRangeNoRows(t *testing.T) {
	// A bounded range with no permits still yields the zero-filled axis
	// for the catalog grades.
	start := day(2024, time.January, 15)
	end := day(2024, time.December, 15)

	rows := WeightByPeriodAndGrade(nil, GranularityQuarterly, AnalyticsRange{StartDate: &start, EndDate: &end}, []string{"AA"})
	require.Len(t, rows, 4)
	for i, period := range []string{"2024-Q1", "2024-Q2", "2024-Q3", "2024-Q4"} {
		assert.Equal(t, period, rows[i].Period)
		assert.Equal(t, "AA", rows[i].Grade)
		assert.Zero(t, rows[i].WeightKg)
	}
}

func TestWeightByPeriodAndGradeQuarterlyGapFill(t *testing.T) {
	permits := []models.PermitApplication{
		permitOn(day(2024, time.February, 1), models.PermitStatusApproved, line("AA", 50, 1)),
		permitOn(day(2024, time.November, 1), models.PermitStatusApproved, line("AA", 50, 1)),
	}

	rows := WeightByPeriodAndGrade(permits, GranularityQuarterly, AnalyticsRange{}, nil)
	require.Len(t, rows, 4)
	assert.Equal(t, "2024-Q1", rows[0].Period)
	assert.Equal(t, "2024-Q2", rows[1].Period)
	assert.Zero(t, rows[1].WeightKg)
	assert.Equal(t, "2024-Q3", rows[2].Period)
	assert.Zero(t, rows[2].WeightKg)
	assert.Equal(t, "2024-Q4", rows[3].Period)
}

func TestWeightByPeriodAndGradeEmpty(t *testing.T) {
	assert.Empty(t, WeightByPeriodAndGrade(nil, GranularityWeekly, AnalyticsRange{}, nil))
}

func TestTopTotalsByDimension(t *testing.T) {
	mukuyu := models.Society{Name: "Mukuyu"}
	gitwe := models.Society{Name: "Gitwe"}

	permits := []models.PermitApplication{
		{Society: mukuyu, CoffeeQuantities: []models.CoffeeQuantity{line("AA", 50, 10)}},
		{Society: gitwe, CoffeeQuantities: []models.CoffeeQuantity{line("AA", 50, 4), line("AB", 60, 20)}},
	}

	rows := TopTotalsByDimension(permits, TopBySociety, 10, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "Gitwe", rows[0].Name)
	assert.InDelta(t, 1400.0, rows[0].WeightKg, 0.001)
	assert.Equal(t, "Mukuyu", rows[1].Name)

	// Excluding a grade removes its contribution everywhere.
	rows = TopTotalsByDimension(permits, TopBySociety, 10, []string{"AB"})
	require.Len(t, rows, 2)
	assert.Equal(t, "Mukuyu", rows[0].Name)
	assert.InDelta(t, 500.0, rows[0].WeightKg, 0.001)
	assert.Equal(t, "Gitwe", rows[1].Name)
	assert.InDelta(t, 200.0, rows[1].WeightKg, 0.001)

	rows = TopTotalsByDimension(permits, TopByGrade, 1, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "AB", rows[0].Name)
}

func TestCumulativeStatusByDay(t *testing.T) {
	d1 := day(2025, time.April, 1)
	d2 := day(2025, time.April, 3)
	d3 := day(2025, time.April, 7)

	permits := []models.PermitApplication{
		{Status: models.PermitStatusApproved, ApprovedAt: &d1},
		{Status: models.PermitStatusApproved, ApprovedAt: &d2},
		{Status: models.PermitStatusRejected, RejectedAt: &d2},
		{Status: models.PermitStatusApproved, ApprovedAt: &d3},
		// An expired permit was still approved once.
		{Status: models.PermitStatusExpired, ApprovedAt: &d3},
		// Pending permits contribute nothing.
		{Status: models.PermitStatusPending},
	}

	rows := CumulativeStatusByDay(permits)
	require.Len(t, rows, 3)

	assert.Equal(t, "2025-04-01", rows[0].Date)
	assert.Equal(t, int64(1), rows[0].CumulativeApproved)
	assert.Equal(t, int64(0), rows[0].CumulativeRejected)

	assert.Equal(t, "2025-04-03", rows[1].Date)
	assert.Equal(t, int64(2), rows[1].CumulativeApproved)
	assert.Equal(t, int64(1), rows[1].CumulativeRejected)

	assert.Equal(t, "2025-04-07", rows[2].Date)
	assert.Equal(t, int64(4), rows[2].CumulativeApproved)
	assert.Equal(t, int64(1), rows[2].CumulativeRejected)

	// Running totals never decrease.
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i].CumulativeApproved, rows[i-1].CumulativeApproved)
		assert.GreaterOrEqual(t, rows[i].CumulativeRejected, rows[i-1].CumulativeRejected)
	}
}

func TestCumulativeStatusByDayEmpty(t *testing.T) {
	assert.Empty(t, CumulativeStatusByDay(nil))
}

func TestPermitVisibleTo(t *testing.T) {
	societyID := uuid.New()
	farmerID := uuid.New()
	permit := &models.PermitApplication{SocietyID: societyID, FarmerID: farmerID}

	staff := Actor{UserID: uuid.New(), Role: models.UserRoleStaff}
	assert.True(t, PermitVisibleTo(staff, permit))

	manager := Actor{UserID: uuid.New(), Role: models.UserRoleSocietyManager, ManagedSocietyID: &societyID}
	assert.True(t, PermitVisibleTo(manager, permit))

	otherSociety := uuid.New()
	outsider := Actor{UserID: uuid.New(), Role: models.UserRoleSocietyManager, ManagedSocietyID: &otherSociety}
	assert.False(t, PermitVisibleTo(outsider, permit))

	farmer := Actor{UserID: farmerID, Role: models.UserRoleFarmer}
	assert.True(t, PermitVisibleTo(farmer, permit))

	stranger := Actor{UserID: uuid.New(), Role: models.UserRoleFarmer}
	assert.False(t, PermitVisibleTo(stranger, permit))
}
