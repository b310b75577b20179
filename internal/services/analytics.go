// internal/services/analytics.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/mcgboard/permits-backend/internal/models"
)

// Granularity is a time bucket size for analytics series.
type Granularity string

const (
	GranularityDaily     Granularity = "daily"
	GranularityWeekly    Granularity = "weekly"
	GranularityMonthly   Granularity = "monthly"
	GranularityQuarterly Granularity = "quarterly"
)

// ParseGranularity validates a caller-supplied granularity, defaulting to
// monthly when empty.
func ParseGranularity(raw string) (Granularity, error) {
	switch Granularity(raw) {
	case GranularityDaily, GranularityWeekly, GranularityMonthly, GranularityQuarterly:
		return Granularity(raw), nil
	case "":
		return GranularityMonthly, nil
	default:
		return "", fmt.Errorf("%w: unknown granularity %q", ErrValidation, raw)
	}
}

// StatusCountRow is one period of the status-by-period series. Every status
// key is always present, zero when no permit matched.
type StatusCountRow struct {
	Period string                        `json:"period"`
	Counts map[models.PermitStatus]int64 `json:"counts"`
}

// WeightRow is one (period, grade) cell of the weight series.
type WeightRow struct {
	Period   string  `json:"period"`
	Grade    string  `json:"grade"`
	WeightKg float64 `json:"weight_kg"`
}

// DimensionTotal is one entry of a top-N rollup.
type DimensionTotal struct {
	Name     string  `json:"name"`
	WeightKg float64 `json:"weight_kg"`
}

// CumulativeStatusRow is one day of the running approval/rejection totals.
type CumulativeStatusRow struct {
	Date               string `json:"date"`
	CumulativeApproved int64  `json:"cumulative_approved"`
	CumulativeRejected int64  `json:"cumulative_rejected"`
}

// PeriodKey truncates a date to its granularity boundary and renders the
// canonical key: YYYY-MM-DD, ISO YYYY-Www, YYYY-MM, or YYYY-Qn.
func PeriodKey(date time.Time, granularity Granularity) string {
	switch granularity {
	case GranularityDaily:
		return date.Format("2006-01-02")
	case GranularityWeekly:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GranularityQuarterly:
		quarter := (int(date.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", date.Year(), quarter)
	default:
		return date.Format("2006-01")
	}
}

// weekStart returns the Monday on or before the given date.
func weekStart(date time.Time) time.Time {
	date = models.DateOnly(date)
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// quarterStart returns the first day of the date's calendar quarter.
func quarterStart(date time.Time) time.Time {
	month := time.Month(((int(date.Month())-1)/3)*3 + 1)
	return time.Date(date.Year(), month, 1, 0, 0, 0, 0, date.Location())
}

// enumeratePeriods lists every period key between start and end inclusive.
// Weekly periods are Monday-aligned, quarterly periods calendar-aligned, so
// charts get a continuous axis even across empty buckets.
func enumeratePeriods(start, end time.Time, granularity Granularity) []string {
	if end.Before(start) {
		return nil
	}
	var keys []string
	switch granularity {
	case GranularityWeekly:
		for cursor := weekStart(start); !cursor.After(end); cursor = cursor.AddDate(0, 0, 7) {
			keys = append(keys, PeriodKey(cursor, granularity))
		}
	case GranularityQuarterly:
		for cursor := quarterStart(start); !cursor.After(end); cursor = cursor.AddDate(0, 3, 0) {
			keys = append(keys, PeriodKey(cursor, granularity))
		}
	case GranularityDaily:
		for cursor := models.DateOnly(start); !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
			keys = append(keys, PeriodKey(cursor, granularity))
		}
	default:
		start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
		for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
			keys = append(keys, PeriodKey(cursor, granularity))
		}
	}
	return keys
}

// StatusCountsByPeriod buckets permits by application date and counts per
// status. Every emitted period carries every status key, zero-filled.
func StatusCountsByPeriod(permits []models.PermitApplication, granularity Granularity) []StatusCountRow {
	buckets := make(map[string]map[models.PermitStatus]int64)
	for i := range permits {
		key := PeriodKey(permits[i].ApplicationDate, granularity)
		if buckets[key] == nil {
			buckets[key] = zeroStatusCounts()
		}
		buckets[key][permits[i].Status]++
	}

	rows := make([]StatusCountRow, 0, len(buckets))
	for key, counts := range buckets {
		rows = append(rows, StatusCountRow{Period: key, Counts: counts})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })
	return rows
}

func zeroStatusCounts() map[models.PermitStatus]int64 {
	counts := make(map[models.PermitStatus]int64, len(models.AllPermitStatuses))
	for _, status := range models.AllPermitStatuses {
		counts[status] = 0
	}
	return counts
}

// WeightByPeriodAndGrade sums line weights grouped by (period, grade). Every
// grade from the catalog plus every observed grade is present in every
// emitted period, zero-filled, so chart legends stay stable across queries.
// Weekly and quarterly series enumerate every period across the requested
// range, not just the extent of the data, so a range wider than the rows
// still renders a continuous axis; an open range side falls back to the
// earliest or latest application date.
func WeightByPeriodAndGrade(permits []models.PermitApplication, granularity Granularity, r AnalyticsRange, catalogGrades []string) []WeightRow {
	totals := make(map[string]map[string]float64)
	grades := make(map[string]struct{}, len(catalogGrades))
	for _, grade := range catalogGrades {
		grades[grade] = struct{}{}
	}
	var minDate, maxDate time.Time

	for i := range permits {
		p := &permits[i]
		if minDate.IsZero() || p.ApplicationDate.Before(minDate) {
			minDate = p.ApplicationDate
		}
		if maxDate.IsZero() || p.ApplicationDate.After(maxDate) {
			maxDate = p.ApplicationDate
		}
		key := PeriodKey(p.ApplicationDate, granularity)
		if totals[key] == nil {
			totals[key] = make(map[string]float64)
		}
		for _, q := range p.CoffeeQuantities {
			grade := q.CoffeeGrade.Grade
			grades[grade] = struct{}{}
			totals[key][grade] += q.TotalWeight()
		}
	}

	start, end := minDate, maxDate
	if r.StartDate != nil {
		start = models.DateOnly(*r.StartDate)
	}
	if r.EndDate != nil {
		end = models.DateOnly(*r.EndDate)
	}

	var periods []string
	if granularity == GranularityWeekly || granularity == GranularityQuarterly {
		if start.IsZero() || end.IsZero() {
			return []WeightRow{}
		}
		periods = enumeratePeriods(start, end, granularity)
	} else {
		if len(totals) == 0 {
			return []WeightRow{}
		}
		periods = make([]string, 0, len(totals))
		for key := range totals {
			periods = append(periods, key)
		}
		sort.Strings(periods)
	}

	gradeNames := make([]string, 0, len(grades))
	for grade := range grades {
		gradeNames = append(gradeNames, grade)
	}
	sort.Strings(gradeNames)
	if len(periods) == 0 || len(gradeNames) == 0 {
		return []WeightRow{}
	}

	rows := make([]WeightRow, 0, len(periods)*len(gradeNames))
	for _, period := range periods {
		for _, grade := range gradeNames {
			rows = append(rows, WeightRow{Period: period, Grade: grade, WeightKg: totals[period][grade]})
		}
	}
	return rows
}

// TopDimension names the grouping axis of a top-N rollup.
type TopDimension string

const (
	TopBySociety TopDimension = "society"
	TopByFactory TopDimension = "factory"
	TopByGrade   TopDimension = "grade"
)

// TopTotalsByDimension sums coffee weight per society, factory, or grade and
// returns the heaviest limit entries in descending order. Grades named in
// excludeGrades contribute nothing.
func TopTotalsByDimension(permits []models.PermitApplication, dimension TopDimension, limit int, excludeGrades []string) []DimensionTotal {
	excluded := make(map[string]struct{}, len(excludeGrades))
	for _, grade := range excludeGrades {
		excluded[grade] = struct{}{}
	}

	totals := make(map[string]float64)
	for i := range permits {
		p := &permits[i]
		for _, q := range p.CoffeeQuantities {
			if _, skip := excluded[q.CoffeeGrade.Grade]; skip {
				continue
			}
			var name string
			switch dimension {
			case TopBySociety:
				name = p.Society.Name
			case TopByFactory:
				name = p.Factory.Name
			default:
				name = q.CoffeeGrade.Grade
			}
			totals[name] += q.TotalWeight()
		}
	}

	rows := make([]DimensionTotal, 0, len(totals))
	for name, weight := range totals {
		rows = append(rows, DimensionTotal{Name: name, WeightKg: weight})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WeightKg != rows[j].WeightKg {
			return rows[i].WeightKg > rows[j].WeightKg
		}
		return rows[i].Name < rows[j].Name
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// CumulativeStatusByDay emits one row per day on which at least one approval
// or rejection happened, carrying running totals. Both totals are
// non-decreasing over the series.
func CumulativeStatusByDay(permits []models.PermitApplication) []CumulativeStatusRow {
	type dayCounts struct {
		approved int64
		rejected int64
	}
	days := make(map[string]*dayCounts)

	record := func(at *time.Time, approved bool) {
		if at == nil {
			return
		}
		key := at.Format("2006-01-02")
		if days[key] == nil {
			days[key] = &dayCounts{}
		}
		if approved {
			days[key].approved++
		} else {
			days[key].rejected++
		}
	}
	for i := range permits {
		p := &permits[i]
		switch p.Status {
		case models.PermitStatusApproved, models.PermitStatusExpired:
			record(p.ApprovedAt, true)
		case models.PermitStatusRejected:
			record(p.RejectedAt, false)
		}
	}

	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]CumulativeStatusRow, 0, len(keys))
	var approved, rejected int64
	for _, key := range keys {
		approved += days[key].approved
		rejected += days[key].rejected
		rows = append(rows, CumulativeStatusRow{Date: key, CumulativeApproved: approved, CumulativeRejected: rejected})
	}
	return rows
}
