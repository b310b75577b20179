// internal/pdf/generator_test.go
package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePermitDocument(t *testing.T) {
	g := NewGenerator()

	artifact, err := g.GeneratePermitDocument(PermitDocument{
		RefNo:         "MCG-CD/2024/25 MP 001",
		Status:        "APPROVED",
		FarmerName:    "Jane Wanjiru",
		SocietyName:   "Mukuyu",
		FactoryName:   "Kiamabara",
		WarehouseName: "Sagana Depot",
		ApplicationAt: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		DeliveryStart: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		DeliveryEnd:   time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC),
		ApprovedBy:    "Board Staff",
		ApprovedAt:    time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		Lines: []PermitLine{
			{Grade: "AA", WeightPerBag: 50, Bags: 10, WeightKg: 500},
			{Grade: "AB", WeightPerBag: 60, Bags: 5, WeightKg: 300},
		},
		TotalBags:     15,
		TotalWeightKg: 800,
	})
	require.NoError(t, err)
	require.NotEmpty(t, artifact)
	assert.Equal(t, "%PDF", string(artifact[:4]))
}

func TestGenerateAnalyticsReport(t *testing.T) {
	g := NewGenerator()

	artifact, err := g.GenerateAnalyticsReport(AnalyticsReport{
		Title:       "Coffee Delivery Permits Report",
		GeneratedAt: time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC),
		PeriodLabel: "01 Jan 2025 to 30 Jun 2025",
		StatusRows: []ReportRow{
			{Label: "APPROVED", Value: "12"},
			{Label: "REJECTED", Value: "3"},
		},
		TopSocieties: []ReportRow{{Label: "Mukuyu", Value: "1400.00"}},
		TopGrades:    []ReportRow{{Label: "AA", Value: "900.00"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, artifact)
	assert.Equal(t, "%PDF", string(artifact[:4]))
}
