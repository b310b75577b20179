// internal/services/permit_query_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcgboard/permits-backend/internal/utils"
)

func TestQualifySort(t *testing.T) {
	params := qualifySort(utils.PaginationParams{Sort: "status", Order: "asc"})
	assert.Equal(t, "permit_applications.status", params.Sort)
	assert.Equal(t, "asc", params.Order)

	// Already-qualified names pass through untouched.
	params = qualifySort(utils.PaginationParams{Sort: "permit_applications.ref_no", Order: "desc"})
	assert.Equal(t, "permit_applications.ref_no", params.Sort)

	// A missing order is normalized so the ORDER BY clause is always
	// well formed.
	params = qualifySort(utils.PaginationParams{Sort: "", Order: ""})
	assert.Equal(t, "", params.Sort)
	assert.Equal(t, "desc", params.Order)
}

func TestPermitSortFieldsAllowList(t *testing.T) {
	// The default list order is application date, and unknown columns
	// collapse onto it.
	qualified := qualifySort(utils.PaginationParams{Sort: "farmer_name", Order: "desc"})
	assert.Equal(t, "permit_applications.application_date", utils.SortField(qualified.Sort, permitSortFields))

	qualified = qualifySort(utils.PaginationParams{Sort: "ref_no", Order: "asc"})
	assert.Equal(t, "permit_applications.ref_no", utils.SortField(qualified.Sort, permitSortFields))
}
