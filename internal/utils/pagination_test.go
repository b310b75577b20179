// internal/utils/pagination_test.go
package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSortField(t *testing.T) {
	allowed := []string{
		"permit_applications.application_date",
		"permit_applications.created_at",
		"permit_applications.status",
	}

	assert.Equal(t, "permit_applications.status", SortField("permit_applications.status", allowed))

	// Anything off the allow list falls back to the first allowed field.
	assert.Equal(t, "permit_applications.application_date", SortField("updated_at", allowed))
	assert.Equal(t, "permit_applications.application_date", SortField("status); DROP TABLE users--", allowed))
	assert.Equal(t, "permit_applications.application_date", SortField("", allowed))

	assert.Equal(t, "created_at", SortField("anything", nil))
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/permits?page=0&limit=500&sort=ref_no&order=sideways&search=Mukuyu", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, "ref_no", params.Sort)
	assert.Equal(t, "desc", params.Order)
	assert.Equal(t, "Mukuyu", params.Search)
}
