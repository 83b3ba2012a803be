package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, Limit: 20, Offset: 0}},
		{"explicit window", "page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"limit capped", "page=1&limit=500", Params{Page: 1, Limit: 100, Offset: 0}},
		{"negative values", "page=-2&limit=-5", Params{Page: 1, Limit: 20, Offset: 0}},
		{"non-numeric", "page=abc&limit=xyz", Params{Page: 1, Limit: 20, Offset: 0}},
		{"zero limit", "page=2&limit=0", Params{Page: 2, Limit: 20, Offset: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseQuery(t, tt.query))
		})
	}
}
