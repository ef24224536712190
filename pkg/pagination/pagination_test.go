package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func parseQuery(t *testing.T, query string) Params {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 1, 20, 0},
		{"explicit", "page=3&limit=50", 3, 50, 100},
		{"zero page", "page=0", 1, 20, 0},
		{"negative page", "page=-2", 1, 20, 0},
		{"zero limit", "limit=0", 1, 20, 0},
		{"limit capped", "limit=500", 1, 100, 0},
		{"garbage input", "page=abc&limit=xyz", 1, 20, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseQuery(t, tc.query)
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit || got.Offset != tc.wantOffset {
				t.Errorf("query %q: got %+v", tc.query, got)
			}
		})
	}
}
