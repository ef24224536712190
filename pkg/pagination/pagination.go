package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Params is the validated page window for a list query.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit from the request query. Out-of-range and
// non-numeric values fall back to the defaults; limit is capped so a single
// request cannot pull the whole table.
func Parse(c *gin.Context) Params {
	p := Params{Page: defaultPage, Limit: defaultLimit}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= 1 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit >= 1 {
		p.Limit = limit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}
