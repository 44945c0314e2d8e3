package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// FromContext extracts and validates pagination params from the request.
func FromContext(c *gin.Context) Query {
	page := parseIntOr(c.DefaultQuery("page", "1"), DefaultPage)
	size := parseIntOr(c.DefaultQuery("size", "10"), DefaultSize)

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Query{Page: page, Size: size}
}

// Offset returns the SQL offset for the query.
func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// Scope applies limit/offset to a gorm query.
func (q Query) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(q.Offset()).Limit(q.Size)
}

// TotalPages computes the page count for a total row count.
func (q Query) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(q.Size) - 1) / int64(q.Size))
}

func parseIntOr(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
