package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Query holds parsed skip/limit parameters.
type Query struct {
	Skip  int
	Limit int
}

// FromContext extracts skip and limit from the request. defaultLimit applies
// when the client sends none; maxLimit caps what it may ask for.
func FromContext(c *gin.Context, defaultLimit, maxLimit int) Query {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	skip := parseIntOr(c.Query("skip"), 0)
	limit := parseIntOr(c.Query("limit"), defaultLimit)

	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Query{Skip: skip, Limit: limit}
}

// Apply adds offset and limit to a GORM query.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	return db.Offset(q.Skip).Limit(q.Limit)
}

// Paginate counts the rows matched by db and loads one page of them into dest.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (int64, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if err := q.Apply(db).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
