package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// pagination reads page/page_size query params with sane bounds.
func pagination(c *gin.Context, defaultSize int) (limit, offset int) {
	page := 1
	pageSize := defaultSize

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return pageSize, (page - 1) * pageSize
}

// uintParam parses a positive integer path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// uintQuery parses an optional positive integer query parameter, returning 0
// when absent or malformed.
func uintQuery(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
