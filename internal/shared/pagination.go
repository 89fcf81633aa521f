package shared

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Pagination reads limit/offset query params with sane bounds.
func Pagination(c echo.Context) (limit, offset int) {
	limit = DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= MaxListLimit {
			limit = v
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// TimeQueryParam parses an RFC 3339 query value, returning nil when absent.
func TimeQueryParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, BadRequest("invalid_"+name, name+" must be an RFC 3339 timestamp")
	}
	return &parsed, nil
}
