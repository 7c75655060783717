package http

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CacheControl sets a public max-age header. Non-positive ages disable caching.
func CacheControl(c echo.Context, maxAgeSeconds int) {
	if maxAgeSeconds <= 0 {
		c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		return
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age="+strconv.Itoa(maxAgeSeconds))
}
