package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
)

// AdminKeyHeader carries the admin token on reindex routes.
const AdminKeyHeader = "x-api-key"

// AdminKeyMiddleware guards admin-only routes with a configured API key.
// A missing or mismatched key is rejected 401; comparison is constant-time.
func AdminKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			supplied := c.Request().Header.Get(AdminKeyHeader)
			if apiKey == "" || supplied == "" ||
				subtle.ConstantTimeCompare([]byte(supplied), []byte(apiKey)) != 1 {
				logger.FromEcho(c).Warn("Rejected admin request with missing or invalid API key")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid API key"})
			}
			return next(c)
		}
	}
}
