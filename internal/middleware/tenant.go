package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
)

// TenantHeader is the required header on every tenant-scoped route.
const TenantHeader = "x-tenant-id"

// TenantMiddleware requires the x-tenant-id header and stores the tenant ID
// in the request context. Tenant isolation downstream depends on this value
// being present on every scoped query.
func TenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenantID := strings.TrimSpace(c.Request().Header.Get(TenantHeader))
		if tenantID == "" {
			logger.FromEcho(c).Warn("Missing x-tenant-id header")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing x-tenant-id header"})
		}

		c.Set("tenant_id", tenantID)
		return next(c)
	}
}

// GetTenantID retrieves the tenant ID from the request context.
func GetTenantID(c echo.Context) string {
	tenantID, _ := c.Get("tenant_id").(string)
	return tenantID
}
