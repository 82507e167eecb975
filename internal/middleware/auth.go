package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/schradermade/hvac-ai-sub002/internal/apperr"
	"github.com/schradermade/hvac-ai-sub002/internal/authgw"
	"github.com/schradermade/hvac-ai-sub002/pkg/logger"
	"go.uber.org/zap"
)

// BearerAuthMiddleware verifies the Authorization header through the access
// gateway and stores the resolved identity in the request context. The
// resolved identity must belong to the tenant named by the x-tenant-id
// header; a mismatch is rejected 403 so a valid token for tenant A can never
// act inside tenant B.
func BearerAuthMiddleware(gateway *authgw.Gateway) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			identity, err := gateway.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				if e, ok := apperr.As(err); ok {
					log.Warn("Authentication failed", zap.String("code", e.Code))
					return c.JSON(e.Status, echo.Map{"error": e.Message})
				}
				log.Error("Authentication failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authentication failed"})
			}

			if tenantID := GetTenantID(c); tenantID != "" && identity.TenantID != tenantID {
				log.Warn("Identity tenant does not match requested tenant",
					zap.String("identity_tenant", identity.TenantID),
					zap.String("requested_tenant", tenantID))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}

			c.Set("user_id", identity.UserID)
			c.Set("user_role", identity.Role)
			return next(c)
		}
	}
}
