package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/model"
)

// RequireRole enforces that the authenticated user holds one of the
// given roles. It assumes JWTAuth has already stored the "role" claim
// in the context. The role is read from the token on every request,
// never cached across requests, so an admin grant takes effect on the
// next token the user obtains without any server-side invalidation.
//
// The 403 body says only that the role is insufficient; it does not
// reveal what resource exists behind the route.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, ok := c.Get("role").(string)
			if !ok || !allowed[model.Role(v)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}
			return next(c)
		}
	}
}

// RequireServiceKey guards the out-of-band admin grant endpoint with a
// static service credential carried in the X-Service-Key header. This
// credential is distinct from any end-user token: it is configured on
// the deployment, never issued to clients.
func RequireServiceKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" || c.Request().Header.Get("X-Service-Key") != key {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			return next(c)
		}
	}
}
