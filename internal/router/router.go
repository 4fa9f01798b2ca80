// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/handler"
	"github.com/soundpass/soundpass/internal/middleware"
	"github.com/soundpass/soundpass/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes. Unauthenticated
// operations live under /v1/auth; the protected session endpoints live
// under /v1. The rate limiter wraps the credential endpoints so a
// stuffing attack burns its budget before it burns the database.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated storefront endpoints:
// the event catalog and the resume store. Catalog reads go through the
// Redis response cache when one is configured.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, rs *handler.ResumeHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/events")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("", ev.ListEvents)
	g.GET("/:id", ev.GetEvent)

	r := e.Group("/v1/resume")
	r.PUT("/path", rs.SavePath)
	r.GET("/path", rs.LoadPath)
	r.PUT("/purchase", rs.SavePurchase)
	r.GET("/purchase", rs.LoadPurchase)
}

// RegisterCustomer registers endpoints available to any authenticated
// user: purchasing tickets and listing their own.
func RegisterCustomer(e *echo.Echo, t *handler.TicketHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	g.POST("/events/:id/purchase", t.Purchase)
	g.GET("/tickets", t.MyTickets)
}

// RegisterAdmin registers the back office: check-in validation, ticket
// overrides, the event catalog mutations, and the admin grant. All of
// it requires an admin token. When a service key is configured, the
// grant endpoint is additionally mounted out-of-band under /internal,
// guarded by that key instead of a user session — this is the path the
// deployment's admin-configuration utility calls.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, v *handler.ValidationHandler, ev *handler.EventHandler, jwtSecret, serviceKey string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	if limiter != nil {
		g.POST("/validate", v.Validate, limiter)
	} else {
		g.POST("/validate", v.Validate)
	}
	g.GET("/validate/recent", v.RecentValidations)

	g.POST("/admin/users/grant", a.GrantAdmin)
	g.POST("/admin/tickets/:number/cancel", a.CancelTicket)
	g.POST("/admin/tickets/:number/revalidate", a.RevalidateTicket)

	g.POST("/admin/events", ev.CreateEvent)
	g.PUT("/admin/events/:id", ev.UpdateEvent)
	g.DELETE("/admin/events/:id", ev.DeleteEvent)

	if serviceKey != "" {
		e.POST("/internal/grant", a.GrantAdmin, middleware.RequireServiceKey(serviceKey))
	}
}
