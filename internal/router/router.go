package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/ordena/comandero/internal/handler"    // import the handlers that implement business logic
	"github.com/ordena/comandero/internal/middleware" // import middleware for tenant authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterStaging registers the staging-queue endpoints.  Self-service
// devices hold no staff token — their identity is the tenant reference baked
// into the table's QR link — so these routes live outside the TenantAuth
// group and validate the tenant reference from the request itself.
func RegisterStaging(e *echo.Echo, s *handler.StagingHandler) {
	e.POST("/v1/staging", s.Submit)
	e.GET("/v1/staging", s.List)
	e.DELETE("/v1/staging", s.Clear)
}

// RegisterAPI registers every tenant-scoped endpoint and applies the
// TenantAuth middleware so each handler runs with a resolved business
// identity.  The jwtSecret must match the one used by the identity service
// when issuing staff tokens.  Extra middlewares (the tenant-keyed response
// cache) run after TenantAuth so they see the resolved identity.
func RegisterAPI(e *echo.Echo, t *handler.TicketHandler, cat *handler.CatalogHandler, pay *handler.PaymentHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	// Create a group for routes that require a valid staff token.  All
	// handlers registered on this group execute TenantAuth before being
	// invoked, so a request without a resolvable business_id claim never
	// reaches a handler.
	api := e.Group("/v1")
	api.Use(middleware.TenantAuth(jwtSecret))
	api.Use(extra...)

	// Kitchen ticket tracker: create on dispatch, poll per table or per
	// area, transition item status, purge wholesale after payment.
	api.POST("/tickets", t.Create)
	api.GET("/tickets", t.List)
	api.PUT("/tickets/:id/items", t.UpdateItem)
	api.DELETE("/tickets", t.Purge)

	// Read-only catalog surfaces: ordered area directory and product list.
	api.GET("/areas", cat.ListAreas)
	api.GET("/products", cat.ListProducts)

	// Payment recording for direct and split checkout.
	api.POST("/payments", pay.Record)
	api.GET("/payments", pay.List)
}
