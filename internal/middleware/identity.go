package middleware

// identity.go defines the accessor handlers use to read the tenant identity
// resolved by TenantAuth. The raw claim never leaves this package; every
// consumer goes through TenantID so the "missing identity" precondition is
// checked in exactly one place.

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// tenantKey is the context key under which TenantAuth stores the resolved
// business identifier.
const tenantKey = "tenant_id"

// ErrMissingIdentity is returned when a handler runs without a resolved
// tenant, e.g. a route that was registered outside the TenantAuth group by
// mistake. Handlers translate it into an HTTP 401 response.
var ErrMissingIdentity = errors.New("missing tenant identity")

// TenantID returns the resolved tenant (business) id for the request, or
// ErrMissingIdentity when the middleware did not run or rejected the token.
func TenantID(c echo.Context) (int64, error) {
	if v := c.Get(tenantKey); v != nil {
		if id, ok := v.(int64); ok && id != 0 {
			return id, nil
		}
	}
	return 0, ErrMissingIdentity
}
