package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// TenantAuth returns an Echo middleware that validates a Bearer access token
// and injects the resolved tenant (business) identifier into the request
// context.  Token issuance lives in the identity service; this middleware is
// only the consuming end of that contract.  A request whose token lacks a
// usable business_id claim is rejected before any handler runs, so no core
// operation ever executes without a resolved tenant.
func TenantAuth(secret string) echo.MiddlewareFunc {
	// The outer function returns a middleware function.  Echo executes this
	// once when registering the middleware.
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		// The returned handler is invoked for each incoming HTTP request.
		return func(c echo.Context) error {
			// Read the Authorization header.  A valid header should start
			// with "Bearer " followed by the JWT.  If it doesn't, respond
			// with 401 Unauthorized indicating that authentication is
			// required.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			// Remove the "Bearer " prefix to obtain the raw token string.
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse the token using the HS256 signing method and our secret.
			// The callback provided to jwt.Parse supplies the signing key and
			// ensures that the algorithm matches what we expect.  If the
			// signing method differs, we reject the token by returning an
			// unauthorized error.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Type assert the signing method to HMAC; reject others.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				// Return the secret bytes used to sign the token.
				return []byte(secret), nil
			})
			// If parsing failed or the token is invalid, respond with 401.
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// Extract the claims into a map for easy access.  If the
			// assertion fails, the claims are not in the expected format.
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// The business_id claim is the resolved tenant identity.  Its
			// absence is a hard precondition failure: the token may be valid
			// for some other service, but it cannot drive this one.
			tenantID := tenantFromClaims(claims)
			if tenantID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing business identity"})
			}

			// Store the tenant id in the context.  Handlers and downstream
			// middleware retrieve it through TenantID().
			c.Set(tenantKey, tenantID)
			// Call the next handler in the chain and return its result.
			return next(c)
		}
	}
}

// tenantFromClaims extracts the business_id claim, tolerating the numeric
// and string encodings different token issuers produce.  Returns 0 when no
// usable claim exists.
func tenantFromClaims(claims jwt.MapClaims) int64 {
	switch v := claims["business_id"].(type) {
	case float64:
		return int64(v)
	case string:
		var id int64
		for _, r := range v {
			if r < '0' || r > '9' {
				return 0
			}
			id = id*10 + int64(r-'0')
		}
		return id
	}
	return 0
}
