package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

// runAuth sends one request through TenantAuth and reports the status code
// plus the tenant id the inner handler observed (0 when it never ran).
func runAuth(t *testing.T, authHeader string) (int, int64) {
	t.Helper()
	e := echo.New()
	var seen int64
	h := TenantAuth(testSecret)(func(c echo.Context) error {
		id, err := TenantID(c)
		if err != nil {
			return err
		}
		seen = id
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/tickets", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		e.HTTPErrorHandler(err, e.NewContext(req, rec))
	}
	return rec.Code, seen
}

func TestTenantAuthAcceptsValidToken(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"business_id": float64(42), "sub": "waiter-1"})
	code, tenant := runAuth(t, "Bearer "+tok)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if tenant != 42 {
		t.Fatalf("handler saw tenant %d, want 42", tenant)
	}
}

func TestTenantAuthAcceptsStringBusinessID(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{"business_id": "42"})
	code, tenant := runAuth(t, "Bearer "+tok)
	if code != http.StatusOK || tenant != 42 {
		t.Fatalf("status=%d tenant=%d, want 200/42", code, tenant)
	}
}

func TestTenantAuthRejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"missing business_id", "Bearer " + signToken(t, jwt.MapClaims{"sub": "waiter-1"})},
		{"non-numeric business_id", "Bearer " + signToken(t, jwt.MapClaims{"business_id": "abc"})},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, tenant := runAuth(t, c.header)
			if code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", code)
			}
			if tenant != 0 {
				t.Errorf("handler ran with tenant %d", tenant)
			}
		})
	}
}

func TestTenantAuthRejectsWrongSecret(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"business_id": float64(42)})
	s, err := tok.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}
	code, _ := runAuth(t, "Bearer "+s)
	if code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
}

func TestTenantIDWithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, err := TenantID(c); err != ErrMissingIdentity {
		t.Fatalf("err = %v, want ErrMissingIdentity", err)
	}
}
