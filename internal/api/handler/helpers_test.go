package handler

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/skateshop/storefront/internal/api/middleware"
	"github.com/skateshop/storefront/internal/core/domain"
)

var (
	testAdmin = domain.Principal{ID: 1, Username: "admin", Email: "admin@skateboard.com", Role: domain.RoleAdmin}
	testBuyer = domain.Principal{ID: 2, Username: "alice", Email: "alice@example.com", Role: domain.RoleBuyer}
)

// newContext builds an echo context with the validator installed and, when
// p is non-nil, an authenticated principal.
func newContext(t *testing.T, method, target string, body io.Reader, contentType string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, *p)
	}
	return c, rec
}

func httpErrorCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
