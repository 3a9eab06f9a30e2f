package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/skateshop/storefront/internal/api/middleware"
	"github.com/skateshop/storefront/internal/core/domain"
)

// ctxPrincipal returns the principal injected by the Auth middleware. Its
// absence means the route was registered without Auth.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.ID <= 0 {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

// pathID parses the ":id" route parameter as a positive integer.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewInputError("invalid id %q", c.Param("id"))
	}
	return id, nil
}
