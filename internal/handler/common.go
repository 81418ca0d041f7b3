package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ordena/comandero/internal/middleware"
	"github.com/ordena/comandero/internal/repository"
)

// fail maps the shared error taxonomy onto HTTP responses: validation
// failures are 400, a missing tenant identity is 401, targeted lookups of
// absent records are 404 and anything else is a 500 with a generic body so
// storage details never leak to devices.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, middleware.ErrMissingIdentity):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing business identity"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
