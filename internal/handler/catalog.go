package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ordena/comandero/internal/middleware"
	"github.com/ordena/comandero/internal/model"
	"github.com/ordena/comandero/internal/repository"
)

// CatalogHandler serves the read-only catalog surfaces the devices consume:
// the ordered preparation-area directory and the product list.  Catalog
// administration happens elsewhere; nothing here mutates.
type CatalogHandler struct {
	Areas    *repository.AreaRepo
	Products *repository.ProductRepo
}

// NewCatalogHandler constructs a CatalogHandler with non-nil repositories.
func NewCatalogHandler(areas *repository.AreaRepo, products *repository.ProductRepo) *CatalogHandler {
	if areas == nil || products == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Areas: areas, Products: products}
}

// ListAreas handles GET /v1/areas, returning the tenant's preparation areas
// in display order.  Devices treat any area missing from this list as the
// "General" fallback.
func (h *CatalogHandler) ListAreas(c echo.Context) error {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		return fail(c, err)
	}
	areas, err := h.Areas.List(c.Request().Context(), tenantID)
	if err != nil {
		return fail(c, err)
	}
	if areas == nil {
		areas = []model.Area{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": areas})
}

// ListProducts handles GET /v1/products.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	tenantID, err := middleware.TenantID(c)
	if err != nil {
		return fail(c, err)
	}
	products, err := h.Products.List(c.Request().Context(), tenantID)
	if err != nil {
		return fail(c, err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": products})
}
