package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloveshop/storefront/internal/catalog"
	"github.com/reloveshop/storefront/internal/logging"
	"github.com/reloveshop/storefront/internal/store"
	"github.com/reloveshop/storefront/internal/util"
)

type AdminHandler struct {
	Catalog *catalog.Service
}

func (h *AdminHandler) ListProducts(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_products_list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, products, err := h.Catalog.ListPage(c.Request().Context(), from, limit)
	if err != nil {
		l.Error("listing failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list products")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": products,
		"meta": echo.Map{"page": page, "size": size, "total": total},
	})
}

func (h *AdminHandler) CreateProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_product_create")

	var req catalog.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.Catalog.Create(c.Request().Context(), req)
	if errors.Is(err, catalog.ErrValidation) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		l.Error("create failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create product")
	}

	sessionStore(c).Dispatch(store.ProductCreated{Product: p})
	l.Info("product created", "id", p.ID, "name", p.Name)
	return c.JSON(http.StatusCreated, echo.Map{"data": p})
}

func (h *AdminHandler) PatchProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_product_patch")
	id := c.Param("id")

	var req catalog.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.Catalog.Update(c.Request().Context(), id, req)
	switch {
	case errors.Is(err, catalog.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case err != nil:
		l.Error("update failed", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not update product")
	}

	sessionStore(c).Dispatch(store.ProductUpdated{Product: p})
	l.Info("product updated", "id", p.ID)
	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_product_delete")
	id := c.Param("id")

	err := h.Catalog.Delete(c.Request().Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		l.Error("delete failed", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not delete product")
	}

	sessionStore(c).Dispatch(store.ProductDeleted{ProductID: id})
	l.Info("product deleted", "id", id)
	return c.NoContent(http.StatusNoContent)
}
