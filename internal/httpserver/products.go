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

type ProductHandler struct {
	Catalog *catalog.Service
}

// ensureProducts activates the listing screen: when the session holds no
// products yet, the fetch runs here and the slice walks idle, loading,
// ready or error before the handler reads it back.
func (h *ProductHandler) ensureProducts(c echo.Context) store.State {
	st := sessionStore(c)
	state := st.State()
	if len(state.Products.Items) == 0 && !state.Products.Loading {
		st.FetchProducts(c.Request().Context(), h.Catalog)
	}
	return st.State()
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "products_list")

	state := h.ensureProducts(c)
	if state.Products.Error != "" {
		l.Error("product fetch failed", "error", state.Products.Error)
		return echo.NewHTTPError(http.StatusBadGateway, state.Products.Error)
	}

	sel := parseSelection(c)
	filtered := catalog.ApplyFilters(state.Products.Items, sel)
	counts := catalog.CountFacets(state.Products.Items)

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)
	paged := pageSlice(filtered, from, limit)

	l.Info("listing served", "total", len(state.Products.Items), "filtered", len(filtered), "page", page)
	return c.JSON(http.StatusOK, echo.Map{
		"data":   paged,
		"facets": counts,
		"meta": echo.Map{
			"page":  page,
			"size":  size,
			"total": len(filtered),
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "product_detail")
	id := c.Param("id")

	state := h.ensureProducts(c)
	if state.Products.Error != "" {
		l.Error("product fetch failed", "error", state.Products.Error)
		return echo.NewHTTPError(http.StatusBadGateway, state.Products.Error)
	}
	for _, p := range state.Products.Items {
		if p.ID == id {
			return c.JSON(http.StatusOK, echo.Map{"data": p})
		}
	}

	// Not in the loaded collection; ask the service so a product added
	// after the session's fetch still resolves.
	p, err := h.Catalog.Get(c.Request().Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		l.Warn("product not found", "id", id)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		l.Error("product lookup failed", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "product lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

func (h *ProductHandler) SearchProducts(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "product_search")

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, products, err := h.Catalog.Search(c.Request().Context(), q, from, limit)
	if err != nil {
		l.Error("search failed", "q", q, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "search unavailable")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": products,
		"meta": echo.Map{"page": page, "size": size, "total": total},
	})
}

// parseSelection reads the facet query parameters into a filter
// selection; absent parameters constrain nothing.
func parseSelection(c echo.Context) catalog.Selection {
	sel := catalog.Selection{}
	for _, facet := range []string{
		catalog.FacetCategory,
		catalog.FacetSize,
		catalog.FacetGender,
		catalog.FacetColor,
		catalog.FacetCondition,
		catalog.FacetPrice,
	} {
		if values, ok := c.QueryParams()[facet]; ok && len(values) > 0 {
			sel[facet] = values
		}
	}
	return sel
}

func pageSlice(products []catalog.Product, from, limit int) []catalog.Product {
	if from >= len(products) {
		return []catalog.Product{}
	}
	end := from + limit
	if end > len(products) {
		end = len(products)
	}
	return products[from:end]
}
