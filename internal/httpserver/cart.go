package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloveshop/storefront/internal/logging"
	"github.com/reloveshop/storefront/internal/store"
)

type CartHandler struct{}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func cartResponse(st store.CartState) echo.Map {
	return echo.Map{
		"items":    st.Items,
		"subtotal": st.Subtotal(),
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, cartResponse(sessionStore(c).State().Cart))
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart_add")

	var req addToCartRequest
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	st := sessionStore(c)
	state := st.State()
	for _, p := range state.Products.Items {
		if p.ID != req.ProductID {
			continue
		}
		if !p.Available {
			l.Warn("unavailable product rejected", "id", p.ID)
			return echo.NewHTTPError(http.StatusConflict, "product is no longer available")
		}
		st.Dispatch(store.AddToCart{Product: p})
		return c.JSON(http.StatusOK, cartResponse(st.State().Cart))
	}

	l.Warn("unknown product rejected", "id", req.ProductID)
	return echo.NewHTTPError(http.StatusNotFound, "product not found")
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	var req setQuantityRequest
	if err := c.Bind(&req); err != nil || req.Quantity < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be at least 1")
	}

	id := c.Param("id")
	st := sessionStore(c)
	if !inCart(st.State().Cart, id) {
		return echo.NewHTTPError(http.StatusNotFound, "item is not in the cart")
	}
	st.Dispatch(store.SetQuantity{ProductID: id, Quantity: req.Quantity})
	return c.JSON(http.StatusOK, cartResponse(st.State().Cart))
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	id := c.Param("id")
	st := sessionStore(c)
	if !inCart(st.State().Cart, id) {
		return echo.NewHTTPError(http.StatusNotFound, "item is not in the cart")
	}
	st.Dispatch(store.RemoveFromCart{ProductID: id})
	return c.JSON(http.StatusOK, cartResponse(st.State().Cart))
}

func inCart(cart store.CartState, id string) bool {
	for _, item := range cart.Items {
		if item.Product.ID == id {
			return true
		}
	}
	return false
}
