package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reloveshop/storefront/internal/catalog"
	"github.com/reloveshop/storefront/internal/gateway"
	"github.com/reloveshop/storefront/internal/logging"
	"github.com/reloveshop/storefront/internal/store"
)

const ordersCollection = "orders"

type CheckoutHandler struct {
	Gateway  *gateway.Store
	Producer catalog.EventPublisher
}

type checkoutRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
}

func (r checkoutRequest) validate() error {
	required := []struct{ name, value string }{
		{"first_name", r.FirstName},
		{"last_name", r.LastName},
		{"email", r.Email},
		{"phone", r.Phone},
		{"address", r.Address},
		{"city", r.City},
		{"region", r.Region},
		{"postal_code", r.PostalCode},
	}
	for _, f := range required {
		if f.value == "" {
			return echo.NewHTTPError(http.StatusBadRequest, f.name+" is required")
		}
	}
	return nil
}

// Submit captures the order. Payment is not taken here: the order lands
// in the document store as pending_payment and the cart is cleared.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	st := sessionStore(c)
	state := st.State()
	if len(state.Cart.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	items := make([]map[string]any, 0, len(state.Cart.Items))
	for _, item := range state.Cart.Items {
		items = append(items, map[string]any{
			"product_id": item.Product.ID,
			"name":       item.Product.Name,
			"price":      item.Product.Price,
			"quantity":   item.Quantity,
		})
	}

	fields := map[string]any{
		"contact": map[string]any{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
			"email":      req.Email,
			"phone":      req.Phone,
		},
		"shipping": map[string]any{
			"address":     req.Address,
			"city":        req.City,
			"region":      req.Region,
			"postal_code": req.PostalCode,
		},
		"items":      items,
		"total":      state.Cart.Subtotal(),
		"status":     "pending_payment",
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if state.Auth.User != nil {
		fields["user_id"] = state.Auth.User.ID
	}

	doc, err := h.Gateway.Create(ctx, ordersCollection, fields)
	if err != nil {
		l.Error("order capture failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not place order")
	}
	orderID, _ := doc["id"].(string)

	if h.Producer != nil {
		if err := h.Producer.PublishEvent(ctx, "order_events", orderID, map[string]any{
			"type":     "checkout_submitted",
			"order_id": orderID,
			"total":    state.Cart.Subtotal(),
		}); err != nil {
			l.Warn("order event not published", "order_id", orderID, "error", err)
		}
	}

	st.Dispatch(store.ClearCart{})
	l.Info("order captured", "order_id", orderID, "items", len(items))
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id": orderID,
		"status":   "pending_payment",
		"total":    fields["total"],
	})
}
