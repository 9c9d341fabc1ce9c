package httpserver

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func validCheckout() map[string]any {
	return map[string]any{
		"first_name":  "Ada",
		"last_name":   "Lovelace",
		"email":       "ada@example.com",
		"phone":       "+44 20 7946 0000",
		"address":     "12 St James's Square",
		"city":        "London",
		"region":      "Greater London",
		"postal_code": "SW1Y 4JH",
	}
}

func TestCheckoutCapturesOrderAndClearsCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "Vintage Denim Jacket", "denim", "m", "women", 2500, true)

	cl := env.newClient()
	require.Equal(t, http.StatusOK, cl.do(http.MethodGet, "/api/v1/products", nil).Code)
	require.Equal(t, http.StatusOK, cl.do(http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p.ID}).Code)
	require.Equal(t, http.StatusOK, cl.do(http.MethodPatch, "/api/v1/cart/"+p.ID, map[string]any{"quantity": 2}).Code)

	rec := cl.do(http.MethodPost, "/api/v1/checkout", validCheckout())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "pending_payment", body["status"])
	require.EqualValues(t, 5000, body["total"])
	orderID := body["order_id"].(string)
	require.NotEmpty(t, orderID)

	doc, err := env.GW.Get(context.Background(), "orders", orderID)
	require.NoError(t, err)
	require.Equal(t, "pending_payment", doc["status"])
	contact := doc["contact"].(map[string]any)
	require.Equal(t, "ada@example.com", contact["email"])
	require.Len(t, doc["items"].([]any), 1)

	event := env.Producer.lastOnTopic("order_events")
	require.NotNil(t, event)
	require.Equal(t, "checkout_submitted", event["type"])
	require.Equal(t, orderID, event["order_id"])

	rec = cl.do(http.MethodGet, "/api/v1/cart", nil)
	require.Empty(t, decodeBody(t, rec)["items"])
}

func TestCheckoutValidatesRequiredFields(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "Vintage Denim Jacket", "denim", "m", "women", 2500, true)

	cl := env.newClient()
	require.Equal(t, http.StatusOK, cl.do(http.MethodGet, "/api/v1/products", nil).Code)
	require.Equal(t, http.StatusOK, cl.do(http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p.ID}).Code)

	payload := validCheckout()
	delete(payload, "postal_code")
	rec := cl.do(http.MethodPost, "/api/v1/checkout", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "postal_code")

	// Rejection leaves the cart untouched.
	rec = cl.do(http.MethodGet, "/api/v1/cart", nil)
	require.Len(t, decodeBody(t, rec)["items"].([]any), 1)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	cl := env.newClient()

	rec := cl.do(http.MethodPost, "/api/v1/checkout", validCheckout())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "cart is empty")
}
