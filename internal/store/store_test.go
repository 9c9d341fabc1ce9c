package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloveshop/storefront/internal/catalog"
	"github.com/reloveshop/storefront/internal/identity"
)

func product(id string, price int64) catalog.Product {
	return catalog.Product{ID: id, Name: "p-" + id, Price: price, Size: "M", Category: "Tops"}
}

func TestAuthSlice(t *testing.T) {
	s := New()

	// SetRole is a no-op while signed out
	s.Dispatch(SetRole{Role: "admin"})
	assert.False(t, s.State().Auth.Authenticated)
	assert.Nil(t, s.State().Auth.User)

	user := identity.User{ID: "u1", Email: "a@b.c", DisplayName: "A", Role: "user"}
	s.Dispatch(Login{User: user})
	st := s.State()
	require.True(t, st.Auth.Authenticated)
	assert.Equal(t, user, *st.Auth.User)

	s.Dispatch(SetRole{Role: "admin"})
	assert.Equal(t, "admin", s.State().Auth.User.Role)

	s.Dispatch(Logout{})
	st = s.State()
	assert.False(t, st.Auth.Authenticated)
	assert.Nil(t, st.Auth.User)
}

func TestAddToCartMergesLines(t *testing.T) {
	s := New()
	p := product("x", 2500)

	s.Dispatch(AddToCart{Product: p})
	s.Dispatch(AddToCart{Product: p})

	st := s.State()
	require.Len(t, st.Cart.Items, 1)
	assert.Equal(t, 2, st.Cart.Items[0].Quantity)
	assert.Equal(t, int64(5000), st.Cart.Subtotal())
}

func TestAddToCartQuantityCap(t *testing.T) {
	s := New()
	p := product("x", 1000)

	for i := 0; i < 10; i++ {
		s.Dispatch(AddToCart{Product: p})
	}
	st := s.State()
	require.Len(t, st.Cart.Items, 1)
	assert.Equal(t, MaxQuantity, st.Cart.Items[0].Quantity)
}

func TestCartRemoveAndSetQuantity(t *testing.T) {
	s := New()
	a, b := product("a", 1000), product("b", 2000)

	s.Dispatch(AddToCart{Product: a})
	s.Dispatch(AddToCart{Product: b})

	s.Dispatch(SetQuantity{ProductID: "b", Quantity: 3})
	st := s.State()
	require.Len(t, st.Cart.Items, 2)
	assert.Equal(t, 3, st.Cart.Items[1].Quantity)
	assert.Equal(t, int64(1000+6000), st.Cart.Subtotal())

	// clamped into 1..MaxQuantity
	s.Dispatch(SetQuantity{ProductID: "b", Quantity: 99})
	assert.Equal(t, MaxQuantity, s.State().Cart.Items[1].Quantity)
	s.Dispatch(SetQuantity{ProductID: "b", Quantity: 0})
	assert.Equal(t, 1, s.State().Cart.Items[1].Quantity)

	// unknown id is a no-op
	s.Dispatch(SetQuantity{ProductID: "zzz", Quantity: 2})
	assert.Len(t, s.State().Cart.Items, 2)

	s.Dispatch(RemoveFromCart{ProductID: "a"})
	st = s.State()
	require.Len(t, st.Cart.Items, 1)
	assert.Equal(t, "b", st.Cart.Items[0].Product.ID)

	s.Dispatch(ClearCart{})
	assert.Empty(t, s.State().Cart.Items)
}

type listerFunc func(ctx context.Context) ([]catalog.Product, error)

func (f listerFunc) List(ctx context.Context) ([]catalog.Product, error) { return f(ctx) }

func TestFetchProductsLifecycle(t *testing.T) {
	s := New()
	items := []catalog.Product{product("1", 100), product("2", 200)}

	var midFetch ProductsState
	err := s.FetchProducts(context.Background(), listerFunc(func(ctx context.Context) ([]catalog.Product, error) {
		midFetch = s.State().Products
		return items, nil
	}))
	require.NoError(t, err)

	// pending observed while the call was in flight
	assert.True(t, midFetch.Loading)
	assert.Empty(t, midFetch.Error)

	st := s.State().Products
	assert.False(t, st.Loading)
	assert.Equal(t, items, st.Items)
}

func TestFetchProductsRejectedKeepsItems(t *testing.T) {
	s := New()
	s.Dispatch(ProductsFulfilled{Items: []catalog.Product{product("1", 100)}})

	err := s.FetchProducts(context.Background(), listerFunc(func(ctx context.Context) ([]catalog.Product, error) {
		return nil, errors.New("gateway unreachable")
	}))
	require.Error(t, err)

	st := s.State().Products
	assert.False(t, st.Loading)
	assert.Equal(t, "gateway unreachable", st.Error)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "1", st.Items[0].ID)

	// a later pending clears the error
	s.Dispatch(ProductsPending{})
	assert.Empty(t, s.State().Products.Error)
}

func TestProductSplices(t *testing.T) {
	s := New()
	s.Dispatch(ProductsFulfilled{Items: []catalog.Product{product("1", 100), product("2", 200)}})

	s.Dispatch(ProductCreated{Product: product("3", 300)})
	assert.Len(t, s.State().Products.Items, 3)

	updated := product("2", 999)
	s.Dispatch(ProductUpdated{Product: updated})
	assert.Equal(t, int64(999), s.State().Products.Items[1].Price)

	s.Dispatch(ProductDeleted{ProductID: "1"})
	st := s.State().Products
	require.Len(t, st.Items, 2)
	assert.Equal(t, "2", st.Items[0].ID)
	assert.Equal(t, "3", st.Items[1].ID)
}

func TestSubscribe(t *testing.T) {
	s := New()

	var notified []int
	unsubscribe := s.Subscribe(func(st State) {
		notified = append(notified, len(st.Cart.Items))
	})

	s.Dispatch(AddToCart{Product: product("a", 100)})
	s.Dispatch(AddToCart{Product: product("b", 100)})
	require.Equal(t, []int{1, 2}, notified)

	unsubscribe()
	s.Dispatch(AddToCart{Product: product("c", 100)})
	assert.Equal(t, []int{1, 2}, notified)
}

func TestStateIsolation(t *testing.T) {
	s := New()
	s.Dispatch(AddToCart{Product: product("a", 100)})

	st := s.State()
	st.Cart.Items[0].Quantity = 99

	assert.Equal(t, 1, s.State().Cart.Items[0].Quantity)
}
