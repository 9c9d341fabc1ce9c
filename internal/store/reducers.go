package store

import "github.com/reloveshop/storefront/internal/catalog"

func reduceAuth(st AuthState, a Action) AuthState {
	switch act := a.(type) {
	case Login:
		u := act.User
		return AuthState{Authenticated: true, User: &u}
	case Logout:
		return AuthState{}
	case SetRole:
		if !st.Authenticated || st.User == nil {
			return st
		}
		u := *st.User
		u.Role = act.Role
		return AuthState{Authenticated: true, User: &u}
	default:
		return st
	}
}

// reduceCart keeps one line per product id: adding an already-present
// product grows its quantity instead of appending a duplicate line.
func reduceCart(st CartState, a Action) CartState {
	switch act := a.(type) {
	case AddToCart:
		items := append([]CartItem(nil), st.Items...)
		for i, item := range items {
			if item.Product.ID == act.Product.ID {
				items[i].Quantity = clampQuantity(item.Quantity + 1)
				return CartState{Items: items}
			}
		}
		return CartState{Items: append(items, CartItem{Product: act.Product, Quantity: 1})}
	case RemoveFromCart:
		items := make([]CartItem, 0, len(st.Items))
		for _, item := range st.Items {
			if item.Product.ID != act.ProductID {
				items = append(items, item)
			}
		}
		return CartState{Items: items}
	case SetQuantity:
		items := append([]CartItem(nil), st.Items...)
		for i, item := range items {
			if item.Product.ID == act.ProductID {
				items[i].Quantity = clampQuantity(act.Quantity)
			}
		}
		return CartState{Items: items}
	case ClearCart:
		return CartState{}
	default:
		return st
	}
}

func reduceProducts(st ProductsState, a Action) ProductsState {
	switch act := a.(type) {
	case ProductsPending:
		st.Loading = true
		st.Error = ""
		return st
	case ProductsFulfilled:
		return ProductsState{Items: act.Items}
	case ProductsRejected:
		st.Loading = false
		st.Error = act.Message
		return st
	case ProductCreated:
		st.Items = append(append([]catalog.Product(nil), st.Items...), act.Product)
		return st
	case ProductUpdated:
		items := append([]catalog.Product(nil), st.Items...)
		for i, p := range items {
			if p.ID == act.Product.ID {
				items[i] = act.Product
			}
		}
		st.Items = items
		return st
	case ProductDeleted:
		items := make([]catalog.Product, 0, len(st.Items))
		for _, p := range st.Items {
			if p.ID != act.ProductID {
				items = append(items, p)
			}
		}
		st.Items = items
		return st
	default:
		return st
	}
}

func clampQuantity(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}
