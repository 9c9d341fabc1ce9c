package store

import (
	"context"
	"sync"

	"github.com/reloveshop/storefront/internal/catalog"
	"github.com/reloveshop/storefront/internal/identity"
)

// MaxQuantity caps one cart line, matching the storefront's 1-5
// quantity selector.
const MaxQuantity = 5

// CartItem is one cart line: a product and how many of it. Identity is
// the product id; the cart holds at most one line per product.
type CartItem struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

type AuthState struct {
	Authenticated bool           `json:"authenticated"`
	User          *identity.User `json:"user"`
}

type CartState struct {
	Items []CartItem `json:"items"`
}

// Subtotal is the cart total in the smallest currency unit, summed per
// line.
func (c CartState) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Product.Price * int64(item.Quantity)
	}
	return total
}

type ProductsState struct {
	Items   []catalog.Product `json:"items"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
}

// State is the full application state: three independently reduced
// slices.
type State struct {
	Auth     AuthState
	Cart     CartState
	Products ProductsState
}

// Store is an explicit state container. Every mutation goes through
// Dispatch, which applies the pure per-slice reducers atomically;
// readers get copies and never observe partial writes.
type Store struct {
	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

func New() *Store {
	return &Store{subs: map[int]func(State){}}
}

// Dispatch applies one action and notifies subscribers with the
// resulting state.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = State{
		Auth:     reduceAuth(s.state.Auth, a),
		Cart:     reduceCart(s.state.Cart, a),
		Products: reduceProducts(s.state.Products, a),
	}
	state := s.state.clone()
	cbs := make([]func(State), 0, len(s.subs))
	for _, cb := range s.subs {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(state)
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers an observer called after every dispatch; the
// returned function unsubscribes.
func (s *Store) Subscribe(cb func(State)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// ProductLister is the slice's view of the product service.
type ProductLister interface {
	List(ctx context.Context) ([]catalog.Product, error)
}

// FetchProducts drives the async lifecycle of one catalog fetch:
// pending, then exactly one of fulfilled or rejected. Nothing orders
// two overlapping fetches relative to each other.
func (s *Store) FetchProducts(ctx context.Context, lister ProductLister) error {
	s.Dispatch(ProductsPending{})
	items, err := lister.List(ctx)
	if err != nil {
		s.Dispatch(ProductsRejected{Message: err.Error()})
		return err
	}
	s.Dispatch(ProductsFulfilled{Items: items})
	return nil
}

func (st State) clone() State {
	out := st
	if st.Auth.User != nil {
		u := *st.Auth.User
		out.Auth.User = &u
	}
	out.Cart.Items = append([]CartItem(nil), st.Cart.Items...)
	out.Products.Items = append([]catalog.Product(nil), st.Products.Items...)
	return out
}
