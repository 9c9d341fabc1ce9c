package store

import (
	"github.com/reloveshop/storefront/internal/catalog"
	"github.com/reloveshop/storefront/internal/identity"
)

// Action is one state transition request. The concrete set below is
// closed; Dispatch ignores anything else.
type Action interface{ isAction() }

// auth slice

type Login struct{ User identity.User }

type Logout struct{}

type SetRole struct{ Role string }

// cart slice

type AddToCart struct{ Product catalog.Product }

type RemoveFromCart struct{ ProductID string }

type SetQuantity struct {
	ProductID string
	Quantity  int
}

type ClearCart struct{}

// products slice: async lifecycle of one fetch plus single-record
// splices after admin mutations

type ProductsPending struct{}

type ProductsFulfilled struct{ Items []catalog.Product }

type ProductsRejected struct{ Message string }

type ProductCreated struct{ Product catalog.Product }

type ProductUpdated struct{ Product catalog.Product }

type ProductDeleted struct{ ProductID string }

func (Login) isAction()             {}
func (Logout) isAction()            {}
func (SetRole) isAction()           {}
func (AddToCart) isAction()         {}
func (RemoveFromCart) isAction()    {}
func (SetQuantity) isAction()       {}
func (ClearCart) isAction()         {}
func (ProductsPending) isAction()   {}
func (ProductsFulfilled) isAction() {}
func (ProductsRejected) isAction()  {}
func (ProductCreated) isAction()    {}
func (ProductUpdated) isAction()    {}
func (ProductDeleted) isAction()    {}
