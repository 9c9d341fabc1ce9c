package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloveshop/storefront/internal/identity"
)

// Deps collects everything the route table needs.
type Deps struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Account  *AuthHandler
	Admin    *AdminHandler

	Auth     *identity.Service
	Sessions *Sessions
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// Destination of the admin guard redirect.
	e.GET("/login", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "sign in to continue"})
	})

	v1 := e.Group("/api/v1", d.SessionMiddleware)

	auth := v1.Group("/auth")
	auth.POST("/register", d.Account.Register)
	auth.POST("/login", d.Account.Login)
	auth.POST("/login/:provider", d.Account.LoginWithProvider)
	auth.POST("/logout", d.Account.Logout)
	auth.POST("/password-reset", d.Account.RequestPasswordReset)
	auth.POST("/password-reset/confirm", d.Account.ConfirmPasswordReset)

	products := v1.Group("/products")
	products.GET("", d.Products.GetProducts)
	products.GET("/search", d.Products.SearchProducts)
	products.GET("/:id", d.Products.GetProduct)

	cart := v1.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.PATCH("/:id", d.Cart.UpdateQuantity)
	cart.DELETE("/:id", d.Cart.RemoveFromCart)

	v1.POST("/checkout", d.Checkout.Submit)

	admin := v1.Group("/admin", RequireAdmin)
	admin.GET("/products", d.Admin.ListProducts)
	admin.POST("/products", d.Admin.CreateProduct)
	admin.PATCH("/products/:id", d.Admin.PatchProduct)
	admin.DELETE("/products/:id", d.Admin.DeleteProduct)
}
