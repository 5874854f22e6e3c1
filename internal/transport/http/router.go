package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avelsk/storefront/internal/handlers"
	"github.com/avelsk/storefront/internal/metrics"
	"github.com/avelsk/storefront/internal/service/token"
)

type Deps struct {
	DB              *gorm.DB
	Tokens          *token.TokenService
	AuthHandler     *handlers.AuthHandler
	CatalogHandler  *handlers.CatalogHandler
	CartHandler     *handlers.CartHandler
	OrderHandler    *handlers.OrderHandler
	WishlistHandler *handlers.WishlistHandler
	AdminHandler    *handlers.AdminHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)

	e.GET("/", d.CatalogHandler.Home)
	e.GET("/products", d.CatalogHandler.Products)
	e.GET("/product/:slug", d.CatalogHandler.ProductDetail)
	e.GET("/search", d.SearchHandler.Search)

	// Cart routes serve both guests and logged-in users; Identify only
	// resolves who is asking.
	cart := e.Group("", d.Tokens.Identify)
	cart.GET("/cart", d.CartHandler.View)
	cart.POST("/cart/add", d.CartHandler.Add)
	cart.POST("/cart/update/:item_id", d.CartHandler.Update)
	cart.GET("/cart/remove/:item_id", d.CartHandler.Remove)
	cart.POST("/buy-now/:product_id", d.CartHandler.BuyNow)

	auth := e.Group("", d.Tokens.RequireLogin)
	auth.GET("/checkout", d.OrderHandler.CheckoutForm)
	auth.POST("/checkout", d.OrderHandler.Checkout)
	auth.GET("/order/:id", d.OrderHandler.Confirmation)
	auth.GET("/orders", d.OrderHandler.MyOrders)
	auth.GET("/wishlist", d.WishlistHandler.View)
	auth.POST("/wishlist/add/:product_id", d.WishlistHandler.Add)
	auth.POST("/wishlist/remove/:product_id", d.WishlistHandler.Remove)

	admin := e.Group("/admin", d.Tokens.AdminOnly)
	admin.GET("/dashboard", d.AdminHandler.Dashboard)
	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.GET("/order/:id", d.AdminHandler.OrderDetail)
	admin.POST("/order/:id/update-status", d.AdminHandler.UpdateOrderStatus)
	admin.GET("/products", d.AdminHandler.ListProducts)
	admin.POST("/products", d.AdminHandler.CreateProduct)
	admin.POST("/product/:id/edit", d.AdminHandler.EditProduct)
	admin.POST("/product/:id/delete", d.AdminHandler.DeleteProduct)
}
