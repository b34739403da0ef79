package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mercadito/tienda-backend/internal/handlers"
	"github.com/mercadito/tienda-backend/internal/handlers/cart"
	"github.com/mercadito/tienda-backend/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	Auth           *auth.Middleware
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *cart.CartHandler
	OrderHandler   *handlers.OrderHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.POST("/auth/register", d.AuthHandler.Register)
	e.POST("/auth/login", d.AuthHandler.Login)

	usuarios := e.Group("/usuarios", d.Auth.RequireLogin, d.Auth.AdminOnly)
	usuarios.GET("", d.UserHandler.GetUsers)
	usuarios.GET("/buscar", d.UserHandler.SearchByCity)
	usuarios.GET("/:id", d.UserHandler.GetUser)
	usuarios.PUT("/:id", d.UserHandler.UpdateUser)
	usuarios.DELETE("/:id", d.UserHandler.DeleteUser)

	productos := e.Group("/productos")
	productos.GET("", d.ProductHandler.GetProducts)
	productos.GET("/buscar", d.ProductHandler.SearchByCategory)
	if d.SearchHandler != nil {
		productos.GET("/search", d.SearchHandler.Search)
	}
	productos.GET("/:id", d.ProductHandler.GetProduct)
	productos.POST("", d.ProductHandler.CreateProduct, d.Auth.RequireLogin, d.Auth.AdminOnly)
	productos.PUT("/:id", d.ProductHandler.UpdateProduct, d.Auth.RequireLogin, d.Auth.AdminOnly)
	productos.DELETE("/:id", d.ProductHandler.DeleteProduct, d.Auth.RequireLogin, d.Auth.AdminOnly)

	carrito := e.Group("/carrito", d.Auth.RequireLogin)
	carrito.GET("", d.CartHandler.GetCart)
	carrito.POST("", d.CartHandler.AddItem)
	carrito.PATCH("/estado", d.CartHandler.UpdateStatus)
	carrito.DELETE("/:productoId", d.CartHandler.RemoveItem)
	carrito.DELETE("", d.CartHandler.Clear)

	pedido := e.Group("/pedido", d.Auth.RequireLogin)
	pedido.POST("", d.OrderHandler.CreateFromCart)
	pedido.GET("", d.OrderHandler.GetOrders, d.Auth.AdminOnly)
	pedido.GET("/mios", d.OrderHandler.GetMyOrders)
	pedido.GET("/:id", d.OrderHandler.GetOrder)
	pedido.PUT("/:id", d.OrderHandler.UpdateOrder, d.Auth.AdminOnly)
	pedido.DELETE("/:id", d.OrderHandler.DeleteOrder, d.Auth.AdminOnly)
}
