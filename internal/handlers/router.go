package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/nkashyap/storefront/internal/admin"
	"github.com/nkashyap/storefront/internal/auth"
	"github.com/nkashyap/storefront/internal/cart"
	"github.com/nkashyap/storefront/internal/checkout"
	"github.com/nkashyap/storefront/internal/fanout"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Products   ProductCatalog
	Carts      *cart.Service
	Compiler   *checkout.Compiler
	Orders     OrderReader
	Reconciler *admin.Reconciler
	Hub        *fanout.Hub
	Auth       *auth.Manager
}

// NewRouter assembles the gin engine and all routes.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.Default()

	productHandler := NewProductHandler(deps.Products)
	cartHandler := NewCartHandler(deps.Carts)
	orderHandler := NewOrderHandler(deps.Compiler, deps.Orders, deps.Reconciler)
	adminHandler := NewAdminHandler(deps.Reconciler)
	eventsHandler := NewEventsHandler(deps.Hub)

	api := router.Group("/api")

	api.GET("/health", productHandler.HealthCheck)
	api.GET("/products", productHandler.ListProducts)
	api.GET("/products/:id", productHandler.GetProduct)
	api.GET("/events", OptionalAuth(deps.Auth), eventsHandler.Stream)

	authed := api.Group("", RequireAuth(deps.Auth))
	{
		authed.GET("/cart", cartHandler.GetCart)
		authed.POST("/cart", cartHandler.AddToCart)
		authed.PATCH("/cart", cartHandler.UpdateCartItem)
		authed.DELETE("/cart/:productId", cartHandler.RemoveFromCart)

		authed.POST("/orders", orderHandler.CreateOrder)
		authed.GET("/orders", orderHandler.ListOwnOrders)
	}

	staff := api.Group("", RequireAuth(deps.Auth), RequireStaff())
	{
		staff.PATCH("/orders/:id", orderHandler.UpdateOrderStatus)

		staff.GET("/admin/orders", orderHandler.ListAllOrders)
		staff.GET("/admin/stats", adminHandler.Stats)
		staff.GET("/admin/revenue-chart", adminHandler.RevenueChart)

		staff.POST("/admin/products", productHandler.CreateProduct)
		staff.PUT("/admin/products/:id", productHandler.UpdateProduct)
		staff.DELETE("/admin/products/:id", adminHandler.DeleteProduct)
		staff.PATCH("/admin/products/:id/restock", adminHandler.Restock)

		staff.GET("/admin/users", adminHandler.ListUsers)
		staff.PATCH("/admin/users/:id/role", adminHandler.ChangeUserRole)
		staff.DELETE("/admin/users/:id", adminHandler.DeleteUser)
	}

	return router
}
