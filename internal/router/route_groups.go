package router

import (
	"pos_backend/internal/handlers"
	"pos_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleManager, middleware.RoleStaff))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
		orderRoutes.PATCH("/:id/items/:itemId/status", orderHandler.UpdateOrderItemStatus)
	}
}

// SetupMenuRoutes sets up the menu availability routes.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	menuRoutes := authenticatedGroup.Group("/menu")
	menuRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleManager, middleware.RoleStaff))
	{
		menuRoutes.GET("/availability", inventoryHandler.GetMenuAvailability)
		menuRoutes.GET("/:id/availability", inventoryHandler.GetMenuItemAvailability)
	}
}

// SetupInventoryRoutes sets up the inventory routes. Managers only.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler, movementHandler *handlers.InventoryMovementHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleManager))
	{
		inventoryRoutes.POST("/ingredients/:id/movements", inventoryHandler.AdjustStock)
		inventoryRoutes.GET("/movements", movementHandler.GetInventoryMovements)
		inventoryRoutes.GET("/alerts", inventoryHandler.GetStockAlerts)
	}
}

// SetupTableRoutes sets up the dining table routes.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(middleware.RoleAuthMiddleware(middleware.RoleManager, middleware.RoleStaff))
	{
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.PATCH("/:id/status", tableHandler.UpdateTableStatus)
	}
}
