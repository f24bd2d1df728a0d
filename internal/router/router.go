package router

import (
	"pos_backend/internal/handlers"
	"pos_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Orders    *handlers.OrderHandler
	Inventory *handlers.InventoryHandler
	Movements *handlers.InventoryMovementHandler
	Tables    *handlers.TableHandler
	Health    *handlers.HealthHandler
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, h Handlers, jwtSecret []byte) {
	engine.GET("/health", h.Health.Health)

	apiV1 := engine.Group("/api/v1")
	apiV1.GET("/health", h.Health.Health)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(jwtSecret))
	{
		SetupOrderRoutes(authenticated, h.Orders)
		SetupMenuRoutes(authenticated, h.Inventory)
		SetupInventoryRoutes(authenticated, h.Inventory, h.Movements)
		SetupTableRoutes(authenticated, h.Tables)
	}
}
