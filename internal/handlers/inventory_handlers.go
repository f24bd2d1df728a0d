package handlers

import (
	"net/http"

	"pos_backend/internal/services"
	"pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves menu availability and stock adjustment endpoints.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(s services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: s}
}

// GetMenuAvailability returns live availability for every active menu item.
func (h *InventoryHandler) GetMenuAvailability(c *gin.Context) {
	items, err := h.inventoryService.GetAllAvailability(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "compute menu availability")
		return
	}
	if items == nil {
		items = []services.Availability{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// GetMenuItemAvailability returns live availability for one menu item.
func (h *InventoryHandler) GetMenuItemAvailability(c *gin.Context) {
	menuItemID, ok := parseIDParam(c, "id", "menu item ID")
	if !ok {
		return
	}
	avail, err := h.inventoryService.GetAvailability(c.Request.Context(), menuItemID)
	if err != nil {
		respondServiceError(c, err, "compute menu item availability")
		return
	}
	c.JSON(http.StatusOK, avail)
}

// AdjustStock records a manual stock movement for an ingredient.
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	ingredientID, ok := parseIDParam(c, "id", "ingredient ID")
	if !ok {
		return
	}

	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AdjustStock: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	if req.Reason != nil {
		req.Reason = utils.NewNullString(*req.Reason)
	}

	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	req.ActorID = actorID

	movement, err := h.inventoryService.AdjustStock(c.Request.Context(), ingredientID, req)
	if err != nil {
		respondServiceError(c, err, "adjust stock")
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// GetStockAlerts lists ingredients at or below their reorder threshold.
func (h *InventoryHandler) GetStockAlerts(c *gin.Context) {
	report, err := h.inventoryService.GetLowStockAlerts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "fetch stock alerts")
		return
	}
	c.JSON(http.StatusOK, report)
}
