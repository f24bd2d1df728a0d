package handlers

import (
	"net/http"
	"time"

	"pos_backend/internal/models"
	"pos_backend/internal/services"
	"pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryMovementHandler serves the stock movement history.
type InventoryMovementHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryMovementHandler creates a new InventoryMovementHandler.
func NewInventoryMovementHandler(s services.InventoryService) *InventoryMovementHandler {
	return &InventoryMovementHandler{inventoryService: s}
}

// GetInventoryMovements handles fetching the movement log with filters
func (h *InventoryMovementHandler) GetInventoryMovements(c *gin.Context) {
	var filters models.MovementFilters
	var ok bool

	if filters.IngredientID, ok = parseOptionalID(c, "ingredient_id"); !ok {
		return
	}
	if filters.OrderID, ok = parseOptionalID(c, "order_id"); !ok {
		return
	}
	if filters.ActorID, ok = parseOptionalID(c, "user_id"); !ok {
		return
	}
	if kind := c.Query("tipo"); kind != "" {
		k := models.MovementKind(kind)
		filters.Kind = &k
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
		end  bool
	}{
		{"fecha_inicio", &filters.From, false},
		{"fecha_fin", &filters.To, true},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+p.name+" format. Use YYYY-MM-DD.", err.Error()))
			return
		}
		if p.end {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		*p.dst = &t
	}
	if filters.Page, filters.PageSize, ok = parsePaging(c, 50); !ok {
		return
	}

	movements, total, err := h.inventoryService.GetMovements(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "fetch inventory movements")
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      movements,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}
