package handlers

import (
	"net/http"

	"pos_backend/internal/models"
	"pos_backend/internal/services"
	"pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler serves dining table endpoints.
type TableHandler struct {
	tableService services.TableService
}

func NewTableHandler(s services.TableService) *TableHandler {
	return &TableHandler{tableService: s}
}

// GetTables lists active tables with their open order.
func (h *TableHandler) GetTables(c *gin.Context) {
	tables, err := h.tableService.GetTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "fetch tables")
		return
	}
	if tables == nil {
		tables = []models.Table{}
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}

// UpdateTableStatus sets a table status by hand (reservations, maintenance).
func (h *TableHandler) UpdateTableStatus(c *gin.Context) {
	tableID, ok := parseIDParam(c, "id", "table ID")
	if !ok {
		return
	}
	var req services.UpdateTableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}
	table, err := h.tableService.UpdateTableStatus(c.Request.Context(), tableID, req)
	if err != nil {
		respondServiceError(c, err, "update table status")
		return
	}
	c.JSON(http.StatusOK, table)
}
