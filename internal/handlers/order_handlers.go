package handlers

import (
	"net/http"
	"time"

	"pos_backend/internal/models"
	"pos_backend/internal/services"
	"pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"estado" binding:"required"`
}

type updateLineItemStatusRequest struct {
	Status models.LineItemStatus `json:"estado" binding:"required"`
}

// CreateOrder handles placing a new order with its items
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateOrder: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}

	staffID, ok := currentUserID(c)
	if !ok {
		return
	}
	req.StaffID = staffID

	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles fetching orders with filters
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters
	var ok bool

	if filters.StaffID, ok = parseOptionalID(c, "mesero_id"); !ok {
		return
	}
	if filters.TableID, ok = parseOptionalID(c, "mesa_id"); !ok {
		return
	}
	if status := c.Query("estado"); status != "" {
		if !models.IsValidOrderStatus(status) {
			utils.RespondValidationFailed(c, "unknown estado "+status)
			return
		}
		st := models.OrderStatus(status)
		filters.Status = &st
	}
	if date := c.Query("fecha"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date format. Use YYYY-MM-DD.", err.Error()))
			return
		}
		filters.Date = &date
	}
	if filters.Page, filters.PageSize, ok = parsePaging(c, 20); !ok {
		return
	}

	orders, totalCount, err := h.orderService.GetOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "fetch orders")
		return
	}
	if orders == nil { // Ensure we return an empty list instead of null if no orders found
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetOrderByID handles fetching a single order by ID with its items
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order ID")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves an order through its lifecycle
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}

	actorID, ok := currentUserID(c)
	if !ok {
		return
	}

	order, err := h.orderService.ChangeOrderStatus(c.Request.Context(), orderID, req.Status, actorID)
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderItemStatus updates the kitchen status of one order line
func (h *OrderHandler) UpdateOrderItemStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "order ID")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId", "item ID")
	if !ok {
		return
	}

	var req updateLineItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload", err.Error()))
		return
	}

	item, err := h.orderService.ChangeLineItemStatus(c.Request.Context(), orderID, itemID, req.Status)
	if err != nil {
		respondServiceError(c, err, "update order item status")
		return
	}
	c.JSON(http.StatusOK, item)
}
