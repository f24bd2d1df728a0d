package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pendiente"
	OrderConfirmed OrderStatus = "confirmada"
	OrderPreparing OrderStatus = "en_preparacion"
	OrderReady     OrderStatus = "lista"
	OrderServed    OrderStatus = "servida"
	OrderPaid      OrderStatus = "cobrada"
	OrderCancelled OrderStatus = "cancelada"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderServed, OrderPaid, OrderCancelled,
}

// IsValidOrderStatus checks if the provided status string is a known OrderStatus.
func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if string(s) == status {
			return true
		}
	}
	return false
}

// LineItemStatus is the per-line kitchen status.
type LineItemStatus string

const (
	LineItemPending   LineItemStatus = "pendiente"
	LineItemPreparing LineItemStatus = "preparando"
	LineItemReady     LineItemStatus = "listo"
	LineItemServed    LineItemStatus = "servido"
	LineItemCancelled LineItemStatus = "cancelado"
)

// IsValidLineItemStatus checks if the provided status string is a known LineItemStatus.
func IsValidLineItemStatus(status string) bool {
	switch LineItemStatus(status) {
	case LineItemPending, LineItemPreparing, LineItemReady, LineItemServed, LineItemCancelled:
		return true
	default:
		return false
	}
}

// Order is a customer's placed request.
type Order struct {
	ID          int64           `json:"id" db:"id"`
	Code        string          `json:"codigo" db:"codigo"`
	TableID     *int64          `json:"mesa_id,omitempty" db:"mesa_id"`
	TableNumber *string         `json:"mesa_numero,omitempty" db:"mesa_numero"`
	StaffID     int64           `json:"mesero_id" db:"mesero_id"`
	Status      OrderStatus     `json:"estado" db:"estado"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax         decimal.Decimal `json:"impuestos" db:"impuestos"`
	Total       decimal.Decimal `json:"total" db:"total"`
	Notes       *string         `json:"notas,omitempty" db:"notas"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`

	Items []OrderLineItem `json:"items,omitempty"`
}

// OrderLineItem is a snapshot of a menu item at order time. Only Status changes after insert.
type OrderLineItem struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order_id" db:"order_id"`
	MenuItemID int64           `json:"menu_item_id" db:"menu_item_id"`
	Name       string          `json:"nombre_item" db:"nombre_item"`
	Quantity   int             `json:"cantidad" db:"cantidad"`
	UnitPrice  decimal.Decimal `json:"precio_unitario" db:"precio_unitario"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
	Notes      *string         `json:"notas,omitempty" db:"notas"`
	Status     LineItemStatus  `json:"estado" db:"estado"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	StaffID  *int64       `form:"mesero_id"`
	TableID  *int64       `form:"mesa_id"`
	Status   *OrderStatus `form:"estado"`
	Date     *string      `form:"date"` // YYYY-MM-DD
	Page     int          `form:"page"`
	PageSize int          `form:"page_size"`
}
