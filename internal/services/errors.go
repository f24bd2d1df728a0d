package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrMenuItemNotFound   = errors.New("menu item not found or inactive")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicateCode      = errors.New("order code collision")
	ErrLockTimeout        = errors.New("resource busy, retry later")
	ErrOrderNotFound      = errors.New("order not found")
	ErrLineItemNotFound   = errors.New("order line item not found")
	ErrTableNotFound      = errors.New("table not found")
	ErrTableUnavailable   = errors.New("table is not available")
	ErrIngredientNotFound = errors.New("ingredient not found")

	// ErrRefundInvariant means a cancellation could not return stock it had deducted.
	// The cancellation is rolled back when this is returned.
	ErrRefundInvariant = errors.New("stock refund failed during cancellation")
)

// MissingIngredient describes one ingredient that cannot cover a request.
type MissingIngredient struct {
	IngredientID int64           `json:"ingredient_id"`
	Name         string          `json:"nombre,omitempty"`
	Unit         string          `json:"unidad,omitempty"`
	Required     decimal.Decimal `json:"requerido"`
	Available    decimal.Decimal `json:"disponible"`
}

// InsufficientStockError carries the ingredients that could not cover a request.
// errors.Is(err, ErrInsufficientStock) holds for it.
type InsufficientStockError struct {
	MenuItemID *int64
	Missing    []MissingIngredient
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("ingredient %d (required %s, available %s)",
			m.IngredientID, m.Required.String(), m.Available.String()))
	}
	msg := ErrInsufficientStock.Error()
	if e.MenuItemID != nil {
		msg = fmt.Sprintf("%s for menu item %d", msg, *e.MenuItemID)
	}
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}
	return msg
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
