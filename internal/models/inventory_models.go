package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind is the persisted type of a stock movement.
type MovementKind string

const (
	MovementInbound    MovementKind = "entrada"
	MovementOutbound   MovementKind = "salida"
	MovementCorrection MovementKind = "ajuste" // sets stock to an absolute value
	MovementWaste      MovementKind = "merma"
)

// IsValidMovementKind checks if the provided string is a known movement kind.
func IsValidMovementKind(kind string) bool {
	switch MovementKind(kind) {
	case MovementInbound, MovementOutbound, MovementCorrection, MovementWaste:
		return true
	default:
		return false
	}
}

// Ingredient is a raw stock-tracked input consumed by menu items.
// StockOnHand is only ever written through the stock ledger.
type Ingredient struct {
	ID               int64           `json:"id" db:"id"`
	Name             string          `json:"nombre" db:"nombre"`
	Unit             string          `json:"unidad" db:"unidad"`
	StockOnHand      decimal.Decimal `json:"stock_actual" db:"stock_actual"`
	ReorderThreshold decimal.Decimal `json:"stock_minimo" db:"stock_minimo"`
	Location         *string         `json:"ubicacion,omitempty" db:"ubicacion"`
	UnitCost         decimal.Decimal `json:"costo_unitario" db:"costo_unitario"`
	Supplier         *string         `json:"proveedor,omitempty" db:"proveedor"`
	IsActive         bool            `json:"activo" db:"activo"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether stock is at or below the reorder threshold.
func (i *Ingredient) IsLowStock() bool {
	return i.StockOnHand.LessThanOrEqual(i.ReorderThreshold)
}

// StockMovement is an immutable ledger entry. Rows are inserted once and never updated.
type StockMovement struct {
	ID             int64           `json:"id" db:"id"`
	IngredientID   int64           `json:"ingredient_id" db:"ingredient_id"`
	Kind           MovementKind    `json:"tipo" db:"tipo"`
	Quantity       decimal.Decimal `json:"cantidad" db:"cantidad"`
	QuantityBefore decimal.Decimal `json:"stock_anterior" db:"stock_anterior"`
	QuantityAfter  decimal.Decimal `json:"stock_nuevo" db:"stock_nuevo"`
	Reason         *string         `json:"referencia,omitempty" db:"referencia"`
	OrderID        *int64          `json:"order_id,omitempty" db:"order_id"`
	ActorID        *int64          `json:"user_id,omitempty" db:"user_id"`
	Notes          *string         `json:"notas,omitempty" db:"notas"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`

	IngredientName *string `json:"ingrediente_nombre,omitempty"`
	IngredientUnit *string `json:"unidad,omitempty"`
}

// MovementFilters defines the available filters for querying the movement history.
type MovementFilters struct {
	IngredientID *int64        `form:"ingredient_id"`
	Kind         *MovementKind `form:"tipo"`
	OrderID      *int64        `form:"order_id"`
	ActorID      *int64        `form:"user_id"`
	From         *time.Time    `form:"fecha_inicio"`
	To           *time.Time    `form:"fecha_fin"`
	Page         int           `form:"page"`
	PageSize     int           `form:"page_size"`
}

// AlertType is the persisted alert category.
type AlertType string

const (
	AlertLowStock   AlertType = "stock_bajo"
	AlertOutOfStock AlertType = "stock_agotado"
)

// Alert is a persisted operational alert raised by the engine.
type Alert struct {
	ID         int64     `json:"id" db:"id"`
	Type       AlertType `json:"tipo" db:"tipo"`
	Priority   string    `json:"prioridad" db:"prioridad"`
	Title      string    `json:"titulo" db:"titulo"`
	Message    *string   `json:"mensaje,omitempty" db:"mensaje"`
	Resource   string    `json:"recurso" db:"recurso"`
	ResourceID int64     `json:"recurso_id" db:"recurso_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
