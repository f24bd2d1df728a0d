package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TableStatus is the persisted occupancy status of a table.
type TableStatus string

const (
	TableAvailable   TableStatus = "disponible"
	TableOccupied    TableStatus = "ocupada"
	TableReserved    TableStatus = "reservada"
	TableMaintenance TableStatus = "mantenimiento"
)

// IsValidTableStatus checks if the provided string is a known table status.
func IsValidTableStatus(status string) bool {
	switch TableStatus(status) {
	case TableAvailable, TableOccupied, TableReserved, TableMaintenance:
		return true
	default:
		return false
	}
}

// Table is a physical table. Occupancy follows order creation and completion.
type Table struct {
	ID       int64       `json:"id" db:"id"`
	Number   string      `json:"numero" db:"numero"`
	Capacity int         `json:"capacidad" db:"capacidad"`
	Location *string     `json:"ubicacion,omitempty" db:"ubicacion"`
	Status   TableStatus `json:"estado" db:"estado"`
	IsActive bool        `json:"activa" db:"activa"`

	ActiveOrder *ActiveOrderSummary `json:"orden_activa,omitempty"`
}

// ActiveOrderSummary is the open order currently seated at a table.
type ActiveOrderSummary struct {
	ID        int64           `json:"id"`
	Code      string          `json:"codigo"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}
