package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IngredientRequirement links a menu item to the ingredient quantity one portion consumes.
type IngredientRequirement struct {
	IngredientID  int64           `json:"ingredient_id" db:"ingredient_id"`
	QtyPerPortion decimal.Decimal `json:"cantidad_por_porcion" db:"cantidad_por_porcion"`
	Optional      bool            `json:"es_opcional" db:"es_opcional"`
}

// MenuItem is a sellable item. Its availability is never stored, it is derived from stock.
type MenuItem struct {
	ID           int64                   `json:"id" db:"id"`
	Name         string                  `json:"nombre" db:"nombre"`
	Description  *string                 `json:"descripcion,omitempty" db:"descripcion"`
	CategoryID   *int64                  `json:"categoria_id,omitempty" db:"categoria_id"`
	Price        decimal.Decimal         `json:"precio" db:"precio"`
	PrepMinutes  int                     `json:"tiempo_preparacion" db:"tiempo_preparacion"`
	IsAvailable  bool                    `json:"disponible" db:"disponible"`
	IsActive     bool                    `json:"activo" db:"activo"`
	Requirements []IngredientRequirement `json:"ingredientes"`
	CreatedAt    time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at" db:"updated_at"`
}
