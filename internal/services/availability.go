package services

import (
	"pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// Availability is the fulfillability of one menu item against current stock.
// MaxPortions is nil when the item has no ingredient requirements (unbounded).
type Availability struct {
	MenuItemID  int64               `json:"menu_item_id"`
	Available   bool                `json:"disponible"`
	MaxPortions *int64              `json:"max_porciones"`
	Missing     []MissingIngredient `json:"ingredientes_faltantes"`
}

// ComputeAvailability derives how many portions the current stock can produce.
// It is pure and never persisted; callers recompute it on every read.
func ComputeAvailability(requirements []models.IngredientRequirement, stock map[int64]models.Ingredient) Availability {
	result := Availability{Available: true, Missing: []MissingIngredient{}}

	var maxPortions *int64
	for _, req := range requirements {
		if !req.QtyPerPortion.IsPositive() {
			continue
		}

		ing, ok := stock[req.IngredientID]
		onHand := decimal.Zero
		if ok {
			onHand = ing.StockOnHand
		}
		portions := portionsFrom(onHand, req.QtyPerPortion)

		if portions == 0 {
			result.Missing = append(result.Missing, MissingIngredient{
				IngredientID: req.IngredientID,
				Name:         ing.Name,
				Unit:         ing.Unit,
				Required:     req.QtyPerPortion,
				Available:    onHand,
			})
		}
		if maxPortions == nil || portions < *maxPortions {
			p := portions
			maxPortions = &p
		}
	}

	result.MaxPortions = maxPortions
	if maxPortions != nil {
		result.Available = *maxPortions > 0
	}
	return result
}

// Shortfall lists every ingredient whose stock cannot cover the requested portions.
func Shortfall(requirements []models.IngredientRequirement, stock map[int64]models.Ingredient, portions int64) []MissingIngredient {
	missing := []MissingIngredient{}
	count := decimal.NewFromInt(portions)
	for _, req := range requirements {
		if !req.QtyPerPortion.IsPositive() {
			continue
		}
		ing, ok := stock[req.IngredientID]
		onHand := decimal.Zero
		if ok {
			onHand = ing.StockOnHand
		}
		needed := req.QtyPerPortion.Mul(count)
		if onHand.LessThan(needed) {
			missing = append(missing, MissingIngredient{
				IngredientID: req.IngredientID,
				Name:         ing.Name,
				Unit:         ing.Unit,
				Required:     needed,
				Available:    onHand,
			})
		}
	}
	return missing
}

// portionsFrom returns floor(onHand / perPortion) for a positive perPortion.
func portionsFrom(onHand, perPortion decimal.Decimal) int64 {
	if !onHand.IsPositive() {
		return 0
	}
	q, _ := onHand.QuoRem(perPortion, 0)
	return q.IntPart()
}
