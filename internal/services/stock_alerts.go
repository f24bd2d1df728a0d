package services

import (
	"context"
	"fmt"

	"pos_backend/internal/events"
	"pos_backend/internal/models"
	"pos_backend/internal/repositories"
)

const (
	alertPriorityHigh       = "alta"
	alertPriorityCritical   = "critica"
	alertResourceIngredient = "ingredients"
)

// raiseLowStockAlerts writes an alert row for every movement that left its
// ingredient at or below the reorder threshold and returns the events to emit
// once tx commits. With crossedOnly set, an ingredient that was already low
// before the movement is skipped unless it just ran out.
func raiseLowStockAlerts(ctx context.Context, tx repositories.Tx, results []*MovementResult, crossedOnly bool) ([]events.Event, error) {
	var out []events.Event
	for _, res := range results {
		if res == nil || !res.LowStock {
			continue
		}
		ing := res.Ingredient
		before := res.Movement.QuantityBefore
		depleted := !ing.StockOnHand.IsPositive()

		if crossedOnly {
			crossed := before.GreaterThan(ing.ReorderThreshold)
			ranOut := depleted && before.IsPositive()
			if !crossed && !ranOut {
				continue
			}
		}

		alert := &models.Alert{
			Type:       models.AlertLowStock,
			Priority:   alertPriorityHigh,
			Title:      fmt.Sprintf("Stock bajo: %s", ing.Name),
			Resource:   alertResourceIngredient,
			ResourceID: ing.ID,
		}
		if depleted {
			alert.Type = models.AlertOutOfStock
			alert.Priority = alertPriorityCritical
			alert.Title = fmt.Sprintf("Stock agotado: %s", ing.Name)
		}
		msg := fmt.Sprintf("El ingrediente %s tiene %s %s (mínimo: %s)",
			ing.Name, ing.StockOnHand.String(), ing.Unit, ing.ReorderThreshold.String())
		alert.Message = &msg

		if _, err := tx.Alerts().CreateAlert(ctx, alert); err != nil {
			return nil, mapRepoError(fmt.Sprintf("creating alert for ingredient %d", ing.ID), err)
		}

		out = append(out, events.New(events.InventoryLowStock, map[string]interface{}{
			"alert_id":      alert.ID,
			"tipo":          string(alert.Type),
			"ingredient_id": ing.ID,
			"ingrediente":   ing.Name,
			"stock":         ing.StockOnHand.String(),
			"stock_minimo":  ing.ReorderThreshold.String(),
			"unidad":        ing.Unit,
		}))
	}
	return out, nil
}
