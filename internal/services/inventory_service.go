package services

import (
	"context"
	"errors"
	"fmt"

	"pos_backend/internal/events"
	"pos_backend/internal/models"
	"pos_backend/internal/observability"
	"pos_backend/internal/repositories"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stock states reported by GetLowStockAlerts.
const (
	StockStateDepleted = "agotado"
	StockStateLow      = "bajo"
)

// --- DTOs ---

// AdjustStockRequest is a manual stock movement recorded by staff.
// For MovementCorrection the quantity is the new absolute stock level.
type AdjustStockRequest struct {
	Kind     models.MovementKind `json:"tipo" binding:"required"`
	Quantity *decimal.Decimal    `json:"cantidad" binding:"required"`
	Reason   *string             `json:"referencia"`
	Notes    *string             `json:"notas"`
	ActorID  int64               `json:"-"`
}

// LowStockAlert is an ingredient at or below its reorder threshold.
type LowStockAlert struct {
	models.Ingredient
	State string `json:"estado"`
}

// LowStockReport lists low ingredients, depleted ones first.
type LowStockReport struct {
	Alerts   []LowStockAlert `json:"alerts"`
	Depleted int             `json:"agotados"`
	Low      int             `json:"stock_bajo"`
}

// --- InventoryService Interface ---
type InventoryService interface {
	GetAvailability(ctx context.Context, menuItemID int64) (*Availability, error)
	GetAllAvailability(ctx context.Context) ([]Availability, error)
	AdjustStock(ctx context.Context, ingredientID int64, req AdjustStockRequest) (*models.StockMovement, error)
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error)
	GetLowStockAlerts(ctx context.Context) (*LowStockReport, error)
}

// --- inventoryService Implementation ---
type inventoryService struct {
	store   repositories.Store
	ledger  *StockLedger
	emitter *events.Emitter
	logger  zerolog.Logger
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(store repositories.Store, ledger *StockLedger, emitter *events.Emitter) InventoryService {
	return &inventoryService{
		store:   store,
		ledger:  ledger,
		emitter: emitter,
		logger:  log.With().Str("component", "inventory_service").Logger(),
	}
}

func stockMap(snapshot []models.Ingredient) map[int64]models.Ingredient {
	stock := make(map[int64]models.Ingredient, len(snapshot))
	for _, ing := range snapshot {
		stock[ing.ID] = ing
	}
	return stock
}

func (s *inventoryService) GetAvailability(ctx context.Context, menuItemID int64) (*Availability, error) {
	var avail Availability
	err := s.store.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		item, err := tx.Menu().GetActiveItem(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrMenuItemNotFound, menuItemID)
			}
			return fmt.Errorf("failed to load menu item %d: %w", menuItemID, err)
		}
		snapshot, err := tx.Ingredients().GetStockSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to load stock snapshot: %w", err)
		}
		avail = ComputeAvailability(item.Requirements, stockMap(snapshot))
		avail.MenuItemID = item.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &avail, nil
}

func (s *inventoryService) GetAllAvailability(ctx context.Context) ([]Availability, error) {
	var out []Availability
	err := s.store.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		items, err := tx.Menu().GetActiveItems(ctx)
		if err != nil {
			return fmt.Errorf("failed to load menu items: %w", err)
		}
		snapshot, err := tx.Ingredients().GetStockSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to load stock snapshot: %w", err)
		}
		stock := stockMap(snapshot)
		out = make([]Availability, 0, len(items))
		for _, item := range items {
			avail := ComputeAvailability(item.Requirements, stock)
			avail.MenuItemID = item.ID
			out = append(out, avail)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, ingredientID int64, req AdjustStockRequest) (*models.StockMovement, error) {
	ctx, span := observability.Tracer().Start(ctx, "InventoryService.AdjustStock",
		trace.WithAttributes(attribute.Int64("ingredient.id", ingredientID), attribute.String("movement.kind", string(req.Kind))))
	defer span.End()

	if req.Quantity == nil {
		return nil, fmt.Errorf("%w: cantidad is required", ErrValidation)
	}
	reason := "Ajuste manual"
	if req.Reason != nil && *req.Reason != "" {
		reason = *req.Reason
	}
	actorID := req.ActorID

	var (
		result *MovementResult
		alerts []events.Event
	)
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		result, err = s.ledger.ApplyMovement(ctx, tx, MovementRequest{
			IngredientID: ingredientID,
			Kind:         req.Kind,
			Quantity:     *req.Quantity,
			Reason:       reason,
			ActorID:      &actorID,
			Notes:        req.Notes,
		})
		if err != nil {
			return err
		}
		alerts, err = raiseLowStockAlerts(ctx, tx, []*MovementResult{result}, false)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	m := result.Movement
	s.logger.Info().Int64("ingredient_id", ingredientID).Str("kind", string(m.Kind)).
		Str("before", m.QuantityBefore.String()).Str("after", m.QuantityAfter.String()).
		Int64("actor_id", actorID).Msg("Stock adjusted")

	evts := []events.Event{
		events.New(events.InventoryChanged, map[string]interface{}{
			"reason":        events.ReasonStockAdjusted,
			"ingredient_id": ingredientID,
			"tipo":          string(m.Kind),
			"stock":         m.QuantityAfter.String(),
		}),
		events.New(events.MenuAvailabilityChanged, map[string]interface{}{"reason": events.ReasonStockAdjusted}),
	}
	s.emitter.Emit(ctx, append(evts, alerts...)...)

	return m, nil
}

func (s *inventoryService) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error) {
	if filters.Kind != nil && !models.IsValidMovementKind(string(*filters.Kind)) {
		return nil, 0, fmt.Errorf("%w: unknown movement kind %q", ErrValidation, *filters.Kind)
	}
	var (
		movements []models.StockMovement
		total     int
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		movements, total, err = tx.Movements().GetMovements(ctx, filters)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get movements: %w", err)
	}
	return movements, total, nil
}

func (s *inventoryService) GetLowStockAlerts(ctx context.Context) (*LowStockReport, error) {
	var low []models.Ingredient
	err := s.store.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		low, err = tx.Ingredients().GetLowStock(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock ingredients: %w", err)
	}

	report := &LowStockReport{Alerts: make([]LowStockAlert, 0, len(low))}
	for _, ing := range low {
		state := StockStateLow
		if !ing.StockOnHand.IsPositive() {
			state = StockStateDepleted
			report.Depleted++
		} else {
			report.Low++
		}
		report.Alerts = append(report.Alerts, LowStockAlert{Ingredient: ing, State: state})
	}
	return report, nil
}
