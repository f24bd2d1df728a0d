package services

import (
	"context"
	"errors"
	"fmt"

	"pos_backend/internal/models"
	"pos_backend/internal/repositories"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MovementRequest describes one stock mutation.
type MovementRequest struct {
	IngredientID int64
	Kind         models.MovementKind
	Quantity     decimal.Decimal // correction: the absolute target level
	Reason       string
	OrderID      *int64
	ActorID      *int64
	Notes        *string
}

// MovementResult is the outcome of an applied movement.
type MovementResult struct {
	Movement   *models.StockMovement
	Ingredient *models.Ingredient // post-mutation state
	LowStock   bool
}

// StockLedger is the only writer of ingredient stock levels.
type StockLedger struct {
	logger zerolog.Logger
}

// NewStockLedger creates a new StockLedger.
func NewStockLedger() *StockLedger {
	return &StockLedger{logger: log.With().Str("component", "stock_ledger").Logger()}
}

// ApplyMovement locks the ingredient row, applies the mutation and appends the
// movement record. It must run inside a unit of work.
func (l *StockLedger) ApplyMovement(ctx context.Context, tx repositories.Tx, req MovementRequest) (*MovementResult, error) {
	if err := validateMovement(req); err != nil {
		return nil, err
	}

	ing, err := tx.Ingredients().GetByIDForUpdate(ctx, req.IngredientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrIngredientNotFound, req.IngredientID)
		}
		return nil, mapRepoError(fmt.Sprintf("locking ingredient %d", req.IngredientID), err)
	}

	before := ing.StockOnHand
	var after decimal.Decimal
	switch req.Kind {
	case models.MovementInbound:
		after = before.Add(req.Quantity)
	case models.MovementOutbound, models.MovementWaste:
		after = before.Sub(req.Quantity)
		if after.IsNegative() {
			return nil, &InsufficientStockError{Missing: []MissingIngredient{{
				IngredientID: ing.ID,
				Name:         ing.Name,
				Unit:         ing.Unit,
				Required:     req.Quantity,
				Available:    before,
			}}}
		}
	case models.MovementCorrection:
		after = req.Quantity
	}

	if err := tx.Ingredients().UpdateStock(ctx, ing.ID, after); err != nil {
		return nil, mapRepoError(fmt.Sprintf("updating stock of ingredient %d", ing.ID), err)
	}

	movement := &models.StockMovement{
		IngredientID:   ing.ID,
		Kind:           req.Kind,
		Quantity:       req.Quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
		OrderID:        req.OrderID,
		ActorID:        req.ActorID,
		Notes:          req.Notes,
	}
	if req.Reason != "" {
		reason := req.Reason
		movement.Reason = &reason
	}
	if _, err := tx.Movements().CreateMovement(ctx, movement); err != nil {
		return nil, mapRepoError(fmt.Sprintf("recording %s movement for ingredient %d", req.Kind, ing.ID), err)
	}

	ing.StockOnHand = after
	l.logger.Debug().
		Int64("ingredient_id", ing.ID).
		Str("kind", string(req.Kind)).
		Str("before", before.String()).
		Str("after", after.String()).
		Msg("Stock movement applied")

	return &MovementResult{Movement: movement, Ingredient: ing, LowStock: ing.IsLowStock()}, nil
}

// stockScale is the number of decimal places stock columns persist.
const stockScale = 3

func validateMovement(req MovementRequest) error {
	if !models.IsValidMovementKind(string(req.Kind)) {
		return fmt.Errorf("%w: unknown movement kind %q", ErrValidation, req.Kind)
	}
	if !req.Quantity.Equal(req.Quantity.Truncate(stockScale)) {
		return fmt.Errorf("%w: quantity %s has more than %d decimal places", ErrValidation, req.Quantity, stockScale)
	}
	if req.Kind == models.MovementCorrection {
		if req.Quantity.IsNegative() {
			return fmt.Errorf("%w: correction target must not be negative", ErrValidation)
		}
		return nil
	}
	if !req.Quantity.IsPositive() {
		return fmt.Errorf("%w: movement quantity must be positive", ErrValidation)
	}
	return nil
}

// mapRepoError lifts repository lock failures into the service taxonomy and wraps the rest.
func mapRepoError(op string, err error) error {
	if errors.Is(err, repositories.ErrLockTimeout) {
		return fmt.Errorf("%w: %s: %v", ErrLockTimeout, op, err)
	}
	return fmt.Errorf("failed %s: %w", op, err)
}
