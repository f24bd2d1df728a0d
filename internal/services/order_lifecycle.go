package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos_backend/internal/models"
	"pos_backend/internal/repositories"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderPreparing, models.OrderCancelled},
	models.OrderPreparing: {models.OrderReady, models.OrderCancelled},
	models.OrderReady:     {models.OrderServed},
	models.OrderServed:    {models.OrderPaid},
	models.OrderPaid:      {},
	models.OrderCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(status models.OrderStatus) bool {
	next, ok := orderTransitions[status]
	return ok && len(next) == 0
}

// TransitionResult is the outcome of an order status change.
type TransitionResult struct {
	Order     *models.Order
	OldStatus models.OrderStatus
	Refunds   []*MovementResult
}

// OpenResult is the outcome of persisting a new order.
type OpenResult struct {
	Order      *models.Order
	Deductions []*MovementResult
}

// OrderLifecycle persists orders and drives them through the status machine.
type OrderLifecycle struct {
	store  repositories.Store
	ledger *StockLedger
	logger zerolog.Logger
}

// NewOrderLifecycle creates a new OrderLifecycle.
func NewOrderLifecycle(store repositories.Store, ledger *StockLedger) *OrderLifecycle {
	return &OrderLifecycle{
		store:  store,
		ledger: ledger,
		logger: log.With().Str("component", "order_lifecycle").Logger(),
	}
}

// Open persists a built order in pendiente, occupies its table and deducts
// every ingredient of the draft through the ledger, all within tx.
func (l *OrderLifecycle) Open(ctx context.Context, tx repositories.Tx, draft *OrderDraft) (*OpenResult, error) {
	order := draft.Order

	if order.TableID != nil {
		table, err := tx.Tables().GetByIDForUpdate(ctx, *order.TableID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrTableNotFound, *order.TableID)
			}
			return nil, mapRepoError(fmt.Sprintf("locking table %d", *order.TableID), err)
		}
		if !table.IsActive || table.Status == models.TableMaintenance {
			return nil, fmt.Errorf("%w: table %s is %s", ErrTableUnavailable, table.Number, table.Status)
		}
		if err := tx.Tables().UpdateStatus(ctx, table.ID, models.TableOccupied); err != nil {
			return nil, mapRepoError(fmt.Sprintf("occupying table %d", table.ID), err)
		}
		number := table.Number
		order.TableNumber = &number
	}

	order.Status = models.OrderPending
	if _, err := tx.Orders().CreateOrder(ctx, &order); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, order.Code)
		}
		return nil, mapRepoError("creating order", err)
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if _, err := tx.Orders().CreateOrderItem(ctx, &order.Items[i]); err != nil {
			return nil, mapRepoError(fmt.Sprintf("creating line for menu item %d", order.Items[i].MenuItemID), err)
		}
	}

	staffID := order.StaffID
	results := make([]*MovementResult, 0, len(draft.Deductions))
	for _, d := range draft.Deductions {
		res, err := l.ledger.ApplyMovement(ctx, tx, MovementRequest{
			IngredientID: d.IngredientID,
			Kind:         models.MovementOutbound,
			Quantity:     d.Quantity,
			Reason:       "Orden " + order.Code,
			OrderID:      &order.ID,
			ActorID:      &staffID,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return &OpenResult{Order: &order, Deductions: results}, nil
}

// Transition moves an order to newStatus under its row lock. Entering
// cancelada refunds every outbound movement of the order in the same unit of work.
func (l *OrderLifecycle) Transition(ctx context.Context, tx repositories.Tx, orderID int64, newStatus models.OrderStatus, actorID *int64) (*TransitionResult, error) {
	if !models.IsValidOrderStatus(string(newStatus)) {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, newStatus)
	}

	current, err := tx.Orders().GetOrderByIDForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrOrderNotFound, orderID)
		}
		return nil, mapRepoError(fmt.Sprintf("locking order %d", orderID), err)
	}

	if !CanTransition(current.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, newStatus)
	}

	result := &TransitionResult{OldStatus: current.Status}

	// Table before ingredients, the same order Open takes them in.
	var table *models.Table
	if IsTerminal(newStatus) && current.TableID != nil {
		table, err = tx.Tables().GetByIDForUpdate(ctx, *current.TableID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, mapRepoError(fmt.Sprintf("locking table %d", *current.TableID), err)
		}
	}

	if newStatus == models.OrderCancelled {
		refunds, err := l.refund(ctx, current, actorID)
		if err != nil {
			return nil, err
		}
		result.Refunds = refunds
	}

	var completedAt *time.Time
	if IsTerminal(newStatus) {
		now := time.Now()
		completedAt = &now
		if table != nil {
			if err := l.releaseTable(ctx, tx, table, orderID); err != nil {
				return nil, err
			}
		}
	}

	updated, err := tx.Orders().UpdateOrderStatus(ctx, orderID, newStatus, completedAt)
	if err != nil {
		return nil, mapRepoError(fmt.Sprintf("updating status of order %d", orderID), err)
	}
	items, err := tx.Orders().GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(fmt.Sprintf("loading lines of order %d", orderID), err)
	}
	updated.Items = items
	result.Order = updated
	return result, nil
}

// releaseTable frees the table once closingOrderID was its last open order.
func (l *OrderLifecycle) releaseTable(ctx context.Context, tx repositories.Tx, table *models.Table, closingOrderID int64) error {
	open, err := tx.Orders().CountOpenOrdersForTable(ctx, table.ID, closingOrderID)
	if err != nil {
		return mapRepoError(fmt.Sprintf("checking open orders of table %d", table.ID), err)
	}
	if open > 0 {
		l.logger.Debug().Int64("table_id", table.ID).Int("open_orders", open).Msg("Table kept occupied")
		return nil
	}
	if err := tx.Tables().UpdateStatus(ctx, table.ID, models.TableAvailable); err != nil {
		return mapRepoError(fmt.Sprintf("releasing table %d", table.ID), err)
	}
	return nil
}

// refund returns every outbound movement of the order as a matching inbound one.
func (l *OrderLifecycle) refund(ctx context.Context, order *models.Order, actorID *int64) ([]*MovementResult, error) {
	var refunds []*MovementResult
	err := l.store.RunAtomic(ctx, func(ctx context.Context, tx repositories.Tx) error {
		deducted, err := tx.Movements().GetOrderMovements(ctx, order.ID, models.MovementOutbound)
		if err != nil {
			return mapRepoError(fmt.Sprintf("loading movements of order %d", order.ID), err)
		}
		for _, m := range deducted {
			res, err := l.ledger.ApplyMovement(ctx, tx, MovementRequest{
				IngredientID: m.IngredientID,
				Kind:         models.MovementInbound,
				Quantity:     m.Quantity,
				Reason:       "Cancelación orden " + order.Code,
				OrderID:      &order.ID,
				ActorID:      actorID,
			})
			if err != nil {
				return err
			}
			refunds = append(refunds, res)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLockTimeout) {
			return nil, err
		}
		l.logger.Error().Err(err).Int64("order_id", order.ID).Str("code", order.Code).
			Msg("Refund of order stock failed, cancellation rolled back")
		return nil, fmt.Errorf("%w: order %s: %v", ErrRefundInvariant, order.Code, err)
	}
	return refunds, nil
}

// ChangeLineItemStatus updates one line's kitchen status. It has no stock effect.
func (l *OrderLifecycle) ChangeLineItemStatus(ctx context.Context, tx repositories.Tx, orderID, itemID int64, newStatus models.LineItemStatus) (*models.OrderLineItem, error) {
	if !models.IsValidLineItemStatus(string(newStatus)) {
		return nil, fmt.Errorf("%w: unknown line item status %q", ErrValidation, newStatus)
	}
	if _, err := tx.Orders().GetOrderByIDForUpdate(ctx, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrOrderNotFound, orderID)
		}
		return nil, mapRepoError(fmt.Sprintf("locking order %d", orderID), err)
	}
	item, err := tx.Orders().UpdateOrderItemStatus(ctx, orderID, itemID, newStatus)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: item %d on order %d", ErrLineItemNotFound, itemID, orderID)
		}
		return nil, mapRepoError(fmt.Sprintf("updating line item %d", itemID), err)
	}
	return item, nil
}
