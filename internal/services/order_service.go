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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// --- OrderService Interface ---
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	ChangeOrderStatus(ctx context.Context, orderID int64, newStatus models.OrderStatus, actorID int64) (*models.Order, error)
	ChangeLineItemStatus(ctx context.Context, orderID, itemID int64, newStatus models.LineItemStatus) (*models.OrderLineItem, error)
}

// --- orderService Implementation ---
type orderService struct {
	store     repositories.Store
	builder   *OrderBuilder
	lifecycle *OrderLifecycle
	emitter   *events.Emitter
	logger    zerolog.Logger
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(store repositories.Store, builder *OrderBuilder, lifecycle *OrderLifecycle, emitter *events.Emitter) OrderService {
	return &orderService{
		store:     store,
		builder:   builder,
		lifecycle: lifecycle,
		emitter:   emitter,
		logger:    log.With().Str("component", "order_service").Logger(),
	}
}

// --- Method Implementations ---

func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	ctx, span := observability.Tracer().Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(attribute.Int("order.lines", len(req.Items))))
	defer span.End()

	var (
		opened *OpenResult
		alerts []events.Event
	)
	attempt := func() error {
		return s.store.RunAtomic(ctx, func(ctx context.Context, tx repositories.Tx) error {
			draft, err := s.builder.Build(ctx, tx, req)
			if err != nil {
				return err
			}
			opened, err = s.lifecycle.Open(ctx, tx, draft)
			if err != nil {
				return err
			}
			alerts, err = raiseLowStockAlerts(ctx, tx, opened.Deductions, true)
			return err
		})
	}

	err := attempt()
	if errors.Is(err, ErrDuplicateCode) {
		// The failed transaction is gone; a fresh one draws a new code.
		s.logger.Warn().Err(err).Msg("Order code collision, retrying once")
		err = attempt()
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	order := opened.Order
	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.String("order.code", order.Code))
	s.logger.Info().Int64("order_id", order.ID).Str("code", order.Code).Int64("staff_id", order.StaffID).
		Str("total", order.Total.String()).Msg("Order created")

	evts := []events.Event{
		events.New(events.OrderCreated, map[string]interface{}{
			"order_id": order.ID,
			"codigo":   order.Code,
			"mesa":     order.TableNumber,
			"total":    order.Total.String(),
		}),
		events.New(events.InventoryChanged, map[string]interface{}{"reason": events.ReasonOrderCreated, "order_id": order.ID}),
		events.New(events.MenuAvailabilityChanged, map[string]interface{}{"reason": events.ReasonOrderCreated}),
	}
	s.emitter.Emit(ctx, append(evts, alerts...)...)

	return order, nil
}

func (s *orderService) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	var (
		orders []models.Order
		total  int
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		orders, total, err = tx.Orders().GetOrders(ctx, filters)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := s.store.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		order, err = tx.Orders().GetOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrOrderNotFound, orderID)
			}
			return fmt.Errorf("failed to get order by ID from repository: %w", err)
		}
		order.Items, err = tx.Orders().GetOrderItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to get items of order %d: %w", orderID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ChangeOrderStatus(ctx context.Context, orderID int64, newStatus models.OrderStatus, actorID int64) (*models.Order, error) {
	ctx, span := observability.Tracer().Start(ctx, "OrderService.ChangeOrderStatus",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.String("order.new_status", string(newStatus))))
	defer span.End()

	var result *TransitionResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		result, err = s.lifecycle.Transition(ctx, tx, orderID, newStatus, &actorID)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	order := result.Order
	s.logger.Info().Int64("order_id", order.ID).Str("code", order.Code).
		Str("old_status", string(result.OldStatus)).Str("new_status", string(order.Status)).
		Int("refunds", len(result.Refunds)).Msg("Order status changed")

	evts := []events.Event{
		events.New(events.OrderStatusChanged, map[string]interface{}{
			"order_id": order.ID,
			"codigo":   order.Code,
			"old":      string(result.OldStatus),
			"new":      string(order.Status),
		}),
	}
	if order.Status == models.OrderCancelled {
		evts = append(evts,
			events.New(events.InventoryChanged, map[string]interface{}{"reason": events.ReasonOrderCancelled, "order_id": order.ID}),
			events.New(events.MenuAvailabilityChanged, map[string]interface{}{"reason": events.ReasonOrderCancelled}),
		)
	}
	s.emitter.Emit(ctx, evts...)

	return order, nil
}

func (s *orderService) ChangeLineItemStatus(ctx context.Context, orderID, itemID int64, newStatus models.LineItemStatus) (*models.OrderLineItem, error) {
	var item *models.OrderLineItem
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		item, err = s.lifecycle.ChangeLineItemStatus(ctx, tx, orderID, itemID, newStatus)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.New(events.OrderItemStatusChanged, map[string]interface{}{
		"order_id": orderID,
		"item_id":  itemID,
		"estado":   string(item.Status),
	}))
	return item, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
