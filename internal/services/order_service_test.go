package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pos_backend/internal/events"
	"pos_backend/internal/models"
	"pos_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	milkID     = int64(1)
	coffeeID   = int64(2)
	latteID    = int64(10)
	espressoID = int64(11)
	waterID    = int64(12)
	staffID    = int64(7)
)

type engine struct {
	store     *fakeStore
	sink      *recordingSink
	orders    OrderService
	inventory InventoryService
	tables    TableService
}

func newEngine(t *testing.T, gen CodeGenerator) *engine {
	t.Helper()
	store := newFakeStore()
	store.addIngredient(milkID, "Leche", "l", "1.0", "0.2")
	store.addIngredient(coffeeID, "Café", "kg", "1", "0.1")
	store.addMenuItem(latteID, "Latte", "45.50", req(milkID, "0.25"), req(coffeeID, "0.018"))
	store.addMenuItem(espressoID, "Espresso", "30", req(coffeeID, "0.018"))
	store.addMenuItem(waterID, "Agua", "15")
	store.addTable(5, "M5", models.TableAvailable)

	sink := &recordingSink{}
	emitter := events.NewEmitter(sink, time.Second)
	ledger := NewStockLedger()
	return &engine{
		store:     store,
		sink:      sink,
		orders:    NewOrderService(store, NewOrderBuilder(gen), NewOrderLifecycle(store, ledger), emitter),
		inventory: NewInventoryService(store, ledger, emitter),
		tables:    NewTableService(store, emitter),
	}
}

func lattes(n int) CreateOrderRequest {
	return CreateOrderRequest{StaffID: staffID, Items: []OrderLineRequest{{MenuItemID: latteID, Quantity: n}}}
}

func (e *engine) maxLattes(t *testing.T) int64 {
	t.Helper()
	avail, err := e.inventory.GetAvailability(context.Background(), latteID)
	require.NoError(t, err)
	require.NotNil(t, avail.MaxPortions)
	return *avail.MaxPortions
}

func TestCreateOrder_DeductsUntilDepleted(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	assert.Equal(t, int64(4), e.maxLattes(t))

	_, err := e.orders.CreateOrder(ctx, lattes(5))
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.NotNil(t, stockErr.MenuItemID)
	assert.Equal(t, latteID, *stockErr.MenuItemID)
	require.Len(t, stockErr.Missing, 1)
	assert.Equal(t, milkID, stockErr.Missing[0].IngredientID)
	assert.True(t, stockErr.Missing[0].Required.Equal(dec("1.25")))
	assert.True(t, e.store.stock(milkID).Equal(dec("1")), "failed order leaves stock untouched")
	assert.Zero(t, e.store.orderCount())

	order, err := e.orders.CreateOrder(ctx, lattes(4))
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, order.Code)
	require.Len(t, order.Items, 1)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	assert.True(t, e.store.stock(milkID).IsZero())
	assert.True(t, e.store.stock(coffeeID).Equal(dec("0.928")))
	assert.Equal(t, int64(0), e.maxLattes(t))

	avail, err := e.inventory.GetAvailability(ctx, latteID)
	require.NoError(t, err)
	assert.False(t, avail.Available)
	require.Len(t, avail.Missing, 1)
	assert.Equal(t, milkID, avail.Missing[0].IngredientID)

	_, err = e.orders.CreateOrder(ctx, lattes(1))
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCreateOrder_RecordsOneOutboundMovementPerIngredient(t *testing.T) {
	e := newEngine(t, nil)

	order, err := e.orders.CreateOrder(context.Background(), CreateOrderRequest{
		StaffID: staffID,
		Items: []OrderLineRequest{
			{MenuItemID: latteID, Quantity: 2},
			{MenuItemID: espressoID, Quantity: 1},
			{MenuItemID: latteID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	moves := e.store.movementsOf(order.ID)
	require.Len(t, moves, 2)
	assert.Equal(t, milkID, moves[0].IngredientID)
	assert.True(t, moves[0].Quantity.Equal(dec("0.75")))
	assert.Equal(t, coffeeID, moves[1].IngredientID)
	assert.True(t, moves[1].Quantity.Equal(dec("0.072")))
	for _, m := range moves {
		assert.Equal(t, models.MovementOutbound, m.Kind)
		require.NotNil(t, m.Reason)
		assert.Equal(t, "Orden "+order.Code, *m.Reason)
		require.NotNil(t, m.ActorID)
		assert.Equal(t, staffID, *m.ActorID)
		assert.True(t, m.QuantityBefore.Sub(m.Quantity).Equal(m.QuantityAfter))
	}
}

func TestCreateOrder_AggregatesQuantityAcrossLines(t *testing.T) {
	e := newEngine(t, nil)

	_, err := e.orders.CreateOrder(context.Background(), CreateOrderRequest{
		StaffID: staffID,
		Items: []OrderLineRequest{
			{MenuItemID: latteID, Quantity: 3},
			{MenuItemID: latteID, Quantity: 3},
		},
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, e.store.stock(milkID).Equal(dec("1")))
}

func TestCreateOrder_Pricing(t *testing.T) {
	e := newEngine(t, nil)

	order, err := e.orders.CreateOrder(context.Background(), CreateOrderRequest{
		StaffID: staffID,
		Items: []OrderLineRequest{
			{MenuItemID: latteID, Quantity: 2},
			{MenuItemID: espressoID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "121", order.Subtotal.String())
	assert.Equal(t, "19.36", order.Tax.String())
	assert.Equal(t, "140.36", order.Total.String())
	assert.Equal(t, "91", order.Items[0].Subtotal.String())
	assert.Equal(t, "45.5", order.Items[0].UnitPrice.String())
}

func TestCreateOrder_ItemWithoutRequirementsIsAlwaysAvailable(t *testing.T) {
	e := newEngine(t, nil)

	order, err := e.orders.CreateOrder(context.Background(), CreateOrderRequest{
		StaffID: staffID,
		Items:   []OrderLineRequest{{MenuItemID: waterID, Quantity: 50}},
	})
	require.NoError(t, err)
	assert.Empty(t, e.store.movementsOf(order.ID))
}

func TestCreateOrder_Validation(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	_, err := e.orders.CreateOrder(ctx, CreateOrderRequest{StaffID: staffID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.orders.CreateOrder(ctx, CreateOrderRequest{StaffID: staffID, Items: []OrderLineRequest{{MenuItemID: latteID, Quantity: 0}}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.orders.CreateOrder(ctx, CreateOrderRequest{StaffID: staffID, Items: []OrderLineRequest{{MenuItemID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	assert.Zero(t, e.store.orderCount())
}

func TestCreateOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	e := newEngine(t, nil)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.orders.CreateOrder(context.Background(), lattes(1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, succeeded)
	assert.Equal(t, workers-4, rejected)
	assert.True(t, e.store.stock(milkID).IsZero())
	assert.Equal(t, 4, e.store.orderCount())
}

func TestCreateOrder_RetriesOnceOnCodeCollision(t *testing.T) {
	codes := []string{"ORD-20250101-AAAAAA", "ORD-20250101-AAAAAA", "ORD-20250101-BBBBBB"}
	var mu sync.Mutex
	gen := func() string {
		mu.Lock()
		defer mu.Unlock()
		c := codes[0]
		codes = codes[1:]
		return c
	}
	e := newEngine(t, gen)
	ctx := context.Background()

	first, err := e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	second, err := e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)

	assert.Equal(t, "ORD-20250101-AAAAAA", first.Code)
	assert.Equal(t, "ORD-20250101-BBBBBB", second.Code)
	assert.True(t, e.store.stock(milkID).Equal(dec("0.5")), "aborted attempt must not deduct")
}

func TestCreateOrder_SurfacesRepeatedCodeCollision(t *testing.T) {
	e := newEngine(t, func() string { return "ORD-20250101-AAAAAA" })
	ctx := context.Background()

	_, err := e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	_, err = e.orders.CreateOrder(ctx, lattes(1))

	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.True(t, e.store.stock(milkID).Equal(dec("0.75")))
}

func TestCreateOrder_OccupiesTable(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	tableID := int64(5)

	order, err := e.orders.CreateOrder(ctx, CreateOrderRequest{
		TableID: &tableID, StaffID: staffID,
		Items: []OrderLineRequest{{MenuItemID: espressoID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, order.TableNumber)
	assert.Equal(t, "M5", *order.TableNumber)
	assert.Equal(t, models.TableOccupied, e.store.table(tableID).Status)

	tables, err := e.tables.GetTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	require.NotNil(t, tables[0].ActiveOrder)
	assert.Equal(t, order.Code, tables[0].ActiveOrder.Code)
}

func TestCreateOrder_RejectsUnusableTable(t *testing.T) {
	e := newEngine(t, nil)
	e.store.addTable(6, "M6", models.TableMaintenance)
	ctx := context.Background()

	missing := int64(99)
	_, err := e.orders.CreateOrder(ctx, CreateOrderRequest{TableID: &missing, StaffID: staffID, Items: lattes(1).Items})
	assert.ErrorIs(t, err, ErrTableNotFound)

	broken := int64(6)
	_, err = e.orders.CreateOrder(ctx, CreateOrderRequest{TableID: &broken, StaffID: staffID, Items: lattes(1).Items})
	assert.ErrorIs(t, err, ErrTableUnavailable)

	assert.True(t, e.store.stock(milkID).Equal(dec("1")))
	assert.Zero(t, e.store.orderCount())
}

func TestCreateOrder_EmitsEventsAfterCommit(t *testing.T) {
	e := newEngine(t, nil)

	_, err := e.orders.CreateOrder(context.Background(), lattes(1))
	require.NoError(t, err)

	assert.Equal(t, []string{
		string(events.OrderCreated),
		string(events.InventoryChanged),
		string(events.MenuAvailabilityChanged),
	}, e.sink.types())

	_, err = e.orders.CreateOrder(context.Background(), lattes(10))
	require.Error(t, err)
	assert.Len(t, e.sink.types(), 3, "failed orders publish nothing")
}

func TestCreateOrder_BrokenSinkDoesNotFailOrder(t *testing.T) {
	e := newEngine(t, nil)
	e.sink.fail = true

	order, err := e.orders.CreateOrder(context.Background(), lattes(1))
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestCreateOrder_LowStockAlertsOnCrossing(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	e.store.addIngredient(milkID, "Leche", "l", "1.0", "0.5")

	_, err := e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	assert.Empty(t, e.store.alerts, "0.75 is above the threshold")

	_, err = e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	require.Len(t, e.store.alerts, 1)
	assert.Equal(t, models.AlertLowStock, e.store.alerts[0].Type)
	assert.Equal(t, milkID, e.store.alerts[0].ResourceID)
	assert.Contains(t, e.sink.types(), string(events.InventoryLowStock))

	_, err = e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	assert.Len(t, e.store.alerts, 1, "already low, no new alert")

	_, err = e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	require.Len(t, e.store.alerts, 2)
	assert.Equal(t, models.AlertOutOfStock, e.store.alerts[1].Type)
	assert.Equal(t, "critica", e.store.alerts[1].Priority)
}

func TestChangeOrderStatus_CancelRefundsStock(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	tableID := int64(5)

	order, err := e.orders.CreateOrder(ctx, CreateOrderRequest{TableID: &tableID, StaffID: staffID, Items: lattes(2).Items})
	require.NoError(t, err)
	assert.True(t, e.store.stock(milkID).Equal(dec("0.5")))

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderConfirmed, staffID)
	require.NoError(t, err)

	cancelled, err := e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderCancelled, 3)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CompletedAt)

	assert.True(t, e.store.stock(milkID).Equal(dec("1")), "stock %s", e.store.stock(milkID))
	assert.True(t, e.store.stock(coffeeID).Equal(dec("1")))
	assert.Equal(t, models.TableAvailable, e.store.table(tableID).Status)

	var out, in int
	for _, m := range e.store.movementsOf(order.ID) {
		switch m.Kind {
		case models.MovementOutbound:
			out++
		case models.MovementInbound:
			in++
			require.NotNil(t, m.Reason)
			assert.Equal(t, "Cancelación orden "+order.Code, *m.Reason)
			require.NotNil(t, m.ActorID)
			assert.Equal(t, int64(3), *m.ActorID)
		}
	}
	assert.Equal(t, 2, out)
	assert.Equal(t, 2, in)
	assert.Contains(t, e.sink.types(), string(events.OrderStatusChanged))

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderCancelled, staffID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, e.store.stock(milkID).Equal(dec("1")), "no double refund")
}

func TestChangeOrderStatus_RejectsSkippedStates(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	order, err := e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderConfirmed, staffID)
	require.NoError(t, err)

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderReady, staffID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.OrderConfirmed, e.store.order(order.ID).Status)

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, "perdida", staffID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.orders.ChangeOrderStatus(ctx, 12345, models.OrderConfirmed, staffID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestChangeOrderStatus_FullServiceFlowFreesTable(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	tableID := int64(5)

	order, err := e.orders.CreateOrder(ctx, CreateOrderRequest{TableID: &tableID, StaffID: staffID, Items: lattes(1).Items})
	require.NoError(t, err)

	flow := []models.OrderStatus{
		models.OrderConfirmed, models.OrderPreparing, models.OrderReady, models.OrderServed, models.OrderPaid,
	}
	for _, status := range flow {
		updated, err := e.orders.ChangeOrderStatus(ctx, order.ID, status, staffID)
		require.NoError(t, err, "to %s", status)
		assert.Equal(t, status, updated.Status)
		if status != models.OrderPaid {
			assert.Nil(t, updated.CompletedAt)
			assert.Equal(t, models.TableOccupied, e.store.table(tableID).Status)
		}
	}

	paid := e.store.order(order.ID)
	assert.NotNil(t, paid.CompletedAt)
	assert.Equal(t, models.TableAvailable, e.store.table(tableID).Status)
	assert.True(t, e.store.stock(milkID).Equal(dec("0.75")), "paid orders keep their deduction")

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderCancelled, staffID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestChangeOrderStatus_TableStaysOccupiedWhileOtherOrdersOpen(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	tableID := int64(5)
	seated := CreateOrderRequest{TableID: &tableID, StaffID: staffID, Items: lattes(1).Items}

	first, err := e.orders.CreateOrder(ctx, seated)
	require.NoError(t, err)
	second, err := e.orders.CreateOrder(ctx, seated)
	require.NoError(t, err)

	_, err = e.orders.ChangeOrderStatus(ctx, first.ID, models.OrderCancelled, staffID)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, e.store.table(tableID).Status)

	_, err = e.orders.ChangeOrderStatus(ctx, second.ID, models.OrderCancelled, staffID)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, e.store.table(tableID).Status)
}

func TestChangeOrderStatus_CancelLocksTableBeforeRefund(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()
	tableID := int64(5)

	order, err := e.orders.CreateOrder(ctx, CreateOrderRequest{TableID: &tableID, StaffID: staffID, Items: lattes(1).Items})
	require.NoError(t, err)

	var refunded atomic.Bool
	e.store.onCreateMovement = func(m *models.StockMovement) error {
		if m.Kind == models.MovementInbound {
			refunded.Store(true)
		}
		return nil
	}

	held, release, done := make(chan struct{}), make(chan struct{}), make(chan struct{})
	go func() {
		defer close(done)
		_ = e.store.RunAtomic(ctx, func(ctx context.Context, tx repositories.Tx) error {
			_, err := tx.Tables().GetByIDForUpdate(ctx, tableID)
			close(held)
			<-release
			return err
		})
	}()
	<-held

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = e.orders.ChangeOrderStatus(short, order.ID, models.OrderCancelled, staffID)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, refunded.Load(), "no ingredient touched while the table is held")
	assert.Equal(t, models.OrderPending, e.store.order(order.ID).Status)

	close(release)
	<-done

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderCancelled, staffID)
	require.NoError(t, err)
	assert.True(t, refunded.Load())
	assert.Equal(t, models.TableAvailable, e.store.table(tableID).Status)
}

func TestChangeOrderStatus_FailedRefundRollsBackCancellation(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	order, err := e.orders.CreateOrder(ctx, lattes(2))
	require.NoError(t, err)

	e.store.onCreateMovement = func(m *models.StockMovement) error {
		if m.Kind == models.MovementInbound && m.IngredientID == coffeeID {
			return fmt.Errorf("%w: disk full", repositories.ErrDatabaseError)
		}
		return nil
	}

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderCancelled, staffID)
	assert.ErrorIs(t, err, ErrRefundInvariant)
	assert.Equal(t, models.OrderPending, e.store.order(order.ID).Status)
	assert.True(t, e.store.stock(milkID).Equal(dec("0.5")), "partial refund rolled back")
	assert.Len(t, e.store.movementsOf(order.ID), 2)
}

func TestChangeOrderStatus_RefundLockTimeoutIsRetryable(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	order, err := e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)

	e.store.onCreateMovement = func(m *models.StockMovement) error {
		return fmt.Errorf("%w: canceling statement due to lock timeout", repositories.ErrLockTimeout)
	}

	_, err = e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderCancelled, staffID)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.NotErrorIs(t, err, ErrRefundInvariant)
	assert.Equal(t, models.OrderPending, e.store.order(order.ID).Status)
}

func TestChangeOrderStatus_ConcurrentCancelRefundsOnce(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	order, err := e.orders.CreateOrder(ctx, lattes(4))
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.orders.ChangeOrderStatus(ctx, order.ID, models.OrderCancelled, staffID)
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.True(t, e.store.stock(milkID).Equal(dec("1")))
}

func TestChangeLineItemStatus(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	order, err := e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	itemID := order.Items[0].ID

	item, err := e.orders.ChangeLineItemStatus(ctx, order.ID, itemID, models.LineItemPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.LineItemPreparing, item.Status)
	assert.Contains(t, e.sink.types(), string(events.OrderItemStatusChanged))

	_, err = e.orders.ChangeLineItemStatus(ctx, order.ID, itemID, "quemado")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.orders.ChangeLineItemStatus(ctx, order.ID, 9999, models.LineItemReady)
	assert.ErrorIs(t, err, ErrLineItemNotFound)

	_, err = e.orders.ChangeLineItemStatus(ctx, 9999, itemID, models.LineItemReady)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	loaded, err := e.orders.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, models.LineItemPreparing, loaded.Items[0].Status)
	assert.True(t, e.store.stock(milkID).Equal(dec("0.75")), "line status has no stock effect")
}

func TestGetOrders(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	first, err := e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	_, err = e.orders.CreateOrder(ctx, lattes(1))
	require.NoError(t, err)
	_, err = e.orders.ChangeOrderStatus(ctx, first.ID, models.OrderConfirmed, staffID)
	require.NoError(t, err)

	confirmed := models.OrderConfirmed
	orders, total, err := e.orders.GetOrders(ctx, models.OrderFilters{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, first.ID, orders[0].ID)

	_, err = e.orders.GetOrderByID(ctx, 4242)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderStateMachine(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
		models.OrderConfirmed: {models.OrderPreparing, models.OrderCancelled},
		models.OrderPreparing: {models.OrderReady, models.OrderCancelled},
		models.OrderReady:     {models.OrderServed},
		models.OrderServed:    {models.OrderPaid},
	}

	for _, from := range models.OrderStatuses {
		for _, to := range models.OrderStatuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, IsTerminal(models.OrderPaid))
	assert.True(t, IsTerminal(models.OrderCancelled))
	assert.False(t, IsTerminal(models.OrderServed))
	assert.False(t, IsTerminal("desconocido"))
}
