package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pos_backend/internal/events"
	"pos_backend/internal/models"
	"pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory repositories.Store. Row locks are real: a unit of
// work holds them until commit or rollback, and writes only become visible to
// other units of work on commit.
type fakeStore struct {
	mu sync.Mutex

	ingredients map[int64]models.Ingredient
	menu        map[int64]models.MenuItem
	tables      map[int64]models.Table
	orders      map[int64]models.Order
	items       map[int64]models.OrderLineItem
	movements   []models.StockMovement
	alerts      []models.Alert
	nextID      int64

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	// onCreateMovement, when set, can fail a movement insert.
	onCreateMovement func(m *models.StockMovement) error
	commits          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ingredients: map[int64]models.Ingredient{},
		menu:        map[int64]models.MenuItem{},
		tables:      map[int64]models.Table{},
		orders:      map[int64]models.Order{},
		items:       map[int64]models.OrderLineItem{},
		locks:       map[string]chan struct{}{},
		nextID:      1000,
	}
}

// --- seeding helpers ---

func (s *fakeStore) addIngredient(id int64, name, unit, stock, threshold string) {
	s.ingredients[id] = models.Ingredient{
		ID:               id,
		Name:             name,
		Unit:             unit,
		StockOnHand:      decimal.RequireFromString(stock),
		ReorderThreshold: decimal.RequireFromString(threshold),
		IsActive:         true,
	}
}

func (s *fakeStore) addMenuItem(id int64, name, price string, reqs ...models.IngredientRequirement) {
	s.menu[id] = models.MenuItem{
		ID:           id,
		Name:         name,
		Price:        decimal.RequireFromString(price),
		IsActive:     true,
		IsAvailable:  true,
		Requirements: reqs,
	}
}

func (s *fakeStore) addTable(id int64, number string, status models.TableStatus) {
	s.tables[id] = models.Table{ID: id, Number: number, Capacity: 4, Status: status, IsActive: true}
}

func req(ingredientID int64, qty string) models.IngredientRequirement {
	return models.IngredientRequirement{IngredientID: ingredientID, QtyPerPortion: decimal.RequireFromString(qty)}
}

func (s *fakeStore) stock(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingredients[id].StockOnHand
}

func (s *fakeStore) order(id int64) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *fakeStore) table(id int64) models.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[id]
}

func (s *fakeStore) movementsOf(orderID int64) []models.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StockMovement
	for _, m := range s.movements {
		if m.OrderID != nil && *m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *fakeStore) allocID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

func (s *fakeStore) lockChan(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// --- repositories.Store ---

func (s *fakeStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) (err error) {
	if outer, ok := repositories.TxFromContext(ctx); ok {
		return fn(ctx, outer)
	}
	tx := newFakeTx(s, true)
	defer func() {
		if p := recover(); p != nil {
			tx.release()
			panic(p)
		}
		if err != nil {
			tx.release()
			return
		}
		tx.commit()
	}()
	return fn(repositories.WithTx(ctx, tx), tx)
}

func (s *fakeStore) View(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	if outer, ok := repositories.TxFromContext(ctx); ok {
		return fn(ctx, outer)
	}
	return fn(ctx, newFakeTx(s, false))
}

// --- unit of work ---

type fakeTx struct {
	s        *fakeStore
	writable bool
	held     map[string]chan struct{}

	ingredients map[int64]models.Ingredient
	tables      map[int64]models.Table
	orders      map[int64]models.Order
	items       map[int64]models.OrderLineItem
	movements   []models.StockMovement
	alerts      []models.Alert
}

func newFakeTx(s *fakeStore, writable bool) *fakeTx {
	return &fakeTx{
		s:           s,
		writable:    writable,
		held:        map[string]chan struct{}{},
		ingredients: map[int64]models.Ingredient{},
		tables:      map[int64]models.Table{},
		orders:      map[int64]models.Order{},
		items:       map[int64]models.OrderLineItem{},
	}
}

func (t *fakeTx) lock(ctx context.Context, key string) error {
	if !t.writable {
		return fmt.Errorf("%w: row lock outside a unit of work", repositories.ErrDatabaseError)
	}
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch := t.s.lockChan(key)
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: locking %s: %v", repositories.ErrLockTimeout, key, ctx.Err())
	}
}

func (t *fakeTx) release() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
}

func (t *fakeTx) commit() {
	t.s.mu.Lock()
	for id, v := range t.ingredients {
		t.s.ingredients[id] = v
	}
	for id, v := range t.tables {
		t.s.tables[id] = v
	}
	for id, v := range t.orders {
		t.s.orders[id] = v
	}
	for id, v := range t.items {
		t.s.items[id] = v
	}
	t.s.movements = append(t.s.movements, t.movements...)
	t.s.alerts = append(t.s.alerts, t.alerts...)
	t.s.commits++
	t.s.mu.Unlock()
	t.release()
}

func (t *fakeTx) Ingredients() repositories.IngredientRepository      { return fakeIngredients{t} }
func (t *fakeTx) Movements() repositories.InventoryMovementRepository { return fakeMovements{t} }
func (t *fakeTx) Menu() repositories.MenuRepository                   { return fakeMenu{t} }
func (t *fakeTx) Orders() repositories.OrderRepository                { return fakeOrders{t} }
func (t *fakeTx) Tables() repositories.TableRepository                { return fakeTables{t} }
func (t *fakeTx) Alerts() repositories.AlertRepository                { return fakeAlerts{t} }

// --- ingredients ---

type fakeIngredients struct{ t *fakeTx }

func (r fakeIngredients) get(id int64) (models.Ingredient, bool) {
	if v, ok := r.t.ingredients[id]; ok {
		return v, true
	}
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	v, ok := r.t.s.ingredients[id]
	return v, ok
}

func (r fakeIngredients) all() []models.Ingredient {
	r.t.s.mu.Lock()
	ids := make([]int64, 0, len(r.t.s.ingredients))
	for id := range r.t.s.ingredients {
		ids = append(ids, id)
	}
	r.t.s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.Ingredient, 0, len(ids))
	for _, id := range ids {
		v, _ := r.get(id)
		out = append(out, v)
	}
	return out
}

func (r fakeIngredients) GetByID(_ context.Context, id int64) (*models.Ingredient, error) {
	v, ok := r.get(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (r fakeIngredients) GetByIDForUpdate(ctx context.Context, id int64) (*models.Ingredient, error) {
	if _, ok := r.get(id); !ok {
		return nil, repositories.ErrNotFound
	}
	if err := r.t.lock(ctx, fmt.Sprintf("ingredient:%d", id)); err != nil {
		return nil, err
	}
	v, _ := r.get(id)
	return &v, nil
}

func (r fakeIngredients) GetStockSnapshot(_ context.Context) ([]models.Ingredient, error) {
	var out []models.Ingredient
	for _, v := range r.all() {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r fakeIngredients) GetLowStock(_ context.Context) ([]models.Ingredient, error) {
	var out []models.Ingredient
	for _, v := range r.all() {
		if v.IsActive && v.IsLowStock() {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r fakeIngredients) UpdateStock(_ context.Context, id int64, stock decimal.Decimal) error {
	v, ok := r.get(id)
	if !ok {
		return repositories.ErrNotFound
	}
	if stock.IsNegative() {
		return fmt.Errorf("%w: stock_actual check violated", repositories.ErrDatabaseError)
	}
	v.StockOnHand = stock
	v.UpdatedAt = time.Now()
	r.t.ingredients[id] = v
	return nil
}

// --- movements ---

type fakeMovements struct{ t *fakeTx }

func (r fakeMovements) all() []models.StockMovement {
	r.t.s.mu.Lock()
	out := append([]models.StockMovement(nil), r.t.s.movements...)
	r.t.s.mu.Unlock()
	return append(out, r.t.movements...)
}

func (r fakeMovements) CreateMovement(_ context.Context, m *models.StockMovement) (int64, error) {
	if hook := r.t.s.onCreateMovement; hook != nil {
		if err := hook(m); err != nil {
			return 0, err
		}
	}
	m.ID = r.t.s.allocID()
	m.CreatedAt = time.Now()
	r.t.movements = append(r.t.movements, *m)
	return m.ID, nil
}

func (r fakeMovements) GetOrderMovements(_ context.Context, orderID int64, kind models.MovementKind) ([]models.StockMovement, error) {
	var out []models.StockMovement
	for _, m := range r.all() {
		if m.OrderID != nil && *m.OrderID == orderID && m.Kind == kind {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IngredientID != out[j].IngredientID {
			return out[i].IngredientID < out[j].IngredientID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r fakeMovements) GetMovements(_ context.Context, f models.MovementFilters) ([]models.StockMovement, int, error) {
	var out []models.StockMovement
	for _, m := range r.all() {
		if f.IngredientID != nil && m.IngredientID != *f.IngredientID {
			continue
		}
		if f.Kind != nil && m.Kind != *f.Kind {
			continue
		}
		if f.OrderID != nil && (m.OrderID == nil || *m.OrderID != *f.OrderID) {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

// --- menu ---

type fakeMenu struct{ t *fakeTx }

func (r fakeMenu) GetActiveItem(_ context.Context, id int64) (*models.MenuItem, error) {
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	v, ok := r.t.s.menu[id]
	if !ok || !v.IsActive {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (r fakeMenu) GetActiveItems(_ context.Context) ([]models.MenuItem, error) {
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	var out []models.MenuItem
	for _, v := range r.t.s.menu {
		if v.IsActive {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- orders ---

type fakeOrders struct{ t *fakeTx }

func (r fakeOrders) get(id int64) (models.Order, bool) {
	if v, ok := r.t.orders[id]; ok {
		return v, true
	}
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	v, ok := r.t.s.orders[id]
	return v, ok
}

func (r fakeOrders) CreateOrder(_ context.Context, o *models.Order) (int64, error) {
	r.t.s.mu.Lock()
	for _, existing := range r.t.s.orders {
		if existing.Code == o.Code {
			r.t.s.mu.Unlock()
			return 0, fmt.Errorf("%w: creating order %s (constraint: orders_codigo_key)", repositories.ErrDuplicateKey, o.Code)
		}
	}
	r.t.s.mu.Unlock()

	o.ID = r.t.s.allocID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	stored := *o
	stored.Items = nil
	r.t.orders[o.ID] = stored
	return o.ID, nil
}

func (r fakeOrders) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	v, ok := r.get(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (r fakeOrders) GetOrderByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	if _, ok := r.get(id); !ok {
		return nil, repositories.ErrNotFound
	}
	if err := r.t.lock(ctx, fmt.Sprintf("order:%d", id)); err != nil {
		return nil, err
	}
	v, _ := r.get(id)
	return &v, nil
}

func (r fakeOrders) CountOpenOrdersForTable(_ context.Context, tableID, excludeOrderID int64) (int, error) {
	r.t.s.mu.Lock()
	merged := make(map[int64]models.Order, len(r.t.s.orders))
	for id, o := range r.t.s.orders {
		merged[id] = o
	}
	r.t.s.mu.Unlock()
	for id, o := range r.t.orders {
		merged[id] = o
	}
	count := 0
	for id, o := range merged {
		if id != excludeOrderID && o.TableID != nil && *o.TableID == tableID && !IsTerminal(o.Status) {
			count++
		}
	}
	return count, nil
}

func (r fakeOrders) GetOrders(_ context.Context, f models.OrderFilters) ([]models.Order, int, error) {
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	var out []models.Order
	for _, o := range r.t.s.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.StaffID != nil && o.StaffID != *f.StaffID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r fakeOrders) UpdateOrderStatus(_ context.Context, id int64, status models.OrderStatus, completedAt *time.Time) (*models.Order, error) {
	v, ok := r.get(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	v.Status = status
	v.UpdatedAt = time.Now()
	if completedAt != nil {
		v.CompletedAt = completedAt
	}
	r.t.orders[id] = v
	return &v, nil
}

func (r fakeOrders) CreateOrderItem(_ context.Context, item *models.OrderLineItem) (int64, error) {
	item.ID = r.t.s.allocID()
	item.CreatedAt = time.Now()
	r.t.items[item.ID] = *item
	return item.ID, nil
}

func (r fakeOrders) allItems() map[int64]models.OrderLineItem {
	r.t.s.mu.Lock()
	out := make(map[int64]models.OrderLineItem, len(r.t.s.items))
	for id, v := range r.t.s.items {
		out[id] = v
	}
	r.t.s.mu.Unlock()
	for id, v := range r.t.items {
		out[id] = v
	}
	return out
}

func (r fakeOrders) GetOrderItems(_ context.Context, orderID int64) ([]models.OrderLineItem, error) {
	out := []models.OrderLineItem{}
	for _, v := range r.allItems() {
		if v.OrderID == orderID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeOrders) UpdateOrderItemStatus(_ context.Context, orderID, itemID int64, status models.LineItemStatus) (*models.OrderLineItem, error) {
	v, ok := r.allItems()[itemID]
	if !ok || v.OrderID != orderID {
		return nil, repositories.ErrNotFound
	}
	v.Status = status
	r.t.items[itemID] = v
	return &v, nil
}

// --- tables ---

type fakeTables struct{ t *fakeTx }

func (r fakeTables) get(id int64) (models.Table, bool) {
	if v, ok := r.t.tables[id]; ok {
		return v, true
	}
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	v, ok := r.t.s.tables[id]
	return v, ok
}

func (r fakeTables) GetByIDForUpdate(ctx context.Context, id int64) (*models.Table, error) {
	if _, ok := r.get(id); !ok {
		return nil, repositories.ErrNotFound
	}
	if err := r.t.lock(ctx, fmt.Sprintf("table:%d", id)); err != nil {
		return nil, err
	}
	v, _ := r.get(id)
	return &v, nil
}

func (r fakeTables) UpdateStatus(_ context.Context, id int64, status models.TableStatus) error {
	v, ok := r.get(id)
	if !ok {
		return repositories.ErrNotFound
	}
	v.Status = status
	r.t.tables[id] = v
	return nil
}

func (r fakeTables) GetTables(_ context.Context) ([]models.Table, error) {
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	var out []models.Table
	for _, tbl := range r.t.s.tables {
		for _, o := range r.t.s.orders {
			if o.TableID != nil && *o.TableID == tbl.ID && !IsTerminal(o.Status) {
				tbl.ActiveOrder = &models.ActiveOrderSummary{ID: o.ID, Code: o.Code, Total: o.Total, CreatedAt: o.CreatedAt}
			}
		}
		out = append(out, tbl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// --- alerts ---

type fakeAlerts struct{ t *fakeTx }

func (r fakeAlerts) CreateAlert(_ context.Context, a *models.Alert) (int64, error) {
	a.ID = r.t.s.allocID()
	a.CreatedAt = time.Now()
	r.t.alerts = append(r.t.alerts, *a)
	return a.ID, nil
}

// --- event capture ---

type recordingSink struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (r *recordingSink) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, string(e.Type))
	if r.fail {
		return fmt.Errorf("bus down")
	}
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
