package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pos_backend/internal/models"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(ctx context.Context, order *models.Order) (int64, error) // ErrDuplicateKey on code collision
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	GetOrderByIDForUpdate(ctx context.Context, orderID int64) (*models.Order, error) // Row lock serializes transitions
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, newStatus models.OrderStatus, completedAt *time.Time) (*models.Order, error)
	CountOpenOrdersForTable(ctx context.Context, tableID, excludeOrderID int64) (int, error)

	// OrderLineItem methods
	CreateOrderItem(ctx context.Context, item *models.OrderLineItem) (int64, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderLineItem, error)
	UpdateOrderItemStatus(ctx context.Context, orderID, itemID int64, newStatus models.LineItemStatus) (*models.OrderLineItem, error)
}

type orderRepository struct {
	exec SQLExecutor
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(exec SQLExecutor) OrderRepository {
	return &orderRepository{exec: exec}
}

const orderColumns = `id, codigo, mesa_id, mesa_numero, mesero_id, estado, subtotal, impuestos, total,
	notas, created_at, updated_at, completed_at`

func scanOrder(row scanner, extra ...interface{}) (*models.Order, error) {
	order := &models.Order{}
	dest := []interface{}{
		&order.ID, &order.Code, &order.TableID, &order.TableNumber, &order.StaffID, &order.Status,
		&order.Subtotal, &order.Tax, &order.Total, &order.Notes,
		&order.CreatedAt, &order.UpdatedAt, &order.CompletedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return order, nil
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (codigo, mesa_id, mesa_numero, mesero_id, estado, subtotal, impuestos, total, notas,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	err := r.exec.QueryRowContext(ctx, query,
		order.Code, order.TableID, order.TableNumber, order.StaffID, order.Status,
		order.Subtotal, order.Tax, order.Total, order.Notes,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return 0, translateError(fmt.Sprintf("creating order %s", order.Code), err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.exec.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("getting order by ID %d", orderID), err)
	}
	return order, nil
}

func (r *orderRepository) GetOrderByIDForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	order, err := scanOrder(r.exec.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("locking order ID %d", orderID), err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.StaffID != nil {
		conditions = append(conditions, fmt.Sprintf("mesero_id = $%d", argCounter))
		args = append(args, *filters.StaffID)
		argCounter++
	}
	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("mesa_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("estado = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("created_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, translateError("querying orders", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, translateError("scanning order", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, translateError("iterating order rows", err)
	}
	return orders, totalCount, nil
}

// CountOpenOrdersForTable counts non-terminal orders seated at tableID other than excludeOrderID.
func (r *orderRepository) CountOpenOrdersForTable(ctx context.Context, tableID, excludeOrderID int64) (int, error) {
	query := `SELECT COUNT(*) FROM orders
	          WHERE mesa_id = $1 AND id <> $2 AND estado NOT IN ($3, $4)`
	var count int
	err := r.exec.QueryRowContext(ctx, query, tableID, excludeOrderID, models.OrderPaid, models.OrderCancelled).Scan(&count)
	if err != nil {
		return 0, translateError(fmt.Sprintf("counting open orders for table %d", tableID), err)
	}
	return count, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus models.OrderStatus, completedAt *time.Time) (*models.Order, error) {
	query := `UPDATE orders
	          SET estado = $1, updated_at = $2, completed_at = COALESCE($3, completed_at)
	          WHERE id = $4
	          RETURNING ` + orderColumns
	order, err := scanOrder(r.exec.QueryRowContext(ctx, query, newStatus, time.Now(), completedAt, orderID))
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("updating order status for ID %d", orderID), err)
	}
	return order, nil
}

// --- OrderLineItem Methods ---

const orderItemColumns = `id, order_id, menu_item_id, nombre_item, cantidad, precio_unitario, subtotal,
	notas, estado, created_at`

func scanOrderItem(row scanner) (*models.OrderLineItem, error) {
	item := &models.OrderLineItem{}
	err := row.Scan(
		&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Subtotal,
		&item.Notes, &item.Status, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *orderRepository) CreateOrderItem(ctx context.Context, item *models.OrderLineItem) (int64, error) {
	query := `INSERT INTO order_items
	            (order_id, menu_item_id, nombre_item, cantidad, precio_unitario, subtotal, notas, estado, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.Status == "" {
		item.Status = models.LineItemPending
	}

	err := r.exec.QueryRowContext(ctx, query,
		item.OrderID, item.MenuItemID, item.Name, item.Quantity, item.UnitPrice, item.Subtotal,
		item.Notes, item.Status, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, translateError(fmt.Sprintf("creating order item (menu_item_id: %d)", item.MenuItemID), err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderLineItem, error) {
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := r.exec.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, translateError(fmt.Sprintf("querying order items for order ID %d", orderID), err)
	}
	defer rows.Close()

	items := []models.OrderLineItem{}
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, translateError(fmt.Sprintf("scanning order item for order ID %d", orderID), err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, translateError(fmt.Sprintf("iterating order item rows for order ID %d", orderID), err)
	}
	return items, nil
}

func (r *orderRepository) UpdateOrderItemStatus(ctx context.Context, orderID, itemID int64, newStatus models.LineItemStatus) (*models.OrderLineItem, error) {
	query := `UPDATE order_items SET estado = $1
	          WHERE id = $2 AND order_id = $3
	          RETURNING ` + orderItemColumns
	item, err := scanOrderItem(r.exec.QueryRowContext(ctx, query, newStatus, itemID, orderID))
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("updating status of item %d on order %d", itemID, orderID), err)
	}
	return item, nil
}
