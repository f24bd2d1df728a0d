package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pos_backend/internal/models"
)

// InventoryMovementRepository defines the interface for stock movement database operations.
// The movement log is append-only: there is no update or delete.
type InventoryMovementRepository interface {
	CreateMovement(ctx context.Context, movement *models.StockMovement) (int64, error)
	GetOrderMovements(ctx context.Context, orderID int64, kind models.MovementKind) ([]models.StockMovement, error)
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error)
}

type inventoryMovementRepository struct {
	exec SQLExecutor
}

// NewInventoryMovementRepository creates a new instance of InventoryMovementRepository.
func NewInventoryMovementRepository(exec SQLExecutor) InventoryMovementRepository {
	return &inventoryMovementRepository{exec: exec}
}

func (r *inventoryMovementRepository) CreateMovement(ctx context.Context, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO inventory_movements
	          (ingredient_id, tipo, cantidad, stock_anterior, stock_nuevo, referencia, order_id, user_id, notas, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	err := r.exec.QueryRowContext(ctx, query,
		movement.IngredientID, movement.Kind, movement.Quantity, movement.QuantityBefore, movement.QuantityAfter,
		movement.Reason, movement.OrderID, movement.ActorID, movement.Notes, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, translateError("creating inventory movement", err)
	}
	return movement.ID, nil
}

func (r *inventoryMovementRepository) GetOrderMovements(ctx context.Context, orderID int64, kind models.MovementKind) ([]models.StockMovement, error) {
	query := `SELECT id, ingredient_id, tipo, cantidad, stock_anterior, stock_nuevo, referencia,
	                 order_id, user_id, notas, created_at
	          FROM inventory_movements
	          WHERE order_id = $1 AND tipo = $2
	          ORDER BY ingredient_id, id`
	rows, err := r.exec.QueryContext(ctx, query, orderID, kind)
	if err != nil {
		return nil, translateError(fmt.Sprintf("getting movements for order ID %d", orderID), err)
	}
	defer rows.Close()

	movements := []models.StockMovement{}
	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(
			&m.ID, &m.IngredientID, &m.Kind, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter, &m.Reason,
			&m.OrderID, &m.ActorID, &m.Notes, &m.CreatedAt,
		); err != nil {
			return nil, translateError("scanning order movement", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterating order movements", err)
	}
	return movements, nil
}

func (r *inventoryMovementRepository) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    im.id, im.ingredient_id, im.tipo, im.cantidad, im.stock_anterior, im.stock_nuevo,
	    im.referencia, im.order_id, im.user_id, im.notas, im.created_at,
	    i.nombre AS ingrediente_nombre, i.unidad,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements im
	  JOIN ingredients i ON i.id = im.ingredient_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.IngredientID != nil {
		conditions = append(conditions, fmt.Sprintf("im.ingredient_id = $%d", argCount))
		args = append(args, *filters.IngredientID)
		argCount++
	}
	if filters.Kind != nil && *filters.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("im.tipo = $%d", argCount))
		args = append(args, *filters.Kind)
		argCount++
	}
	if filters.OrderID != nil {
		conditions = append(conditions, fmt.Sprintf("im.order_id = $%d", argCount))
		args = append(args, *filters.OrderID)
		argCount++
	}
	if filters.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("im.user_id = $%d", argCount))
		args = append(args, *filters.ActorID)
		argCount++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("im.created_at >= $%d", argCount))
		args = append(args, *filters.From)
		argCount++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("im.created_at <= $%d", argCount))
		args = append(args, *filters.To)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	page, pageSize := filters.Page, filters.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	queryBuilder.WriteString(" ORDER BY im.created_at DESC, im.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, translateError("getting inventory movements", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		var ingredientName, ingredientUnit sql.NullString
		if err := rows.Scan(
			&m.ID, &m.IngredientID, &m.Kind, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
			&m.Reason, &m.OrderID, &m.ActorID, &m.Notes, &m.CreatedAt,
			&ingredientName, &ingredientUnit,
			&totalCount,
		); err != nil {
			return nil, 0, translateError("scanning inventory movement", err)
		}
		if ingredientName.Valid {
			name := ingredientName.String
			m.IngredientName = &name
		}
		if ingredientUnit.Valid {
			unit := ingredientUnit.String
			m.IngredientUnit = &unit
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateError("iterating inventory movements", err)
	}

	return movements, totalCount, nil
}
