package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// TableRepository defines the interface for dining table operations.
type TableRepository interface {
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Table, error)
	UpdateStatus(ctx context.Context, id int64, status models.TableStatus) error
	GetTables(ctx context.Context) ([]models.Table, error) // Active tables with their open order, if any
}

type tableRepository struct {
	exec SQLExecutor
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(exec SQLExecutor) TableRepository {
	return &tableRepository{exec: exec}
}

func (r *tableRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Table, error) {
	query := `SELECT id, numero, capacidad, ubicacion, estado, activa FROM tables WHERE id = $1 FOR UPDATE`
	t := &models.Table{}
	err := r.exec.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Number, &t.Capacity, &t.Location, &t.Status, &t.IsActive)
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("locking table ID %d", id), err)
	}
	return t, nil
}

func (r *tableRepository) UpdateStatus(ctx context.Context, id int64, status models.TableStatus) error {
	query := `UPDATE tables SET estado = $1 WHERE id = $2`
	result, err := r.exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return translateError(fmt.Sprintf("updating status of table ID %d", id), err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return translateError(fmt.Sprintf("checking rows affected for table ID %d", id), err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) GetTables(ctx context.Context) ([]models.Table, error) {
	// Open orders are the ones not yet paid or cancelled.
	query := `SELECT t.id, t.numero, t.capacidad, t.ubicacion, t.estado, t.activa,
	                 o.id, o.codigo, o.total, o.created_at
	          FROM tables t
	          LEFT JOIN LATERAL (
	              SELECT id, codigo, total, created_at FROM orders
	              WHERE mesa_id = t.id AND estado NOT IN ('cobrada', 'cancelada')
	              ORDER BY created_at DESC LIMIT 1
	          ) o ON true
	          WHERE t.activa = true
	          ORDER BY t.numero`

	rows, err := r.exec.QueryContext(ctx, query)
	if err != nil {
		return nil, translateError("querying tables", err)
	}
	defer rows.Close()

	tables := []models.Table{}
	for rows.Next() {
		var (
			t         models.Table
			orderID   *int64
			orderCode *string
			total     decimal.NullDecimal
			createdAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Location, &t.Status, &t.IsActive,
			&orderID, &orderCode, &total, &createdAt); err != nil {
			return nil, translateError("scanning table", err)
		}
		if orderID != nil && orderCode != nil {
			t.ActiveOrder = &models.ActiveOrderSummary{
				ID:        *orderID,
				Code:      *orderCode,
				Total:     total.Decimal,
				CreatedAt: createdAt.Time,
			}
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		return nil, translateError("iterating table rows", err)
	}
	return tables, nil
}
