package repositories

import (
	"context"
	"fmt"
	"time"

	"pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// IngredientRepository defines the interface for ingredient-related database operations.
// Stock is written only through UpdateStock, which the stock ledger calls after locking the row.
type IngredientRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Ingredient, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Ingredient, error) // Takes a row lock held until commit/rollback
	GetStockSnapshot(ctx context.Context) ([]models.Ingredient, error)          // Active ingredients, no locks
	GetLowStock(ctx context.Context) ([]models.Ingredient, error)
	UpdateStock(ctx context.Context, id int64, stockOnHand decimal.Decimal) error
}

type ingredientRepository struct {
	exec SQLExecutor
}

// NewIngredientRepository creates a new instance of IngredientRepository bound to the executor.
func NewIngredientRepository(exec SQLExecutor) IngredientRepository {
	return &ingredientRepository{exec: exec}
}

const ingredientColumns = `id, nombre, unidad, stock_actual, stock_minimo, ubicacion,
	costo_unitario, proveedor, activo, created_at, updated_at`

func scanIngredient(row scanner) (*models.Ingredient, error) {
	ing := &models.Ingredient{}
	err := row.Scan(
		&ing.ID, &ing.Name, &ing.Unit, &ing.StockOnHand, &ing.ReorderThreshold, &ing.Location,
		&ing.UnitCost, &ing.Supplier, &ing.IsActive, &ing.CreatedAt, &ing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ing, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = $1`
	ing, err := scanIngredient(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("getting ingredient by ID %d", id), err)
	}
	return ing, nil
}

func (r *ingredientRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = $1 FOR UPDATE`
	ing, err := scanIngredient(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("locking ingredient ID %d", id), err)
	}
	return ing, nil
}

func (r *ingredientRepository) GetStockSnapshot(ctx context.Context) ([]models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE activo = true ORDER BY id`
	return r.list(ctx, "getting stock snapshot", query)
}

func (r *ingredientRepository) GetLowStock(ctx context.Context) ([]models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + `
	          FROM ingredients
	          WHERE activo = true AND stock_actual <= stock_minimo
	          ORDER BY CASE WHEN stock_actual <= 0 THEN 0 ELSE 1 END, stock_actual ASC`
	return r.list(ctx, "getting low stock ingredients", query)
}

func (r *ingredientRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]models.Ingredient, error) {
	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(op, err)
	}
	defer rows.Close()

	ingredients := []models.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, translateError(op+": scanning", err)
		}
		ingredients = append(ingredients, *ing)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(op+": iterating", err)
	}
	return ingredients, nil
}

func (r *ingredientRepository) UpdateStock(ctx context.Context, id int64, stockOnHand decimal.Decimal) error {
	query := `UPDATE ingredients SET stock_actual = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec.ExecContext(ctx, query, stockOnHand, time.Now(), id)
	if err != nil {
		return translateError(fmt.Sprintf("updating stock for ingredient ID %d", id), err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return translateError(fmt.Sprintf("getting rows affected for ingredient ID %d", id), err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
