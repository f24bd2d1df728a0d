package repositories

import (
	"context"
	"fmt"

	"pos_backend/internal/models"

	"github.com/lib/pq"
)

// MenuRepository defines the read operations the engine needs on menu items.
// Menu CRUD lives outside the engine.
type MenuRepository interface {
	GetActiveItem(ctx context.Context, id int64) (*models.MenuItem, error) // Includes ingredient requirements
	GetActiveItems(ctx context.Context) ([]models.MenuItem, error)         // Includes ingredient requirements
}

type menuRepository struct {
	exec SQLExecutor
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(exec SQLExecutor) MenuRepository {
	return &menuRepository{exec: exec}
}

const menuItemColumns = `id, nombre, descripcion, categoria_id, precio, tiempo_preparacion,
	disponible, activo, created_at, updated_at`

func scanMenuItem(row scanner) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.CategoryID, &item.Price, &item.PrepMinutes,
		&item.IsAvailable, &item.IsActive, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *menuRepository) GetActiveItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1 AND activo = true`
	item, err := scanMenuItem(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(fmt.Sprintf("getting menu item by ID %d", id), err)
	}

	requirements, err := r.getRequirements(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	item.Requirements = requirements[id]
	return item, nil
}

func (r *menuRepository) GetActiveItems(ctx context.Context) ([]models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE activo = true ORDER BY nombre`
	rows, err := r.exec.QueryContext(ctx, query)
	if err != nil {
		return nil, translateError("getting menu items", err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	ids := []int64{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, translateError("scanning menu item", err)
		}
		items = append(items, *item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterating menu items", err)
	}
	if len(ids) == 0 {
		return items, nil
	}

	requirements, err := r.getRequirements(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Requirements = requirements[items[i].ID]
	}
	return items, nil
}

func (r *menuRepository) getRequirements(ctx context.Context, menuItemIDs []int64) (map[int64][]models.IngredientRequirement, error) {
	query := `SELECT menu_item_id, ingredient_id, cantidad_por_porcion, es_opcional
	          FROM menu_ingredients
	          WHERE menu_item_id = ANY($1)
	          ORDER BY menu_item_id, ingredient_id`
	rows, err := r.exec.QueryContext(ctx, query, pq.Array(menuItemIDs))
	if err != nil {
		return nil, translateError("getting ingredient requirements", err)
	}
	defer rows.Close()

	requirements := make(map[int64][]models.IngredientRequirement, len(menuItemIDs))
	for rows.Next() {
		var menuItemID int64
		var req models.IngredientRequirement
		if err := rows.Scan(&menuItemID, &req.IngredientID, &req.QtyPerPortion, &req.Optional); err != nil {
			return nil, translateError("scanning ingredient requirement", err)
		}
		requirements[menuItemID] = append(requirements[menuItemID], req)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterating ingredient requirements", err)
	}
	return requirements, nil
}
