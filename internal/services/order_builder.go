package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pos_backend/internal/models"
	"pos_backend/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is the sales tax applied to every order subtotal.
var TaxRate = decimal.RequireFromString("0.16")

// OrderLineRequest is one requested menu item on a new order.
type OrderLineRequest struct {
	MenuItemID int64   `json:"menu_item_id" binding:"required"`
	Quantity   int     `json:"cantidad" binding:"required,gt=0"`
	Notes      *string `json:"notas"`
}

// CreateOrderRequest is used for placing a new order.
type CreateOrderRequest struct {
	TableID *int64             `json:"mesa_id"`
	Items   []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
	Notes   *string            `json:"notas"`
	StaffID int64              `json:"-"` // taken from the authenticated user
}

// Deduction is the total quantity of one ingredient an order consumes.
type Deduction struct {
	IngredientID int64
	Quantity     decimal.Decimal
}

// OrderDraft is a fully priced order that has not been persisted yet.
type OrderDraft struct {
	Order      models.Order
	Deductions []Deduction // ascending ingredient id
}

// CodeGenerator returns a new human-readable order code.
type CodeGenerator func() string

// NewOrderCode produces codes of the form ORD-YYYYMMDD-XXXXXX.
func NewOrderCode() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

// OrderBuilder validates and prices a CreateOrderRequest against the menu and stock.
type OrderBuilder struct {
	newCode CodeGenerator
}

// NewOrderBuilder creates a new OrderBuilder. A nil generator falls back to NewOrderCode.
func NewOrderBuilder(gen CodeGenerator) *OrderBuilder {
	if gen == nil {
		gen = NewOrderCode
	}
	return &OrderBuilder{newCode: gen}
}

// Build resolves menu items, checks fulfillability against a stock snapshot
// taken inside tx, and prices the order. Nothing is written.
func (b *OrderBuilder) Build(ctx context.Context, tx repositories.Tx, req CreateOrderRequest) (*OrderDraft, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	menu := make(map[int64]*models.MenuItem)
	requested := make(map[int64]int64)
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for menu item %d must be positive", ErrValidation, line.MenuItemID)
		}
		if _, seen := menu[line.MenuItemID]; !seen {
			item, err := tx.Menu().GetActiveItem(ctx, line.MenuItemID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, fmt.Errorf("%w: ID %d", ErrMenuItemNotFound, line.MenuItemID)
				}
				return nil, mapRepoError(fmt.Sprintf("loading menu item %d", line.MenuItemID), err)
			}
			menu[line.MenuItemID] = item
		}
		requested[line.MenuItemID] += int64(line.Quantity)
	}

	snapshot, err := tx.Ingredients().GetStockSnapshot(ctx)
	if err != nil {
		return nil, mapRepoError("loading stock snapshot", err)
	}
	stock := make(map[int64]models.Ingredient, len(snapshot))
	for _, ing := range snapshot {
		stock[ing.ID] = ing
	}

	// Each line on its own, then the per-item totals across lines.
	for _, line := range req.Items {
		if err := checkPortions(menu[line.MenuItemID], stock, int64(line.Quantity)); err != nil {
			return nil, err
		}
	}
	for id, total := range requested {
		if err := checkPortions(menu[id], stock, total); err != nil {
			return nil, err
		}
	}

	order := models.Order{
		Code:    b.newCode(),
		TableID: req.TableID,
		StaffID: req.StaffID,
		Status:  models.OrderPending,
		Notes:   req.Notes,
		Items:   make([]models.OrderLineItem, 0, len(req.Items)),
	}

	subtotal := decimal.Zero
	plan := make(map[int64]decimal.Decimal)
	for _, line := range req.Items {
		item := menu[line.MenuItemID]
		qty := decimal.NewFromInt(int64(line.Quantity))
		lineTotal := item.Price.Mul(qty).Round(2)
		subtotal = subtotal.Add(lineTotal)

		order.Items = append(order.Items, models.OrderLineItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   line.Quantity,
			UnitPrice:  item.Price,
			Subtotal:   lineTotal,
			Notes:      line.Notes,
			Status:     models.LineItemPending,
		})

		for _, r := range item.Requirements {
			if !r.QtyPerPortion.IsPositive() {
				continue
			}
			plan[r.IngredientID] = plan[r.IngredientID].Add(r.QtyPerPortion.Mul(qty))
		}
	}

	order.Subtotal = subtotal.Round(2)
	order.Tax = order.Subtotal.Mul(TaxRate).Round(2)
	order.Total = order.Subtotal.Add(order.Tax).Round(2)

	return &OrderDraft{Order: order, Deductions: sortedDeductions(plan)}, nil
}

func checkPortions(item *models.MenuItem, stock map[int64]models.Ingredient, portions int64) error {
	avail := ComputeAvailability(item.Requirements, stock)
	if avail.MaxPortions == nil || *avail.MaxPortions >= portions {
		return nil
	}
	id := item.ID
	return &InsufficientStockError{
		MenuItemID: &id,
		Missing:    Shortfall(item.Requirements, stock, portions),
	}
}

func sortedDeductions(plan map[int64]decimal.Decimal) []Deduction {
	out := make([]Deduction, 0, len(plan))
	for id, qty := range plan {
		out = append(out, Deduction{IngredientID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	return out
}
