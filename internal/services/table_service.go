package services

import (
	"context"
	"errors"
	"fmt"

	"pos_backend/internal/events"
	"pos_backend/internal/models"
	"pos_backend/internal/repositories"
)

// UpdateTableStatusRequest is a manual table status change (reservations, maintenance).
type UpdateTableStatusRequest struct {
	Status models.TableStatus `json:"estado" binding:"required"`
}

type TableService interface {
	GetTables(ctx context.Context) ([]models.Table, error)
	UpdateTableStatus(ctx context.Context, tableID int64, req UpdateTableStatusRequest) (*models.Table, error)
}

type tableService struct {
	store   repositories.Store
	emitter *events.Emitter
}

func NewTableService(store repositories.Store, emitter *events.Emitter) TableService {
	return &tableService{store: store, emitter: emitter}
}

func (s *tableService) GetTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := s.store.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		tables, err = tx.Tables().GetTables(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

func (s *tableService) UpdateTableStatus(ctx context.Context, tableID int64, req UpdateTableStatusRequest) (*models.Table, error) {
	if !models.IsValidTableStatus(string(req.Status)) {
		return nil, fmt.Errorf("%w: unknown table status %q", ErrValidation, req.Status)
	}

	var table *models.Table
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		table, err = tx.Tables().GetByIDForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrTableNotFound, tableID)
			}
			return mapRepoError(fmt.Sprintf("locking table %d", tableID), err)
		}
		if err := tx.Tables().UpdateStatus(ctx, tableID, req.Status); err != nil {
			return mapRepoError(fmt.Sprintf("updating table %d", tableID), err)
		}
		table.Status = req.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.New(events.TableStatusChanged, map[string]interface{}{
		"table_id": table.ID,
		"numero":   table.Number,
		"estado":   string(table.Status),
	}))
	return table, nil
}
