package repositories

import (
	"context"
	"fmt"
	"time"

	"pos_backend/internal/models"
)

// AlertRepository persists operational alerts.
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *models.Alert) (int64, error)
}

type alertRepository struct {
	exec SQLExecutor
}

func NewAlertRepository(exec SQLExecutor) AlertRepository {
	return &alertRepository{exec: exec}
}

func (r *alertRepository) CreateAlert(ctx context.Context, alert *models.Alert) (int64, error) {
	query := `INSERT INTO alerts (tipo, prioridad, titulo, mensaje, recurso, recurso_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	err := r.exec.QueryRowContext(ctx, query,
		alert.Type, alert.Priority, alert.Title, alert.Message, alert.Resource, alert.ResourceID, alert.CreatedAt,
	).Scan(&alert.ID)
	if err != nil {
		return 0, translateError(fmt.Sprintf("creating %s alert for %s %d", alert.Type, alert.Resource, alert.ResourceID), err)
	}
	return alert.ID, nil
}
