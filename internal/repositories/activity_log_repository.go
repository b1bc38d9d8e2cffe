package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLogEntry) error
}

type activityLogRepo struct {
	db DB
}

func NewActivityLogRepository(db DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, entry *models.ActivityLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	q := `
        INSERT INTO activity_logs (
            id, actor, action, target_type, target_id, details, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, NOW())
    `
	_, err := r.db.Exec(ctx, q,
		entry.ID,
		entry.Actor,
		string(entry.Action),
		string(entry.TargetType),
		entry.TargetID,
		entry.Details,
	)
	return err
}
