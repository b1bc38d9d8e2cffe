package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type CommunicationLogRepository interface {
	Create(ctx context.Context, entry *models.CommunicationLogEntry) error
}

type communicationLogRepo struct {
	db DB
}

func NewCommunicationLogRepository(db DB) CommunicationLogRepository {
	return &communicationLogRepo{db: db}
}

func (r *communicationLogRepo) Create(ctx context.Context, entry *models.CommunicationLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	q := `
        INSERT INTO communication_logs (
            id, customer_id, cleaner_id, job_id, channel, direction,
            template, recipient, body, provider_message_id, success, error,
            created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
    `
	_, err := r.db.Exec(ctx, q,
		entry.ID,
		entry.CustomerID,
		entry.CleanerID,
		entry.JobID,
		string(entry.Channel),
		string(entry.Direction),
		entry.Template,
		entry.Recipient,
		entry.Body,
		entry.ProviderMessageID,
		entry.Success,
		entry.Error,
	)
	return err
}
