package repositories

import (
	"context"
)

// WebhookEventRepository is the ledger of provider events already applied.
type WebhookEventRepository interface {
	// Claim records the event and reports whether this caller is the first
	// to see it. A false result means the event was already processed.
	Claim(ctx context.Context, provider, eventID, eventType string) (bool, error)
	// Release drops a claim so a redelivery of the event is applied again.
	Release(ctx context.Context, provider, eventID string) error
}

type webhookEventRepo struct {
	db DB
}

func NewWebhookEventRepository(db DB) WebhookEventRepository {
	return &webhookEventRepo{db: db}
}

func (r *webhookEventRepo) Claim(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO processed_webhook_events (provider, event_id, event_type, processed_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (provider, event_id) DO NOTHING
    `, provider, eventID, eventType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *webhookEventRepo) Release(ctx context.Context, provider, eventID string) error {
	_, err := r.db.Exec(ctx, `
        DELETE FROM processed_webhook_events WHERE provider=$1 AND event_id=$2
    `, provider, eventID)
	return err
}
