package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, m *models.OutboxMessage) error
	// ListDue returns pending messages whose next attempt is at or before now.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.OutboxMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID, attempts int) error
	// MarkRetry narrows the message to the channels still to deliver.
	MarkRetry(ctx context.Context, id uuid.UUID, channel models.ChannelType, attempts int, lastErr string, next time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
}

type outboxRepo struct {
	db DB
}

func NewOutboxRepository(db DB) OutboxRepository {
	return &outboxRepo{db: db}
}

func (r *outboxRepo) Enqueue(ctx context.Context, m *models.OutboxMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.OutboxStatusPending
	}
	if m.NextAttemptAt.IsZero() {
		m.NextAttemptAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO outbox_messages (
            id, channel, template, recipient_name, recipient_email, recipient_phone,
            subject, text_body, html_body, customer_id, cleaner_id, job_id,
            status, attempts, next_attempt_at, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,0,$14,NOW(),NOW()
        )
    `,
		m.ID, string(m.Channel), m.Template, m.RecipientName, m.RecipientEmail, m.RecipientPhone,
		m.Subject, m.TextBody, m.HTMLBody, m.CustomerID, m.CleanerID, m.JobID,
		string(m.Status), m.NextAttemptAt,
	)
	return err
}

func (r *outboxRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.OutboxMessage, error) {
	rows, err := r.db.Query(ctx, `
        SELECT
            id, channel, template, recipient_name, recipient_email, recipient_phone,
            subject, text_body, html_body, customer_id, cleaner_id, job_id,
            status, attempts, last_error, next_attempt_at, created_at, updated_at
        FROM outbox_messages
        WHERE status='pending' AND next_attempt_at <= $1
        ORDER BY next_attempt_at, created_at
        LIMIT $2
    `, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OutboxMessage
	for rows.Next() {
		m, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *outboxRepo) MarkSent(ctx context.Context, id uuid.UUID, attempts int) error {
	_, err := r.db.Exec(ctx, `
        UPDATE outbox_messages SET status='sent', attempts=$1, last_error=NULL, updated_at=NOW()
        WHERE id=$2
    `, attempts, id)
	return err
}

func (r *outboxRepo) MarkRetry(ctx context.Context, id uuid.UUID, channel models.ChannelType, attempts int, lastErr string, next time.Time) error {
	_, err := r.db.Exec(ctx, `
        UPDATE outbox_messages SET channel=$1, attempts=$2, last_error=$3, next_attempt_at=$4, updated_at=NOW()
        WHERE id=$5
    `, string(channel), attempts, lastErr, next, id)
	return err
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	_, err := r.db.Exec(ctx, `
        UPDATE outbox_messages SET status='failed', attempts=$1, last_error=$2, updated_at=NOW()
        WHERE id=$3
    `, attempts, lastErr, id)
	return err
}

func scanOutbox(row pgx.Row) (*models.OutboxMessage, error) {
	var m models.OutboxMessage
	var channel, status string
	err := row.Scan(
		&m.ID, &channel, &m.Template, &m.RecipientName, &m.RecipientEmail, &m.RecipientPhone,
		&m.Subject, &m.TextBody, &m.HTMLBody, &m.CustomerID, &m.CleanerID, &m.JobID,
		&status, &m.Attempts, &m.LastError, &m.NextAttemptAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Channel = models.ChannelType(channel)
	m.Status = models.OutboxStatusType(status)
	return &m, nil
}
