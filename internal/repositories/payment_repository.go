package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type PaymentRepository interface {
	// Create is a no-op when the payment intent, or the job's deposit, was
	// already recorded. It reports whether a row was inserted.
	Create(ctx context.Context, p *models.Payment) (bool, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Payment, error)
}

type paymentRepo struct {
	db DB
}

func NewPaymentRepository(db DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) (bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	tag, err := r.db.Exec(ctx, `
        INSERT INTO payments (
            id, job_id, customer_id, kind, amount_cents,
            stripe_payment_intent_id, status, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
        ON CONFLICT DO NOTHING
    `, p.ID, p.JobID, p.CustomerID, string(p.Kind), p.AmountCents, p.StripePaymentIntentID, p.Status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Payment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, job_id, customer_id, kind, amount_cents,
               stripe_payment_intent_id, status, created_at
        FROM payments
        WHERE job_id=$1
        ORDER BY created_at
    `, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	var kind string
	if err := row.Scan(
		&p.ID, &p.JobID, &p.CustomerID, &kind, &p.AmountCents,
		&p.StripePaymentIntentID, &p.Status, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Kind = models.PaymentKindType(kind)
	return &p, nil
}
