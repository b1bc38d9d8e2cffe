package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, s *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatusType) error
	// Delete removes a subscription whose jobs could not be generated.
	Delete(ctx context.Context, id uuid.UUID) error
}

type subscriptionRepo struct {
	db DB
}

func NewSubscriptionRepository(db DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) Create(ctx context.Context, s *models.Subscription) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO subscriptions (
            id, customer_id, frequency, preferred_day, preferred_time_slot,
            base_price_cents, estimated_hours, status, starts_on, horizon_months,
            created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW()
        )
    `,
		s.ID, s.CustomerID, string(s.Frequency), int32(s.PreferredDay), s.PreferredTimeSlot,
		s.BasePriceCents, s.EstimatedHours, string(s.Status), dateArg(s.StartsOn), s.HorizonMonths,
	)
	return err
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	row := r.db.QueryRow(ctx, baseSelectSubscription()+" WHERE id=$1", id)
	return scanSubscription(row)
}

func (r *subscriptionRepo) GetActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error) {
	row := r.db.QueryRow(ctx, baseSelectSubscription()+`
        WHERE customer_id=$1 AND status='active'
        ORDER BY created_at DESC
        LIMIT 1
    `, customerID)
	return scanSubscription(row)
}

func (r *subscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatusType) error {
	_, err := r.db.Exec(ctx, `
        UPDATE subscriptions SET status=$1, updated_at=NOW() WHERE id=$2
    `, string(status), id)
	return err
}

func (r *subscriptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	return err
}

func baseSelectSubscription() string {
	return `
    SELECT
        id, customer_id, frequency, preferred_day, preferred_time_slot,
        base_price_cents, estimated_hours, status, starts_on, horizon_months,
        created_at, updated_at
    FROM subscriptions`
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	var freq, status string
	var day int32
	err := row.Scan(
		&s.ID, &s.CustomerID, &freq, &day, &s.PreferredTimeSlot,
		&s.BasePriceCents, &s.EstimatedHours, &status, &s.StartsOn, &s.HorizonMonths,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.Frequency = models.FrequencyType(freq)
	s.Status = models.SubscriptionStatusType(status)
	s.PreferredDay = time.Weekday(day)
	return &s, nil
}
