package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

const (
	uniqueViolation   = "23505" // SQLSTATE unique_violation
	customerDateIndex = "uq_jobs_customer_date_live"
)

// ErrCustomerDateTaken is returned when the customer already has a live job
// on the same date.
var ErrCustomerDateTaken = errors.New("customer_date_taken")

type JobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	// CreateIfNotExists inserts the job unless a row with the same id
	// already exists. It reports whether a row was inserted, and returns
	// ErrCustomerDateTaken when the customer's date is already held.
	CreateIfNotExists(ctx context.Context, j *models.Job) (bool, error)
	// CreateBatch inserts all jobs in one transaction. Rows colliding with a
	// live job of the same customer on the same date are skipped.
	CreateBatch(ctx context.Context, jobs []*models.Job) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateIfVersion(ctx context.Context, j *models.Job, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Job) error) error

	// TransitionStatus moves the job to `to` only if its current status is
	// one `to` may be reached from. false means nothing changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, to models.JobStatusType) (bool, error)
	// ConfirmDeposit marks a lead/payment_initiated job as confirmed with
	// its deposit paid.
	ConfirmDeposit(ctx context.Context, id uuid.UUID, sessionID string, paymentMethodID *string) (bool, error)

	SetCleaner(ctx context.Context, jobID, cleanerID uuid.UUID) error
	MarkManualAssignment(ctx context.Context, jobID uuid.UUID) error
	SetPaymentMethod(ctx context.Context, jobID uuid.UUID, paymentMethodID string) error
	MarkRemainingPaid(ctx context.Context, jobID uuid.UUID) (bool, error)
	MarkPaymentFailed(ctx context.Context, jobID uuid.UUID, reason string, chargeFailed bool) error

	ListDueForCharge(ctx context.Context, day time.Time) ([]*models.Job, error)
	ListConfirmedOn(ctx context.Context, day time.Time) ([]*models.Job, error)
	ListConfirmedUnassignedOn(ctx context.Context, day time.Time) ([]*models.Job, error)
	ListForCleanerRange(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]*models.Job, error)
	ScheduledDatesForCustomer(ctx context.Context, customerID uuid.UUID, from, to time.Time) ([]time.Time, error)
	LatestCompletedUnrated(ctx context.Context, customerID uuid.UUID) (*models.Job, error)
	CancelFutureForSubscription(ctx context.Context, subscriptionID uuid.UUID, from time.Time) (int64, error)
}

type jobRepo struct {
	*BaseVersionedRepo[*models.Job]
	db DB
}

func NewJobRepository(db DB) JobRepository {
	r := &jobRepo{db: db}
	selectStmt := baseSelectJob() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanJob)
	return r
}

const insertJobSQL = `
    INSERT INTO jobs (
        id, customer_id, subscription_id, sqft, bedrooms, bathrooms, frequency,
        first_clean_price_cents, recurring_price_cents, total_price_cents,
        deposit_amount_cents, remaining_amount_cents, estimated_hours,
        status, payment_status, scheduled_date, time_slot,
        address, city, state, zip_code, notes,
        cleaner_id, requires_manual_assignment, needs_review,
        stripe_checkout_session_id, stripe_payment_method_id,
        row_version, created_at, updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,
        $18,$19,$20,$21,$22,$23,$24,$25,$26,$27,1,NOW(),NOW()
    )`

func insertJobArgs(j *models.Job) []any {
	return []any{
		j.ID, j.CustomerID, j.SubscriptionID, j.Sqft, j.Bedrooms, j.Bathrooms, string(j.Frequency),
		j.FirstCleanPriceCents, j.RecurringPriceCents, j.TotalPriceCents,
		j.DepositAmountCents, j.RemainingAmountCents, j.EstimatedHours,
		string(j.Status), string(j.PaymentStatus), dateArg(j.ScheduledDate), j.TimeSlot,
		j.Address, j.City, j.State, j.ZipCode, j.Notes,
		j.CleanerID, j.RequiresManualAssignment, j.NeedsReview,
		j.StripeCheckoutSessionID, j.StripePaymentMethodID,
	}
}

func mapJobInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == customerDateIndex {
		return fmt.Errorf("%w: %s", ErrCustomerDateTaken, pgErr.Detail)
	}
	return err
}

func (r *jobRepo) Create(ctx context.Context, j *models.Job) error {
	_, err := r.db.Exec(ctx, insertJobSQL, insertJobArgs(j)...)
	return mapJobInsertError(err)
}

func (r *jobRepo) CreateIfNotExists(ctx context.Context, j *models.Job) (bool, error) {
	tag, err := r.db.Exec(ctx, insertJobSQL+" ON CONFLICT (id) DO NOTHING", insertJobArgs(j)...)
	if err != nil {
		return false, mapJobInsertError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) CreateBatch(ctx context.Context, jobs []*models.Job) (inserted int, err error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, j := range jobs {
		batch.Queue(
			insertJobSQL+" ON CONFLICT (customer_id, scheduled_date) WHERE status <> 'cancelled' AND NOT needs_review DO NOTHING",
			insertJobArgs(j)...,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range jobs {
		tag, execErr := br.Exec()
		if execErr != nil {
			_ = br.Close()
			return 0, fmt.Errorf("inserting job batch: %w", execErr)
		}
		inserted += int(tag.RowsAffected())
	}
	if err = br.Close(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *jobRepo) UpdateIfVersion(ctx context.Context, j *models.Job, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE jobs SET
            status=$1, payment_status=$2,
            scheduled_date=$3, time_slot=$4, notes=$5,
            cleaner_id=$6, requires_manual_assignment=$7,
            stripe_payment_method_id=$8,
            remaining_amount_cents=$9, remaining_paid_at=$10, last_charge_error=$11,
            rating=$12, rated_at=$13, completed_at=$14,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$15 AND row_version=$16
    `,
		string(j.Status), string(j.PaymentStatus),
		dateArg(j.ScheduledDate), j.TimeSlot, j.Notes,
		j.CleanerID, j.RequiresManualAssignment,
		j.StripePaymentMethodID,
		j.RemainingAmountCents, j.RemainingPaidAt, j.LastChargeError,
		j.Rating, j.RatedAt, j.CompletedAt,
		j.ID, expected,
	)
}

func (r *jobRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Job) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *jobRepo) TransitionStatus(ctx context.Context, id uuid.UUID, to models.JobStatusType) (bool, error) {
	from := statusStrings(models.AllowedFrom(to))
	if len(from) == 0 {
		return false, nil
	}
	tag, err := r.db.Exec(ctx, `
        UPDATE jobs SET
            status=$1,
            completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$2 AND status = ANY($3)
    `, string(to), id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) ConfirmDeposit(ctx context.Context, id uuid.UUID, sessionID string, paymentMethodID *string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE jobs SET
            status='confirmed', payment_status='deposit_paid',
            stripe_checkout_session_id=$1,
            stripe_payment_method_id=COALESCE($2, stripe_payment_method_id),
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$3 AND status IN ('lead','payment_initiated')
    `, sessionID, paymentMethodID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) SetCleaner(ctx context.Context, jobID, cleanerID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        UPDATE jobs SET
            cleaner_id=$1, requires_manual_assignment=FALSE,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, cleanerID, jobID)
	return err
}

func (r *jobRepo) MarkManualAssignment(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        UPDATE jobs SET requires_manual_assignment=TRUE, row_version=row_version+1, updated_at=NOW()
        WHERE id=$1
    `, jobID)
	return err
}

func (r *jobRepo) SetPaymentMethod(ctx context.Context, jobID uuid.UUID, paymentMethodID string) error {
	_, err := r.db.Exec(ctx, `
        UPDATE jobs SET stripe_payment_method_id=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, paymentMethodID, jobID)
	return err
}

func (r *jobRepo) MarkRemainingPaid(ctx context.Context, jobID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE jobs SET
            payment_status='paid', remaining_amount_cents=0,
            remaining_paid_at=NOW(), last_charge_error=NULL,
            status = CASE WHEN status = 'charge_failed' THEN 'confirmed' ELSE status END,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$1 AND payment_status <> 'paid'
    `, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *jobRepo) MarkPaymentFailed(ctx context.Context, jobID uuid.UUID, reason string, chargeFailed bool) error {
	_, err := r.db.Exec(ctx, `
        UPDATE jobs SET
            payment_status='failed', last_charge_error=$1,
            status = CASE WHEN $2 AND status = 'confirmed' THEN 'charge_failed' ELSE status END,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$3 AND payment_status <> 'paid'
    `, reason, chargeFailed, jobID)
	return err
}

func (r *jobRepo) ListDueForCharge(ctx context.Context, day time.Time) ([]*models.Job, error) {
	return r.list(ctx, baseSelectJob()+`
        WHERE scheduled_date=$1
          AND status='confirmed'
          AND payment_status IN ('deposit_paid','scheduled')
          AND remaining_amount_cents > 0
          AND NOT needs_review
        ORDER BY created_at, id
    `, dateArg(day))
}

func (r *jobRepo) ListConfirmedOn(ctx context.Context, day time.Time) ([]*models.Job, error) {
	return r.list(ctx, baseSelectJob()+`
        WHERE scheduled_date=$1 AND status='confirmed'
        ORDER BY time_slot, id
    `, dateArg(day))
}

func (r *jobRepo) ListConfirmedUnassignedOn(ctx context.Context, day time.Time) ([]*models.Job, error) {
	return r.list(ctx, baseSelectJob()+`
        WHERE scheduled_date=$1 AND status='confirmed' AND cleaner_id IS NULL AND NOT needs_review
        ORDER BY created_at, id
    `, dateArg(day))
}

func (r *jobRepo) ListForCleanerRange(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]*models.Job, error) {
	return r.list(ctx, baseSelectJob()+`
        WHERE cleaner_id=$1
          AND scheduled_date >= $2 AND scheduled_date <= $3
          AND status='confirmed'
        ORDER BY scheduled_date, time_slot
    `, cleanerID, dateArg(from), dateArg(to))
}

func (r *jobRepo) ScheduledDatesForCustomer(ctx context.Context, customerID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `
        SELECT scheduled_date FROM jobs
        WHERE customer_id=$1
          AND scheduled_date >= $2 AND scheduled_date <= $3
          AND status <> 'cancelled'
        ORDER BY scheduled_date
    `, customerID, dateArg(from), dateArg(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *jobRepo) LatestCompletedUnrated(ctx context.Context, customerID uuid.UUID) (*models.Job, error) {
	row := r.db.QueryRow(ctx, baseSelectJob()+`
        WHERE customer_id=$1 AND status='completed' AND rating IS NULL
        ORDER BY completed_at DESC NULLS LAST, scheduled_date DESC
        LIMIT 1
    `, customerID)
	return scanJob(row)
}

func (r *jobRepo) CancelFutureForSubscription(ctx context.Context, subscriptionID uuid.UUID, from time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE jobs SET status='cancelled', row_version=row_version+1, updated_at=NOW()
        WHERE subscription_id=$1
          AND scheduled_date >= $2
          AND status IN ('lead','payment_initiated','confirmed','charge_failed')
          AND payment_status IN ('unpaid','scheduled','failed')
    `, subscriptionID, dateArg(from))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *jobRepo) list(ctx context.Context, query string, args ...any) ([]*models.Job, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func statusStrings(statuses []models.JobStatusType) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func baseSelectJob() string {
	return `
    SELECT
        id, customer_id, subscription_id, sqft, bedrooms, bathrooms, frequency,
        first_clean_price_cents, recurring_price_cents, total_price_cents,
        deposit_amount_cents, remaining_amount_cents, estimated_hours,
        status, payment_status, scheduled_date, time_slot,
        address, city, state, zip_code, notes,
        cleaner_id, requires_manual_assignment, needs_review,
        stripe_checkout_session_id, stripe_payment_method_id,
        remaining_paid_at, last_charge_error,
        rating, rated_at, completed_at,
        row_version, created_at, updated_at
    FROM jobs`
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	var freq, status, payStatus string
	err := row.Scan(
		&j.ID, &j.CustomerID, &j.SubscriptionID, &j.Sqft, &j.Bedrooms, &j.Bathrooms, &freq,
		&j.FirstCleanPriceCents, &j.RecurringPriceCents, &j.TotalPriceCents,
		&j.DepositAmountCents, &j.RemainingAmountCents, &j.EstimatedHours,
		&status, &payStatus, &j.ScheduledDate, &j.TimeSlot,
		&j.Address, &j.City, &j.State, &j.ZipCode, &j.Notes,
		&j.CleanerID, &j.RequiresManualAssignment, &j.NeedsReview,
		&j.StripeCheckoutSessionID, &j.StripePaymentMethodID,
		&j.RemainingPaidAt, &j.LastChargeError,
		&j.Rating, &j.RatedAt, &j.CompletedAt,
		&j.RowVersion, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	j.Frequency = models.FrequencyType(freq)
	j.Status = models.JobStatusType(status)
	j.PaymentStatus = models.PaymentStatusType(payStatus)
	return &j, nil
}
