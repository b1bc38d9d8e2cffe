package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type CustomerRepository interface {
	// UpsertByEmail inserts the customer or refreshes the contact fields of
	// the existing row with the same email. An existing active status and
	// stripe customer id are never downgraded.
	UpsertByEmail(ctx context.Context, c *models.Customer) (*models.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	SetSMSOptOut(ctx context.Context, id uuid.UUID, optOut bool) error
}

type customerRepo struct {
	db DB
}

func NewCustomerRepository(db DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) UpsertByEmail(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = models.CustomerStatusLead
	}
	row := r.db.QueryRow(ctx, `
        INSERT INTO customers (
            id, first_name, last_name, email, phone,
            address, city, state, zip_code,
            stripe_customer_id, status, sms_opt_out,
            created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,FALSE,NOW(),NOW()
        )
        ON CONFLICT (email) DO UPDATE SET
            first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), customers.first_name),
            last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), customers.last_name),
            phone      = COALESCE(NULLIF(EXCLUDED.phone, ''), customers.phone),
            address    = COALESCE(NULLIF(EXCLUDED.address, ''), customers.address),
            city       = COALESCE(NULLIF(EXCLUDED.city, ''), customers.city),
            state      = COALESCE(NULLIF(EXCLUDED.state, ''), customers.state),
            zip_code   = COALESCE(NULLIF(EXCLUDED.zip_code, ''), customers.zip_code),
            stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, customers.stripe_customer_id),
            status = CASE WHEN customers.status = 'active' THEN 'active' ELSE EXCLUDED.status END,
            updated_at = NOW()
        RETURNING `+customerColumns,
		c.ID, c.FirstName, c.LastName, strings.ToLower(strings.TrimSpace(c.Email)), c.Phone,
		c.Address, c.City, c.State, c.ZipCode,
		c.StripeCustomerID, c.Status,
	)
	return scanCustomer(row)
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	row := r.db.QueryRow(ctx, baseSelectCustomer()+" WHERE id=$1", id)
	return scanCustomer(row)
}

func (r *customerRepo) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	row := r.db.QueryRow(ctx, baseSelectCustomer()+" WHERE email=$1", strings.ToLower(strings.TrimSpace(email)))
	return scanCustomer(row)
}

func (r *customerRepo) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	row := r.db.QueryRow(ctx, baseSelectCustomer()+" WHERE phone=$1 ORDER BY updated_at DESC LIMIT 1", phone)
	return scanCustomer(row)
}

func (r *customerRepo) SetSMSOptOut(ctx context.Context, id uuid.UUID, optOut bool) error {
	_, err := r.db.Exec(ctx, `
        UPDATE customers SET sms_opt_out=$1, updated_at=NOW() WHERE id=$2
    `, optOut, id)
	return err
}

const customerColumns = `
            id, first_name, last_name, email, phone,
            address, city, state, zip_code,
            stripe_customer_id, status, sms_opt_out,
            created_at, updated_at`

func baseSelectCustomer() string {
	return "SELECT " + customerColumns + " FROM customers"
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	var status string
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Address, &c.City, &c.State, &c.ZipCode,
		&c.StripeCustomerID, &status, &c.SMSOptOut,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.Status = models.CustomerStatusType(status)
	return &c, nil
}
