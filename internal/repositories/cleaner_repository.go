package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type CleanerRepository interface {
	Create(ctx context.Context, c *models.Cleaner) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Cleaner, error)
	ListActive(ctx context.Context) ([]*models.Cleaner, error)
	// ListAvailable returns active cleaners working `day` who serve `zip`,
	// ordered least recently assigned first (never-assigned first, then id).
	ListAvailable(ctx context.Context, day time.Weekday, zip string) ([]*models.Cleaner, error)
	// ClaimAssignment bumps last_assigned_at and total_assignments if the
	// row still holds expectedVersion. false means another writer won.
	ClaimAssignment(ctx context.Context, id uuid.UUID, expectedVersion int64) (bool, error)
}

type cleanerRepo struct {
	db DB
}

func NewCleanerRepository(db DB) CleanerRepository {
	return &cleanerRepo{db: db}
}

func (r *cleanerRepo) Create(ctx context.Context, c *models.Cleaner) error {
	days := make([]int32, 0, len(c.AvailableDays))
	for _, d := range c.AvailableDays {
		days = append(days, int32(d))
	}
	areas := c.ServiceAreas
	if areas == nil {
		areas = []string{}
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO cleaners (
            id, first_name, last_name, email, phone, active,
            available_days, service_areas, last_assigned_at, total_assignments,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,1,NOW(),NOW()
        )
    `,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Active,
		days, areas, c.LastAssignedAt, c.TotalAssignments,
	)
	return err
}

func (r *cleanerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Cleaner, error) {
	row := r.db.QueryRow(ctx, baseSelectCleaner()+" WHERE id=$1", id)
	return scanCleaner(row)
}

func (r *cleanerRepo) ListActive(ctx context.Context) ([]*models.Cleaner, error) {
	return r.list(ctx, baseSelectCleaner()+" WHERE active ORDER BY first_name, id")
}

func (r *cleanerRepo) ListAvailable(ctx context.Context, day time.Weekday, zip string) ([]*models.Cleaner, error) {
	return r.list(ctx, baseSelectCleaner()+`
        WHERE active
          AND $1 = ANY(available_days)
          AND (cardinality(service_areas) = 0 OR $2 = '' OR $2 = ANY(service_areas))
        ORDER BY last_assigned_at ASC NULLS FIRST, id ASC
    `, int32(day), zip)
}

func (r *cleanerRepo) ClaimAssignment(ctx context.Context, id uuid.UUID, expectedVersion int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE cleaners SET
            last_assigned_at=NOW(),
            total_assignments=total_assignments+1,
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$1 AND row_version=$2
    `, id, expectedVersion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *cleanerRepo) list(ctx context.Context, query string, args ...any) ([]*models.Cleaner, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Cleaner
	for rows.Next() {
		c, err := scanCleaner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func baseSelectCleaner() string {
	return `
    SELECT
        id, first_name, last_name, email, phone, active,
        available_days, service_areas, last_assigned_at, total_assignments,
        row_version, created_at, updated_at
    FROM cleaners`
}

func scanCleaner(row pgx.Row) (*models.Cleaner, error) {
	var c models.Cleaner
	var days []int32
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Active,
		&days, &c.ServiceAreas, &c.LastAssignedAt, &c.TotalAssignments,
		&c.RowVersion, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.AvailableDays = make([]time.Weekday, 0, len(days))
	for _, d := range days {
		c.AvailableDays = append(c.AvailableDays, time.Weekday(d))
	}
	return &c, nil
}
