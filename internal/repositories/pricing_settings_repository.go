package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
)

type PricingSettingsRepository interface {
	// Latest returns the highest saved version, or nil when none exists.
	Latest(ctx context.Context) (*models.PricingSettingsRecord, error)
	Insert(ctx context.Context, overrides json.RawMessage, createdBy string) (*models.PricingSettingsRecord, error)
}

type pricingSettingsRepo struct {
	db DB
}

func NewPricingSettingsRepository(db DB) PricingSettingsRepository {
	return &pricingSettingsRepo{db: db}
}

func (r *pricingSettingsRepo) Latest(ctx context.Context) (*models.PricingSettingsRecord, error) {
	row := r.db.QueryRow(ctx, `
        SELECT version, settings, created_by, created_at
        FROM pricing_settings
        ORDER BY version DESC
        LIMIT 1
    `)
	return scanPricingSettings(row)
}

func (r *pricingSettingsRepo) Insert(ctx context.Context, overrides json.RawMessage, createdBy string) (*models.PricingSettingsRecord, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO pricing_settings (settings, created_by, created_at)
        VALUES ($1, $2, NOW())
        RETURNING version, settings, created_by, created_at
    `, []byte(overrides), createdBy)
	return scanPricingSettings(row)
}

func scanPricingSettings(row pgx.Row) (*models.PricingSettingsRecord, error) {
	var rec models.PricingSettingsRecord
	var raw []byte
	err := row.Scan(&rec.Version, &raw, &rec.CreatedBy, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec.Overrides = json.RawMessage(raw)
	return &rec, nil
}
