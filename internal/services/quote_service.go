package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/pricing"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

// QuoteService prices homes against the latest saved pricing settings.
// Settings are read on every call so an admin edit applies immediately.
type QuoteService struct {
	settingsRepo repositories.PricingSettingsRepository
	activity     repositories.ActivityLogRepository
}

func NewQuoteService(settingsRepo repositories.PricingSettingsRepository, activity repositories.ActivityLogRepository) *QuoteService {
	return &QuoteService{settingsRepo: settingsRepo, activity: activity}
}

// ActiveSettings is the merged settings plus the version they came from.
// Version 0 means no overrides are stored.
type ActiveSettings struct {
	Version   int64            `json:"version"`
	Settings  pricing.Settings `json:"settings"`
	Overrides json.RawMessage  `json:"overrides,omitempty"`
}

func (s *QuoteService) CurrentSettings(ctx context.Context) (*ActiveSettings, error) {
	rec, err := s.settingsRepo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &ActiveSettings{Settings: pricing.DefaultSettings()}, nil
	}
	merged, err := pricing.Merge(rec.Overrides)
	if err != nil {
		// A bad stored row must not take quoting down.
		utils.Logger.WithError(err).Errorf("Stored pricing settings v%d are invalid; using defaults", rec.Version)
		return &ActiveSettings{Settings: pricing.DefaultSettings()}, nil
	}
	return &ActiveSettings{Version: rec.Version, Settings: merged, Overrides: rec.Overrides}, nil
}

func (s *QuoteService) Quote(ctx context.Context, in pricing.Input) (pricing.Quote, int64, error) {
	active, err := s.CurrentSettings(ctx)
	if err != nil {
		return pricing.Quote{}, 0, err
	}
	q, err := pricing.Calculate(active.Settings, in)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidInput) {
			return pricing.Quote{}, 0, &utils.AppError{
				StatusCode: http.StatusBadRequest,
				Code:       utils.ErrCodeValidation,
				Message:    err.Error(),
				Err:        errors.Join(utils.ErrInvalidQuoteInput, err),
			}
		}
		return pricing.Quote{}, 0, err
	}
	return q, active.Version, nil
}

// UpdateSettings stores a new version after checking it merges cleanly.
func (s *QuoteService) UpdateSettings(ctx context.Context, overrides json.RawMessage, actor string) (*ActiveSettings, error) {
	merged, err := pricing.Merge(overrides)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    err.Error(),
			Err:        err,
		}
	}
	rec, err := s.settingsRepo.Insert(ctx, overrides, actor)
	if err != nil {
		return nil, err
	}
	logActivity(ctx, s.activity, actor, models.ActivityPricingUpdated, models.TargetSettings, nil, map[string]any{
		"version": rec.Version,
	})
	return &ActiveSettings{Version: rec.Version, Settings: merged, Overrides: rec.Overrides}, nil
}
