package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

// Seeded cleaner ids are fixed so seeding can tell it already ran.
const (
	SeedCleanerMorgan = "c1ea0000-0000-4000-8000-000000000001"
	SeedCleanerRiley  = "c1ea0000-0000-4000-8000-000000000002"
	SeedCleanerJordan = "c1ea0000-0000-4000-8000-000000000003"
)

func seedCleaners() []*models.Cleaner {
	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	return []*models.Cleaner{
		{
			ID:            uuid.MustParse(SeedCleanerMorgan),
			FirstName:     "Morgan",
			LastName:      "Reyes",
			Email:         "morgan.cleaner@example.com",
			Phone:         "+16305550201",
			Active:        true,
			AvailableDays: weekdays,
		},
		{
			ID:            uuid.MustParse(SeedCleanerRiley),
			FirstName:     "Riley",
			LastName:      "Chen",
			Email:         "riley.cleaner@example.com",
			Phone:         "+16305550202",
			Active:        true,
			AvailableDays: append([]time.Weekday{time.Saturday}, weekdays...),
			ServiceAreas:  []string{"60174", "60175", "60134"},
		},
		{
			ID:            uuid.MustParse(SeedCleanerJordan),
			FirstName:     "Jordan",
			LastName:      "Park",
			Email:         "jordan.cleaner@example.com",
			Phone:         "+16305550203",
			Active:        true,
			AvailableDays: []time.Weekday{time.Tuesday, time.Thursday, time.Saturday},
		},
	}
}

// SeedAllTestData inserts a small cleaner roster for local runs. It is a
// no-op when the first seeded cleaner already exists.
func SeedAllTestData(ctx context.Context, cleaners repositories.CleanerRepository) error {
	existing, err := cleaners.GetByID(ctx, uuid.MustParse(SeedCleanerMorgan))
	if err != nil {
		return fmt.Errorf("check seeded cleaner: %w", err)
	}
	if existing != nil {
		utils.Logger.Info("Seed data already present; skipping seeding.")
		return nil
	}

	for _, c := range seedCleaners() {
		if err := cleaners.Create(ctx, c); err != nil {
			return fmt.Errorf("seed cleaner %s: %w", c.FirstName, err)
		}
	}
	utils.Logger.Infof("Seeded %d cleaners", len(seedCleaners()))
	return nil
}
