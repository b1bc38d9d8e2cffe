package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type ReminderService struct {
	jobs      repositories.JobRepository
	customers repositories.CustomerRepository
	cleaners  repositories.CleanerRepository
	notifier  Notifier
	biz       BusinessInfo
	now       func() time.Time
}

func NewReminderService(
	jobs repositories.JobRepository,
	customers repositories.CustomerRepository,
	cleaners repositories.CleanerRepository,
	notifier Notifier,
	biz BusinessInfo,
) *ReminderService {
	return &ReminderService{
		jobs:      jobs,
		customers: customers,
		cleaners:  cleaners,
		notifier:  notifier,
		biz:       biz,
		now:       time.Now,
	}
}

type ReminderSummary struct {
	Queued int `json:"queued"`
	Failed int `json:"failed"`
}

// SendDayBeforeReminders texts every customer with a confirmed job tomorrow.
func (s *ReminderService) SendDayBeforeReminders(ctx context.Context) (*ReminderSummary, error) {
	tomorrow := utils.DateOnly(s.now().In(s.biz.loc())).AddDate(0, 0, 1)
	jobs, err := s.jobs.ListConfirmedOn(ctx, tomorrow)
	if err != nil {
		return nil, err
	}

	sum := &ReminderSummary{}
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		cust, err := s.customers.GetByID(ctx, j.CustomerID)
		if err != nil || cust == nil {
			utils.Logger.WithError(err).WithField("job_id", j.ID).Warn("Skipping reminder; customer lookup failed")
			sum.Failed++
			continue
		}
		if err := s.notifier.Enqueue(ctx, dayBeforeReminderMessage(s.biz, cust, j)); err != nil {
			utils.Logger.WithError(err).WithField("job_id", j.ID).Error("Failed to queue reminder")
			sum.Failed++
			continue
		}
		sum.Queued++
	}
	return sum, nil
}

// SendWeeklySchedules emails each active cleaner their jobs for the next
// seven days, starting tomorrow.
func (s *ReminderService) SendWeeklySchedules(ctx context.Context) (*ReminderSummary, error) {
	from := utils.DateOnly(s.now().In(s.biz.loc())).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 6)

	cleaners, err := s.cleaners.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	sum := &ReminderSummary{}
	for _, cl := range cleaners {
		if ctx.Err() != nil {
			break
		}
		log := utils.Logger.WithFields(logrus.Fields{"cleaner_id": cl.ID})
		if cl.Email == "" {
			log.Warn("Cleaner has no email; skipping weekly schedule")
			continue
		}
		jobs, err := s.jobs.ListForCleanerRange(ctx, cl.ID, from, to)
		if err != nil {
			log.WithError(err).Error("Failed to load cleaner schedule")
			sum.Failed++
			continue
		}
		if err := s.notifier.Enqueue(ctx, weeklyScheduleMessage(s.biz, cl, jobs, from)); err != nil {
			log.WithError(err).Error("Failed to queue weekly schedule")
			sum.Failed++
			continue
		}
		sum.Queued++
	}
	return sum, nil
}
