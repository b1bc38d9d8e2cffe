package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/pricing"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type SubscriptionService struct {
	subs         repositories.SubscriptionRepository
	jobs         repositories.JobRepository
	customers    repositories.CustomerRepository
	activity     repositories.ActivityLogRepository
	quotes       *QuoteService
	biz          BusinessInfo
	skipHolidays bool
	now          func() time.Time
}

func NewSubscriptionService(
	subs repositories.SubscriptionRepository,
	jobs repositories.JobRepository,
	customers repositories.CustomerRepository,
	activity repositories.ActivityLogRepository,
	quotes *QuoteService,
	biz BusinessInfo,
	skipHolidays bool,
) *SubscriptionService {
	return &SubscriptionService{
		subs:         subs,
		jobs:         jobs,
		customers:    customers,
		activity:     activity,
		quotes:       quotes,
		biz:          biz,
		skipHolidays: skipHolidays,
		now:          time.Now,
	}
}

// CreateSubscription stores the cadence and generates its jobs up to the
// horizon. If the jobs cannot be written the subscription is removed again.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req dtos.CreateSubscriptionRequest) (*dtos.CreateSubscriptionResponse, error) {
	if !req.Frequency.Recurring() {
		return nil, validationError("frequency must be weekly, biweekly or monthly", nil)
	}
	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		return nil, utils.NewNotFoundError("Customer", utils.ErrNotFound)
	}
	existing, err := s.subs.GetActiveByCustomer(ctx, cust.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeConflict,
			Message:    "Customer already has an active subscription",
			Err:        utils.ErrActiveSubscriptionExists,
		}
	}

	in := pricing.Input{Sqft: req.Sqft, Bedrooms: req.Bedrooms, Bathrooms: req.Bathrooms, Frequency: req.Frequency}
	quote, _, err := s.quotes.Quote(ctx, in)
	if err != nil {
		return nil, err
	}
	price := quote.RecurringCents()
	if req.BasePriceCents != nil {
		price = *req.BasePriceCents
	}
	hours := quote.EstimatedHours.InexactFloat64()

	months := req.HorizonMonths
	if months <= 0 {
		months = constants.DefaultSubscriptionMonth
	}
	if months > constants.MaxSubscriptionMonths {
		months = constants.MaxSubscriptionMonths
	}

	start := civilDate(s.now().In(s.biz.loc())).AddDate(0, 0, 1)
	if req.StartsOn != nil {
		d, err := time.Parse("2006-01-02", *req.StartsOn)
		if err != nil {
			return nil, validationError("starts_on must be YYYY-MM-DD", err)
		}
		if d.After(start) {
			start = d
		}
	}
	until := start.AddDate(0, months, 0)

	sub := &models.Subscription{
		ID:                uuid.New(),
		CustomerID:        cust.ID,
		Frequency:         req.Frequency,
		PreferredDay:      req.PreferredDay,
		PreferredTimeSlot: req.PreferredTimeSlot,
		BasePriceCents:    price,
		EstimatedHours:    hours,
		Status:            models.SubscriptionStatusActive,
		StartsOn:          start,
		HorizonMonths:     months,
	}

	taken, err := s.jobs.ScheduledDatesForCustomer(ctx, cust.ID, start, until)
	if err != nil {
		return nil, err
	}
	dates, skipped := s.planDates(start, until, req.Frequency, req.PreferredDay, taken)

	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}

	jobs := make([]*models.Job, 0, len(dates))
	for _, d := range dates {
		jobs = append(jobs, &models.Job{
			ID:                   uuid.New(),
			CustomerID:           cust.ID,
			SubscriptionID:       utils.Ptr(sub.ID),
			Sqft:                 req.Sqft,
			Bedrooms:             req.Bedrooms,
			Bathrooms:            req.Bathrooms,
			Frequency:            req.Frequency,
			FirstCleanPriceCents: price,
			RecurringPriceCents:  price,
			TotalPriceCents:      price,
			DepositAmountCents:   0,
			RemainingAmountCents: price,
			EstimatedHours:       hours,
			Status:               models.JobStatusConfirmed,
			PaymentStatus:        models.PaymentStatusScheduled,
			ScheduledDate:        d,
			TimeSlot:             req.PreferredTimeSlot,
			Address:              cust.Address,
			City:                 cust.City,
			State:                cust.State,
			ZipCode:              cust.ZipCode,
			Notes:                req.Notes,
		})
	}

	inserted, err := s.jobs.CreateBatch(ctx, jobs)
	if err != nil {
		utils.Logger.WithError(err).WithField("subscription_id", sub.ID).Error("Job generation failed; removing subscription")
		if delErr := s.subs.Delete(ctx, sub.ID); delErr != nil {
			utils.Logger.WithError(delErr).WithField("subscription_id", sub.ID).Error("Failed to remove subscription after job generation failure")
		}
		return nil, fmt.Errorf("generating subscription jobs: %w", err)
	}

	logActivity(ctx, s.activity, actorSystem, models.ActivitySubscriptionCreate, models.TargetSubscription, utils.Ptr(sub.ID), map[string]any{
		"customer_id":  cust.ID,
		"frequency":    sub.Frequency,
		"jobs_created": inserted,
	})
	utils.Logger.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"customer_id":     cust.ID,
		"jobs":            inserted,
		"skipped":         len(skipped),
	}).Info("Subscription created")

	skippedStr := make([]string, 0, len(skipped))
	for _, d := range skipped {
		skippedStr = append(skippedStr, d.Format("2006-01-02"))
	}
	return &dtos.CreateSubscriptionResponse{
		Subscription: sub,
		JobsCreated:  inserted,
		DatesSkipped: skippedStr,
	}, nil
}

// planDates splits the cadence into dates to book and dates skipped because
// the customer already has a job then or the business is closed.
func (s *SubscriptionService) planDates(
	from, until time.Time,
	freq models.FrequencyType,
	day time.Weekday,
	taken []time.Time,
) (book, skipped []time.Time) {
	busy := make(map[string]bool, len(taken))
	for _, t := range taken {
		busy[t.Format("2006-01-02")] = true
	}
	for _, d := range GenerateDates(from, until, freq, day) {
		if busy[d.Format("2006-01-02")] {
			skipped = append(skipped, d)
			continue
		}
		if name, closed := utils.ClosedHoliday(d); s.skipHolidays && closed {
			utils.Logger.WithField("date", d.Format("2006-01-02")).Debugf("Skipping %s", name)
			skipped = append(skipped, d)
			continue
		}
		book = append(book, d)
	}
	return book, skipped
}

// GenerateDates lists cleaning dates from the first `day` on or after from
// through until. Monthly dates are computed from the first date so they do
// not drift: first + n months, then forward to `day`.
func GenerateDates(from, until time.Time, freq models.FrequencyType, day time.Weekday) []time.Time {
	first := nextWeekday(civilDate(from), day)
	until = civilDate(until)

	var out []time.Time
	switch freq {
	case models.FrequencyWeekly, models.FrequencyBiweekly:
		step := 7
		if freq == models.FrequencyBiweekly {
			step = 14
		}
		for d := first; !d.After(until); d = d.AddDate(0, 0, step) {
			out = append(out, d)
		}
	case models.FrequencyMonthly:
		var last time.Time
		for n := 0; ; n++ {
			d := nextWeekday(first.AddDate(0, n, 0), day)
			if d.After(until) {
				break
			}
			if !d.Equal(last) {
				out = append(out, d)
				last = d
			}
		}
	}
	return out
}

func nextWeekday(d time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// civilDate is t's calendar date at UTC midnight, the shape DATE columns scan into.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CancelSubscription stops the cadence and cancels its upcoming unpaid jobs.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, id uuid.UUID) (*dtos.CancelSubscriptionResponse, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, utils.NewNotFoundError("Subscription", utils.ErrNotFound)
	}
	resp := &dtos.CancelSubscriptionResponse{SubscriptionID: sub.ID}
	if sub.Status == models.SubscriptionStatusCancelled {
		return resp, nil
	}

	if err := s.subs.UpdateStatus(ctx, sub.ID, models.SubscriptionStatusCancelled); err != nil {
		return nil, err
	}
	today := civilDate(s.now().In(s.biz.loc()))
	n, err := s.jobs.CancelFutureForSubscription(ctx, sub.ID, today)
	if err != nil {
		return nil, err
	}
	resp.JobsCancelled = n

	logActivity(ctx, s.activity, actorSystem, models.ActivitySubscriptionCancel, models.TargetSubscription, utils.Ptr(sub.ID), map[string]any{
		"jobs_cancelled": n,
	})
	return resp, nil
}
