package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/messaging"
	"github.com/peterssg513/willowandwater-sub001/internal/metrics"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/payments"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

// ErrMalformedEvent marks a payload that will never apply, however often
// the provider redelivers it.
var ErrMalformedEvent = errors.New("malformed_webhook_event")

type PaymentWebhookService struct {
	events    repositories.WebhookEventRepository
	customers repositories.CustomerRepository
	jobs      repositories.JobRepository
	paymentsR repositories.PaymentRepository
	activity  repositories.ActivityLogRepository
	gateway   payments.Gateway
	notifier  Notifier
	biz       BusinessInfo
}

func NewPaymentWebhookService(
	events repositories.WebhookEventRepository,
	customers repositories.CustomerRepository,
	jobs repositories.JobRepository,
	paymentsR repositories.PaymentRepository,
	activity repositories.ActivityLogRepository,
	gateway payments.Gateway,
	notifier Notifier,
	biz BusinessInfo,
) *PaymentWebhookService {
	return &PaymentWebhookService{
		events:    events,
		customers: customers,
		jobs:      jobs,
		paymentsR: paymentsR,
		activity:  activity,
		gateway:   gateway,
		notifier:  notifier,
		biz:       biz,
	}
}

// HandleEvent applies one verified event at most once. A returned error
// means the claim was released and the provider should redeliver.
func (s *PaymentWebhookService) HandleEvent(ctx context.Context, evt stripe.Event) error {
	eventType := string(evt.Type)
	log := utils.Logger.WithFields(logrus.Fields{"event_id": evt.ID, "event_type": eventType})

	claimed, err := s.events.Claim(ctx, constants.WebhookProvider, evt.ID, eventType)
	if err != nil {
		return fmt.Errorf("claiming webhook event: %w", err)
	}
	if !claimed {
		log.Info("Stripe event already processed; ignoring")
		metrics.WebhookEventsTotal.WithLabelValues(constants.WebhookProvider, eventType, metrics.OutcomeIgnored).Inc()
		return nil
	}

	err = s.apply(ctx, evt)
	switch {
	case err == nil:
		metrics.WebhookEventsTotal.WithLabelValues(constants.WebhookProvider, eventType, metrics.OutcomeSuccess).Inc()
		return nil
	case errors.Is(err, ErrMalformedEvent):
		// Keep the claim; redelivery cannot fix the payload.
		log.WithError(err).Error("Dropping malformed Stripe event")
		metrics.WebhookEventsTotal.WithLabelValues(constants.WebhookProvider, eventType, metrics.OutcomeSkipped).Inc()
		return nil
	}

	metrics.WebhookEventsTotal.WithLabelValues(constants.WebhookProvider, eventType, metrics.OutcomeFailure).Inc()
	if relErr := s.events.Release(ctx, constants.WebhookProvider, evt.ID); relErr != nil {
		log.WithError(relErr).Error("Failed to release webhook claim after error")
	}
	return err
}

func (s *PaymentWebhookService) apply(ctx context.Context, evt stripe.Event) error {
	if evt.Data == nil {
		return fmt.Errorf("%w: event has no data", ErrMalformedEvent)
	}
	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		return s.handleCheckoutCompleted(ctx, &sess)
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if pi.Metadata[constants.MetaChargeType] != constants.ChargeTypeRemaining {
			return nil
		}
		if evt.Type == stripe.EventTypePaymentIntentSucceeded {
			return s.handleRemainingSucceeded(ctx, &pi)
		}
		return s.handleRemainingFailed(ctx, &pi)
	default:
		utils.Logger.Infof("Unhandled Stripe event type received: %s", evt.Type)
		return nil
	}
}

func (s *PaymentWebhookService) handleCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	meta := sess.Metadata
	rawID := meta[constants.MetaBookingID]
	if rawID == "" {
		rawID = sess.ClientReferenceID
	}
	if rawID == "" {
		utils.Logger.WithField("session_id", sess.ID).Info("Checkout session carries no booking id; ignoring")
		return nil
	}
	bookingID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("%w: booking id %q: %v", ErrMalformedEvent, rawID, err)
	}
	if sess.PaymentStatus != "" && sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		utils.Logger.WithFields(logrus.Fields{
			"session_id":     sess.ID,
			"payment_status": sess.PaymentStatus,
		}).Warn("Checkout completed without payment; not confirming booking")
		return nil
	}

	job, err := jobFromMetadata(bookingID, meta)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	job.StripeCheckoutSessionID = utils.Ptr(sess.ID)

	email := meta[constants.MetaEmail]
	if email == "" && sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	if email == "" {
		return fmt.Errorf("%w: checkout session %s has no email", ErrMalformedEvent, sess.ID)
	}

	phone := meta[constants.MetaPhone]
	if norm, err := messaging.NormalizeE164(phone); err == nil {
		phone = norm
	}
	cust := &models.Customer{
		FirstName: meta[constants.MetaFirstName],
		LastName:  meta[constants.MetaLastName],
		Email:     email,
		Phone:     phone,
		Address:   job.Address,
		City:      job.City,
		State:     job.State,
		ZipCode:   job.ZipCode,
		Status:    models.CustomerStatusActive,
	}
	if sess.Customer != nil && sess.Customer.ID != "" {
		cust.StripeCustomerID = utils.Ptr(sess.Customer.ID)
	}
	cust, err = s.customers.UpsertByEmail(ctx, cust)
	if err != nil {
		return fmt.Errorf("upserting customer: %w", err)
	}
	job.CustomerID = cust.ID

	var piID string
	if sess.PaymentIntent != nil {
		piID = sess.PaymentIntent.ID
		pm, err := s.gateway.PaymentMethodForIntent(ctx, piID)
		if err != nil {
			// The charger falls back to the customer's default card.
			utils.Logger.WithError(err).WithField("payment_intent", piID).Warn("Could not resolve saved payment method")
		} else if pm != "" {
			job.StripePaymentMethodID = utils.Ptr(pm)
		}
	}

	created, err := s.jobs.CreateIfNotExists(ctx, job)
	if errors.Is(err, repositories.ErrCustomerDateTaken) {
		// The deposit is already captured. Keep the booking for the owner
		// instead of failing every redelivery on the same index.
		job.NeedsReview = true
		created, err = s.jobs.CreateIfNotExists(ctx, job)
	}
	if err != nil {
		return fmt.Errorf("creating booking: %w", err)
	}
	if !created {
		if _, err := s.jobs.ConfirmDeposit(ctx, job.ID, sess.ID, job.StripePaymentMethodID); err != nil {
			return fmt.Errorf("confirming booking: %w", err)
		}
		existing, err := s.jobs.GetByID(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("reloading booking: %w", err)
		}
		if existing != nil {
			job = existing
		}
	}

	deposit := &models.Payment{
		JobID:       job.ID,
		CustomerID:  cust.ID,
		Kind:        models.PaymentKindDeposit,
		AmountCents: job.DepositAmountCents,
		Status:      string(stripe.PaymentIntentStatusSucceeded),
	}
	if sess.AmountTotal > 0 {
		deposit.AmountCents = sess.AmountTotal
	}
	if piID != "" {
		deposit.StripePaymentIntentID = utils.Ptr(piID)
	}
	// The deposit row is the record that this booking was announced, so a
	// redelivery after a partial failure still notifies exactly once.
	recorded, err := s.paymentsR.Create(ctx, deposit)
	if err != nil {
		return fmt.Errorf("recording deposit: %w", err)
	}
	if !recorded {
		utils.Logger.WithField("job_id", job.ID).Info("Deposit already recorded; nothing to do")
		return nil
	}

	details := map[string]any{
		"session_id":    sess.ID,
		"customer_id":   cust.ID,
		"deposit_cents": deposit.AmountCents,
	}
	log := utils.Logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"customer_id": cust.ID,
	})

	if job.NeedsReview {
		logActivity(ctx, s.activity, actorWebhook, models.ActivityBookingNeedsReview, models.TargetJob, utils.Ptr(job.ID), details)
		enqueue(ctx, s.notifier, ownerBookingReviewMessage(s.biz, cust, job))
		log.Warn("Paid booking collides with an existing job; held for review")
		return nil
	}

	logActivity(ctx, s.activity, actorWebhook, models.ActivityBookingConfirmed, models.TargetJob, utils.Ptr(job.ID), details)
	enqueue(ctx, s.notifier, bookingConfirmedMessage(s.biz, cust, job))
	enqueue(ctx, s.notifier, ownerNewBookingMessage(s.biz, cust, job))
	log.Info("Booking confirmed from checkout")
	return nil
}

func (s *PaymentWebhookService) handleRemainingSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	jobID, err := uuid.Parse(pi.Metadata[constants.MetaJobID])
	if err != nil {
		return fmt.Errorf("%w: job id: %v", ErrMalformedEvent, err)
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		utils.Logger.WithField("job_id", jobID).Warn("Remaining-balance payment for unknown job")
		return nil
	}

	changed, err := s.jobs.MarkRemainingPaid(ctx, jobID)
	if err != nil {
		return fmt.Errorf("marking remaining paid: %w", err)
	}
	if _, err := s.paymentsR.Create(ctx, &models.Payment{
		JobID:                 jobID,
		CustomerID:            job.CustomerID,
		Kind:                  models.PaymentKindRemaining,
		AmountCents:           pi.Amount,
		StripePaymentIntentID: utils.Ptr(pi.ID),
		Status:                string(pi.Status),
	}); err != nil {
		return fmt.Errorf("recording remaining payment: %w", err)
	}
	if changed {
		logActivity(ctx, s.activity, actorWebhook, models.ActivityBalanceCharged, models.TargetJob, utils.Ptr(jobID), map[string]any{
			"payment_intent": pi.ID,
			"amount_cents":   pi.Amount,
		})
	}
	return nil
}

func (s *PaymentWebhookService) handleRemainingFailed(ctx context.Context, pi *stripe.PaymentIntent) error {
	jobID, err := uuid.Parse(pi.Metadata[constants.MetaJobID])
	if err != nil {
		return fmt.Errorf("%w: job id: %v", ErrMalformedEvent, err)
	}
	reason := "payment failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		reason = pi.LastPaymentError.Msg
	}
	if err := s.jobs.MarkPaymentFailed(ctx, jobID, reason, true); err != nil {
		return fmt.Errorf("marking payment failed: %w", err)
	}
	logActivity(ctx, s.activity, actorWebhook, models.ActivityBalanceChargeFail, models.TargetJob, utils.Ptr(jobID), map[string]any{
		"payment_intent": pi.ID,
		"error":          reason,
	})
	return nil
}

// jobFromMetadata rebuilds the booking captured at checkout.
func jobFromMetadata(id uuid.UUID, meta map[string]string) (*models.Job, error) {
	var errs []error
	atoi := func(key string) int {
		v, err := strconv.Atoi(meta[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return v
	}
	atoi64 := func(key string) int64 {
		v, err := strconv.ParseInt(meta[key], 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return v
	}
	atof := func(key string) float64 {
		v, err := strconv.ParseFloat(meta[key], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return v
	}

	freq := models.FrequencyType(meta[constants.MetaFrequency])
	if !freq.Valid() {
		errs = append(errs, fmt.Errorf("frequency: unknown %q", freq))
	}
	date, err := time.Parse("2006-01-02", meta[constants.MetaScheduledDate])
	if err != nil {
		errs = append(errs, fmt.Errorf("scheduled_date: %w", err))
	}

	j := &models.Job{
		ID:                   id,
		Sqft:                 atoi(constants.MetaSqft),
		Bedrooms:             atoi(constants.MetaBedrooms),
		Bathrooms:            atof(constants.MetaBathrooms),
		Frequency:            freq,
		TotalPriceCents:      atoi64(constants.MetaTotalCents),
		DepositAmountCents:   atoi64(constants.MetaDepositCents),
		RemainingAmountCents: atoi64(constants.MetaRemainingCents),
		Status:               models.JobStatusConfirmed,
		PaymentStatus:        models.PaymentStatusDepositPaid,
		ScheduledDate:        date,
		TimeSlot:             meta[constants.MetaTimeSlot],
		Address:              meta[constants.MetaAddress],
		City:                 meta[constants.MetaCity],
		State:                meta[constants.MetaState],
		ZipCode:              meta[constants.MetaZip],
		Notes:                meta[constants.MetaNotes],
	}
	j.FirstCleanPriceCents = j.TotalPriceCents
	if v, err := strconv.ParseInt(meta[constants.MetaRecurringCents], 10, 64); err == nil {
		j.RecurringPriceCents = v
	}
	if v, err := strconv.ParseFloat(meta[constants.MetaEstimatedHours], 64); err == nil {
		j.EstimatedHours = v
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if j.RemainingAmountCents != j.TotalPriceCents-j.DepositAmountCents {
		return nil, fmt.Errorf("remaining %d does not equal total %d minus deposit %d",
			j.RemainingAmountCents, j.TotalPriceCents, j.DepositAmountCents)
	}
	if strings.TrimSpace(j.Address) == "" {
		return nil, errors.New("address is empty")
	}
	return j, nil
}
