package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/metrics"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/payments"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

var errNoPaymentMethod = errors.New("no saved payment method")

// BalanceChargeService charges what is left after the deposit on the day
// of service. The batch and the admin single-job charge share chargeOne.
type BalanceChargeService struct {
	jobs      repositories.JobRepository
	customers repositories.CustomerRepository
	paymentsR repositories.PaymentRepository
	activity  repositories.ActivityLogRepository
	gateway   payments.Gateway
	notifier  Notifier
	biz       BusinessInfo
	now       func() time.Time
}

func NewBalanceChargeService(
	jobs repositories.JobRepository,
	customers repositories.CustomerRepository,
	paymentsR repositories.PaymentRepository,
	activity repositories.ActivityLogRepository,
	gateway payments.Gateway,
	notifier Notifier,
	biz BusinessInfo,
) *BalanceChargeService {
	return &BalanceChargeService{
		jobs:      jobs,
		customers: customers,
		paymentsR: paymentsR,
		activity:  activity,
		gateway:   gateway,
		notifier:  notifier,
		biz:       biz,
		now:       time.Now,
	}
}

// Today is the current date in the business time zone.
func (s *BalanceChargeService) Today() time.Time {
	return utils.DateOnly(s.now().In(s.biz.loc()))
}

// ChargeDueBalances charges every job due on day. Item failures land in
// the results; only the initial lookup can fail the call.
func (s *BalanceChargeService) ChargeDueBalances(ctx context.Context, day time.Time) (*dtos.ChargeBalancesResponse, error) {
	due, err := s.jobs.ListDueForCharge(ctx, day)
	if err != nil {
		return nil, err
	}

	resp := &dtos.ChargeBalancesResponse{
		Date:    day.Format("2006-01-02"),
		Results: make([]dtos.ChargeResult, 0, len(due)),
	}
	for _, j := range due {
		if ctx.Err() != nil {
			break
		}
		res := s.chargeOne(ctx, j)
		resp.Results = append(resp.Results, res)
		resp.Processed++
		if res.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	utils.Logger.WithFields(logrus.Fields{
		"date":      resp.Date,
		"processed": resp.Processed,
		"succeeded": resp.Succeeded,
		"failed":    resp.Failed,
	}).Info("Remaining-balance batch finished")
	return resp, nil
}

// ChargeJob charges one job on demand, e.g. after the customer updated
// their card following a failed charge.
func (s *BalanceChargeService) ChargeJob(ctx context.Context, jobID uuid.UUID) (*dtos.ChargeResult, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, utils.NewNotFoundError("Job", utils.ErrNotFound)
	}
	if job.PaymentStatus == models.PaymentStatusPaid || job.RemainingAmountCents <= 0 {
		return nil, fmt.Errorf("%w: job has no remaining balance", utils.ErrInvalidTransition)
	}
	if job.Status != models.JobStatusConfirmed && job.Status != models.JobStatusChargeFailed && job.Status != models.JobStatusCompleted {
		return nil, fmt.Errorf("%w: job is %s", utils.ErrInvalidTransition, job.Status)
	}
	res := s.chargeOne(ctx, job)
	return &res, nil
}

func (s *BalanceChargeService) chargeOne(ctx context.Context, job *models.Job) dtos.ChargeResult {
	res := dtos.ChargeResult{JobID: job.ID, AmountCents: job.RemainingAmountCents}
	log := utils.Logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"amount": job.RemainingAmountCents,
	})

	cust, err := s.customers.GetByID(ctx, job.CustomerID)
	if err != nil || cust == nil {
		if err == nil {
			err = utils.ErrNotFound
		}
		log.WithError(err).Error("Customer lookup failed for balance charge")
		res.Error = "customer lookup failed: " + err.Error()
		metrics.BalanceChargesTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return res
	}

	pm, err := s.resolvePaymentMethod(ctx, job, cust)
	if err != nil {
		res.Error = err.Error()
		s.recordFailure(ctx, job, cust, err.Error(), !errors.Is(err, errNoPaymentMethod))
		if errors.Is(err, errNoPaymentMethod) {
			log.Warn("No saved payment method; asked customer to update card")
		} else {
			log.WithError(err).Error("Payment method lookup failed")
		}
		return res
	}

	charge, err := s.gateway.ChargeOffSession(ctx, payments.ChargeRequest{
		CustomerID:      utils.Val(cust.StripeCustomerID),
		PaymentMethodID: pm,
		AmountCents:     job.RemainingAmountCents,
		Description:     fmt.Sprintf("%s cleaning on %s", s.biz.Name, serviceDate(job.ScheduledDate)),
		IdempotencyKey:  chargeIdempotencyKey(job),
		Metadata: map[string]string{
			constants.MetaChargeType: constants.ChargeTypeRemaining,
			constants.MetaJobID:      job.ID.String(),
		},
	})
	if err != nil {
		perr := payments.Classify(err)
		res.Error = perr.Message
		if charge != nil {
			res.PaymentIntentID = charge.PaymentIntentID
		}
		log.WithError(err).WithField("kind", perr.Kind).Warn("Remaining-balance charge failed")
		s.recordFailure(ctx, job, cust, err.Error(), true)
		return res
	}
	res.PaymentIntentID = charge.PaymentIntentID

	if _, err := s.jobs.MarkRemainingPaid(ctx, job.ID); err != nil {
		// The money moved; the payment_intent.succeeded webhook will retry the write.
		log.WithError(err).Error("Charged but failed to mark job paid")
	}
	if _, err := s.paymentsR.Create(ctx, &models.Payment{
		JobID:                 job.ID,
		CustomerID:            cust.ID,
		Kind:                  models.PaymentKindRemaining,
		AmountCents:           job.RemainingAmountCents,
		StripePaymentIntentID: utils.Ptr(charge.PaymentIntentID),
		Status:                charge.Status,
	}); err != nil {
		log.WithError(err).Error("Failed to record remaining-balance payment")
	}

	res.Success = true
	metrics.BalanceChargesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	logActivity(ctx, s.activity, actorSystem, models.ActivityBalanceCharged, models.TargetJob, utils.Ptr(job.ID), map[string]any{
		"payment_intent": charge.PaymentIntentID,
		"amount_cents":   job.RemainingAmountCents,
	})
	enqueue(ctx, s.notifier, paymentReceiptMessage(s.biz, cust, job, job.RemainingAmountCents))
	log.WithField("payment_intent", charge.PaymentIntentID).Info("Remaining balance charged")
	return res
}

func (s *BalanceChargeService) resolvePaymentMethod(ctx context.Context, job *models.Job, cust *models.Customer) (string, error) {
	if cust.StripeCustomerID == nil || *cust.StripeCustomerID == "" {
		return "", errNoPaymentMethod
	}
	if pm := utils.Val(job.StripePaymentMethodID); pm != "" {
		return pm, nil
	}
	pm, err := s.gateway.DefaultPaymentMethod(ctx, *cust.StripeCustomerID)
	if err != nil {
		return "", fmt.Errorf("looking up saved card: %w", err)
	}
	if pm == "" {
		return "", errNoPaymentMethod
	}
	if err := s.jobs.SetPaymentMethod(ctx, job.ID, pm); err != nil {
		utils.Logger.WithError(err).WithField("job_id", job.ID).Warn("Failed to store resolved payment method")
	}
	return pm, nil
}

// recordFailure marks the job and asks the customer for a new card.
// chargeFailed also moves the job to charge_failed.
func (s *BalanceChargeService) recordFailure(ctx context.Context, job *models.Job, cust *models.Customer, reason string, chargeFailed bool) {
	metrics.BalanceChargesTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
	if err := s.jobs.MarkPaymentFailed(ctx, job.ID, reason, chargeFailed); err != nil {
		utils.Logger.WithError(err).WithField("job_id", job.ID).Error("Failed to mark payment failed")
	}
	logActivity(ctx, s.activity, actorSystem, models.ActivityBalanceChargeFail, models.TargetJob, utils.Ptr(job.ID), map[string]any{
		"error": reason,
	})
	enqueue(ctx, s.notifier, updateCardMessage(s.biz, cust, job))
}

// chargeIdempotencyKey is stable for a job's first attempt. After a recorded
// failure the key moves with row_version so a retry is not answered from
// the processor's idempotency cache.
func chargeIdempotencyKey(job *models.Job) string {
	key := "remaining-" + job.ID.String()
	if job.LastChargeError != nil || job.PaymentStatus == models.PaymentStatusFailed {
		key = fmt.Sprintf("%s-v%d", key, job.RowVersion)
	}
	return key
}
