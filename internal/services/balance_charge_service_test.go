package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type chargeFixture struct {
	svc       *BalanceChargeService
	jobs      *fakeJobs
	customers *fakeCustomers
	payments  *fakePayments
	activity  *fakeActivity
	gateway   *fakeGateway
	notifier  *recordingNotifier
}

func newChargeFixture() *chargeFixture {
	f := &chargeFixture{
		jobs:      newFakeJobs(),
		customers: newFakeCustomers(),
		payments:  &fakePayments{},
		activity:  &fakeActivity{},
		gateway:   newFakeGateway(),
		notifier:  &recordingNotifier{},
	}
	f.svc = NewBalanceChargeService(f.jobs, f.customers, f.payments, f.activity, f.gateway, f.notifier, testBiz)
	f.svc.now = fixedClock(time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC))
	return f
}

func (f *chargeFixture) customerWithCard(email string) *models.Customer {
	return f.customers.add(&models.Customer{
		FirstName:        "Ava",
		Email:            email,
		Phone:            "+16305550111",
		StripeCustomerID: utils.Ptr("cus_" + email),
	})
}

func (f *chargeFixture) dueJob(cust *models.Customer, pm string) *models.Job {
	j := &models.Job{
		ID:                   uuid.New(),
		CustomerID:           cust.ID,
		Status:               models.JobStatusConfirmed,
		PaymentStatus:        models.PaymentStatusDepositPaid,
		ScheduledDate:        day("2026-10-19"),
		TotalPriceCents:      25000,
		DepositAmountCents:   5000,
		RemainingAmountCents: 20000,
		Address:              "12 Elm St",
	}
	if pm != "" {
		j.StripePaymentMethodID = utils.Ptr(pm)
	}
	f.jobs.put(j)
	return j
}

func cardDeclined() error {
	return &stripe.Error{
		Type:           stripe.ErrorTypeCard,
		Code:           stripe.ErrorCodeCardDeclined,
		Msg:            "Your card was declined.",
		HTTPStatusCode: 402,
	}
}

func TestChargeDueBalances_OneDeclineDoesNotStopTheBatch(t *testing.T) {
	f := newChargeFixture()
	good := f.dueJob(f.customerWithCard("good@example.com"), "pm_good")
	bad := f.dueJob(f.customerWithCard("bad@example.com"), "pm_bad")
	also := f.dueJob(f.customerWithCard("also@example.com"), "pm_also")
	f.gateway.declinePM["pm_bad"] = cardDeclined()

	resp, err := f.svc.ChargeDueBalances(context.Background(), f.svc.Today())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", resp.Date)
	assert.Equal(t, 3, resp.Processed)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	for _, id := range []uuid.UUID{good.ID, also.ID} {
		j := f.jobs.get(id)
		assert.Equal(t, models.PaymentStatusPaid, j.PaymentStatus)
		assert.Zero(t, j.RemainingAmountCents)
		assert.NotNil(t, j.RemainingPaidAt)
	}

	failed := f.jobs.get(bad.ID)
	assert.Equal(t, models.JobStatusChargeFailed, failed.Status)
	assert.Equal(t, models.PaymentStatusFailed, failed.PaymentStatus)
	require.NotNil(t, failed.LastChargeError)

	var badResult string
	for _, r := range resp.Results {
		if r.JobID == bad.ID {
			badResult = r.Error
		}
	}
	assert.Equal(t, constants.MsgPaymentCard, badResult)

	tpls := f.notifier.templates()
	assert.Len(t, tpls, 3)
	assert.Contains(t, tpls, constants.TemplateUpdateCard)
	assert.Contains(t, tpls, constants.TemplatePaymentReceipt)
}

func TestChargeDueBalances_SkipsPaidHeldAndOtherDays(t *testing.T) {
	f := newChargeFixture()
	cust := f.customerWithCard("ava@example.com")
	paid := f.dueJob(cust, "pm_1")
	paid.PaymentStatus = models.PaymentStatusPaid
	f.jobs.put(paid)
	tomorrow := f.dueJob(cust, "pm_1")
	tomorrow.ScheduledDate = day("2026-10-20")
	f.jobs.put(tomorrow)
	held := f.dueJob(cust, "pm_1")
	held.NeedsReview = true
	f.jobs.put(held)

	resp, err := f.svc.ChargeDueBalances(context.Background(), f.svc.Today())
	require.NoError(t, err)
	assert.Zero(t, resp.Processed)
	assert.Empty(t, f.gateway.charges)
}

func TestChargeOne_UsesMetadataAndIdempotencyKey(t *testing.T) {
	f := newChargeFixture()
	j := f.dueJob(f.customerWithCard("ava@example.com"), "pm_1")

	res, err := f.svc.ChargeJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pi_pm_1", res.PaymentIntentID)

	require.Len(t, f.gateway.charges, 1)
	req := f.gateway.charges[0]
	assert.EqualValues(t, 20000, req.AmountCents)
	assert.Equal(t, "cus_ava@example.com", req.CustomerID)
	assert.Equal(t, "remaining-"+j.ID.String(), req.IdempotencyKey)
	assert.Equal(t, constants.ChargeTypeRemaining, req.Metadata[constants.MetaChargeType])
	assert.Equal(t, j.ID.String(), req.Metadata[constants.MetaJobID])

	rows, _ := f.payments.ListByJob(context.Background(), j.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, models.PaymentKindRemaining, rows[0].Kind)
}

func TestChargeJob_RetryAfterFailureUsesFreshKey(t *testing.T) {
	f := newChargeFixture()
	j := f.dueJob(f.customerWithCard("ava@example.com"), "pm_1")
	f.gateway.declinePM["pm_1"] = cardDeclined()

	res, err := f.svc.ChargeJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)

	delete(f.gateway.declinePM, "pm_1")
	res, err = f.svc.ChargeJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.Len(t, f.gateway.charges, 2)
	assert.NotEqual(t, f.gateway.charges[0].IdempotencyKey, f.gateway.charges[1].IdempotencyKey)

	stored := f.jobs.get(j.ID)
	assert.Equal(t, models.JobStatusConfirmed, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Nil(t, stored.LastChargeError)
}

func TestChargeJob_FallsBackToDefaultCard(t *testing.T) {
	f := newChargeFixture()
	cust := f.customerWithCard("ava@example.com")
	f.gateway.defaultPM[*cust.StripeCustomerID] = "pm_default"
	j := f.dueJob(cust, "")

	res, err := f.svc.ChargeJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pm_default", f.gateway.charges[0].PaymentMethodID)
	assert.Equal(t, "pm_default", *f.jobs.get(j.ID).StripePaymentMethodID)
}

func TestChargeJob_NoCardAsksForUpdateWithoutChargeFailed(t *testing.T) {
	f := newChargeFixture()
	cust := f.customers.add(&models.Customer{FirstName: "Ava", Email: "ava@example.com"})
	j := f.dueJob(cust, "")

	res, err := f.svc.ChargeJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, f.gateway.charges)

	stored := f.jobs.get(j.ID)
	assert.Equal(t, models.JobStatusConfirmed, stored.Status)
	assert.Equal(t, models.PaymentStatusFailed, stored.PaymentStatus)
	assert.Equal(t, []string{constants.TemplateUpdateCard}, f.notifier.templates())
}

func TestChargeJob_Rejects(t *testing.T) {
	f := newChargeFixture()
	cust := f.customerWithCard("ava@example.com")

	_, err := f.svc.ChargeJob(context.Background(), uuid.New())
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.StatusCode)

	paid := f.dueJob(cust, "pm_1")
	paid.PaymentStatus = models.PaymentStatusPaid
	f.jobs.put(paid)
	_, err = f.svc.ChargeJob(context.Background(), paid.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	cancelled := f.dueJob(cust, "pm_1")
	cancelled.Status = models.JobStatusCancelled
	f.jobs.put(cancelled)
	_, err = f.svc.ChargeJob(context.Background(), cancelled.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.Empty(t, f.gateway.charges)
}

func TestChargeIdempotencyKey(t *testing.T) {
	id := uuid.MustParse("7b0c4f0e-2a53-4c1e-9a57-7f2b6f1d3c11")
	j := &models.Job{ID: id, PaymentStatus: models.PaymentStatusDepositPaid}
	j.RowVersion = 4
	assert.Equal(t, "remaining-"+id.String(), chargeIdempotencyKey(j))

	j.PaymentStatus = models.PaymentStatusFailed
	assert.Equal(t, "remaining-"+id.String()+"-v4", chargeIdempotencyKey(j))
}
