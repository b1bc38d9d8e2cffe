package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type feedbackFixture struct {
	svc       *FeedbackService
	lifecycle *JobLifecycleService
	jobs      *fakeJobs
	customers *fakeCustomers
	activity  *fakeActivity
	notifier  *recordingNotifier
	alerter   *fakeAlerter
	customer  *models.Customer
}

func newFeedbackFixture() *feedbackFixture {
	f := &feedbackFixture{
		jobs:      newFakeJobs(),
		customers: newFakeCustomers(),
		activity:  &fakeActivity{},
		notifier:  &recordingNotifier{},
		alerter:   &fakeAlerter{},
	}
	f.customer = f.customers.add(&models.Customer{
		FirstName: "Ava",
		LastName:  "Stone",
		Email:     "ava@example.com",
		Phone:     "+16305550111",
	})
	f.svc = NewFeedbackService(f.jobs, f.customers, f.activity, f.notifier, f.alerter, testBiz)
	f.lifecycle = NewJobLifecycleService(f.jobs, f.customers, f.activity, f.notifier, testBiz)
	now := fixedClock(time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC))
	f.svc.now = now
	f.lifecycle.now = now
	return f
}

func (f *feedbackFixture) job(status models.JobStatusType, date string) *models.Job {
	j := &models.Job{
		ID:            uuid.New(),
		CustomerID:    f.customer.ID,
		Status:        status,
		PaymentStatus: models.PaymentStatusPaid,
		ScheduledDate: day(date),
		Address:       "12 Elm St",
	}
	f.jobs.put(j)
	return j
}

func TestCompleteJob_RequestsFeedback(t *testing.T) {
	f := newFeedbackFixture()
	j := f.job(models.JobStatusConfirmed, "2026-10-19")

	done, err := f.lifecycle.CompleteJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	stored := f.jobs.get(j.ID)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Equal(t, []string{constants.TemplateFeedbackRequest}, f.notifier.templates())
	assert.Contains(t, f.activity.actions(), models.ActivityJobCompleted)
}

func TestCompleteJob_Rejects(t *testing.T) {
	f := newFeedbackFixture()

	_, err := f.lifecycle.CompleteJob(context.Background(), uuid.New())
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.StatusCode)

	lead := f.job(models.JobStatusLead, "2026-10-19")
	_, err = f.lifecycle.CompleteJob(context.Background(), lead.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.Empty(t, f.notifier.templates())
}

func TestCancelJob(t *testing.T) {
	f := newFeedbackFixture()
	j := f.job(models.JobStatusConfirmed, "2026-10-19")

	got, err := f.lifecycle.CancelJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, got.Status)

	_, err = f.lifecycle.CancelJob(context.Background(), j.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	_, err = f.lifecycle.CancelJob(context.Background(), uuid.New())
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestRecordRating_HighRatingAsksForReview(t *testing.T) {
	f := newFeedbackFixture()
	j := f.job(models.JobStatusCompleted, "2026-10-19")

	rated, err := f.svc.RecordRating(context.Background(), j.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, *rated.Rating)
	assert.Equal(t, 5, *f.jobs.get(j.ID).Rating)
	assert.Equal(t, []string{constants.TemplateReviewRequest}, f.notifier.templates())
	assert.Empty(t, f.alerter.messages)
}

func TestRecordRating_LowRatingEscalates(t *testing.T) {
	f := newFeedbackFixture()
	j := f.job(models.JobStatusCompleted, "2026-10-19")

	_, err := f.svc.RecordRating(context.Background(), j.ID, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{constants.TemplateComplaintApology, constants.TemplateOwnerComplaint},
		f.notifier.templates())
	require.Len(t, f.alerter.messages, 1)
	assert.Contains(t, f.alerter.messages[0], "Ava Stone")
	assert.Contains(t, f.alerter.messages[0], "2/5")
}

func TestRecordRating_Rejects(t *testing.T) {
	f := newFeedbackFixture()
	completed := f.job(models.JobStatusCompleted, "2026-10-19")
	confirmed := f.job(models.JobStatusConfirmed, "2026-10-19")

	var appErr *utils.AppError
	_, err := f.svc.RecordRating(context.Background(), completed.ID, 6)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)

	_, err = f.svc.RecordRating(context.Background(), confirmed.ID, 4)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	_, err = f.svc.RecordRating(context.Background(), completed.ID, 4)
	require.NoError(t, err)
	_, err = f.svc.RecordRating(context.Background(), completed.ID, 1)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode)
	assert.ErrorIs(t, err, utils.ErrAlreadyRated)
	assert.Equal(t, 4, *f.jobs.get(completed.ID).Rating)
}

func TestRateLatest_PicksMostRecentUnrated(t *testing.T) {
	f := newFeedbackFixture()
	older := f.job(models.JobStatusCompleted, "2026-10-05")
	newer := f.job(models.JobStatusCompleted, "2026-10-12")

	rated, err := f.svc.RateLatest(context.Background(), f.customer.ID, 5)
	require.NoError(t, err)
	require.NotNil(t, rated)
	assert.Equal(t, newer.ID, rated.ID)
	assert.Nil(t, f.jobs.get(older.ID).Rating)

	rated, err = f.svc.RateLatest(context.Background(), f.customer.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, older.ID, rated.ID)

	rated, err = f.svc.RateLatest(context.Background(), f.customer.ID, 4)
	require.NoError(t, err)
	assert.Nil(t, rated)
}
