package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type JobLifecycleService struct {
	jobs      repositories.JobRepository
	customers repositories.CustomerRepository
	activity  repositories.ActivityLogRepository
	notifier  Notifier
	biz       BusinessInfo
	now       func() time.Time
}

func NewJobLifecycleService(
	jobs repositories.JobRepository,
	customers repositories.CustomerRepository,
	activity repositories.ActivityLogRepository,
	notifier Notifier,
	biz BusinessInfo,
) *JobLifecycleService {
	return &JobLifecycleService{
		jobs:      jobs,
		customers: customers,
		activity:  activity,
		notifier:  notifier,
		biz:       biz,
		now:       time.Now,
	}
}

// CompleteJob marks a confirmed job done and asks the customer for a rating.
func (s *JobLifecycleService) CompleteJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var done *models.Job
	err := s.jobs.UpdateWithRetry(ctx, id, func(j *models.Job) error {
		if !models.CanTransition(j.Status, models.JobStatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", utils.ErrInvalidTransition, j.Status, models.JobStatusCompleted)
		}
		j.Status = models.JobStatusCompleted
		j.CompletedAt = utils.Ptr(s.now().UTC())
		done = j
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "Job")
	}

	logActivity(ctx, s.activity, actorSystem, models.ActivityJobCompleted, models.TargetJob, utils.Ptr(done.ID), nil)

	cust, err := s.customers.GetByID(ctx, done.CustomerID)
	if err != nil || cust == nil {
		utils.Logger.WithError(err).WithField("job_id", done.ID).Warn("Customer lookup failed; no feedback request sent")
		return done, nil
	}
	enqueue(ctx, s.notifier, feedbackRequestMessage(s.biz, cust, done))
	return done, nil
}

// CancelJob moves any non-terminal job to cancelled.
func (s *JobLifecycleService) CancelJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	ok, err := s.jobs.TransitionStatus(ctx, id, models.JobStatusCancelled)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, utils.NewNotFoundError("Job", utils.ErrNotFound)
	}
	if !ok {
		return nil, fmt.Errorf("%w: job is %s", utils.ErrInvalidTransition, job.Status)
	}
	logActivity(ctx, s.activity, actorSystem, models.ActivityJobCancelled, models.TargetJob, utils.Ptr(job.ID), nil)
	return job, nil
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return utils.NewNotFoundError(what, utils.ErrNotFound)
	}
	return err
}
