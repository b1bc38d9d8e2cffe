package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/messaging"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

// FeedbackService records satisfaction ratings. Happy customers get a
// review link; unhappy ones get an apology and the owner gets escalated.
type FeedbackService struct {
	jobs      repositories.JobRepository
	customers repositories.CustomerRepository
	activity  repositories.ActivityLogRepository
	notifier  Notifier
	alerter   messaging.Alerter
	biz       BusinessInfo
	now       func() time.Time
}

func NewFeedbackService(
	jobs repositories.JobRepository,
	customers repositories.CustomerRepository,
	activity repositories.ActivityLogRepository,
	notifier Notifier,
	alerter messaging.Alerter,
	biz BusinessInfo,
) *FeedbackService {
	return &FeedbackService{
		jobs:      jobs,
		customers: customers,
		activity:  activity,
		notifier:  notifier,
		alerter:   alerter,
		biz:       biz,
		now:       time.Now,
	}
}

// RecordRating stores a 1-5 rating on a completed job. A job is rated once.
func (s *FeedbackService) RecordRating(ctx context.Context, jobID uuid.UUID, rating int) (*models.Job, error) {
	if rating < 1 || rating > 5 {
		return nil, validationError("rating must be between 1 and 5", nil)
	}

	var rated *models.Job
	err := s.jobs.UpdateWithRetry(ctx, jobID, func(j *models.Job) error {
		if j.Rating != nil {
			return utils.ErrAlreadyRated
		}
		if j.Status != models.JobStatusCompleted {
			return fmt.Errorf("%w: only completed jobs can be rated", utils.ErrInvalidTransition)
		}
		j.Rating = utils.Ptr(rating)
		j.RatedAt = utils.Ptr(s.now().UTC())
		rated = j
		return nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyRated) {
			return nil, &utils.AppError{
				StatusCode: http.StatusConflict,
				Code:       utils.ErrCodeConflict,
				Message:    "This clean has already been rated",
				Err:        err,
			}
		}
		return nil, notFoundOr(err, "Job")
	}

	logActivity(ctx, s.activity, actorSMS, models.ActivityJobRated, models.TargetJob, utils.Ptr(rated.ID), map[string]any{
		"rating": rating,
	})

	cust, err := s.customers.GetByID(ctx, rated.CustomerID)
	if err != nil || cust == nil {
		utils.Logger.WithError(err).WithField("job_id", rated.ID).Warn("Customer lookup failed after rating")
		return rated, nil
	}

	if rating >= constants.ReviewRatingThreshold {
		enqueue(ctx, s.notifier, reviewRequestMessage(s.biz, cust, rated))
		return rated, nil
	}

	enqueue(ctx, s.notifier, complaintApologyMessage(s.biz, cust, rated))
	enqueue(ctx, s.notifier, ownerComplaintMessage(s.biz, cust, rated, rating))
	s.alertOwner(ctx, cust, rated, rating)
	return rated, nil
}

// RateLatest rates the customer's most recent completed, unrated job.
// It returns nil when there is nothing to rate.
func (s *FeedbackService) RateLatest(ctx context.Context, customerID uuid.UUID, rating int) (*models.Job, error) {
	job, err := s.jobs.LatestCompletedUnrated(ctx, customerID)
	if err != nil || job == nil {
		return nil, err
	}
	return s.RecordRating(ctx, job.ID, rating)
}

func (s *FeedbackService) alertOwner(ctx context.Context, c *models.Customer, j *models.Job, rating int) {
	if s.alerter == nil {
		return
	}
	msg := fmt.Sprintf(":warning: %s rated their %s clean %d/5. Phone %s. Job %s.",
		c.FullName(), serviceDate(j.ScheduledDate), rating, c.Phone, j.ID)
	if err := s.alerter.Alert(ctx, msg); err != nil {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"job_id": j.ID,
			"rating": rating,
		}).Error("Failed to send complaint alert")
	}
}
