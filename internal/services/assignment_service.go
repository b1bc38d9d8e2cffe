package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/metrics"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

// AssignmentService hands jobs to cleaners round-robin: the eligible
// cleaner assigned least recently wins, claimed by compare-and-swap.
type AssignmentService struct {
	jobs      repositories.JobRepository
	cleaners  repositories.CleanerRepository
	customers repositories.CustomerRepository
	activity  repositories.ActivityLogRepository
	notifier  Notifier
	biz       BusinessInfo
	now       func() time.Time
}

func NewAssignmentService(
	jobs repositories.JobRepository,
	cleaners repositories.CleanerRepository,
	customers repositories.CustomerRepository,
	activity repositories.ActivityLogRepository,
	notifier Notifier,
	biz BusinessInfo,
) *AssignmentService {
	return &AssignmentService{
		jobs:      jobs,
		cleaners:  cleaners,
		customers: customers,
		activity:  activity,
		notifier:  notifier,
		biz:       biz,
		now:       time.Now,
	}
}

// AssignCleaner picks a cleaner for the job. Finding nobody available is
// reported in the response, not as an error.
func (s *AssignmentService) AssignCleaner(ctx context.Context, jobID uuid.UUID) (*dtos.AssignCleanerResponse, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, utils.NewNotFoundError("Job", utils.ErrNotFound)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: job is %s", utils.ErrInvalidTransition, job.Status)
	}
	if job.CleanerID != nil {
		return &dtos.AssignCleanerResponse{JobID: job.ID, Assigned: true, CleanerID: job.CleanerID}, nil
	}

	log := utils.Logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"date":   job.ScheduledDate.Format("2006-01-02"),
	})

	cleaner, err := s.claimCleaner(ctx, job)
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, err
	}
	if cleaner == nil {
		if err := s.jobs.MarkManualAssignment(ctx, job.ID); err != nil {
			return nil, err
		}
		log.Warn("No cleaner available; job requires manual assignment")
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		logActivity(ctx, s.activity, actorSystem, models.ActivityManualAssignment, models.TargetJob, utils.Ptr(job.ID), map[string]any{
			"weekday": job.ScheduledDate.Weekday().String(),
			"zip":     job.ZipCode,
		})
		enqueue(ctx, s.notifier, manualAssignmentMessage(s.biz, job))
		return &dtos.AssignCleanerResponse{JobID: job.ID, RequiresManualAssignment: true}, nil
	}

	if err := s.jobs.SetCleaner(ctx, job.ID, cleaner.ID); err != nil {
		return nil, err
	}
	job.CleanerID = utils.Ptr(cleaner.ID)
	metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()

	cust, err := s.customers.GetByID(ctx, job.CustomerID)
	if err != nil {
		log.WithError(err).Warn("Customer lookup failed; instruction sheet omits contact")
	}
	sheet := InstructionSheet(job, cust)
	enqueue(ctx, s.notifier, cleanerAssignmentMessage(s.biz, cleaner, job, sheet))

	logActivity(ctx, s.activity, actorSystem, models.ActivityCleanerAssigned, models.TargetJob, utils.Ptr(job.ID), map[string]any{
		"cleaner_id": cleaner.ID,
	})
	log.WithField("cleaner_id", cleaner.ID).Info("Cleaner assigned")

	return &dtos.AssignCleanerResponse{
		JobID:       job.ID,
		Assigned:    true,
		CleanerID:   utils.Ptr(cleaner.ID),
		CleanerName: cleaner.FullName(),
	}, nil
}

// claimCleaner returns nil when nobody is eligible.
func (s *AssignmentService) claimCleaner(ctx context.Context, job *models.Job) (*models.Cleaner, error) {
	day := job.ScheduledDate.Weekday()
	for attempt := 1; attempt <= constants.MaxAssignmentClaimRetry; attempt++ {
		candidates, err := s.cleaners.ListAvailable(ctx, day, job.ZipCode)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, nil
		}
		pick := candidates[0]
		ok, err := s.cleaners.ClaimAssignment(ctx, pick.ID, pick.RowVersion)
		if err != nil {
			return nil, err
		}
		if ok {
			return pick, nil
		}
		utils.Logger.WithFields(logrus.Fields{
			"cleaner_id": pick.ID,
			"attempt":    attempt,
		}).Debug("Cleaner claimed concurrently; retrying")
	}
	return nil, fmt.Errorf("%w: could not claim a cleaner after %d attempts",
		utils.ErrRowVersionConflict, constants.MaxAssignmentClaimRetry)
}

type AssignmentResult struct {
	JobID                    uuid.UUID  `json:"job_id"`
	Assigned                 bool       `json:"assigned"`
	CleanerID                *uuid.UUID `json:"cleaner_id,omitempty"`
	RequiresManualAssignment bool       `json:"requires_manual_assignment"`
	Error                    string     `json:"error,omitempty"`
}

// AssignTomorrow assigns every confirmed, unassigned job scheduled for the
// next day. One failure never stops the rest.
func (s *AssignmentService) AssignTomorrow(ctx context.Context) ([]AssignmentResult, error) {
	tomorrow := utils.DateOnly(s.now().In(s.biz.loc())).AddDate(0, 0, 1)
	jobs, err := s.jobs.ListConfirmedUnassignedOn(ctx, tomorrow)
	if err != nil {
		return nil, err
	}

	results := make([]AssignmentResult, 0, len(jobs))
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		res := AssignmentResult{JobID: j.ID}
		resp, err := s.AssignCleaner(ctx, j.ID)
		if err != nil {
			utils.Logger.WithError(err).WithField("job_id", j.ID).Error("Assignment failed")
			res.Error = err.Error()
		} else {
			res.Assigned = resp.Assigned
			res.CleanerID = resp.CleanerID
			res.RequiresManualAssignment = resp.RequiresManualAssignment
		}
		results = append(results, res)
	}
	return results, nil
}
