package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/middleware"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type CleanerAssigner interface {
	AssignCleaner(ctx context.Context, jobID uuid.UUID) (*dtos.AssignCleanerResponse, error)
}

type JobLifecycle interface {
	CompleteJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	CancelJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

type BalanceCharger interface {
	Today() time.Time
	ChargeDueBalances(ctx context.Context, day time.Time) (*dtos.ChargeBalancesResponse, error)
	ChargeJob(ctx context.Context, jobID uuid.UUID) (*dtos.ChargeResult, error)
}

type RatingRecorder interface {
	RecordRating(ctx context.Context, jobID uuid.UUID, rating int) (*models.Job, error)
}

// AdminJobsController exposes the owner's per-job operations and the
// batch balance charge.
type AdminJobsController struct {
	assigner  CleanerAssigner
	lifecycle JobLifecycle
	charger   BalanceCharger
	ratings   RatingRecorder
	loc       *time.Location
}

func NewAdminJobsController(
	assigner CleanerAssigner,
	lifecycle JobLifecycle,
	charger BalanceCharger,
	ratings RatingRecorder,
	loc *time.Location,
) *AdminJobsController {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminJobsController{
		assigner:  assigner,
		lifecycle: lifecycle,
		charger:   charger,
		ratings:   ratings,
		loc:       loc,
	}
}

func adminLogger(r *http.Request, handler string) *logrus.Entry {
	return utils.Logger.WithFields(logrus.Fields{
		"handler": handler,
		"caller":  middleware.SubjectFromContext(r.Context()),
	})
}

// POST /api/v1/admin/jobs/{id}/assign
func (c *AdminJobsController) AssignHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	resp, err := c.assigner.AssignCleaner(r.Context(), jobID)
	if err != nil {
		adminLogger(r, "AssignHandler").WithError(err).WithField("job_id", jobID).Error("Assignment failed")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/admin/jobs/{id}/complete
func (c *AdminJobsController) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	job, err := c.lifecycle.CompleteJob(r.Context(), jobID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.JobResponse{Job: job})
}

// POST /api/v1/admin/jobs/{id}/cancel
func (c *AdminJobsController) CancelHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	job, err := c.lifecycle.CancelJob(r.Context(), jobID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	adminLogger(r, "CancelHandler").WithField("job_id", jobID).Info("Job cancelled")
	utils.RespondWithJSON(w, http.StatusOK, dtos.JobResponse{Job: job})
}

// POST /api/v1/admin/jobs/{id}/charge
func (c *AdminJobsController) ChargeHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	res, err := c.charger.ChargeJob(r.Context(), jobID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	// A declined card is a result, not a request failure.
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// POST /api/v1/admin/jobs/{id}/rating
func (c *AdminJobsController) RatingHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dtos.RecordRatingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	job, err := c.ratings.RecordRating(r.Context(), jobID, req.Rating)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.JobResponse{Job: job})
}

// POST /api/v1/admin/batch/charge-balances
func (c *AdminJobsController) ChargeBalancesHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.ChargeBalancesRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	day := c.charger.Today()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, c.loc)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid date", nil, err)
			return
		}
		day = parsed
	}

	resp, err := c.charger.ChargeDueBalances(r.Context(), day)
	if err != nil {
		adminLogger(r, "ChargeBalancesHandler").WithError(err).Error("Batch charge failed")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
