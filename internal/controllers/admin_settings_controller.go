package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/middleware"
	"github.com/peterssg513/willowandwater-sub001/internal/services"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type PricingSettingsStore interface {
	CurrentSettings(ctx context.Context) (*services.ActiveSettings, error)
	UpdateSettings(ctx context.Context, overrides json.RawMessage, actor string) (*services.ActiveSettings, error)
}

type TaskExecutor interface {
	Run(ctx context.Context, task string) (any, error)
}

// AdminSettingsController covers pricing settings and manual task runs.
type AdminSettingsController struct {
	pricing PricingSettingsStore
	tasks   TaskExecutor
}

func NewAdminSettingsController(pricing PricingSettingsStore, tasks TaskExecutor) *AdminSettingsController {
	return &AdminSettingsController{pricing: pricing, tasks: tasks}
}

func settingsResponse(a *services.ActiveSettings) dtos.PricingSettingsResponse {
	return dtos.PricingSettingsResponse{
		Version:   a.Version,
		Settings:  a.Settings,
		Overrides: a.Overrides,
	}
}

// GET /api/v1/admin/pricing-settings
func (c *AdminSettingsController) GetPricingHandler(w http.ResponseWriter, r *http.Request) {
	active, err := c.pricing.CurrentSettings(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, settingsResponse(active))
}

// PUT /api/v1/admin/pricing-settings
func (c *AdminSettingsController) UpdatePricingHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdatePricingSettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	actor := middleware.SubjectFromContext(r.Context())
	active, err := c.pricing.UpdateSettings(r.Context(), req.Overrides, actor)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	adminLogger(r, "UpdatePricingHandler").WithField("version", active.Version).Info("Pricing settings updated")
	utils.RespondWithJSON(w, http.StatusOK, settingsResponse(active))
}

// POST /api/v1/admin/tasks/run
func (c *AdminSettingsController) RunTaskHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.TaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	out, err := c.tasks.Run(r.Context(), req.Task)
	if err != nil {
		if errors.Is(err, services.ErrUnknownTask) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Unknown task", nil, err)
			return
		}
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.TaskResponse{Task: req.Task, Result: out})
}
