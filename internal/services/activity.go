package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

const (
	actorSystem  = "system"
	actorWebhook = "stripe_webhook"
	actorSMS     = "sms_inbound"
)

// logActivity appends to the audit trail. Failures are logged only; the
// state change it describes has already happened.
func logActivity(
	ctx context.Context,
	repo repositories.ActivityLogRepository,
	actor string,
	action models.ActivityAction,
	targetType models.ActivityTargetType,
	targetID *uuid.UUID,
	details map[string]any,
) {
	if repo == nil {
		return
	}
	entry := &models.ActivityLogEntry{
		ID:         uuid.New(),
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err == nil {
			msg := json.RawMessage(raw)
			entry.Details = &msg
		}
	}
	if err := repo.Create(ctx, entry); err != nil {
		utils.Logger.WithError(err).WithField("action", action).Error("Failed to write activity log entry")
	}
}

// enqueue hands a notification to the outbox and only logs on failure.
func enqueue(ctx context.Context, n Notifier, msg Notification) {
	if n == nil {
		return
	}
	if err := n.Enqueue(ctx, msg); err != nil {
		utils.Logger.WithError(err).WithField("template", msg.Template).Error("Failed to enqueue notification")
	}
}
