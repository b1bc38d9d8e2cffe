package services

import (
	"context"
	"strings"
	"time"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/metrics"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
	"github.com/sirupsen/logrus"
)

// OutboxService stores notifications next to the state change that caused
// them and delivers them on a schedule.
type OutboxService struct {
	repo       repositories.OutboxRepository
	dispatcher Dispatcher
	now        func() time.Time
}

func NewOutboxService(repo repositories.OutboxRepository, dispatcher Dispatcher) *OutboxService {
	return &OutboxService{repo: repo, dispatcher: dispatcher, now: time.Now}
}

type DrainSummary struct {
	Picked   int `json:"picked"`
	Sent     int `json:"sent"`
	Retrying int `json:"retrying"`
	Failed   int `json:"failed"`
}

func (s *OutboxService) Enqueue(ctx context.Context, n Notification) error {
	return s.repo.Enqueue(ctx, &models.OutboxMessage{
		Channel:        n.Channel,
		Template:       n.Template,
		RecipientName:  n.RecipientName,
		RecipientEmail: n.Email,
		RecipientPhone: n.Phone,
		Subject:        n.Subject,
		TextBody:       n.Text,
		HTMLBody:       n.HTML,
		CustomerID:     n.CustomerID,
		CleanerID:      n.CleanerID,
		JobID:          n.JobID,
		Status:         models.OutboxStatusPending,
		NextAttemptAt:  s.now().UTC(),
	})
}

// Drain delivers due messages. A message is retried with exponential
// backoff only over the channels whose failure was transient.
func (s *OutboxService) Drain(ctx context.Context) (*DrainSummary, error) {
	due, err := s.repo.ListDue(ctx, s.now().UTC(), constants.OutboxDrainBatch)
	if err != nil {
		return nil, err
	}
	metrics.OutboxPending.Set(float64(len(due)))

	summary := &DrainSummary{Picked: len(due)}
	for _, m := range due {
		if ctx.Err() != nil {
			break
		}
		results := s.dispatcher.Dispatch(ctx, notificationFromOutbox(m))
		attempts := m.Attempts + 1

		var retryChannels []models.ChannelType
		var errs []string
		delivered := false
		for _, r := range results {
			if r.Success {
				delivered = true
				continue
			}
			errs = append(errs, string(r.Channel)+": "+r.Error)
			if r.Retryable {
				retryChannels = append(retryChannels, r.Channel)
			}
		}
		lastErr := strings.Join(errs, "; ")

		log := utils.Logger.WithFields(logrus.Fields{
			"outbox_id": m.ID,
			"template":  m.Template,
			"attempts":  attempts,
		})

		var markErr error
		switch {
		case len(retryChannels) > 0 && attempts < constants.OutboxMaxAttempts:
			next := s.now().UTC().Add(backoffFor(attempts))
			markErr = s.repo.MarkRetry(ctx, m.ID, mergeChannels(retryChannels), attempts, lastErr, next)
			summary.Retrying++
			log.WithField("next_attempt_at", next).Warn("Outbox delivery failed; will retry")
		case len(retryChannels) > 0 || !delivered:
			markErr = s.repo.MarkFailed(ctx, m.ID, attempts, lastErr)
			summary.Failed++
			log.Warn("Outbox delivery failed permanently: ", lastErr)
		default:
			markErr = s.repo.MarkSent(ctx, m.ID, attempts)
			summary.Sent++
		}
		if markErr != nil {
			log.WithError(markErr).Error("Failed to update outbox message")
		}
	}
	return summary, nil
}

func backoffFor(attempts int) time.Duration {
	d := constants.OutboxBaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}

func mergeChannels(chs []models.ChannelType) models.ChannelType {
	if len(chs) == 1 {
		return chs[0]
	}
	return models.ChannelBoth
}

func notificationFromOutbox(m *models.OutboxMessage) Notification {
	return Notification{
		Channel:       m.Channel,
		Template:      m.Template,
		RecipientName: m.RecipientName,
		Email:         m.RecipientEmail,
		Phone:         m.RecipientPhone,
		Subject:       m.Subject,
		Text:          m.TextBody,
		HTML:          m.HTMLBody,
		CustomerID:    m.CustomerID,
		CleanerID:     m.CleanerID,
		JobID:         m.JobID,
	}
}
