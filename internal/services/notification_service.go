package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/peterssg513/willowandwater-sub001/internal/messaging"
	"github.com/peterssg513/willowandwater-sub001/internal/metrics"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
	"github.com/sirupsen/logrus"
)

// Notification is one rendered message addressed to a person over SMS,
// email or both.
type Notification struct {
	Channel       models.ChannelType
	Template      string
	RecipientName string
	Email         string
	Phone         string
	Subject       string
	Text          string
	HTML          string
	CustomerID    *uuid.UUID
	CleanerID     *uuid.UUID
	JobID         *uuid.UUID
}

// Notifier queues a notification for later delivery.
type Notifier interface {
	Enqueue(ctx context.Context, n Notification) error
}

// Dispatcher delivers a notification right away.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) []DeliveryResult
}

type DeliveryResult struct {
	Channel           models.ChannelType `json:"channel"`
	Recipient         string             `json:"recipient"`
	Success           bool               `json:"success"`
	Retryable         bool               `json:"retryable"`
	ProviderMessageID string             `json:"provider_message_id,omitempty"`
	Error             string             `json:"error,omitempty"`
}

var (
	errNoRecipient   = errors.New("no recipient address")
	errOptedOut      = errors.New("recipient opted out of SMS")
	errSMSDisabled   = errors.New("sms provider not configured")
	errEmailDisabled = errors.New("email provider not configured")
)

type NotificationService struct {
	sms       messaging.SMSSender
	email     messaging.EmailSender
	commLogs  repositories.CommunicationLogRepository
	customers repositories.CustomerRepository
}

// NewNotificationService accepts nil senders; the matching channel is then
// recorded as not configured on every attempt.
func NewNotificationService(
	sms messaging.SMSSender,
	email messaging.EmailSender,
	commLogs repositories.CommunicationLogRepository,
	customers repositories.CustomerRepository,
) *NotificationService {
	return &NotificationService{sms: sms, email: email, commLogs: commLogs, customers: customers}
}

// Dispatch sends over every requested channel and logs each attempt.
// Provider failures are reported in the results, never returned.
func (s *NotificationService) Dispatch(ctx context.Context, n Notification) []DeliveryResult {
	var results []DeliveryResult
	if n.Channel == models.ChannelSMS || n.Channel == models.ChannelBoth {
		results = append(results, s.sendSMS(ctx, n))
	}
	if n.Channel == models.ChannelEmail || n.Channel == models.ChannelBoth {
		results = append(results, s.sendEmail(ctx, n))
	}
	return results
}

func (s *NotificationService) sendSMS(ctx context.Context, n Notification) DeliveryResult {
	res := DeliveryResult{Channel: models.ChannelSMS, Recipient: n.Phone}

	var sid string
	err := func() error {
		if n.Phone == "" {
			return errNoRecipient
		}
		to, err := messaging.NormalizeE164(n.Phone)
		if err != nil {
			return err
		}
		res.Recipient = to
		if n.CustomerID != nil && s.customers != nil {
			c, err := s.customers.GetByID(ctx, *n.CustomerID)
			if err != nil {
				res.Retryable = true
				return err
			}
			if c != nil && c.SMSOptOut {
				return errOptedOut
			}
		}
		if s.sms == nil {
			return errSMSDisabled
		}
		sid, err = s.sms.SendSMS(ctx, to, n.Text)
		if err != nil {
			res.Retryable = true
		}
		return err
	}()

	s.finish(ctx, n, &res, n.Text, sid, err)
	return res
}

func (s *NotificationService) sendEmail(ctx context.Context, n Notification) DeliveryResult {
	res := DeliveryResult{Channel: models.ChannelEmail, Recipient: n.Email}

	var msgID string
	err := func() error {
		if n.Email == "" {
			return errNoRecipient
		}
		if s.email == nil {
			return errEmailDisabled
		}
		var err error
		msgID, err = s.email.SendEmail(ctx, messaging.Email{
			ToName:   n.RecipientName,
			ToEmail:  n.Email,
			Subject:  n.Subject,
			TextBody: n.Text,
			HTMLBody: n.HTML,
		})
		if err != nil {
			res.Retryable = true
		}
		return err
	}()

	body := n.HTML
	if body == "" {
		body = n.Text
	}
	s.finish(ctx, n, &res, body, msgID, err)
	return res
}

func (s *NotificationService) finish(
	ctx context.Context,
	n Notification,
	res *DeliveryResult,
	body, providerID string,
	err error,
) {
	outcome := metrics.OutcomeSuccess
	entry := &models.CommunicationLogEntry{
		CustomerID: n.CustomerID,
		CleanerID:  n.CleanerID,
		JobID:      n.JobID,
		Channel:    res.Channel,
		Direction:  models.DirectionOutbound,
		Template:   n.Template,
		Recipient:  res.Recipient,
		Body:       body,
	}

	if err != nil {
		res.Error = err.Error()
		entry.Error = utils.Ptr(res.Error)
		outcome = metrics.OutcomeFailure
		if errors.Is(err, errOptedOut) || errors.Is(err, errSMSDisabled) || errors.Is(err, errEmailDisabled) {
			outcome = metrics.OutcomeSkipped
		}
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"channel":  res.Channel,
			"template": n.Template,
		}).Warn("Notification not delivered")
	} else {
		res.Success = true
		res.ProviderMessageID = providerID
		entry.Success = true
		if providerID != "" {
			entry.ProviderMessageID = utils.Ptr(providerID)
		}
	}
	metrics.NotificationsTotal.WithLabelValues(string(res.Channel), outcome).Inc()

	if s.commLogs == nil {
		return
	}
	if logErr := s.commLogs.Create(ctx, entry); logErr != nil {
		utils.Logger.WithError(logErr).Error("Failed to write communication log entry")
	}
}
