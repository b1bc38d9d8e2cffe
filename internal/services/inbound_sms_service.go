package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/messaging"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type SMSCommand string

const (
	SMSCommandOptOut SMSCommand = "opt_out"
	SMSCommandOptIn  SMSCommand = "opt_in"
	SMSCommandRating SMSCommand = "rating"
	SMSCommandOther  SMSCommand = "other"
)

var (
	optOutWords = map[string]bool{"stop": true, "unsubscribe": true, "cancel": true, "quit": true, "end": true}
	optInWords  = map[string]bool{"start": true, "subscribe": true, "yes": true}
)

// ParseSMSCommand classifies an inbound text. Ratings are a bare digit 1-5.
func ParseSMSCommand(body string) (SMSCommand, int) {
	word := strings.ToLower(strings.TrimSpace(body))
	switch {
	case optOutWords[word]:
		return SMSCommandOptOut, 0
	case optInWords[word]:
		return SMSCommandOptIn, 0
	}
	if len(word) == 1 {
		if n, err := strconv.Atoi(word); err == nil && n >= 1 && n <= 5 {
			return SMSCommandRating, n
		}
	}
	return SMSCommandOther, 0
}

type InboundSMS struct {
	From       string
	Body       string
	MessageSID string
}

type InboundSMSService struct {
	customers repositories.CustomerRepository
	commLogs  repositories.CommunicationLogRepository
	activity  repositories.ActivityLogRepository
	feedback  *FeedbackService
	biz       BusinessInfo
}

func NewInboundSMSService(
	customers repositories.CustomerRepository,
	commLogs repositories.CommunicationLogRepository,
	activity repositories.ActivityLogRepository,
	feedback *FeedbackService,
	biz BusinessInfo,
) *InboundSMSService {
	return &InboundSMSService{
		customers: customers,
		commLogs:  commLogs,
		activity:  activity,
		feedback:  feedback,
		biz:       biz,
	}
}

// Handle applies an inbound text and returns the reply body. It never
// fails: the provider must always get a reply so it does not redeliver.
func (s *InboundSMSService) Handle(ctx context.Context, msg InboundSMS) string {
	from := msg.From
	if norm, err := messaging.NormalizeE164(from); err == nil {
		from = norm
	}
	cmd, rating := ParseSMSCommand(msg.Body)
	log := utils.Logger.WithFields(logrus.Fields{"from": from, "command": cmd})

	cust, err := s.customers.GetByPhone(ctx, from)
	if err != nil {
		log.WithError(err).Error("Customer lookup by phone failed")
	}

	s.logMessage(ctx, cust, models.DirectionInbound, constants.TemplateInboundSMS, from, msg.Body, msg.MessageSID)

	var reply, template string
	switch cmd {
	case SMSCommandOptOut:
		template = constants.TemplateOptOutConfirmation
		reply = fmt.Sprintf(constants.MsgOptOutReply, s.biz.Name)
		s.setOptOut(ctx, cust, true)
	case SMSCommandOptIn:
		template = constants.TemplateOptInConfirmation
		reply = fmt.Sprintf(constants.MsgOptInReply, s.biz.Name)
		s.setOptOut(ctx, cust, false)
	case SMSCommandRating:
		template = constants.TemplateRatingThanks
		reply = s.rate(ctx, cust, rating)
	default:
		template = constants.TemplateInboundSMS
		reply = fmt.Sprintf(constants.MsgGenericSMSReply, s.biz.phone())
		log.WithField("body", msg.Body).Info("Unrecognised inbound SMS")
	}

	s.logMessage(ctx, cust, models.DirectionOutbound, template, from, reply, "")
	return reply
}

func (s *InboundSMSService) setOptOut(ctx context.Context, cust *models.Customer, optOut bool) {
	if cust == nil {
		return
	}
	if err := s.customers.SetSMSOptOut(ctx, cust.ID, optOut); err != nil {
		utils.Logger.WithError(err).WithField("customer_id", cust.ID).Error("Failed to update SMS opt-out")
		return
	}
	action := models.ActivitySMSOptIn
	if optOut {
		action = models.ActivitySMSOptOut
	}
	logActivity(ctx, s.activity, actorSMS, action, models.TargetCustomer, &cust.ID, nil)
}

func (s *InboundSMSService) rate(ctx context.Context, cust *models.Customer, rating int) string {
	noJob := fmt.Sprintf(constants.MsgRatingNoJobFound, s.biz.phone())
	if cust == nil || s.feedback == nil {
		return noJob
	}
	job, err := s.feedback.RateLatest(ctx, cust.ID, rating)
	if err != nil {
		if !errors.Is(err, utils.ErrAlreadyRated) {
			utils.Logger.WithError(err).WithField("customer_id", cust.ID).Error("Failed to record SMS rating")
		}
		return noJob
	}
	if job == nil {
		return noJob
	}
	return constants.MsgRatingThanks
}

func (s *InboundSMSService) logMessage(
	ctx context.Context,
	cust *models.Customer,
	dir models.DirectionType,
	template, phone, body, sid string,
) {
	entry := &models.CommunicationLogEntry{
		Channel:   models.ChannelSMS,
		Direction: dir,
		Template:  template,
		Recipient: phone,
		Body:      body,
		Success:   true,
	}
	if cust != nil {
		entry.CustomerID = &cust.ID
	}
	if sid != "" {
		entry.ProviderMessageID = utils.Ptr(sid)
	}
	if err := s.commLogs.Create(ctx, entry); err != nil {
		utils.Logger.WithError(err).Error("Failed to write inbound SMS log entry")
	}
}
