package app

import (
	"github.com/peterssg513/willowandwater-sub001/internal/config"
	"github.com/peterssg513/willowandwater-sub001/internal/messaging"
	"github.com/peterssg513/willowandwater-sub001/internal/payments"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/services"
)

type Repositories struct {
	Customers       repositories.CustomerRepository
	Jobs            repositories.JobRepository
	Cleaners        repositories.CleanerRepository
	Subscriptions   repositories.SubscriptionRepository
	Payments        repositories.PaymentRepository
	Activity        repositories.ActivityLogRepository
	CommLogs        repositories.CommunicationLogRepository
	WebhookEvents   repositories.WebhookEventRepository
	PricingSettings repositories.PricingSettingsRepository
	Outbox          repositories.OutboxRepository
}

func NewRepositories(db repositories.DB) *Repositories {
	return &Repositories{
		Customers:       repositories.NewCustomerRepository(db),
		Jobs:            repositories.NewJobRepository(db),
		Cleaners:        repositories.NewCleanerRepository(db),
		Subscriptions:   repositories.NewSubscriptionRepository(db),
		Payments:        repositories.NewPaymentRepository(db),
		Activity:        repositories.NewActivityLogRepository(db),
		CommLogs:        repositories.NewCommunicationLogRepository(db),
		WebhookEvents:   repositories.NewWebhookEventRepository(db),
		PricingSettings: repositories.NewPricingSettingsRepository(db),
		Outbox:          repositories.NewOutboxRepository(db),
	}
}

// Services is the full service graph. The HTTP server and the Lambda
// handler build the same one.
type Services struct {
	Quotes        *services.QuoteService
	Checkout      *services.CheckoutService
	Webhooks      *services.PaymentWebhookService
	Assignments   *services.AssignmentService
	Balances      *services.BalanceChargeService
	Subscriptions *services.SubscriptionService
	Lifecycle     *services.JobLifecycleService
	Feedback      *services.FeedbackService
	InboundSMS    *services.InboundSMSService
	Reminders     *services.ReminderService
	Outbox        *services.OutboxService
	Tasks         *services.TaskRunner
}

func BusinessInfo(cfg *config.Config) services.BusinessInfo {
	return services.BusinessInfo{
		Name:          cfg.OrganizationName,
		OwnerName:     cfg.OwnerName,
		OwnerEmail:    cfg.OwnerEmail,
		OwnerPhone:    cfg.OwnerPhone,
		BusinessPhone: cfg.BusinessPhone,
		ReviewURL:     cfg.ReviewURL,
		Location:      cfg.Location,
	}
}

func NewServices(cfg *config.Config, repos *Repositories) *Services {
	biz := BusinessInfo(cfg)

	sms := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.LDFlag_TwilioFromPhone)
	email := messaging.NewSendGridSender(cfg.SendGridAPIKey, cfg.OrganizationName, cfg.LDFlag_SendgridFromEmail, cfg.LDFlag_SendgridSandboxMode)
	alerter := messaging.NewSlackAlerter(cfg.SlackBotToken, cfg.SlackChannelID)
	gateway := payments.NewStripeGateway(cfg.StripeSecretKey)

	dispatcher := services.NewNotificationService(sms, email, repos.CommLogs, repos.Customers)
	outbox := services.NewOutboxService(repos.Outbox, dispatcher)

	quotes := services.NewQuoteService(repos.PricingSettings, repos.Activity)
	feedback := services.NewFeedbackService(repos.Jobs, repos.Customers, repos.Activity, outbox, alerter, biz)
	s := &Services{
		Quotes: quotes,
		Checkout: services.NewCheckoutService(gateway, quotes, repos.Customers, repos.Jobs, services.CheckoutURLs{
			Success: cfg.CheckoutSuccessURL,
			Cancel:  cfg.CheckoutCancelURL,
		}, cfg.Location),
		Webhooks: services.NewPaymentWebhookService(
			repos.WebhookEvents, repos.Customers, repos.Jobs, repos.Payments, repos.Activity, gateway, outbox, biz,
		),
		Assignments: services.NewAssignmentService(repos.Jobs, repos.Cleaners, repos.Customers, repos.Activity, outbox, biz),
		Balances: services.NewBalanceChargeService(
			repos.Jobs, repos.Customers, repos.Payments, repos.Activity, gateway, outbox, biz,
		),
		Subscriptions: services.NewSubscriptionService(
			repos.Subscriptions, repos.Jobs, repos.Customers, repos.Activity, quotes, biz, cfg.LDFlag_SkipUSHolidays,
		),
		Lifecycle:  services.NewJobLifecycleService(repos.Jobs, repos.Customers, repos.Activity, outbox, biz),
		Feedback:   feedback,
		InboundSMS: services.NewInboundSMSService(repos.Customers, repos.CommLogs, repos.Activity, feedback, biz),
		Reminders:  services.NewReminderService(repos.Jobs, repos.Customers, repos.Cleaners, outbox, biz),
		Outbox:     outbox,
	}
	s.Tasks = services.NewTaskRunner(s.Balances, s.Assignments, s.Reminders, s.Outbox)
	return s
}
