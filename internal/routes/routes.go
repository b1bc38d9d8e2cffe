package routes

const (
	Health  = "/health"
	Metrics = "/metrics"

	Quote    = "/api/v1/quote"
	Checkout = "/api/v1/checkout"

	StripeWebhook = "/api/v1/webhooks/stripe"
	TwilioSMS     = "/api/v1/webhooks/twilio/sms"

	AdminPrefix             = "/api/v1/admin"
	AdminJobAssign          = AdminPrefix + "/jobs/{id}/assign"
	AdminJobComplete        = AdminPrefix + "/jobs/{id}/complete"
	AdminJobCancel          = AdminPrefix + "/jobs/{id}/cancel"
	AdminJobCharge          = AdminPrefix + "/jobs/{id}/charge"
	AdminJobRating          = AdminPrefix + "/jobs/{id}/rating"
	AdminChargeBalances     = AdminPrefix + "/batch/charge-balances"
	AdminRunTask            = AdminPrefix + "/tasks/run"
	AdminSubscriptions      = AdminPrefix + "/subscriptions"
	AdminSubscriptionCancel = AdminPrefix + "/subscriptions/{id}/cancel"
	AdminPricingSettings    = AdminPrefix + "/pricing-settings"
)
