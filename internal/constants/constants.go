package constants

import "time"

const (
	OrganizationName = "Willow & Water"
	DefaultTimeZone  = "America/Chicago"
	DefaultCountry   = "1" // E.164 country code assumed for bare 10-digit numbers
	ServiceRoleClaim = "service_role"
)

// Deposit and payment settings
const (
	DepositPercent           = 20 // percent of the first clean captured at checkout
	Currency                 = "usd"
	MaxAssignmentClaimRetry  = 3
	MaxVersionedUpdateRetry  = 3
	DefaultSubscriptionMonth = 3
	MaxSubscriptionMonths    = 12
)

// Stripe metadata keys. The checkout session carries enough of these to
// build the booking row when checkout.session.completed arrives.
const (
	MetaBookingID       = "booking_id"
	MetaChargeType      = "charge_type"
	MetaJobID           = "job_id"
	MetaEmail           = "email"
	MetaFirstName       = "first_name"
	MetaLastName        = "last_name"
	MetaPhone           = "phone"
	MetaAddress         = "address"
	MetaCity            = "city"
	MetaState           = "state"
	MetaZip             = "zip"
	MetaSqft            = "sqft"
	MetaBedrooms        = "bedrooms"
	MetaBathrooms       = "bathrooms"
	MetaFrequency       = "frequency"
	MetaScheduledDate   = "scheduled_date"
	MetaTimeSlot        = "time_slot"
	MetaTotalCents      = "total_cents"
	MetaDepositCents    = "deposit_cents"
	MetaRemainingCents  = "remaining_cents"
	MetaRecurringCents  = "recurring_cents"
	MetaEstimatedHours  = "estimated_hours"
	MetaNotes           = "notes"
	MetaValueMaxLen     = 500
	ChargeTypeDeposit   = "deposit"
	ChargeTypeRemaining = "remaining_balance"
)

// Notification template names, also written to the communication log.
const (
	TemplateBookingConfirmed   = "booking_confirmed"
	TemplateOwnerNewBooking    = "owner_new_booking"
	TemplateOwnerBookingReview = "owner_booking_review"
	TemplateCleanerAssignment  = "cleaner_assignment"
	TemplateManualAssignment   = "owner_manual_assignment"
	TemplateUpdateCard         = "update_card"
	TemplatePaymentReceipt     = "payment_receipt"
	TemplateFeedbackRequest    = "feedback_request"
	TemplateReviewRequest      = "review_request"
	TemplateComplaintApology   = "complaint_apology"
	TemplateOwnerComplaint     = "owner_complaint"
	TemplateDayBeforeReminder  = "day_before_reminder"
	TemplateWeeklySchedule     = "cleaner_weekly_schedule"
	TemplateInboundSMS         = "inbound_sms"
	TemplateOptOutConfirmation = "sms_opt_out"
	TemplateOptInConfirmation  = "sms_opt_in"
	TemplateRatingThanks       = "rating_thanks"
)

// Outbox retry policy
const (
	OutboxMaxAttempts  = 5
	OutboxBaseBackoff  = 2 * time.Minute
	OutboxDrainBatch   = 50
	WebhookProvider    = "stripe"
	SMSWebhookProvider = "twilio"
)

// Ratings at or above this threshold get a review request; below is a complaint.
const ReviewRatingThreshold = 4

// Scheduled task names shared by cron and the Lambda entrypoint.
const (
	TaskChargeBalances = "charge_balances"
	TaskAssignTomorrow = "assign_tomorrow"
	TaskSendReminders  = "send_reminders"
	TaskWeeklySchedule = "weekly_schedule"
	TaskDrainOutbox    = "drain_outbox"
)

// Plain-language messages surfaced to customers.
const (
	MsgPaymentConfig     = "Payment configuration error. Please contact support."
	MsgPaymentInvalid    = "We couldn't start your checkout. Please check your details and try again."
	MsgPaymentUnknown    = "Something went wrong starting your checkout. Please try again or call us."
	MsgPaymentCard       = "Your card was declined. Please use a different card."
	MsgDateAlreadyBooked = "You already have a cleaning booked on that date. Please choose another day."
	MsgSameDayClosed     = "Same-day bookings are closed for today. Please choose a later date."
	MsgGenericSMSReply   = "Thanks for your message! For help with your booking, please call us at %s."
	MsgOptOutReply       = "You have been unsubscribed from %s text messages. Reply START to resubscribe."
	MsgOptInReply        = "You are now subscribed to %s text messages. Reply STOP to unsubscribe."
	MsgRatingThanks      = "Thank you for rating your clean!"
	MsgRatingNoJobFound  = "Thanks! We couldn't find a recent clean to rate. Please call us at %s."
)

// Cron specs are evaluated in UTC.
const (
	ChargeBalancesCronSpec = "0 14 * * *"
	AssignTomorrowCronSpec = "0 12 * * *"
	SendRemindersCronSpec  = "0 16 * * *"
	WeeklyScheduleCronSpec = "0 22 * * 0"
	DrainOutboxCronSpec    = "@every 1m"

	// ChargeBalancesHourUTC is the hour of ChargeBalancesCronSpec. Same-day
	// checkouts close once it has passed.
	ChargeBalancesHourUTC = 14

	ScheduledTaskTimeout = 10 * time.Minute
	DrainOutboxTimeout   = 50 * time.Second
)
