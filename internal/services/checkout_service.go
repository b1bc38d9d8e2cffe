package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/payments"
	"github.com/peterssg513/willowandwater-sub001/internal/pricing"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

// CheckoutURLs are the hosted-checkout return pages.
type CheckoutURLs struct {
	Success string
	Cancel  string
}

type CheckoutService struct {
	gateway   payments.Gateway
	quotes    *QuoteService
	customers repositories.CustomerRepository
	jobs      repositories.JobRepository
	urls      CheckoutURLs
	loc       *time.Location
	now       func() time.Time
}

func NewCheckoutService(
	gateway payments.Gateway,
	quotes *QuoteService,
	customers repositories.CustomerRepository,
	jobs repositories.JobRepository,
	urls CheckoutURLs,
	loc *time.Location,
) *CheckoutService {
	if loc == nil {
		loc = time.UTC
	}
	return &CheckoutService{
		gateway:   gateway,
		quotes:    quotes,
		customers: customers,
		jobs:      jobs,
		urls:      urls,
		loc:       loc,
		now:       time.Now,
	}
}

// StartCheckout prices the booking server-side and opens a hosted deposit
// checkout. Nothing is written to the database; the booking row is created
// from the session metadata when the payment webhook arrives.
func (s *CheckoutService) StartCheckout(ctx context.Context, req dtos.CheckoutRequest) (*dtos.CheckoutResponse, error) {
	scheduled, err := time.ParseInLocation("2006-01-02", req.ScheduledDate, s.loc)
	if err != nil {
		return nil, validationError("scheduled_date must be YYYY-MM-DD", err)
	}
	now := s.now()
	today := utils.DateOnly(now.In(s.loc))
	if scheduled.Before(today) {
		return nil, validationError("scheduled_date must not be in the past", nil)
	}
	// The day's balance run has already gone; a later booking would never be charged.
	if scheduled.Equal(today) && !now.Before(chargeCutoff(today)) {
		return nil, validationError(constants.MsgSameDayClosed, nil)
	}
	if err := s.ensureDateFree(ctx, req.Email, scheduled); err != nil {
		return nil, err
	}

	in := pricing.Input{
		Sqft:      req.Sqft,
		Bedrooms:  req.Bedrooms,
		Bathrooms: req.Bathrooms,
		Frequency: req.Frequency,
	}
	quote, _, err := s.quotes.Quote(ctx, in)
	if err != nil {
		return nil, err
	}

	total := quote.FirstCleanCents()
	deposit := pricing.DepositCents(total, constants.DepositPercent)
	remaining := total - deposit

	log := utils.Logger.WithFields(logrus.Fields{
		"email":     req.Email,
		"frequency": req.Frequency,
		"total":     total,
	})
	if req.ClientTotal != nil {
		clientCents := pricing.ToCents(decimal.NewFromFloat(*req.ClientTotal))
		if clientCents != total {
			log.WithField("client_total", clientCents).Warn("Client total differs from server quote; using server price")
		}
	}

	name := strings.TrimSpace(req.FirstName + " " + req.LastName)
	customerID, err := s.gateway.FindOrCreateCustomer(ctx, payments.CustomerInfo{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Name:  name,
		Phone: req.Phone,
	})
	if err != nil {
		log.WithError(err).Error("Failed to find or create payment customer")
		return nil, payments.Classify(err).AppError()
	}

	bookingID := uuid.New()
	meta := checkoutMetadata(bookingID, req, quote, total, deposit, remaining)

	sess, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		CustomerID:        customerID,
		ClientReferenceID: bookingID.String(),
		AmountCents:       deposit,
		ProductName:       fmt.Sprintf("%s cleaning deposit", constants.OrganizationName),
		Description: fmt.Sprintf("%d%% deposit for your %s clean on %s. Remaining %s is charged on the day of service.",
			constants.DepositPercent, req.Frequency, scheduled.Format("Mon Jan 2"), dollars(remaining)),
		SuccessURL: s.urls.Success,
		CancelURL:  s.urls.Cancel,
		Metadata:   meta,
	})
	if err != nil {
		log.WithError(err).Error("Failed to create checkout session")
		return nil, payments.Classify(err).AppError()
	}

	log.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"session_id": sess.ID,
		"deposit":    deposit,
	}).Info("Checkout session created")

	return &dtos.CheckoutResponse{
		BookingID:      bookingID,
		SessionID:      sess.ID,
		URL:            sess.URL,
		TotalCents:     total,
		DepositCents:   deposit,
		RemainingCents: remaining,
	}, nil
}

// ensureDateFree rejects a date the customer already holds a live job on, so
// the paid booking can always be written by the webhook.
func (s *CheckoutService) ensureDateFree(ctx context.Context, email string, day time.Time) error {
	cust, err := s.customers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("looking up customer: %w", err)
	}
	if cust == nil {
		return nil
	}
	taken, err := s.jobs.ScheduledDatesForCustomer(ctx, cust.ID, day, day)
	if err != nil {
		return fmt.Errorf("checking booked dates: %w", err)
	}
	if len(taken) > 0 {
		return &utils.AppError{
			StatusCode: http.StatusConflict,
			Code:       utils.ErrCodeConflict,
			Message:    constants.MsgDateAlreadyBooked,
			Err:        repositories.ErrCustomerDateTaken,
		}
	}
	return nil
}

// chargeCutoff is when the balance run for the local day `day` starts. The run
// charges the business-local date, which can trail the UTC date.
func chargeCutoff(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), constants.ChargeBalancesHourUTC, 0, 0, 0, time.UTC)
}

func checkoutMetadata(
	bookingID uuid.UUID,
	req dtos.CheckoutRequest,
	q pricing.Quote,
	total, deposit, remaining int64,
) map[string]string {
	meta := map[string]string{
		constants.MetaBookingID:      bookingID.String(),
		constants.MetaChargeType:     constants.ChargeTypeDeposit,
		constants.MetaEmail:          strings.ToLower(strings.TrimSpace(req.Email)),
		constants.MetaFirstName:      req.FirstName,
		constants.MetaLastName:       req.LastName,
		constants.MetaPhone:          req.Phone,
		constants.MetaAddress:        req.Address,
		constants.MetaCity:           req.City,
		constants.MetaState:          req.State,
		constants.MetaZip:            req.ZipCode,
		constants.MetaSqft:           strconv.Itoa(req.Sqft),
		constants.MetaBedrooms:       strconv.Itoa(req.Bedrooms),
		constants.MetaBathrooms:      strconv.FormatFloat(req.Bathrooms, 'f', -1, 64),
		constants.MetaFrequency:      string(req.Frequency),
		constants.MetaScheduledDate:  req.ScheduledDate,
		constants.MetaTimeSlot:       req.TimeSlot,
		constants.MetaTotalCents:     strconv.FormatInt(total, 10),
		constants.MetaDepositCents:   strconv.FormatInt(deposit, 10),
		constants.MetaRemainingCents: strconv.FormatInt(remaining, 10),
		constants.MetaRecurringCents: strconv.FormatInt(q.RecurringCents(), 10),
		constants.MetaEstimatedHours: q.EstimatedHours.String(),
	}
	if req.Notes != "" {
		meta[constants.MetaNotes] = truncate(req.Notes, constants.MetaValueMaxLen)
	}
	return meta
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func validationError(msg string, err error) *utils.AppError {
	return &utils.AppError{
		StatusCode: http.StatusBadRequest,
		Code:       utils.ErrCodeValidation,
		Message:    msg,
		Err:        err,
	}
}
