package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/peterssg513/willowandwater-sub001/internal/dtos"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/pricing"
	"github.com/peterssg513/willowandwater-sub001/internal/services"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type pricingQuoter struct{ version int64 }

func (q pricingQuoter) Quote(_ context.Context, in pricing.Input) (pricing.Quote, int64, error) {
	quote, err := pricing.Calculate(pricing.DefaultSettings(), in)
	if err != nil {
		return pricing.Quote{}, 0, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    err.Error(),
			Err:        err,
		}
	}
	return quote, q.version, nil
}

type stubCheckout struct {
	got  *dtos.CheckoutRequest
	resp *dtos.CheckoutResponse
	err  error
}

func (s *stubCheckout) StartCheckout(_ context.Context, req dtos.CheckoutRequest) (*dtos.CheckoutResponse, error) {
	s.got = &req
	return s.resp, s.err
}

type stubEventHandler struct {
	events []stripe.Event
	err    error
}

func (h *stubEventHandler) HandleEvent(_ context.Context, evt stripe.Event) error {
	h.events = append(h.events, evt)
	return h.err
}

type stubSMSHandler struct {
	got   []services.InboundSMS
	reply string
}

func (h *stubSMSHandler) Handle(_ context.Context, msg services.InboundSMS) string {
	h.got = append(h.got, msg)
	return h.reply
}

type stubJobs struct {
	assigned  []uuid.UUID
	completed []uuid.UUID
	cancelled []uuid.UUID
	charged   []uuid.UUID
	rated     map[uuid.UUID]int
	chargeDay time.Time
	today     time.Time
	err       error
}

func (s *stubJobs) AssignCleaner(_ context.Context, id uuid.UUID) (*dtos.AssignCleanerResponse, error) {
	s.assigned = append(s.assigned, id)
	if s.err != nil {
		return nil, s.err
	}
	return &dtos.AssignCleanerResponse{JobID: id, RequiresManualAssignment: true}, nil
}

func (s *stubJobs) CompleteJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.completed = append(s.completed, id)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Job{ID: id, Status: models.JobStatusCompleted}, nil
}

func (s *stubJobs) CancelJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	s.cancelled = append(s.cancelled, id)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Job{ID: id, Status: models.JobStatusCancelled}, nil
}

func (s *stubJobs) Today() time.Time { return s.today }

func (s *stubJobs) ChargeDueBalances(_ context.Context, day time.Time) (*dtos.ChargeBalancesResponse, error) {
	s.chargeDay = day
	if s.err != nil {
		return nil, s.err
	}
	return &dtos.ChargeBalancesResponse{
		Date:      day.Format("2006-01-02"),
		Processed: 1,
		Failed:    1,
		Results:   []dtos.ChargeResult{{Success: false, Error: "card declined"}},
	}, nil
}

func (s *stubJobs) ChargeJob(_ context.Context, id uuid.UUID) (*dtos.ChargeResult, error) {
	s.charged = append(s.charged, id)
	if s.err != nil {
		return nil, s.err
	}
	return &dtos.ChargeResult{JobID: id, Success: true, AmountCents: 20000}, nil
}

func (s *stubJobs) RecordRating(_ context.Context, id uuid.UUID, rating int) (*models.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.rated == nil {
		s.rated = map[uuid.UUID]int{}
	}
	s.rated[id] = rating
	return &models.Job{ID: id, Rating: utils.Ptr(rating)}, nil
}

type stubSubscriptions struct {
	created   []dtos.CreateSubscriptionRequest
	cancelled []uuid.UUID
	err       error
}

func (s *stubSubscriptions) CreateSubscription(_ context.Context, req dtos.CreateSubscriptionRequest) (*dtos.CreateSubscriptionResponse, error) {
	s.created = append(s.created, req)
	if s.err != nil {
		return nil, s.err
	}
	return &dtos.CreateSubscriptionResponse{
		Subscription: &models.Subscription{ID: uuid.New(), CustomerID: req.CustomerID},
		JobsCreated:  6,
	}, nil
}

func (s *stubSubscriptions) CancelSubscription(_ context.Context, id uuid.UUID) (*dtos.CancelSubscriptionResponse, error) {
	s.cancelled = append(s.cancelled, id)
	if s.err != nil {
		return nil, s.err
	}
	return &dtos.CancelSubscriptionResponse{SubscriptionID: id, JobsCancelled: 3}, nil
}

type stubPricing struct {
	active *services.ActiveSettings
	actor  string
	err    error
}

func (s *stubPricing) CurrentSettings(context.Context) (*services.ActiveSettings, error) {
	if s.active == nil {
		return &services.ActiveSettings{Settings: pricing.DefaultSettings()}, nil
	}
	return s.active, nil
}

func (s *stubPricing) UpdateSettings(_ context.Context, overrides json.RawMessage, actor string) (*services.ActiveSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.actor = actor
	s.active = &services.ActiveSettings{Version: 2, Settings: pricing.DefaultSettings(), Overrides: overrides}
	return s.active, nil
}

type stubTasks struct{ ran []string }

func (s *stubTasks) Run(_ context.Context, task string) (any, error) {
	if task == "nope" {
		return nil, errors.Join(services.ErrUnknownTask, errors.New(task))
	}
	s.ran = append(s.ran, task)
	return map[string]int{"processed": 0}, nil
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func serve(router *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}
