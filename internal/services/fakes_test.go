package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/peterssg513/willowandwater-sub001/internal/messaging"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/payments"
	"github.com/peterssg513/willowandwater-sub001/internal/repositories"
)

var testBiz = BusinessInfo{
	Name:          "Willow & Water",
	OwnerName:     "Dana",
	OwnerEmail:    "owner@example.com",
	OwnerPhone:    "+16305550100",
	BusinessPhone: "+16305550199",
	ReviewURL:     "https://example.com/review",
	Location:      time.UTC,
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func tagRows(n int) pgconn.CommandTag {
	if n == 1 {
		return pgconn.CommandTag("UPDATE 1")
	}
	return pgconn.CommandTag("UPDATE 0")
}

// ---------------------------------------------------------------------
// Jobs
// ---------------------------------------------------------------------

type fakeJobs struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*models.Job
	order    []uuid.UUID
	batchErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{byID: map[uuid.UUID]*models.Job{}}
}

func copyJob(j *models.Job) *models.Job {
	c := *j
	return &c
}

func (f *fakeJobs) put(j *models.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j.RowVersion == 0 {
		j.RowVersion = 1
	}
	if _, ok := f.byID[j.ID]; !ok {
		f.order = append(f.order, j.ID)
	}
	f.byID[j.ID] = copyJob(j)
}

func (f *fakeJobs) get(id uuid.UUID) *models.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.byID[id]; ok {
		return copyJob(j)
	}
	return nil
}

func (f *fakeJobs) all() []*models.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Job, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, copyJob(f.byID[id]))
	}
	return out
}

// holdsDate mirrors uq_jobs_customer_date_live.
func holdsDate(j *models.Job) bool {
	return j.Status != models.JobStatusCancelled && !j.NeedsReview
}

func (f *fakeJobs) dateTaken(j *models.Job) bool {
	if !holdsDate(j) {
		return false
	}
	for _, existing := range f.all() {
		if existing.ID != j.ID && existing.CustomerID == j.CustomerID && holdsDate(existing) &&
			dateKey(existing.ScheduledDate) == dateKey(j.ScheduledDate) {
			return true
		}
	}
	return false
}

func (f *fakeJobs) Create(_ context.Context, j *models.Job) error {
	if f.get(j.ID) != nil {
		return errors.New("duplicate key")
	}
	if f.dateTaken(j) {
		return repositories.ErrCustomerDateTaken
	}
	f.put(j)
	return nil
}

func (f *fakeJobs) CreateIfNotExists(_ context.Context, j *models.Job) (bool, error) {
	if f.get(j.ID) != nil {
		return false, nil
	}
	if f.dateTaken(j) {
		return false, repositories.ErrCustomerDateTaken
	}
	f.put(j)
	return true, nil
}

func (f *fakeJobs) CreateBatch(_ context.Context, jobs []*models.Job) (int, error) {
	if f.batchErr != nil {
		return 0, f.batchErr
	}
	n := 0
	for _, j := range jobs {
		if !f.dateTaken(j) {
			f.put(j)
			n++
		}
	}
	return n, nil
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (*models.Job, error) {
	return f.get(id), nil
}

func (f *fakeJobs) UpdateIfVersion(_ context.Context, j *models.Job, expected int64) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byID[j.ID]
	if !ok || cur.RowVersion != expected {
		return tagRows(0), nil
	}
	next := copyJob(j)
	next.RowVersion = expected + 1
	f.byID[j.ID] = next
	return tagRows(1), nil
}

func (f *fakeJobs) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Job) error) error {
	get := func(ctx context.Context, id string) (*models.Job, error) {
		return f.GetByID(ctx, uuid.MustParse(id))
	}
	return repositories.WithRetry(ctx, 3, id.String(), get, f.UpdateIfVersion, mutate)
}

func (f *fakeJobs) mutate(id uuid.UUID, fn func(j *models.Job) bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.byID[id]
	if !ok {
		return false
	}
	if fn(j) {
		j.RowVersion++
		return true
	}
	return false
}

func (f *fakeJobs) TransitionStatus(_ context.Context, id uuid.UUID, to models.JobStatusType) (bool, error) {
	return f.mutate(id, func(j *models.Job) bool {
		if !models.CanTransition(j.Status, to) {
			return false
		}
		j.Status = to
		if to == models.JobStatusCompleted {
			now := time.Now()
			j.CompletedAt = &now
		}
		return true
	}), nil
}

func (f *fakeJobs) ConfirmDeposit(_ context.Context, id uuid.UUID, sessionID string, pm *string) (bool, error) {
	return f.mutate(id, func(j *models.Job) bool {
		if j.Status != models.JobStatusLead && j.Status != models.JobStatusPaymentInitiated {
			return false
		}
		j.Status = models.JobStatusConfirmed
		j.PaymentStatus = models.PaymentStatusDepositPaid
		j.StripeCheckoutSessionID = &sessionID
		if pm != nil {
			j.StripePaymentMethodID = pm
		}
		return true
	}), nil
}

func (f *fakeJobs) SetCleaner(_ context.Context, jobID, cleanerID uuid.UUID) error {
	f.mutate(jobID, func(j *models.Job) bool {
		j.CleanerID = &cleanerID
		j.RequiresManualAssignment = false
		return true
	})
	return nil
}

func (f *fakeJobs) MarkManualAssignment(_ context.Context, jobID uuid.UUID) error {
	f.mutate(jobID, func(j *models.Job) bool {
		j.RequiresManualAssignment = true
		return true
	})
	return nil
}

func (f *fakeJobs) SetPaymentMethod(_ context.Context, jobID uuid.UUID, pm string) error {
	f.mutate(jobID, func(j *models.Job) bool {
		j.StripePaymentMethodID = &pm
		return true
	})
	return nil
}

func (f *fakeJobs) MarkRemainingPaid(_ context.Context, jobID uuid.UUID) (bool, error) {
	return f.mutate(jobID, func(j *models.Job) bool {
		if j.PaymentStatus == models.PaymentStatusPaid {
			return false
		}
		now := time.Now()
		j.PaymentStatus = models.PaymentStatusPaid
		j.RemainingAmountCents = 0
		j.RemainingPaidAt = &now
		j.LastChargeError = nil
		if j.Status == models.JobStatusChargeFailed {
			j.Status = models.JobStatusConfirmed
		}
		return true
	}), nil
}

func (f *fakeJobs) MarkPaymentFailed(_ context.Context, jobID uuid.UUID, reason string, chargeFailed bool) error {
	f.mutate(jobID, func(j *models.Job) bool {
		if j.PaymentStatus == models.PaymentStatusPaid {
			return false
		}
		j.PaymentStatus = models.PaymentStatusFailed
		j.LastChargeError = &reason
		if chargeFailed && j.Status == models.JobStatusConfirmed {
			j.Status = models.JobStatusChargeFailed
		}
		return true
	})
	return nil
}

func (f *fakeJobs) filter(keep func(j *models.Job) bool) []*models.Job {
	var out []*models.Job
	for _, j := range f.all() {
		if keep(j) {
			out = append(out, j)
		}
	}
	return out
}

func (f *fakeJobs) ListDueForCharge(_ context.Context, d time.Time) ([]*models.Job, error) {
	return f.filter(func(j *models.Job) bool {
		return dateKey(j.ScheduledDate) == dateKey(d) &&
			j.Status == models.JobStatusConfirmed &&
			(j.PaymentStatus == models.PaymentStatusDepositPaid || j.PaymentStatus == models.PaymentStatusScheduled) &&
			j.RemainingAmountCents > 0 && !j.NeedsReview
	}), nil
}

func (f *fakeJobs) ListConfirmedOn(_ context.Context, d time.Time) ([]*models.Job, error) {
	return f.filter(func(j *models.Job) bool {
		return dateKey(j.ScheduledDate) == dateKey(d) && j.Status == models.JobStatusConfirmed
	}), nil
}

func (f *fakeJobs) ListConfirmedUnassignedOn(_ context.Context, d time.Time) ([]*models.Job, error) {
	return f.filter(func(j *models.Job) bool {
		return dateKey(j.ScheduledDate) == dateKey(d) && j.Status == models.JobStatusConfirmed && j.CleanerID == nil && !j.NeedsReview
	}), nil
}

func (f *fakeJobs) ListForCleanerRange(_ context.Context, cleanerID uuid.UUID, from, to time.Time) ([]*models.Job, error) {
	return f.filter(func(j *models.Job) bool {
		k := dateKey(j.ScheduledDate)
		return j.CleanerID != nil && *j.CleanerID == cleanerID && j.Status == models.JobStatusConfirmed &&
			k >= dateKey(from) && k <= dateKey(to)
	}), nil
}

func (f *fakeJobs) ScheduledDatesForCustomer(_ context.Context, customerID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, j := range f.all() {
		k := dateKey(j.ScheduledDate)
		if j.CustomerID == customerID && j.Status != models.JobStatusCancelled && k >= dateKey(from) && k <= dateKey(to) {
			out = append(out, j.ScheduledDate)
		}
	}
	return out, nil
}

func (f *fakeJobs) LatestCompletedUnrated(_ context.Context, customerID uuid.UUID) (*models.Job, error) {
	var best *models.Job
	for _, j := range f.all() {
		if j.CustomerID != customerID || j.Status != models.JobStatusCompleted || j.Rating != nil {
			continue
		}
		if best == nil || j.ScheduledDate.After(best.ScheduledDate) {
			best = j
		}
	}
	return best, nil
}

func (f *fakeJobs) CancelFutureForSubscription(_ context.Context, subID uuid.UUID, from time.Time) (int64, error) {
	var n int64
	for _, j := range f.all() {
		if j.SubscriptionID == nil || *j.SubscriptionID != subID || dateKey(j.ScheduledDate) < dateKey(from) {
			continue
		}
		if j.Status.IsTerminal() || j.PaymentStatus == models.PaymentStatusPaid || j.PaymentStatus == models.PaymentStatusDepositPaid {
			continue
		}
		f.mutate(j.ID, func(j *models.Job) bool {
			j.Status = models.JobStatusCancelled
			return true
		})
		n++
	}
	return n, nil
}

// ---------------------------------------------------------------------
// Cleaners
// ---------------------------------------------------------------------

type fakeCleaners struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Cleaner
	tick time.Time
	// beforeClaim runs ahead of each claim, to simulate a concurrent writer.
	beforeClaim func(id uuid.UUID)
}

func newFakeCleaners() *fakeCleaners {
	return &fakeCleaners{byID: map[uuid.UUID]*models.Cleaner{}, tick: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeCleaners) add(c *models.Cleaner) *models.Cleaner {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.RowVersion == 0 {
		c.RowVersion = 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.byID[c.ID] = &cp
	return c
}

func (f *fakeCleaners) get(id uuid.UUID) *models.Cleaner {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *f.byID[id]
	return &c
}

// bump stamps a cleaner as just assigned, as another process would.
func (f *fakeCleaners) bump(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.byID[id]
	f.tick = f.tick.Add(time.Minute)
	t := f.tick
	c.LastAssignedAt = &t
	c.TotalAssignments++
	c.RowVersion++
}

func (f *fakeCleaners) Create(_ context.Context, c *models.Cleaner) error {
	f.add(c)
	return nil
}

func (f *fakeCleaners) GetByID(_ context.Context, id uuid.UUID) (*models.Cleaner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCleaners) ListActive(_ context.Context) ([]*models.Cleaner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Cleaner
	for _, c := range f.byID {
		if c.Active {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeCleaners) ListAvailable(_ context.Context, d time.Weekday, zip string) ([]*models.Cleaner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Cleaner
	for _, c := range f.byID {
		if c.Active && c.AvailableOn(d) && c.Serves(zip) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
			return true
		case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
			return false
		case a.LastAssignedAt != nil && !a.LastAssignedAt.Equal(*b.LastAssignedAt):
			return a.LastAssignedAt.Before(*b.LastAssignedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (f *fakeCleaners) ClaimAssignment(_ context.Context, id uuid.UUID, expected int64) (bool, error) {
	if f.beforeClaim != nil {
		f.beforeClaim(id)
	}
	f.mu.Lock()
	c, ok := f.byID[id]
	if !ok || c.RowVersion != expected {
		f.mu.Unlock()
		return false, nil
	}
	f.mu.Unlock()
	f.bump(id)
	return true, nil
}

// ---------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------

type fakeCustomers struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Customer
	upsertErr error
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{byID: map[uuid.UUID]*models.Customer{}}
}

func (f *fakeCustomers) add(c *models.Customer) *models.Customer {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = models.CustomerStatusActive
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.byID[c.ID] = &cp
	return c
}

func (f *fakeCustomers) get(id uuid.UUID) *models.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (f *fakeCustomers) UpsertByEmail(_ context.Context, c *models.Customer) (*models.Customer, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(c.Email))
	for _, existing := range f.byID {
		if existing.Email == email {
			if c.StripeCustomerID != nil {
				existing.StripeCustomerID = c.StripeCustomerID
			}
			if c.Phone != "" {
				existing.Phone = c.Phone
			}
			if existing.Status != models.CustomerStatusActive {
				existing.Status = c.Status
			}
			cp := *existing
			return &cp, nil
		}
	}
	cp := *c
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.Status == "" {
		cp.Status = models.CustomerStatusLead
	}
	cp.Email = email
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeCustomers) GetByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	return f.get(id), nil
}

func (f *fakeCustomers) GetByEmail(_ context.Context, email string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Email == strings.ToLower(email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomers) GetByPhone(_ context.Context, phone string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomers) SetSMSOptOut(_ context.Context, id uuid.UUID, optOut bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byID[id]; ok {
		c.SMSOptOut = optOut
	}
	return nil
}

// ---------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------

type fakeSubscriptions struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Subscription
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{byID: map[uuid.UUID]*models.Subscription{}}
}

func (f *fakeSubscriptions) Create(_ context.Context, s *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSubscriptions) GetByID(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubscriptions) GetActiveByCustomer(_ context.Context, customerID uuid.UUID) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if s.CustomerID == customerID && s.Status == models.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriptions) UpdateStatus(_ context.Context, id uuid.UUID, status models.SubscriptionStatusType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byID[id]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeSubscriptions) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

// ---------------------------------------------------------------------
// Append-only logs, ledger, payments, settings
// ---------------------------------------------------------------------

type fakeActivity struct {
	mu      sync.Mutex
	entries []*models.ActivityLogEntry
}

func (f *fakeActivity) Create(_ context.Context, e *models.ActivityLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeActivity) actions() []models.ActivityAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivityAction
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeCommLogs struct {
	mu      sync.Mutex
	entries []*models.CommunicationLogEntry
}

func (f *fakeCommLogs) Create(_ context.Context, e *models.CommunicationLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

type fakeWebhookEvents struct {
	mu   sync.Mutex
	seen map[string]string
}

func newFakeWebhookEvents() *fakeWebhookEvents {
	return &fakeWebhookEvents{seen: map[string]string{}}
}

func (f *fakeWebhookEvents) Claim(_ context.Context, provider, eventID, eventType string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := provider + "/" + eventID
	if _, ok := f.seen[key]; ok {
		return false, nil
	}
	f.seen[key] = eventType
	return true, nil
}

func (f *fakeWebhookEvents) Release(_ context.Context, provider, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, provider+"/"+eventID)
	return nil
}

func (f *fakeWebhookEvents) has(provider, eventID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[provider+"/"+eventID]
	return ok
}

type fakePayments struct {
	mu   sync.Mutex
	rows []*models.Payment
	// failNext makes the next Create fail once.
	failNext error
}

// Create mirrors the unique payment intent id and uq_payments_job_deposit.
func (f *fakePayments) Create(_ context.Context, p *models.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return false, err
	}
	for _, r := range f.rows {
		if p.StripePaymentIntentID != nil && r.StripePaymentIntentID != nil &&
			*r.StripePaymentIntentID == *p.StripePaymentIntentID {
			return false, nil
		}
		if p.Kind == models.PaymentKindDeposit && r.Kind == models.PaymentKindDeposit && r.JobID == p.JobID {
			return false, nil
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.rows = append(f.rows, p)
	return true, nil
}

func (f *fakePayments) ListByJob(_ context.Context, jobID uuid.UUID) ([]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Payment
	for _, r := range f.rows {
		if r.JobID == jobID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePricingSettings struct {
	mu   sync.Mutex
	rows []*models.PricingSettingsRecord
}

func (f *fakePricingSettings) Latest(_ context.Context) (*models.PricingSettingsRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) == 0 {
		return nil, nil
	}
	return f.rows[len(f.rows)-1], nil
}

func (f *fakePricingSettings) Insert(_ context.Context, overrides json.RawMessage, createdBy string) (*models.PricingSettingsRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := &models.PricingSettingsRecord{
		Version:   int64(len(f.rows) + 1),
		Overrides: overrides,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	f.rows = append(f.rows, rec)
	return rec, nil
}

// ---------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------

type fakeOutbox struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.OutboxMessage
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{byID: map[uuid.UUID]*models.OutboxMessage{}}
}

func (f *fakeOutbox) Enqueue(_ context.Context, m *models.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	f.byID[m.ID] = &cp
	return nil
}

func (f *fakeOutbox) get(id uuid.UUID) *models.OutboxMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.byID[id]
	return &cp
}

func (f *fakeOutbox) ListDue(_ context.Context, now time.Time, limit int) ([]*models.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.OutboxMessage
	for _, m := range f.byID {
		if m.Status == models.OutboxStatusPending && !m.NextAttemptAt.After(now) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextAttemptAt.Before(out[j].NextAttemptAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOutbox) update(id uuid.UUID, fn func(m *models.OutboxMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return errors.New("no such outbox message")
	}
	fn(m)
	return nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id uuid.UUID, attempts int) error {
	return f.update(id, func(m *models.OutboxMessage) {
		m.Status = models.OutboxStatusSent
		m.Attempts = attempts
		m.LastError = nil
	})
}

func (f *fakeOutbox) MarkRetry(_ context.Context, id uuid.UUID, ch models.ChannelType, attempts int, lastErr string, next time.Time) error {
	return f.update(id, func(m *models.OutboxMessage) {
		m.Channel = ch
		m.Attempts = attempts
		m.LastError = &lastErr
		m.NextAttemptAt = next
	})
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, attempts int, lastErr string) error {
	return f.update(id, func(m *models.OutboxMessage) {
		m.Status = models.OutboxStatusFailed
		m.Attempts = attempts
		m.LastError = &lastErr
	})
}

// ---------------------------------------------------------------------
// Providers
// ---------------------------------------------------------------------

type fakeGateway struct {
	mu sync.Mutex

	customerErr  error
	checkoutErr  error
	defaultPM    map[string]string // stripe customer -> payment method
	intentPM     map[string]string // payment intent -> payment method
	declinePM    map[string]error  // payment method -> charge error
	charges      []payments.ChargeRequest
	checkouts    []payments.CheckoutRequest
	customerSeen []payments.CustomerInfo
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		defaultPM: map[string]string{},
		intentPM:  map[string]string{},
		declinePM: map[string]error{},
	}
}

func (g *fakeGateway) FindOrCreateCustomer(_ context.Context, info payments.CustomerInfo) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.customerErr != nil {
		return "", g.customerErr
	}
	g.customerSeen = append(g.customerSeen, info)
	return "cus_" + strings.SplitN(info.Email, "@", 2)[0], nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.checkoutErr != nil {
		return nil, g.checkoutErr
	}
	g.checkouts = append(g.checkouts, req)
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
}

func (g *fakeGateway) PaymentMethodForIntent(_ context.Context, piID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.intentPM[piID], nil
}

func (g *fakeGateway) DefaultPaymentMethod(_ context.Context, customerID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.defaultPM[customerID], nil
}

func (g *fakeGateway) ChargeOffSession(_ context.Context, req payments.ChargeRequest) (*payments.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, req)
	if err := g.declinePM[req.PaymentMethodID]; err != nil {
		return nil, err
	}
	return &payments.ChargeResult{PaymentIntentID: "pi_" + req.PaymentMethodID, Status: "succeeded"}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (n *recordingNotifier) Enqueue(_ context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) templates() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		out = append(out, m.Template)
	}
	return out
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *fakeSMS) SendSMS(_ context.Context, to, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, to)
	return "SM123", nil
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []messaging.Email
	err  error
}

func (s *fakeEmail) SendEmail(_ context.Context, e messaging.Email) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, e)
	return "msg-1", nil
}

type fakeAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *fakeAlerter) Alert(_ context.Context, msg string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
	return nil
}

var (
	_ repositories.JobRepository              = (*fakeJobs)(nil)
	_ repositories.CleanerRepository          = (*fakeCleaners)(nil)
	_ repositories.CustomerRepository         = (*fakeCustomers)(nil)
	_ repositories.SubscriptionRepository     = (*fakeSubscriptions)(nil)
	_ repositories.ActivityLogRepository      = (*fakeActivity)(nil)
	_ repositories.CommunicationLogRepository = (*fakeCommLogs)(nil)
	_ repositories.WebhookEventRepository     = (*fakeWebhookEvents)(nil)
	_ repositories.PaymentRepository          = (*fakePayments)(nil)
	_ repositories.PricingSettingsRepository  = (*fakePricingSettings)(nil)
	_ repositories.OutboxRepository           = (*fakeOutbox)(nil)
	_ payments.Gateway                        = (*fakeGateway)(nil)
	_ messaging.SMSSender                     = (*fakeSMS)(nil)
	_ messaging.EmailSender                   = (*fakeEmail)(nil)
	_ messaging.Alerter                       = (*fakeAlerter)(nil)
)
