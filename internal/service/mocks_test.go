package service

import (
	"context"
	"sync"
	"time"

	"dealership/internal/model"
	"dealership/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type fakeTx struct{ calls int }

func (f *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type mockAppRepo struct{ mock.Mock }

func (m *mockAppRepo) Create(ctx context.Context, app *model.Application) error {
	return m.Called(ctx, app).Error(0)
}

func (m *mockAppRepo) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	args := m.Called(ctx, trackingID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAppRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	args := m.Called(ctx, id)
	app, _ := args.Get(0).(*model.Application)
	return app, args.Error(1)
}

func (m *mockAppRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	args := m.Called(ctx, id)
	app, _ := args.Get(0).(*model.Application)
	return app, args.Error(1)
}

func (m *mockAppRepo) FindByTrackingID(ctx context.Context, trackingID string) (*model.Application, error) {
	args := m.Called(ctx, trackingID)
	app, _ := args.Get(0).(*model.Application)
	return app, args.Error(1)
}

func (m *mockAppRepo) List(ctx context.Context, filter repository.ApplicationFilter) ([]model.Application, int64, error) {
	args := m.Called(ctx, filter)
	apps, _ := args.Get(0).([]model.Application)
	return apps, args.Get(1).(int64), args.Error(2)
}

func (m *mockAppRepo) Update(ctx context.Context, app *model.Application) error {
	return m.Called(ctx, app).Error(0)
}

func (m *mockAppRepo) AppendHistory(ctx context.Context, entry *model.StatusHistory) error {
	return m.Called(ctx, entry).Error(0)
}

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *mockPaymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *mockPaymentRepo) List(ctx context.Context, filter repository.PaymentFilter) ([]model.Payment, int64, error) {
	args := m.Called(ctx, filter)
	ps, _ := args.Get(0).([]model.Payment)
	return ps, args.Get(1).(int64), args.Error(2)
}

func (m *mockPaymentRepo) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.Payment, error) {
	args := m.Called(ctx, applicationID)
	ps, _ := args.Get(0).([]model.Payment)
	return ps, args.Error(1)
}

func (m *mockPaymentRepo) HasPending(ctx context.Context, applicationID uuid.UUID) (bool, error) {
	args := m.Called(ctx, applicationID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentRepo) Update(ctx context.Context, p *model.Payment) error {
	return m.Called(ctx, p).Error(0)
}

type mockSupportRepo struct{ mock.Mock }

func (m *mockSupportRepo) Create(ctx context.Context, req *model.SupportRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockSupportRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SupportRequest, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*model.SupportRequest)
	return r, args.Error(1)
}

func (m *mockSupportRepo) List(ctx context.Context, filter repository.SupportFilter) ([]model.SupportRequest, int64, error) {
	args := m.Called(ctx, filter)
	rs, _ := args.Get(0).([]model.SupportRequest)
	return rs, args.Get(1).(int64), args.Error(2)
}

func (m *mockSupportRepo) Update(ctx context.Context, req *model.SupportRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockLetterRepo struct{ mock.Mock }

func (m *mockLetterRepo) Create(ctx context.Context, letter *model.ApprovalLetter) error {
	return m.Called(ctx, letter).Error(0)
}

func (m *mockLetterRepo) FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.ApprovalLetter, error) {
	args := m.Called(ctx, applicationID)
	l, _ := args.Get(0).(*model.ApprovalLetter)
	return l, args.Error(1)
}

func (m *mockLetterRepo) ExistsForApplication(ctx context.Context, applicationID uuid.UUID) (bool, error) {
	args := m.Called(ctx, applicationID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLetterRepo) List(ctx context.Context, offset, limit int) ([]model.ApprovalLetter, int64, error) {
	args := m.Called(ctx, offset, limit)
	ls, _ := args.Get(0).([]model.ApprovalLetter)
	return ls, args.Get(1).(int64), args.Error(2)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockDashboardRepo struct{ mock.Mock }

func (m *mockDashboardRepo) CountApplicationsByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]repository.StatusCount)
	return rows, args.Error(1)
}

func (m *mockDashboardRepo) PaymentTotalsByStatus(ctx context.Context) ([]repository.PaymentTotals, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]repository.PaymentTotals)
	return rows, args.Error(1)
}

func (m *mockDashboardRepo) CountSupport(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockDashboardRepo) MonthlySubmissions(ctx context.Context, since time.Time) ([]model.MonthlyCount, error) {
	args := m.Called(ctx, since)
	rows, _ := args.Get(0).([]model.MonthlyCount)
	return rows, args.Error(1)
}

// auditRecorder keeps every audit entry in memory.
type auditRecorder struct {
	mu      sync.Mutex
	entries []model.AuditLog
	err     error
}

func (a *auditRecorder) Log(_ context.Context, entry *model.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, *entry)
	return nil
}

func (a *auditRecorder) List(context.Context, string, int, int) ([]model.AuditLog, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries, int64(len(a.entries)), nil
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type publishedEvent struct {
	Type string
	Data interface{}
}

type publisherRecorder struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *publisherRecorder) Publish(eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
}

func (p *publisherRecorder) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type notifierRecorder struct {
	mu      sync.Mutex
	changes []model.StatusHistory
}

func (n *notifierRecorder) StatusChanged(_ context.Context, _ model.Application, entry model.StatusHistory) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, entry)
	return nil
}

type cacheRecorder struct {
	mu          sync.Mutex
	stored      map[string]*model.Application
	invalidated []string
}

func newCacheRecorder() *cacheRecorder {
	return &cacheRecorder{stored: map[string]*model.Application{}}
}

func (c *cacheRecorder) Get(_ context.Context, trackingID string) (*model.Application, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stored[trackingID], nil
}

func (c *cacheRecorder) Set(_ context.Context, app *model.Application) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[app.TrackingID] = app
	return nil
}

func (c *cacheRecorder) Invalidate(_ context.Context, trackingID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stored, trackingID)
	c.invalidated = append(c.invalidated, trackingID)
	return nil
}
