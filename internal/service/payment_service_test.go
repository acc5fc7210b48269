package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"dealership/internal/model"
	"dealership/internal/repository"
	"dealership/internal/websocket"
	"dealership/internal/workflow"
	"dealership/pkg/apperror"
	"dealership/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	apps     *mockAppRepo
	payments *mockPaymentRepo
	audit    *auditRecorder
	pub      *publisherRecorder
	notifier *notifierRecorder
	svc      *paymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	f := &paymentFixture{
		apps:     &mockAppRepo{},
		payments: &mockPaymentRepo{},
		audit:    &auditRecorder{},
		pub:      &publisherRecorder{},
		notifier: &notifierRecorder{},
	}
	fx := Effects{Notifier: f.notifier, Publisher: f.pub, Log: logger.NewTest(t)}
	payee := PayeeConfig{UPIID: "campabeverages@upi", PayeeName: "Campa Beverages"}
	f.svc = NewPaymentService(f.payments, f.apps, f.audit, &fakeTx{}, fx, payee).(*paymentService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *paymentFixture) expectApp(app *model.Application) {
	f.apps.On("FindByTrackingID", mock.Anything, app.TrackingID).Return(app, nil)
	f.apps.On("FindByIDForUpdate", mock.Anything, app.ID).Return(app, nil)
}

func validPayment() SubmitPaymentRequest {
	return SubmitPaymentRequest{
		TrackingID:    "dlr-0a1b2c3d",
		TransactionID: "TXN123",
		UTRNumber:     "UTR456",
		Amount:        decimal.NewFromInt(25000),
		PaymentMethod: "upi",
	}
}

func TestPaymentSubmit(t *testing.T) {
	f := newPaymentFixture(t)
	app := appAt(model.StatusPaymentPending)
	f.expectApp(app)
	f.payments.On("HasPending", mock.Anything, app.ID).Return(false, nil)
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*model.Payment")).Return(nil)
	f.apps.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.apps.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)

	p, err := f.svc.Submit(context.Background(), validPayment())
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPending, p.Status)
	assert.Equal(t, model.PaymentMethodUPI, p.Method)
	assert.Equal(t, app.ID, p.ApplicationID)
	assert.True(t, app.PaymentAmount.Equal(p.Amount))

	f.apps.AssertCalled(t, "AppendHistory", mock.Anything, mock.MatchedBy(func(h *model.StatusHistory) bool {
		return h.Trigger == string(workflow.TriggerSubmitPayment) &&
			h.Status == model.StatusPaymentPending &&
			strings.Contains(h.Note, "TXN123") && strings.Contains(h.Note, "UTR456")
	}))
	assert.Equal(t, []string{model.ActionSubmitPayment}, f.audit.actions())
	assert.Equal(t, []string{websocket.EventApplicationStatusChanged, websocket.EventPaymentSubmitted}, f.pub.types())
	assert.Empty(t, f.notifier.changes, "self-loop must not notify")
}

func TestPaymentSubmit_AmountDefaultsToApplication(t *testing.T) {
	f := newPaymentFixture(t)
	app := appAt(model.StatusPaymentPending)
	f.expectApp(app)
	f.payments.On("HasPending", mock.Anything, app.ID).Return(false, nil)
	f.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.apps.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.apps.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)

	req := validPayment()
	req.Amount = decimal.Zero
	p, err := f.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "25000.00", p.Amount.StringFixed(2))
}

func TestPaymentSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		status model.Status
		mutate func(*SubmitPaymentRequest)
		setup  func(f *paymentFixture, app *model.Application)
		want   error
	}{
		{
			name:   "missing utr",
			status: model.StatusPaymentPending,
			mutate: func(r *SubmitPaymentRequest) { r.UTRNumber = " " },
			want:   apperror.ErrValidation,
		},
		{
			name:   "non upi method",
			status: model.StatusPaymentPending,
			mutate: func(r *SubmitPaymentRequest) { r.PaymentMethod = "card" },
			want:   apperror.ErrValidation,
		},
		{
			name:   "transaction id too long",
			status: model.StatusPaymentPending,
			mutate: func(r *SubmitPaymentRequest) { r.TransactionID = strings.Repeat("9", 101) },
			want:   apperror.ErrValidation,
		},
		{
			name:   "wrong amount",
			status: model.StatusPaymentPending,
			mutate: func(r *SubmitPaymentRequest) { r.Amount = decimal.NewFromInt(100) },
			setup:  func(f *paymentFixture, app *model.Application) { f.expectApp(app) },
			want:   apperror.ErrValidation,
		},
		{
			name:   "not payment pending",
			status: model.StatusApproved,
			setup:  func(f *paymentFixture, app *model.Application) { f.expectApp(app) },
			want:   apperror.ErrInvalidTransition,
		},
		{
			name:   "already pending",
			status: model.StatusPaymentPending,
			setup: func(f *paymentFixture, app *model.Application) {
				f.expectApp(app)
				f.payments.On("HasPending", mock.Anything, app.ID).Return(true, nil)
			},
			want: apperror.ErrConflict,
		},
		{
			name:   "unknown tracking id",
			status: model.StatusPaymentPending,
			setup: func(f *paymentFixture, app *model.Application) {
				f.apps.On("FindByTrackingID", mock.Anything, app.TrackingID).Return(nil, apperror.NotFound("application"))
			},
			want: apperror.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t)
			app := appAt(tt.status)
			if tt.setup != nil {
				tt.setup(f, app)
			}
			req := validPayment()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			_, err := f.svc.Submit(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, f.pub.types())
		})
	}
}

func TestPaymentSubmit_MethodIsCaseInsensitive(t *testing.T) {
	f := newPaymentFixture(t)
	app := appAt(model.StatusPaymentPending)
	f.expectApp(app)
	f.payments.On("HasPending", mock.Anything, app.ID).Return(false, nil)
	f.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.apps.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.apps.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)

	req := validPayment()
	req.PaymentMethod = "upi"
	p, err := f.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentMethodUPI, p.Method)
}

func TestPaymentSubmit_FieldMessages(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Submit(context.Background(), SubmitPaymentRequest{TrackingID: "DLR-0A1B2C3D", PaymentMethod: "card"})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, map[string]string{
		"transactionId": "Transaction ID is required",
		"utrNumber":     "UTR number is required",
		"paymentMethod": "Payment method must be UPI",
	}, apperror.FieldsOf(err))
}

func pendingPayment(app *model.Application) *model.Payment {
	return &model.Payment{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		TrackingID:    app.TrackingID,
		TransactionID: "TXN123",
		UTRNumber:     "UTR456",
		Amount:        app.PaymentAmount,
		Method:        model.PaymentMethodUPI,
		Status:        model.PaymentStatusPending,
	}
}

func TestPaymentReview_Completed(t *testing.T) {
	f := newPaymentFixture(t)
	app := appAt(model.StatusPaymentPending)
	p := pendingPayment(app)
	f.payments.On("FindByIDForUpdate", mock.Anything, p.ID).Return(p, nil)
	f.payments.On("Update", mock.Anything, p).Return(nil)
	f.apps.On("FindByIDForUpdate", mock.Anything, app.ID).Return(app, nil)
	f.apps.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.apps.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)

	reviewed, err := f.svc.Review(adminCtx(), p.ID.String(), ReviewPaymentRequest{Status: "completed"})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusCompleted, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, fixedNow, *reviewed.ReviewedAt)
	require.NotNil(t, reviewed.ReviewedBy)
	f.apps.AssertCalled(t, "Update", mock.Anything, mock.MatchedBy(func(a *model.Application) bool {
		return a.Status == model.StatusPaymentVerified
	}))
	require.Len(t, f.notifier.changes, 1)
	assert.Equal(t, model.StatusPaymentVerified, f.notifier.changes[0].Status)
	assert.Contains(t, f.pub.types(), websocket.EventPaymentReviewed)
}

func TestPaymentReview_FailedUsesDefaultNote(t *testing.T) {
	f := newPaymentFixture(t)
	app := appAt(model.StatusPaymentPending)
	p := pendingPayment(app)
	f.payments.On("FindByIDForUpdate", mock.Anything, p.ID).Return(p, nil)
	f.payments.On("Update", mock.Anything, p).Return(nil)
	f.apps.On("FindByIDForUpdate", mock.Anything, app.ID).Return(app, nil)
	f.apps.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.apps.On("AppendHistory", mock.Anything, mock.Anything).Return(nil)

	reviewed, err := f.svc.Review(adminCtx(), p.ID.String(), ReviewPaymentRequest{Status: "FAILED"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, reviewed.Status)
	f.apps.AssertCalled(t, "AppendHistory", mock.Anything, mock.MatchedBy(func(h *model.StatusHistory) bool {
		return h.Trigger == string(workflow.TriggerDeclinePayment) && h.Note == defaultDeclineNote
	}))
}

func TestPaymentReview_AlreadyReviewed(t *testing.T) {
	f := newPaymentFixture(t)
	app := appAt(model.StatusPaymentVerified)
	p := pendingPayment(app)
	p.Status = model.PaymentStatusCompleted
	f.payments.On("FindByIDForUpdate", mock.Anything, p.ID).Return(p, nil)

	_, err := f.svc.Review(adminCtx(), p.ID.String(), ReviewPaymentRequest{Status: "completed"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	f.payments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPaymentReview_BadStatus(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.svc.Review(adminCtx(), uuid.NewString(), ReviewPaymentRequest{Status: "pending"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPaymentList(t *testing.T) {
	f := newPaymentFixture(t)
	f.payments.On("List", mock.Anything, repository.PaymentFilter{Status: "pending", Offset: 0, Limit: 20}).
		Return([]model.Payment{}, int64(0), nil)

	_, total, err := f.svc.List(context.Background(), PaymentFilter{Status: "Pending"})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, _, err = f.svc.List(context.Background(), PaymentFilter{Status: "refunded"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPaymentInstructions(t *testing.T) {
	f := newPaymentFixture(t)
	app := appAt(model.StatusPaymentPending)
	f.apps.On("FindByTrackingID", mock.Anything, app.TrackingID).Return(app, nil)

	ins, err := f.svc.Instructions(context.Background(), app.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, "campabeverages@upi", ins.UPIID)
	assert.Equal(t, "INR", ins.Currency)

	require.True(t, strings.HasPrefix(ins.UPIURI, "upi://pay?"))
	q, err := url.ParseQuery(strings.TrimPrefix(ins.UPIURI, "upi://pay?"))
	require.NoError(t, err)
	assert.Equal(t, "campabeverages@upi", q.Get("pa"))
	assert.Equal(t, "Campa Beverages", q.Get("pn"))
	assert.Equal(t, "25000.00", q.Get("am"))
	assert.Equal(t, "INR", q.Get("cu"))
	assert.Contains(t, q.Get("tn"), app.TrackingID)
}

func TestPaymentInstructions_NotOpen(t *testing.T) {
	f := newPaymentFixture(t)
	app := appAt(model.StatusUnderReview)
	f.apps.On("FindByTrackingID", mock.Anything, app.TrackingID).Return(app, nil)

	_, err := f.svc.Instructions(context.Background(), app.TrackingID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}
