package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"dealership/internal/metrics"
	"dealership/internal/model"
	"dealership/internal/repository"
	"dealership/internal/websocket"
	"dealership/internal/workflow"
	"dealership/pkg/apperror"
	"dealership/pkg/pagination"
	"dealership/pkg/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultDeclineNote = "Payment could not be verified"

// --- DTOs ---

type SubmitPaymentRequest struct {
	TrackingID    string          `json:"trackingId" binding:"required,max=20"`
	TransactionID string          `json:"transactionId" binding:"required,max=100"`
	UTRNumber     string          `json:"utrNumber" binding:"required,max=100"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod" binding:"omitempty,eq_ignore_case=upi"`
}

type ReviewPaymentRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type PaymentFilter struct {
	Status string
	pagination.Params
}

// PaymentInstructions tells the applicant where to send the fee.
type PaymentInstructions struct {
	TrackingID string          `json:"trackingId"`
	UPIID      string          `json:"upiId"`
	PayeeName  string          `json:"payeeName"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	UPIURI     string          `json:"upiUri"`
}

// PayeeConfig is the merchant the applicant pays.
type PayeeConfig struct {
	UPIID     string
	PayeeName string
}

// --- Interface ---

type PaymentService interface {
	Submit(ctx context.Context, req SubmitPaymentRequest) (*model.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]model.Payment, int64, error)
	ListByApplication(ctx context.Context, applicationID string) ([]model.Payment, error)
	Get(ctx context.Context, id string) (*model.Payment, error)
	Review(ctx context.Context, id string, req ReviewPaymentRequest) (*model.Payment, error)
	Instructions(ctx context.Context, trackingID string) (*PaymentInstructions, error)
}

type paymentService struct {
	payments  repository.PaymentRepository
	apps      repository.ApplicationRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	fx        Effects
	changer   *statusChanger
	payee     PayeeConfig
	now       func() time.Time
}

func NewPaymentService(
	payments repository.PaymentRepository,
	apps repository.ApplicationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	fx Effects,
	payee PayeeConfig,
) PaymentService {
	fx = fx.withDefaults()
	s := &paymentService{
		payments:  payments,
		apps:      apps,
		auditRepo: auditRepo,
		txManager: txManager,
		fx:        fx,
		payee:     payee,
		now:       time.Now,
	}
	s.changer = &statusChanger{apps: apps, fx: fx, now: func() time.Time { return s.now() }}
	return s
}

func (s *paymentService) Submit(ctx context.Context, req SubmitPaymentRequest) (*model.Payment, error) {
	req.TrackingID = NormalizeTrackingID(req.TrackingID)
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	req.UTRNumber = strings.TrimSpace(req.UTRNumber)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var payment model.Payment
	var updated model.Application
	var entry model.StatusHistory
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.apps.FindByTrackingID(txCtx, req.TrackingID)
		if err != nil {
			return err
		}
		app, err := s.apps.FindByIDForUpdate(txCtx, found.ID)
		if err != nil {
			return err
		}
		if app.Status != model.StatusPaymentPending {
			return apperror.Newf(apperror.CodeInvalidTransition, "payment cannot be submitted while application is %s", app.Status)
		}
		if !req.Amount.IsZero() && !req.Amount.Equal(app.PaymentAmount) {
			return apperror.Validation(map[string]string{
				"amount": "Amount must be " + app.PaymentAmount.StringFixed(2),
			})
		}
		pending, err := s.payments.HasPending(txCtx, app.ID)
		if err != nil {
			return fmt.Errorf("failed to check pending payments: %w", err)
		}
		if pending {
			return apperror.New(apperror.CodeConflict, "a payment for this application is already awaiting review")
		}

		updated, entry, err = s.changer.apply(txCtx, app, workflow.TriggerSubmitPayment, workflow.Payload{
			TransactionID: req.TransactionID,
			UTRNumber:     req.UTRNumber,
		})
		if err != nil {
			return err
		}

		payment = model.Payment{
			ApplicationID: app.ID,
			TrackingID:    app.TrackingID,
			TransactionID: req.TransactionID,
			UTRNumber:     req.UTRNumber,
			Amount:        app.PaymentAmount,
			Method:        model.PaymentMethodUPI,
			Status:        model.PaymentStatusPending,
		}
		if err := s.payments.Create(txCtx, &payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionSubmitPayment, payment.ID.String(), app.TrackingID, map[string]interface{}{
			"transactionId": payment.TransactionID,
			"utrNumber":     payment.UTRNumber,
			"amount":        payment.Amount,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentsSubmitted.Inc()
	s.changer.announce(ctx, updated, entry)
	s.fx.Publisher.Publish(websocket.EventPaymentSubmitted, map[string]interface{}{
		"paymentId":  payment.ID,
		"trackingId": payment.TrackingID,
		"amount":     payment.Amount,
	})
	return &payment, nil
}

func (s *paymentService) List(ctx context.Context, filter PaymentFilter) ([]model.Payment, int64, error) {
	status := strings.ToLower(strings.TrimSpace(filter.Status))
	switch status {
	case "", model.PaymentStatusPending, model.PaymentStatusCompleted, model.PaymentStatusFailed:
	default:
		return nil, 0, apperror.Validation(map[string]string{"status": "Unknown payment status"})
	}
	params := pagination.New(filter.Page, filter.Limit)
	return s.payments.List(ctx, repository.PaymentFilter{Status: status, Offset: params.Offset, Limit: params.Limit})
}

func (s *paymentService) ListByApplication(ctx context.Context, applicationID string) ([]model.Payment, error) {
	appID, err := parseID(applicationID, "application")
	if err != nil {
		return nil, err
	}
	return s.payments.ListByApplication(ctx, appID)
}

func (s *paymentService) Get(ctx context.Context, id string) (*model.Payment, error) {
	paymentID, err := parseID(id, "payment")
	if err != nil {
		return nil, err
	}
	return s.payments.FindByID(ctx, paymentID)
}

func (s *paymentService) Review(ctx context.Context, id string, req ReviewPaymentRequest) (*model.Payment, error) {
	paymentID, err := parseID(id, "payment")
	if err != nil {
		return nil, err
	}

	var trigger workflow.Trigger
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case model.PaymentStatusCompleted:
		trigger = workflow.TriggerConfirmPayment
	case model.PaymentStatusFailed:
		trigger = workflow.TriggerDeclinePayment
	default:
		return nil, apperror.Validation(map[string]string{"status": "Status must be completed or failed"})
	}
	note := strings.TrimSpace(req.Notes)
	if note == "" && trigger == workflow.TriggerDeclinePayment {
		note = defaultDeclineNote
	}

	var payment *model.Payment
	var updated model.Application
	var entry model.StatusHistory
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.payments.FindByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != model.PaymentStatusPending {
			return apperror.Newf(apperror.CodeConflict, "payment has already been reviewed as %s", payment.Status)
		}
		app, err := s.apps.FindByIDForUpdate(txCtx, payment.ApplicationID)
		if err != nil {
			return err
		}

		actor := actorFrom(txCtx)
		updated, entry, err = s.changer.apply(txCtx, app, trigger, workflow.Payload{Note: note, Actor: actor})
		if err != nil {
			return err
		}

		reviewedAt := s.now()
		payment.Status = status
		payment.ReviewedBy = actor
		payment.ReviewedAt = &reviewedAt
		if err := s.payments.Update(txCtx, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionReviewPayment, payment.ID.String(), app.TrackingID, map[string]interface{}{
			"status": status,
			"notes":  note,
		})
	})
	if err != nil {
		return nil, err
	}

	s.changer.announce(ctx, updated, entry)
	s.fx.Publisher.Publish(websocket.EventPaymentReviewed, map[string]interface{}{
		"paymentId":  payment.ID,
		"trackingId": payment.TrackingID,
		"status":     payment.Status,
	})
	s.fx.Log.Info("payment reviewed", zap.String("payment_id", payment.ID.String()), zap.String("status", status))
	return payment, nil
}

func (s *paymentService) Instructions(ctx context.Context, trackingID string) (*PaymentInstructions, error) {
	app, err := s.apps.FindByTrackingID(ctx, NormalizeTrackingID(trackingID))
	if err != nil {
		return nil, err
	}
	if app.Status != model.StatusPaymentPending {
		return nil, apperror.Newf(apperror.CodeInvalidTransition, "payment is not open while application is %s", app.Status)
	}
	return &PaymentInstructions{
		TrackingID: app.TrackingID,
		UPIID:      s.payee.UPIID,
		PayeeName:  s.payee.PayeeName,
		Amount:     app.PaymentAmount,
		Currency:   "INR",
		UPIURI:     upiURI(s.payee, app.PaymentAmount, app.TrackingID),
	}, nil
}

// upiURI builds the deep link encoded in the payment QR code.
func upiURI(payee PayeeConfig, amount decimal.Decimal, trackingID string) string {
	q := url.Values{}
	q.Set("pa", payee.UPIID)
	q.Set("pn", payee.PayeeName)
	q.Set("am", amount.StringFixed(2))
	q.Set("cu", "INR")
	q.Set("tn", "Dealership fee "+trackingID)
	return "upi://pay?" + q.Encode()
}
