package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dealership/internal/metrics"
	"dealership/internal/model"
	"dealership/internal/repository"
	"dealership/internal/websocket"
	"dealership/internal/wizard"
	"dealership/internal/workflow"
	"dealership/pkg/apperror"
	"dealership/pkg/pagination"
	"dealership/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const trackingIDAttempts = 5

// --- DTOs ---

type ApplicationFilter struct {
	Status string
	Search string
	pagination.Params
}

type UpdateStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	Notes           string `json:"notes"`
	RejectionReason string `json:"rejectionReason"`
	AdminNotes      string `json:"adminNotes"`
}

type SupplyInfoRequest struct {
	Information string `json:"information" binding:"required"`
}

// TrackingResponse is the public view of an application.
type TrackingResponse struct {
	*model.Application
	Progress workflow.Progress `json:"progress"`
}

// --- Interface ---

type ApplicationService interface {
	Submit(ctx context.Context, values wizard.Values) (*model.Application, error)
	Track(ctx context.Context, trackingID string) (*TrackingResponse, error)
	Get(ctx context.Context, id string) (*TrackingResponse, error)
	List(ctx context.Context, filter ApplicationFilter) ([]model.Application, int64, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*model.Application, error)
	SupplyInfo(ctx context.Context, trackingID string, req SupplyInfoRequest) (*TrackingResponse, error)
}

type applicationService struct {
	apps          repository.ApplicationRepository
	payments      repository.PaymentRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	fx            Effects
	changer       *statusChanger
	defaultAmount decimal.Decimal
	form          wizard.Form
	now           func() time.Time
	newTrackingID func() string
}

func NewApplicationService(
	apps repository.ApplicationRepository,
	payments repository.PaymentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	fx Effects,
	defaultAmount decimal.Decimal,
) ApplicationService {
	fx = fx.withDefaults()
	s := &applicationService{
		apps:          apps,
		payments:      payments,
		auditRepo:     auditRepo,
		txManager:     txManager,
		fx:            fx,
		defaultAmount: defaultAmount,
		form:          wizard.ApplicationForm(),
		now:           time.Now,
		newTrackingID: NewTrackingID,
	}
	s.changer = &statusChanger{apps: apps, fx: fx, now: func() time.Time { return s.now() }}
	return s
}

// NewTrackingID returns a fresh public token such as DLR-8F3A2C1D.
func NewTrackingID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "DLR-" + strings.ToUpper(raw[:8])
}

// NormalizeTrackingID trims and upper-cases user input.
func NormalizeTrackingID(trackingID string) string {
	return strings.ToUpper(strings.TrimSpace(trackingID))
}

// ValuesFromPayload flattens a decoded JSON object into form values. Numbers
// are rendered without exponent so "5" and 5 validate the same way.
func ValuesFromPayload(payload map[string]interface{}) wizard.Values {
	values := wizard.Values{}
	for k, v := range payload {
		switch t := v.(type) {
		case nil:
		case string:
			values[k] = t
		case float64:
			values[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			values[k] = strconv.FormatBool(t)
		default:
			values[k] = fmt.Sprint(t)
		}
	}
	return values
}

// buildApplication maps validated form values onto a new application.
func buildApplication(v wizard.Values) (model.Application, error) {
	get := func(name string) string { return strings.TrimSpace(v[name]) }
	years, err := strconv.Atoi(get(wizard.FieldYearsInBusiness))
	if err != nil {
		return model.Application{}, apperror.Validation(map[string]string{
			wizard.FieldYearsInBusiness: "Years in business must be a whole number",
		})
	}
	sales := decimal.Zero
	if raw := get(wizard.FieldExpectedMonthlySales); raw != "" {
		if sales, err = decimal.NewFromString(raw); err != nil {
			return model.Application{}, apperror.Validation(map[string]string{
				wizard.FieldExpectedMonthlySales: "Expected monthly sales must be a positive number",
			})
		}
	}
	return model.Application{
		FirstName:            get(wizard.FieldFirstName),
		LastName:             get(wizard.FieldLastName),
		Email:                strings.ToLower(get(wizard.FieldEmail)),
		Phone:                get(wizard.FieldPhone),
		BusinessName:         get(wizard.FieldBusinessName),
		BusinessType:         get(wizard.FieldBusinessType),
		GSTNumber:            get(wizard.FieldGSTNumber),
		PANNumber:            get(wizard.FieldPANNumber),
		YearsInBusiness:      years,
		Address:              get(wizard.FieldAddress),
		City:                 get(wizard.FieldCity),
		State:                get(wizard.FieldState),
		Pincode:              get(wizard.FieldPincode),
		Area:                 get(wizard.FieldArea),
		InvestmentCapacity:   get(wizard.FieldInvestmentCapacity),
		ExistingBusiness:     get(wizard.FieldExistingBusiness),
		ReasonForInterest:    get(wizard.FieldReasonForInterest),
		ExpectedMonthlySales: sales,
	}, nil
}

func (s *applicationService) uniqueTrackingID(ctx context.Context) (string, error) {
	for i := 0; i < trackingIDAttempts; i++ {
		id := s.newTrackingID()
		exists, err := s.apps.TrackingIDExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check tracking id: %w", err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", apperror.New(apperror.CodeConflict, "could not allocate a unique tracking id")
}

func (s *applicationService) Submit(ctx context.Context, values wizard.Values) (*model.Application, error) {
	if errs := s.form.ValidateAll(values); len(errs) > 0 {
		return nil, apperror.Validation(errs)
	}

	app, err := buildApplication(values)
	if err != nil {
		return nil, err
	}
	trackingID, err := s.uniqueTrackingID(ctx)
	if err != nil {
		return nil, err
	}

	app.ID = uuid.New()
	app.TrackingID = trackingID
	app.PaymentAmount = s.defaultAmount
	app = workflow.NewApplication(app, s.now())

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.apps.Create(txCtx, &app); err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionSubmitApplication, app.ID.String(), app.TrackingID, map[string]interface{}{
			"businessName": app.BusinessName,
			"email":        app.Email,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationsSubmitted.Inc()
	s.fx.Log.Info("application submitted", zap.String("tracking_id", app.TrackingID))
	s.fx.Publisher.Publish(websocket.EventApplicationSubmitted, map[string]interface{}{
		"applicationId": app.ID,
		"trackingId":    app.TrackingID,
		"businessName":  app.BusinessName,
	})
	return &app, nil
}

func tracking(app *model.Application) *TrackingResponse {
	return &TrackingResponse{Application: app, Progress: workflow.ProgressOf(app.Status)}
}

// publicTracking is the applicant's view: back-office notes are left out.
func publicTracking(app *model.Application) *TrackingResponse {
	view := *app
	view.AdminNotes = ""
	return tracking(&view)
}

func (s *applicationService) Track(ctx context.Context, trackingID string) (*TrackingResponse, error) {
	trackingID = NormalizeTrackingID(trackingID)
	if trackingID == "" {
		return nil, apperror.NotFound("application")
	}

	cached, err := s.fx.Cache.Get(ctx, trackingID)
	if err != nil {
		s.fx.Log.Warn("tracking cache read failed", zap.Error(err))
	}
	if cached != nil {
		return publicTracking(cached), nil
	}

	app, err := s.apps.FindByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if err := s.fx.Cache.Set(ctx, app); err != nil {
		s.fx.Log.Warn("tracking cache write failed", zap.Error(err))
	}
	return publicTracking(app), nil
}

func (s *applicationService) Get(ctx context.Context, id string) (*TrackingResponse, error) {
	appID, err := parseID(id, "application")
	if err != nil {
		return nil, err
	}
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	return tracking(app), nil
}

func (s *applicationService) List(ctx context.Context, filter ApplicationFilter) ([]model.Application, int64, error) {
	status := model.Status(strings.ToUpper(filter.Status))
	if status != "" && !status.Valid() {
		return nil, 0, apperror.Validation(map[string]string{"status": "Unknown status"})
	}
	params := pagination.New(filter.Page, filter.Limit)
	return s.apps.List(ctx, repository.ApplicationFilter{
		Status: status,
		Search: strings.TrimSpace(filter.Search),
		Offset: params.Offset,
		Limit:  params.Limit,
	})
}

func (s *applicationService) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*model.Application, error) {
	appID, err := parseID(id, "application")
	if err != nil {
		return nil, err
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	values := wizard.Values{
		wizard.FieldStatus:          req.Status,
		wizard.FieldNotes:           req.Notes,
		wizard.FieldRejectionReason: req.RejectionReason,
	}
	if errs := wizard.StatusForm().ValidateAll(values); len(errs) > 0 {
		return nil, apperror.Validation(errs)
	}
	target := model.Status(req.Status)

	var updated model.Application
	var entry model.StatusHistory
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		app, err := s.apps.FindByIDForUpdate(txCtx, appID)
		if err != nil {
			return err
		}
		trigger, err := workflow.TriggerFor(app.Status, target)
		if err != nil {
			return err
		}
		if trigger == workflow.TriggerConfirmPayment {
			pending, err := s.payments.HasPending(txCtx, app.ID)
			if err != nil {
				return fmt.Errorf("failed to check pending payments: %w", err)
			}
			if pending {
				return apperror.New(apperror.CodeMissingPrecondition, "a submitted payment is awaiting review; confirm it from the payments screen")
			}
		}
		if req.AdminNotes != "" {
			app.AdminNotes = req.AdminNotes
		}

		updated, entry, err = s.changer.apply(txCtx, app, trigger, workflow.Payload{
			Note:   strings.TrimSpace(req.Notes),
			Reason: req.RejectionReason,
			Actor:  actorFrom(txCtx),
		})
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionChangeStatus, app.ID.String(), app.TrackingID, map[string]interface{}{
			"from":    entry.FromStatus,
			"to":      entry.Status,
			"trigger": entry.Trigger,
			"notes":   entry.Note,
		})
	})
	if err != nil {
		return nil, err
	}

	s.changer.announce(ctx, updated, entry)
	return &updated, nil
}

func (s *applicationService) SupplyInfo(ctx context.Context, trackingID string, req SupplyInfoRequest) (*TrackingResponse, error) {
	trackingID = NormalizeTrackingID(trackingID)
	req.Information = strings.TrimSpace(req.Information)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var updated model.Application
	var entry model.StatusHistory
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.apps.FindByTrackingID(txCtx, trackingID)
		if err != nil {
			return err
		}
		app, err := s.apps.FindByIDForUpdate(txCtx, found.ID)
		if err != nil {
			return err
		}
		updated, entry, err = s.changer.apply(txCtx, app, workflow.TriggerSupplyInfo, workflow.Payload{
			Note: strings.TrimSpace(req.Information),
		})
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionSupplyInfo, app.ID.String(), app.TrackingID, map[string]interface{}{
			"information": entry.Note,
		})
	})
	if err != nil {
		return nil, err
	}

	s.changer.announce(ctx, updated, entry)
	return publicTracking(&updated), nil
}
