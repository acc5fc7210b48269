package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"dealership/internal/model"
	"dealership/internal/repository"
	"dealership/internal/storage"
	"dealership/pkg/apperror"
	"dealership/pkg/pagination"

	"go.uber.org/zap"
)

type GenerateLetterRequest struct {
	ApplicationID string `json:"applicationId" binding:"required"`
}

type ApprovalLetterService interface {
	Generate(ctx context.Context, applicationID string) (*model.ApprovalLetter, error)
	Get(ctx context.Context, applicationID string) (*model.ApprovalLetter, error)
	List(ctx context.Context, params pagination.Params) ([]model.ApprovalLetter, int64, error)
}

type approvalLetterService struct {
	letters   repository.ApprovalLetterRepository
	apps      repository.ApplicationRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	store     storage.LetterStore
	fx        Effects
	now       func() time.Time
}

func NewApprovalLetterService(
	letters repository.ApprovalLetterRepository,
	apps repository.ApplicationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	store storage.LetterStore,
	fx Effects,
) ApprovalLetterService {
	return &approvalLetterService{
		letters:   letters,
		apps:      apps,
		auditRepo: auditRepo,
		txManager: txManager,
		store:     store,
		fx:        fx.withDefaults(),
		now:       time.Now,
	}
}

var letterTemplate = template.Must(template.New("letter").Parse(`DEALERSHIP APPROVAL LETTER

Date: {{.Date}}
Dealership ID: {{.DealershipID}}
Reference: {{.App.TrackingID}}

Dear {{.App.FirstName}} {{.App.LastName}},

We are pleased to inform you that your application for a dealership of
{{.App.BusinessName}} ({{.App.BusinessType}}) in {{.App.Area}}, {{.App.City}}, {{.App.State}}
has been approved.

The dealership fee of INR {{.Fee}} is payable as described on your tracking
page. Please quote your dealership ID in all future correspondence.

Regards,
Dealer Onboarding Team
`))

// onApprovedTrack reports whether a letter may be issued for status.
func onApprovedTrack(status model.Status) bool {
	switch status {
	case model.StatusApproved, model.StatusPaymentPending, model.StatusPaymentVerified:
		return true
	}
	return false
}

// DealershipID derives the permanent dealer code from a tracking id.
func DealershipID(trackingID string) string {
	return "DEALER-" + strings.TrimPrefix(trackingID, "DLR-")
}

func renderLetter(app *model.Application, dealershipID string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := letterTemplate.Execute(&buf, map[string]interface{}{
		"App":          app,
		"DealershipID": dealershipID,
		"Date":         now.Format("02 January 2006"),
		"Fee":          app.PaymentAmount.StringFixed(2),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render approval letter: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *approvalLetterService) Generate(ctx context.Context, applicationID string) (*model.ApprovalLetter, error) {
	appID, err := parseID(applicationID, "application")
	if err != nil {
		return nil, err
	}

	var letter model.ApprovalLetter
	var trackingID string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		app, err := s.apps.FindByIDForUpdate(txCtx, appID)
		if err != nil {
			return err
		}
		if !onApprovedTrack(app.Status) {
			return apperror.Newf(apperror.CodeMissingPrecondition, "approval letter requires an approved application, current status is %s", app.Status)
		}
		exists, err := s.letters.ExistsForApplication(txCtx, app.ID)
		if err != nil {
			return fmt.Errorf("failed to check approval letter: %w", err)
		}
		if exists {
			return apperror.New(apperror.CodeConflict, "an approval letter already exists for this application")
		}

		trackingID = app.TrackingID
		dealershipID := DealershipID(app.TrackingID)
		body, err := renderLetter(app, dealershipID, s.now())
		if err != nil {
			return err
		}
		location, err := s.store.Put(txCtx, "approvals/"+app.TrackingID+"-approval.txt", body)
		if err != nil {
			return fmt.Errorf("failed to store approval letter: %w", err)
		}

		letter = model.ApprovalLetter{ApplicationID: app.ID, DealershipID: dealershipID, FilePath: location}
		if err := s.letters.Create(txCtx, &letter); err != nil {
			return fmt.Errorf("failed to save approval letter: %w", err)
		}
		app.ApprovalLetterURL = location
		if err := s.apps.Update(txCtx, app); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionGenerateLetter, app.ID.String(), app.TrackingID, map[string]interface{}{
			"dealershipId": dealershipID,
			"filePath":     location,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.fx.Cache.Invalidate(ctx, trackingID); err != nil {
		s.fx.Log.Warn("tracking cache invalidation failed", zap.Error(err))
	}
	s.fx.Log.Info("approval letter generated", zap.String("tracking_id", trackingID), zap.String("location", letter.FilePath))
	return &letter, nil
}

func (s *approvalLetterService) Get(ctx context.Context, applicationID string) (*model.ApprovalLetter, error) {
	appID, err := parseID(applicationID, "approval letter")
	if err != nil {
		return nil, err
	}
	return s.letters.FindByApplicationID(ctx, appID)
}

func (s *approvalLetterService) List(ctx context.Context, params pagination.Params) ([]model.ApprovalLetter, int64, error) {
	return s.letters.List(ctx, params.Offset, params.Limit)
}
