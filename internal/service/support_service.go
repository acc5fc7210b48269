package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dealership/internal/model"
	"dealership/internal/repository"
	"dealership/internal/websocket"
	"dealership/pkg/pagination"
	"dealership/pkg/validation"

	"go.uber.org/zap"
)

type CreateSupportRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email,max=100"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required"`
}

type ResolveSupportRequest struct {
	IsResolved bool `json:"isResolved"`
}

type SupportFilter struct {
	Resolved *bool
	pagination.Params
}

type SupportService interface {
	Create(ctx context.Context, req CreateSupportRequest) (*model.SupportRequest, error)
	List(ctx context.Context, filter SupportFilter) ([]model.SupportRequest, int64, error)
	Get(ctx context.Context, id string) (*model.SupportRequest, error)
	Resolve(ctx context.Context, id string, req ResolveSupportRequest) (*model.SupportRequest, error)
}

type supportService struct {
	repo      repository.SupportRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	fx        Effects
	now       func() time.Time
}

func NewSupportService(
	repo repository.SupportRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	fx Effects,
) SupportService {
	return &supportService{repo: repo, auditRepo: auditRepo, txManager: txManager, fx: fx.withDefaults(), now: time.Now}
}

func (s *supportService) Create(ctx context.Context, req CreateSupportRequest) (*model.SupportRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	sr := &model.SupportRequest{
		Name:    req.Name,
		Email:   strings.ToLower(req.Email),
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := s.repo.Create(ctx, sr); err != nil {
		return nil, fmt.Errorf("failed to create support request: %w", err)
	}

	s.fx.Log.Info("support request received", zap.String("id", sr.ID.String()))
	s.fx.Publisher.Publish(websocket.EventSupportCreated, map[string]interface{}{
		"id":      sr.ID,
		"name":    sr.Name,
		"subject": sr.Subject,
	})
	return sr, nil
}

func (s *supportService) List(ctx context.Context, filter SupportFilter) ([]model.SupportRequest, int64, error) {
	params := pagination.New(filter.Page, filter.Limit)
	return s.repo.List(ctx, repository.SupportFilter{Resolved: filter.Resolved, Offset: params.Offset, Limit: params.Limit})
}

func (s *supportService) Get(ctx context.Context, id string) (*model.SupportRequest, error) {
	reqID, err := parseID(id, "support request")
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, reqID)
}

func (s *supportService) Resolve(ctx context.Context, id string, req ResolveSupportRequest) (*model.SupportRequest, error) {
	reqID, err := parseID(id, "support request")
	if err != nil {
		return nil, err
	}

	var sr *model.SupportRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		sr, err = s.repo.FindByID(txCtx, reqID)
		if err != nil {
			return err
		}
		sr.IsResolved = req.IsResolved
		if req.IsResolved {
			now := s.now()
			sr.ResolvedAt = &now
		} else {
			sr.ResolvedAt = nil
		}
		if err := s.repo.Update(txCtx, sr); err != nil {
			return fmt.Errorf("failed to update support request: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, model.ActionResolveSupport, sr.ID.String(), sr.Subject, map[string]interface{}{
			"isResolved": sr.IsResolved,
		})
	})
	if err != nil {
		return nil, err
	}
	return sr, nil
}
