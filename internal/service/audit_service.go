package service

import (
	"context"
	"time"

	"dealership/internal/repository"
	"dealership/pkg/pagination"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Action     string `json:"action"`
	EntityID   string `json:"entityId"`
	EntityName string `json:"entityName"`
	Details    string `json:"details"`
	CreatedAt  string `json:"createdAt"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, entityID string, params pagination.Params) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns one page of the audit trail, newest first. Public
// actions are attributed to "Applicant".
func (s *auditService) GetAuditLogs(ctx context.Context, entityID string, params pagination.Params) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, entityID, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		name := "Applicant"
		userID := ""
		if l.User != nil {
			name = l.User.Name
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserName:   name,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		})
	}

	return res, total, nil
}
