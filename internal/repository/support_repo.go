package repository

import (
	"context"
	"fmt"

	"dealership/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupportFilter struct {
	Resolved *bool
	Offset   int
	Limit    int
}

type SupportRepository interface {
	Create(ctx context.Context, req *model.SupportRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SupportRequest, error)
	List(ctx context.Context, filter SupportFilter) ([]model.SupportRequest, int64, error)
	Update(ctx context.Context, req *model.SupportRequest) error
}

type supportRepository struct {
	db *gorm.DB
}

func NewSupportRepository(db *gorm.DB) SupportRepository {
	return &supportRepository{db: db}
}

func (r *supportRepository) Create(ctx context.Context, req *model.SupportRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *supportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SupportRequest, error) {
	var req model.SupportRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "support request")
	}
	return &req, nil
}

func (r *supportRepository) List(ctx context.Context, filter SupportFilter) ([]model.SupportRequest, int64, error) {
	var reqs []model.SupportRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.SupportRequest{})
	if filter.Resolved != nil {
		query = query.Where("is_resolved = ?", *filter.Resolved)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count support requests: %w", err)
	}
	if err := query.Order("created_at desc").Offset(filter.Offset).Limit(filter.Limit).Find(&reqs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list support requests: %w", err)
	}
	return reqs, total, nil
}

func (r *supportRepository) Update(ctx context.Context, req *model.SupportRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}
